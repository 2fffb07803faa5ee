package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://aedyn.weathernews.com", cfg.BaseURL)
	assert.Equal(t, "aedyn_cookies.json", cfg.CookiePath)
	assert.Equal(t, "reports", cfg.ReportsDir)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 10*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, 24*time.Hour, cfg.CookieExpiry)
	assert.Equal(t, "0 6 * * *", cfg.CronSpec)
	assert.Equal(t, ":9180", cfg.MetricsAddr)
	assert.Equal(t, 40.0, cfg.Thresholds.WindDanger)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AEDYN_BASE_URL", "https://staging.example.com")
	t.Setenv("HTTP_TIMEOUT", "45s")
	t.Setenv("COOKIE_EXPIRY_HOURS", "12")
	t.Setenv("RISK_WIND_DANGER", "35")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://staging.example.com", cfg.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 12*time.Hour, cfg.CookieExpiry)
	assert.Equal(t, 35.0, cfg.Thresholds.WindDanger)
	assert.Equal(t, 30.0, cfg.Thresholds.WindWarning, "untouched thresholds keep their defaults")
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("COOKIE_EXPIRY_HOURS", "zero")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsNegativeThreshold(t *testing.T) {
	t.Setenv("RISK_WAVE_DANGER", "-1")
	_, err := Load()
	require.Error(t, err)
}

func TestValidateForMonitoring(t *testing.T) {
	cfg := &Config{Username: "u", Password: "p", RegistryPath: "ports.xlsx"}
	assert.NoError(t, cfg.ValidateForMonitoring())

	missing := &Config{RegistryPath: "ports.xlsx"}
	assert.Error(t, missing.ValidateForMonitoring())

	noRegistry := &Config{Username: "u", Password: "p"}
	assert.Error(t, noRegistry.ValidateForMonitoring())
}
