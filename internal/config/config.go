// Package config loads service settings from environment variables
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/whlops/port-weather-bot/internal/risk"
)

// Config holds all service settings, populated from environment variables
// with sensible defaults.
type Config struct {
	// WNI account credentials used by the login service.
	Username string
	Password string

	// Endpoints.
	BaseURL  string
	LoginURL string

	// Teams webhook for the composed alert. Optional: when empty the run
	// still completes and the report records the notification as not sent.
	WebhookURL string

	// Local files.
	RegistryPath string
	DBPath       string
	CookiePath   string
	ReportsDir   string

	// Timeouts and freshness.
	HTTPTimeout  time.Duration
	ProbeTimeout time.Duration
	CookieExpiry time.Duration

	// Scheduling and observability.
	CronSpec    string
	MetricsAddr string

	// Telegram bot token, only needed by cmd/bot.
	TelegramToken string

	// Thresholds is the risk table handed to the classifier. Defaults match
	// the operational table and each entry can be tuned per deployment.
	Thresholds risk.Thresholds
}

const defaultLoginURL = "https://idp.aedyn.wni.com/auth/realms/aedyn/protocol/openid-connect/auth" +
	"?response_type=id_token%20token&scope=openid&client_id=aedyn" +
	"&redirect_uri=https%3A%2F%2Faedyn.weathernews.com%2Fhttpd-auth%2Fredirect_uri"

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	// Optional; absence of a .env file is the normal production case.
	_ = godotenv.Load()

	cookieExpiry, err := parseHours("COOKIE_EXPIRY_HOURS", 24)
	if err != nil {
		return nil, err
	}
	httpTimeout, err := parseDurationEnv("HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	probeTimeout, err := parseDurationEnv("PROBE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	thresholds, err := loadThresholds()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Username:      os.Getenv("AEDYN_USERNAME"),
		Password:      os.Getenv("AEDYN_PASSWORD"),
		BaseURL:       envOrDefault("AEDYN_BASE_URL", "https://aedyn.weathernews.com"),
		LoginURL:      envOrDefault("AEDYN_LOGIN_URL", defaultLoginURL),
		WebhookURL:    os.Getenv("TEAMS_WEBHOOK_URL"),
		RegistryPath:  envOrDefault("EXCEL_FILE_PATH", "WHL_all_ports_list.xlsx"),
		DBPath:        envOrDefault("DB_FILE_PATH", ""),
		CookiePath:    envOrDefault("COOKIE_FILE_PATH", "aedyn_cookies.json"),
		ReportsDir:    envOrDefault("REPORTS_DIR", "reports"),
		HTTPTimeout:   httpTimeout,
		ProbeTimeout:  probeTimeout,
		CookieExpiry:  cookieExpiry,
		CronSpec:      envOrDefault("MONITOR_CRON", "0 6 * * *"),
		MetricsAddr:   envOrDefault("METRICS_ADDR", ":9180"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		Thresholds:    thresholds,
	}

	return cfg, nil
}

// ValidateForMonitoring checks the settings a monitoring run cannot proceed
// without. The webhook is deliberately not required: a run without it still
// fetches, classifies, and persists its report.
func (c *Config) ValidateForMonitoring() error {
	if c.Username == "" || c.Password == "" {
		return errors.New("AEDYN_USERNAME and AEDYN_PASSWORD must be set")
	}
	if c.RegistryPath == "" {
		return errors.New("EXCEL_FILE_PATH must be set")
	}
	return nil
}

func loadThresholds() (risk.Thresholds, error) {
	t := risk.DefaultThresholds()
	overrides := []struct {
		env string
		dst *float64
	}{
		{"RISK_WIND_CAUTION", &t.WindCaution},
		{"RISK_WIND_WARNING", &t.WindWarning},
		{"RISK_WIND_DANGER", &t.WindDanger},
		{"RISK_GUST_CAUTION", &t.GustCaution},
		{"RISK_GUST_WARNING", &t.GustWarning},
		{"RISK_GUST_DANGER", &t.GustDanger},
		{"RISK_WAVE_CAUTION", &t.WaveCaution},
		{"RISK_WAVE_WARNING", &t.WaveWarning},
		{"RISK_WAVE_DANGER", &t.WaveDanger},
	}
	for _, o := range overrides {
		s := os.Getenv(o.env)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			return t, fmt.Errorf("invalid %s: %q", o.env, s)
		}
		*o.dst = v
	}
	return t, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseHours(key string, fallback int) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return time.Duration(fallback) * time.Hour, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return time.Duration(n) * time.Hour, nil
}
