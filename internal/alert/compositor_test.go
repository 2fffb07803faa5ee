package alert

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whlops/port-weather-bot/internal/entities"
)

func assessment(code string, level entities.RiskLevel, wind float64) entities.RiskAssessment {
	ts := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	return entities.RiskAssessment{
		PortCode:    code,
		PortName:    "Port " + code,
		Country:     "Taiwan",
		Level:       level,
		RiskFactors: []string{fmt.Sprintf("Wind %.1f kts (BFT 9)", wind)},
		MaxWindKts:  wind,
		MaxWindBft:  9,
		MaxWindTime: ts,
		MaxGustKts:  wind + 10,
		MaxGustBft:  10,
		MaxGustTime: ts,
		MaxWaveM:    3.0,
		RiskPeriods: []entities.RiskPeriod{
			{WeatherRecord: entities.WeatherRecord{Time: ts, WindSpeedKts: wind}, Level: level},
		},
		IssuedTime: "2026/01/15_06:00",
	}
}

// cardText flattens the payload to one string for substring assertions.
func cardText(t *testing.T, payload map[string]any) string {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return string(data)
}

func TestComposeAllClear(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 15, 6, 30, 0, 0, time.UTC))
	c := NewCompositor(clock)

	text := cardText(t, c.Compose(nil))
	assert.Contains(t, text, "All monitored ports are in a safe state")
	assert.Contains(t, text, "2026-01-15 06:30")
	assert.NotContains(t, text, "Risk Alert")
}

func TestComposeSeveritySections(t *testing.T) {
	c := NewCompositor(clockwork.NewFakeClock())

	payload := c.Compose([]entities.RiskAssessment{
		assessment("AAAAA", entities.RiskCaution, 26),
		assessment("BBBBB", entities.RiskDanger, 45),
		assessment("CCCCC", entities.RiskWarning, 32),
	})

	text := cardText(t, payload)
	assert.Contains(t, text, "Danger: 1 ports")
	assert.Contains(t, text, "Warning: 1 ports")
	assert.Contains(t, text, "Caution: 1 ports")

	// Danger section precedes warning, which precedes caution.
	dangerIdx := strings.Index(text, "Danger Level Ports")
	warningIdx := strings.Index(text, "Warning Level Ports")
	cautionIdx := strings.Index(text, "Caution Level Ports")
	require.NotEqual(t, -1, dangerIdx)
	require.NotEqual(t, -1, warningIdx)
	require.NotEqual(t, -1, cautionIdx)
	assert.Less(t, dangerIdx, warningIdx)
	assert.Less(t, warningIdx, cautionIdx)
}

func TestComposeTruncatesAtDisplayCap(t *testing.T) {
	c := NewCompositor(clockwork.NewFakeClock())

	var input []entities.RiskAssessment
	for i := 0; i < 25; i++ {
		input = append(input, assessment(fmt.Sprintf("PT%03d", i), entities.RiskDanger, float64(40+i)))
	}

	text := cardText(t, c.Compose(input))
	assert.Contains(t, text, "... and 5 more Danger level ports")

	// The strongest wind port is listed, the weakest five are cut.
	assert.Contains(t, text, "PT024")
	assert.NotContains(t, text, "PT004")
	assert.NotContains(t, text, "PT000")
}

func TestComposeNoTruncationMarkerUnderCap(t *testing.T) {
	c := NewCompositor(clockwork.NewFakeClock())

	var input []entities.RiskAssessment
	for i := 0; i < DisplayCap; i++ {
		input = append(input, assessment(fmt.Sprintf("PT%03d", i), entities.RiskWarning, float64(30+i)))
	}

	text := cardText(t, c.Compose(input))
	assert.NotContains(t, text, "more Warning level ports")
}

func TestComposeSortsBucketsByWindDescending(t *testing.T) {
	c := NewCompositor(clockwork.NewFakeClock())

	text := cardText(t, c.Compose([]entities.RiskAssessment{
		assessment("LOWWW", entities.RiskDanger, 41),
		assessment("HIGHH", entities.RiskDanger, 55),
	}))

	assert.Less(t, strings.Index(text, "HIGHH"), strings.Index(text, "LOWWW"))
}

func TestComposePortDetails(t *testing.T) {
	c := NewCompositor(clockwork.NewFakeClock())

	a := assessment("KHHSG", entities.RiskDanger, 45)
	text := cardText(t, c.Compose([]entities.RiskAssessment{a}))

	assert.Contains(t, text, "Port KHHSG")
	assert.Contains(t, text, "Taiwan")
	assert.Contains(t, text, "45.0 kts")
	assert.Contains(t, text, "2026-01-15 12:00")
	assert.Contains(t, text, "Wind 45.0 kts (BFT 9)")
	assert.Contains(t, text, "1 risk periods")
}
