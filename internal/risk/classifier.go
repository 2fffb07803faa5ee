package risk

import (
	"fmt"

	"github.com/whlops/port-weather-bot/internal/entities"
)

// Thresholds is the immutable per-metric ladder the classifier evaluates
// against. Values are knots for wind and gust, meters for wave height.
type Thresholds struct {
	WindCaution float64
	WindWarning float64
	WindDanger  float64
	GustCaution float64
	GustWarning float64
	GustDanger  float64
	WaveCaution float64
	WaveWarning float64
	WaveDanger  float64
}

// DefaultThresholds returns the operational threshold table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WindCaution: 25,
		WindWarning: 30,
		WindDanger:  40,
		GustCaution: 35,
		GustWarning: 40,
		GustDanger:  50,
		WaveCaution: 2.0,
		WaveWarning: 2.5,
		WaveDanger:  4.0,
	}
}

// Classifier reduces a port's ordered weather record sequence into a risk
// assessment. It is a pure function of its input plus the threshold table.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier creates a classifier with the given threshold table.
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{thresholds: t}
}

// ClassifyRecord evaluates wind, gust, and wave independently against their
// three-tier ladders. Each metric is checked danger first, then warning,
// then caution - the first match from the top wins for that metric and
// produces one reason string. The record's level is the maximum across the
// three metrics.
func (c *Classifier) ClassifyRecord(r entities.WeatherRecord) (entities.RiskLevel, []string) {
	level := entities.RiskSafe
	var reasons []string

	switch {
	case r.WindSpeedKts >= c.thresholds.WindDanger:
		reasons = append(reasons, fmt.Sprintf("Wind danger: %.1f kts (BFT %d)", r.WindSpeedKts, r.WindSpeedBft))
		level = maxLevel(level, entities.RiskDanger)
	case r.WindSpeedKts >= c.thresholds.WindWarning:
		reasons = append(reasons, fmt.Sprintf("Wind warning: %.1f kts (BFT %d)", r.WindSpeedKts, r.WindSpeedBft))
		level = maxLevel(level, entities.RiskWarning)
	case r.WindSpeedKts >= c.thresholds.WindCaution:
		reasons = append(reasons, fmt.Sprintf("Wind caution: %.1f kts (BFT %d)", r.WindSpeedKts, r.WindSpeedBft))
		level = maxLevel(level, entities.RiskCaution)
	}

	switch {
	case r.WindGustKts >= c.thresholds.GustDanger:
		reasons = append(reasons, fmt.Sprintf("Gust danger: %.1f kts (BFT %d)", r.WindGustKts, r.WindGustBft))
		level = maxLevel(level, entities.RiskDanger)
	case r.WindGustKts >= c.thresholds.GustWarning:
		reasons = append(reasons, fmt.Sprintf("Gust warning: %.1f kts (BFT %d)", r.WindGustKts, r.WindGustBft))
		level = maxLevel(level, entities.RiskWarning)
	case r.WindGustKts >= c.thresholds.GustCaution:
		reasons = append(reasons, fmt.Sprintf("Gust caution: %.1f kts (BFT %d)", r.WindGustKts, r.WindGustBft))
		level = maxLevel(level, entities.RiskCaution)
	}

	switch {
	case r.WaveHeightM >= c.thresholds.WaveDanger:
		reasons = append(reasons, fmt.Sprintf("Wave danger: %.1f m", r.WaveHeightM))
		level = maxLevel(level, entities.RiskDanger)
	case r.WaveHeightM >= c.thresholds.WaveWarning:
		reasons = append(reasons, fmt.Sprintf("Wave warning: %.1f m", r.WaveHeightM))
		level = maxLevel(level, entities.RiskWarning)
	case r.WaveHeightM >= c.thresholds.WaveCaution:
		reasons = append(reasons, fmt.Sprintf("Wave caution: %.1f m", r.WaveHeightM))
		level = maxLevel(level, entities.RiskCaution)
	}

	return level, reasons
}

// AnalyzePort classifies every record of a port and aggregates the result.
// Returns nil when every record is Safe: an all-safe port yields no
// assessment at all, and the caller must not synthesize a level-0 one.
func (c *Classifier) AnalyzePort(port entities.Port, records []entities.WeatherRecord, issuedTime string) *entities.RiskAssessment {
	if len(records) == 0 {
		return nil
	}

	// Extremal wind and gust are tracked over the whole sequence, not just
	// the risk periods, so their timestamps can fall outside the windows
	// that drove the overall level.
	maxWind := records[0]
	maxGust := records[0]
	maxWave := records[0].WaveHeightM

	portLevel := entities.RiskSafe
	var periods []entities.RiskPeriod

	for _, r := range records {
		if r.WindSpeedKts > maxWind.WindSpeedKts {
			maxWind = r
		}
		if r.WindGustKts > maxGust.WindGustKts {
			maxGust = r
		}
		if r.WaveHeightM > maxWave {
			maxWave = r.WaveHeightM
		}

		level, reasons := c.ClassifyRecord(r)
		if level > entities.RiskSafe {
			periods = append(periods, entities.RiskPeriod{
				WeatherRecord: r,
				Level:         level,
				Reasons:       reasons,
			})
			portLevel = maxLevel(portLevel, level)
		}
	}

	if portLevel == entities.RiskSafe {
		return nil
	}

	// Risk factor strings are only emitted for metrics whose extremal value
	// individually clears the caution threshold, even though the port level
	// may have been driven by a different record's combination.
	var factors []string
	if maxWind.WindSpeedKts >= c.thresholds.WindCaution {
		factors = append(factors, fmt.Sprintf("Wind %.1f kts (BFT %d)", maxWind.WindSpeedKts, maxWind.WindSpeedBft))
	}
	if maxGust.WindGustKts >= c.thresholds.GustCaution {
		factors = append(factors, fmt.Sprintf("Gust %.1f kts (BFT %d)", maxGust.WindGustKts, maxGust.WindGustBft))
	}
	if maxWave >= c.thresholds.WaveCaution {
		factors = append(factors, fmt.Sprintf("Wave %.1f m", maxWave))
	}

	return &entities.RiskAssessment{
		PortCode:    port.Code,
		PortName:    port.Name,
		Country:     port.Country,
		Level:       portLevel,
		RiskFactors: factors,
		MaxWindKts:  maxWind.WindSpeedKts,
		MaxWindBft:  maxWind.WindSpeedBft,
		MaxWindTime: maxWind.Time,
		MaxGustKts:  maxGust.WindGustKts,
		MaxGustBft:  maxGust.WindGustBft,
		MaxGustTime: maxGust.Time,
		MaxWaveM:    maxWave,
		RiskPeriods: periods,
		IssuedTime:  issuedTime,
		Latitude:    port.Latitude,
		Longitude:   port.Longitude,
	}
}

func maxLevel(a, b entities.RiskLevel) entities.RiskLevel {
	if b > a {
		return b
	}
	return a
}
