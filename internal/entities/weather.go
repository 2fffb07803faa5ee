package entities

import "time"

// RiskLevel is the tiered operational-risk classification for a forecast.
// Levels form a total order; combining across metrics or records always
// takes the maximum, never an average.
type RiskLevel int

const (
	RiskSafe    RiskLevel = 0
	RiskCaution RiskLevel = 1
	RiskWarning RiskLevel = 2
	RiskDanger  RiskLevel = 3
)

// Label returns the human-readable name of the risk level.
func (l RiskLevel) Label() string {
	switch l {
	case RiskSafe:
		return "Safe"
	case RiskCaution:
		return "Caution"
	case RiskWarning:
		return "Warning"
	case RiskDanger:
		return "Danger"
	default:
		return "Unknown"
	}
}

// WeatherRecord represents a single timestamped forecast entry for a port.
// Records arrive as an ordered sequence sorted by Time ascending.
type WeatherRecord struct {
	Time          time.Time
	WindSpeedKts  float64
	WindSpeedBft  int // Beaufort scale, derived from WindSpeedKts
	WindGustKts   float64
	WindGustBft   int // Beaufort scale, derived from WindGustKts
	WaveHeightM   float64
	WindDirection string
	WaveDirection string
}

// RiskPeriod is a weather record whose classified risk level is Caution or
// above, annotated with the level and the reasons that produced it.
type RiskPeriod struct {
	WeatherRecord
	Level   RiskLevel
	Reasons []string
}

// RiskAssessment is the per-port outcome of one analysis pass. It is never
// constructed for an all-safe port: the absence of an assessment is the
// signal of safety, and downstream code relies on collections of assessments
// only ever containing non-safe ports.
type RiskAssessment struct {
	PortCode string
	PortName string
	Country  string

	// Level is the maximum risk level over all records.
	Level RiskLevel

	// RiskFactors summarizes the metrics whose extremal value clears the
	// caution threshold.
	RiskFactors []string

	// Extremal wind and gust are tracked via argmax over the full record
	// sequence independent of risk level, so their timestamps may fall
	// outside any risk period.
	MaxWindKts  float64
	MaxWindBft  int
	MaxWindTime time.Time
	MaxGustKts  float64
	MaxGustBft  int
	MaxGustTime time.Time
	MaxWaveM    float64

	// RiskPeriods holds only records classified Caution or above, in
	// chronological order.
	RiskPeriods []RiskPeriod

	IssuedTime string
	Latitude   float64
	Longitude  float64
}
