// Package entities contains the core domain objects for the port weather monitor
package entities

// Port represents a monitored shipping port loaded from the registry spreadsheet.
// Ports are immutable after loading and keyed by Code throughout the system.
type Port struct {
	Code      string  // Carrier port code, unique registry key
	Name      string  // Display name
	WNICode   string  // WNI-side port code
	Country   string  // Country name
	StationID string  // Forecast station object id used by the WNI API
	Latitude  float64 // 0.0 when unknown
	Longitude float64 // 0.0 when unknown
}
