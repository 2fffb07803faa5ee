// Package registry loads the monitored port list from the operator spreadsheet
package registry

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/whlops/port-weather-bot/internal/entities"
	"github.com/xuri/excelize/v2"
)

const sheetName = "all_ports_list"

// Registry is the keyed port map. Codes are unique; iteration order for
// display purposes is the spreadsheet row order, not map order.
type Registry struct {
	ports map[string]entities.Port
	codes []string
}

// New builds a registry from an explicit port list, enforcing code
// uniqueness and preserving insertion order.
func New(ports []entities.Port) (*Registry, error) {
	r := &Registry{ports: make(map[string]entities.Port, len(ports))}
	for _, p := range ports {
		if p.Code == "" {
			return nil, fmt.Errorf("port with empty code")
		}
		if _, exists := r.ports[p.Code]; exists {
			return nil, fmt.Errorf("duplicate port code %s", p.Code)
		}
		r.ports[p.Code] = p
		r.codes = append(r.codes, p.Code)
	}
	return r, nil
}

// Load reads the port registry workbook. Rows missing a port code or station
// id are skipped; unparseable coordinates fall back to 0.0.
func Load(path string) (*Registry, error) {
	log.Printf("Loading port registry from %s", path)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %v", sheetName, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %s has no data rows", sheetName)
	}

	col := indexColumns(rows[0])
	for _, required := range []string{"Port_Code_5", "Station ID (Object_ID)", "Port Name"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("sheet %s is missing column %q", sheetName, required)
		}
	}

	var ports []entities.Port
	skipped := 0
	for _, row := range rows[1:] {
		code := cell(row, colIdx(col, "Port_Code_5"))
		stationID := cell(row, colIdx(col, "Station ID (Object_ID)"))
		if code == "" || stationID == "" {
			skipped++
			continue
		}

		wniCode := cell(row, colIdx(col, "WNI Port Code"))
		if wniCode == "" {
			wniCode = code
		}
		country := cell(row, colIdx(col, "Country"))
		if country == "" {
			country = "N/A"
		}

		ports = append(ports, entities.Port{
			Code:      code,
			Name:      cell(row, colIdx(col, "Port Name")),
			WNICode:   wniCode,
			Country:   country,
			StationID: stationID,
			Latitude:  parseCoord(cell(row, colIdx(col, "Lat"))),
			Longitude: parseCoord(cell(row, colIdx(col, "Lon"))),
		})
	}

	r, err := New(ports)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d ports (%d rows skipped)", r.Len(), skipped)
	return r, nil
}

// Get looks up a port by code.
func (r *Registry) Get(code string) (entities.Port, bool) {
	p, ok := r.ports[code]
	return p, ok
}

// Codes returns the port codes in registry load order.
func (r *Registry) Codes() []string {
	out := make([]string, len(r.codes))
	copy(out, r.codes)
	return out
}

// Len returns the number of registered ports.
func (r *Registry) Len() int {
	return len(r.codes)
}

// DisplayList returns "CODE - Name" entries in load order for UI listings.
func (r *Registry) DisplayList() []string {
	out := make([]string, 0, len(r.codes))
	for _, code := range r.codes {
		out = append(out, fmt.Sprintf("%s - %s", code, r.ports[code].Name))
	}
	return out
}

func indexColumns(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	return col
}

// colIdx returns the column index or -1 when the column is absent, so an
// optional missing column never aliases column zero.
func colIdx(col map[string]int, name string) int {
	if i, ok := col[name]; ok {
		return i
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseCoord(s string) float64 {
	if s == "" {
		return 0.0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0
	}
	return v
}
