// Package parser turns raw WNI forecast text into ordered weather records
package parser

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/whlops/port-weather-bot/internal/entities"
	"github.com/whlops/port-weather-bot/internal/risk"
)

// ParseError reports forecast text from which no usable records could be
// extracted. The affected port yields no assessment; the run continues.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("forecast parse failed: %s", e.Reason)
}

// Parse extracts the port name and the ordered weather record sequence from
// the 48h port-status text. Malformed rows are skipped and reported as
// warnings, never as a hard failure; only a forecast with zero usable rows
// produces a *ParseError.
//
// Expected shape:
//
//	PORT: KAOHSIUNG
//	ISSUED AT: 2026/01/15 06:00 UTC
//	DATE        TIME   WIND-DIR  WIND-KTS  GUST-KTS  WAVE-M  WAVE-DIR
//	2026/01/15  09:00  NE        22.0      30.5      1.5     NNE
func Parse(content string) (portName string, records []entities.WeatherRecord, warnings []string, err error) {
	for lineNo, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "PORT:") {
			portName = strings.TrimSpace(strings.TrimPrefix(trimmed, "PORT:"))
			continue
		}
		if strings.HasPrefix(trimmed, "ISSUED AT:") {
			continue
		}

		fields := strings.Fields(trimmed)
		if len(fields) != 7 {
			continue
		}

		ts, parseErr := time.Parse("2006/01/02 15:04", fields[0]+" "+fields[1])
		if parseErr != nil {
			// Header and separator rows fall through here silently; only
			// rows that look numeric but fail to parse are worth a warning.
			if looksNumeric(fields[3]) {
				warnings = append(warnings, fmt.Sprintf("line %d: bad timestamp %q %q", lineNo+1, fields[0], fields[1]))
			}
			continue
		}

		wind, windErr := strconv.ParseFloat(fields[3], 64)
		gust, gustErr := strconv.ParseFloat(fields[4], 64)
		wave, waveErr := strconv.ParseFloat(fields[5], 64)
		if windErr != nil || gustErr != nil || waveErr != nil {
			warnings = append(warnings, fmt.Sprintf("line %d: non-numeric metric values", lineNo+1))
			continue
		}

		records = append(records, entities.WeatherRecord{
			Time:          ts,
			WindSpeedKts:  wind,
			WindSpeedBft:  risk.KtsToBeaufort(wind),
			WindGustKts:   gust,
			WindGustBft:   risk.KtsToBeaufort(gust),
			WaveHeightM:   wave,
			WindDirection: fields[2],
			WaveDirection: fields[6],
		})
	}

	if len(records) == 0 {
		return portName, nil, warnings, &ParseError{Reason: "no usable forecast rows"}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Time.Before(records[j].Time)
	})

	return portName, records, warnings, nil
}

func looksNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
