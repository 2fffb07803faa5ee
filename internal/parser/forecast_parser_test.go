package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleForecast = `PORT: KAOHSIUNG
ISSUED AT: 2026/01/15 06:00 UTC
DATE        TIME   WIND-DIR  WIND-KTS  GUST-KTS  WAVE-M  WAVE-DIR
2026/01/15  12:00  NE        28.0      36.5      1.8     NNE
2026/01/15  09:00  NE        22.0      30.5      1.5     NNE
2026/01/15  15:00  ENE       31.0      40.0      2.2     NE
`

func TestParseSampleForecast(t *testing.T) {
	portName, records, warnings, err := Parse(sampleForecast)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "KAOHSIUNG", portName)
	require.Len(t, records, 3)

	// Records come back sorted by time even when the source is out of order.
	assert.Equal(t, time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC), records[0].Time)
	assert.Equal(t, time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC), records[1].Time)
	assert.Equal(t, time.Date(2026, 1, 15, 15, 0, 0, 0, time.UTC), records[2].Time)

	first := records[0]
	assert.Equal(t, 22.0, first.WindSpeedKts)
	assert.Equal(t, 6, first.WindSpeedBft)
	assert.Equal(t, 30.5, first.WindGustKts)
	assert.Equal(t, 7, first.WindGustBft)
	assert.Equal(t, 1.5, first.WaveHeightM)
	assert.Equal(t, "NE", first.WindDirection)
	assert.Equal(t, "NNE", first.WaveDirection)
}

func TestParseMalformedRowsBecomeWarnings(t *testing.T) {
	content := `PORT: KEELUNG
ISSUED AT: 2026/01/15 06:00 UTC
2026/01/15  09:00  NE  22.0  30.5  1.5  NNE
2026/01/15  12:00  NE  bad   30.5  1.5  NNE
2026/99/15  15:00  NE  25.0  33.0  1.6  NNE
`
	_, records, warnings, err := Parse(content)
	require.NoError(t, err)
	assert.Len(t, records, 1, "only the well-formed row survives")
	assert.Len(t, warnings, 2)
}

func TestParseNoUsableRows(t *testing.T) {
	content := `PORT: KEELUNG
ISSUED AT: 2026/01/15 06:00 UTC
DATE  TIME  WIND-DIR  WIND-KTS  GUST-KTS  WAVE-M  WAVE-DIR
`
	_, _, _, err := Parse(content)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseEmptyContent(t *testing.T) {
	_, _, _, err := Parse("")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}
