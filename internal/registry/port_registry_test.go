package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whlops/port-weather-bot/internal/entities"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook builds a registry workbook in a temp dir from header + rows.
func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	_, err := f.NewSheet(sheetName)
	require.NoError(t, err)

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheetName, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "ports.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

var header = []interface{}{"Port_Code_5", "WNI Port Code", "Port Name", "Country", "Station ID (Object_ID)", "Lat", "Lon"}

func TestLoadRegistry(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		header,
		{"KHHSG", "KHH", "Kaohsiung", "Taiwan", "ST001", "22.61", "120.28"},
		{"KEELG", "KEL", "Keelung", "Taiwan", "ST002", "25.13", "121.74"},
	})

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	port, ok := r.Get("KHHSG")
	require.True(t, ok)
	assert.Equal(t, "Kaohsiung", port.Name)
	assert.Equal(t, "KHH", port.WNICode)
	assert.Equal(t, "Taiwan", port.Country)
	assert.Equal(t, "ST001", port.StationID)
	assert.InDelta(t, 22.61, port.Latitude, 0.001)
	assert.InDelta(t, 120.28, port.Longitude, 0.001)
}

func TestLoadRegistryPreservesRowOrder(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		header,
		{"ZPORT", "Z", "Zeta Port", "Japan", "ST003", "1", "2"},
		{"APORT", "A", "Alpha Port", "Japan", "ST004", "3", "4"},
	})

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ZPORT", "APORT"}, r.Codes())
	assert.Equal(t, []string{"ZPORT - Zeta Port", "APORT - Alpha Port"}, r.DisplayList())
}

func TestLoadRegistrySkipsIncompleteRows(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		header,
		{"KHHSG", "KHH", "Kaohsiung", "Taiwan", "ST001", "22.61", "120.28"},
		{"", "X", "No Code", "Taiwan", "ST005", "0", "0"},
		{"NOSTA", "Y", "No Station", "Taiwan", "", "0", "0"},
	})

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestLoadRegistryOptionalColumnFallbacks(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Port_Code_5", "Port Name", "Station ID (Object_ID)"},
		{"KHHSG", "Kaohsiung", "ST001"},
	})

	r, err := Load(path)
	require.NoError(t, err)

	port, ok := r.Get("KHHSG")
	require.True(t, ok)
	assert.Equal(t, "KHHSG", port.WNICode, "missing WNI code falls back to the port code")
	assert.Equal(t, "N/A", port.Country)
	assert.Equal(t, 0.0, port.Latitude)
	assert.Equal(t, 0.0, port.Longitude)
}

func TestLoadRegistryMissingRequiredColumn(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Port_Code_5", "Port Name"},
		{"KHHSG", "Kaohsiung"},
	})

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Station ID (Object_ID)")
}

func TestNewRejectsDuplicateCodes(t *testing.T) {
	_, err := New([]entities.Port{
		{Code: "KHHSG", Name: "Kaohsiung"},
		{Code: "KHHSG", Name: "Duplicate"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNewRejectsEmptyCode(t *testing.T) {
	_, err := New([]entities.Port{{Name: "Nameless"}})
	require.Error(t, err)
}
