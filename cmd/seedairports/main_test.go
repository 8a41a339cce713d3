package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"itinera/internal/domain"
)

func workbook(t *testing.T, rows [][]interface{}) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	return f
}

func TestParseAirports(t *testing.T) {
	f := workbook(t, [][]interface{}{
		{"Country", "IATA_Code", "Name", "City"},
		{"France", "cdg", "Charles de Gaulle", "Paris"},
		{"Portugal", "LIS", "Humberto Delgado", "Lisbon"},
		{"France", "CDG", "Duplicate", "Paris"},
		{"Nowhere", "X1", "Bad code", ""},
	})

	airports, skipped, err := parseAirports(f)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, []domain.Airport{
		{IATACode: "CDG", Name: "Charles de Gaulle", City: "Paris", Country: "France"},
		{IATACode: "LIS", Name: "Humberto Delgado", City: "Lisbon", Country: "Portugal"},
	}, airports)
}

func TestParseAirports_MissingColumn(t *testing.T) {
	f := workbook(t, [][]interface{}{
		{"iata_code", "name", "city"},
		{"CDG", "Charles de Gaulle", "Paris"},
	})

	_, _, err := parseAirports(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"country"`)
}

func TestIsIATACode(t *testing.T) {
	assert.True(t, isIATACode("JFK"))
	assert.False(t, isIATACode("JF"))
	assert.False(t, isIATACode("J1K"))
	assert.False(t, isIATACode("jfk"))
}
