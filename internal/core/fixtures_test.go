package core

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func csvFile(name, content string) UploadedFile {
	return UploadedFile{Name: name, Format: FormatCSV, Data: []byte(content)}
}

// excelFile builds an .xlsx upload whose first sheet holds rows.
func excelFile(t *testing.T, name string, rows [][]interface{}) UploadedFile {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &rows[i]))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return UploadedFile{Name: name, Format: FormatExcel, Data: buf.Bytes()}
}

func mustTable(t *testing.T, header []string, rows ...[]string) *Table {
	t.Helper()
	table, err := NewTable(header, rows)
	require.NoError(t, err)
	return table
}

func mustParse(t *testing.T, file UploadedFile) *Table {
	t.Helper()
	table, err := Parse(file)
	require.NoError(t, err)
	return table
}
