package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	return mustTable(t, []string{"id", "name", "score", "ok"},
		[]string{"1", "ann", "9.5", "true"},
		[]string{"2", "", "7", "false"},
		[]string{"30", "carl, jr", "", "true"},
	)
}

func TestExport_CSV(t *testing.T) {
	artifact, err := Export(sampleTable(t), FormatCSV, "people.xlsx")
	require.NoError(t, err)

	assert.Equal(t, "people.csv", artifact.Name)
	assert.Equal(t, FormatCSV, artifact.Format)
	assert.Equal(t, "text/csv", artifact.ContentType())
	assert.Equal(t,
		"id,name,score,ok\n1,ann,9.5,true\n2,,7,false\n30,\"carl, jr\",,true\n",
		string(artifact.Data))
}

func TestExport_CSVRoundTrip(t *testing.T) {
	table := sampleTable(t)

	artifact, err := Export(table, FormatCSV, "people.csv")
	require.NoError(t, err)

	back := mustParse(t, csvFile(artifact.Name, string(artifact.Data)))
	assert.True(t, back.Equal(table), "got %v", back.Rows())
	assert.Equal(t, table.Types(), back.Types())
}

func TestExport_ExcelRoundTrip(t *testing.T) {
	table := sampleTable(t)

	artifact, err := Export(table, FormatExcel, "people.csv")
	require.NoError(t, err)
	assert.Equal(t, "people.xlsx", artifact.Name)

	back := mustParse(t, UploadedFile{Name: artifact.Name, Format: FormatExcel, Data: artifact.Data})
	assert.True(t, back.Equal(table), "got %v", back.Rows())
	assert.Equal(t, table.Types(), back.Types())
}

func TestExport_ExcelKeepsNumbers(t *testing.T) {
	artifact, err := Export(sampleTable(t), FormatExcel, "people.csv")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(artifact.Data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Sheet1"}, f.GetSheetList())

	typ, err := f.GetCellType("Sheet1", "C2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ)
	assert.NotEqual(t, excelize.CellTypeInlineString, typ)
}

func TestExport_HeaderOnly(t *testing.T) {
	artifact, err := Export(mustTable(t, []string{"a", "b"}), FormatCSV, "h.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(artifact.Data))
}

func TestExport_UnknownFormat(t *testing.T) {
	_, err := Export(sampleTable(t), "json", "x.csv")

	var serialErr *SerializationError
	assert.ErrorAs(t, err, &serialErr)
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		source string
		format Format
		want   string
	}{
		{"data.csv", FormatExcel, "data.xlsx"},
		{"data.xlsx", FormatCSV, "data.csv"},
		{"report.v2.csv", FormatCSV, "report.v2.csv"},
		{"noext", FormatCSV, "noext.csv"},
		{"dir/inner.csv", FormatExcel, "inner.xlsx"},
		{".csv", FormatCSV, "converted.csv"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputName(tt.source, tt.format), tt.source)
	}
}

func TestExport_ExcelRoundTripKeepsFloatPrecision(t *testing.T) {
	table := mustTable(t, []string{"x"},
		[]string{"0.30000000000000004"},
		[]string{"123456789.12345679"},
		[]string{"0.1"},
	)

	artifact, err := Export(table, FormatExcel, "floats.csv")
	require.NoError(t, err)

	back := mustParse(t, UploadedFile{Name: artifact.Name, Format: FormatExcel, Data: artifact.Data})
	assert.Equal(t, [][]string{{"0.30000000000000004"}, {"123456789.12345679"}, {"0.1"}}, back.Rows())
	assert.Equal(t, []string{"float"}, back.Types())
}
