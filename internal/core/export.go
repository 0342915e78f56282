package core

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// excelSheet is the single sheet written to exported workbooks.
const excelSheet = "Sheet1"

// Export serializes the table in the given format. The artifact is named after
// sourceName with the extension swapped.
func Export(t *Table, format Format, sourceName string) (ExportArtifact, error) {
	var (
		data []byte
		err  error
	)

	switch format {
	case FormatCSV:
		data, err = writeCSV(t)
	case FormatExcel:
		data, err = writeExcel(t)
	default:
		err = fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return ExportArtifact{}, &SerializationError{Format: format, Err: err}
	}

	return ExportArtifact{
		Name:   OutputName(sourceName, format),
		Format: format,
		Data:   data,
	}, nil
}

// writeCSV writes a header row followed by the data rows. Missing cells are
// empty and numbers use their shortest form.
func writeCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(t.Columns()); err != nil {
		return nil, err
	}
	for r := 0; r < t.NumRows(); r++ {
		if err := w.Write(t.Row(r)); err != nil {
			return nil, fmt.Errorf("row %d: %w", r+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeExcel writes the table to the first sheet of a new workbook. Numeric
// and boolean cells keep their type; missing cells stay empty.
func writeExcel(t *Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, t.NumColumns())
	for i, name := range t.Columns() {
		header[i] = name
	}
	if err := setRow(f, 1, header); err != nil {
		return nil, err
	}

	for r := 0; r < t.NumRows(); r++ {
		row := make([]interface{}, t.NumColumns())
		for c := range row {
			row[c] = t.Cell(r, c)
		}
		if err := setRow(f, r+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(excelSheet, cell, &values); err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}
	return nil
}
