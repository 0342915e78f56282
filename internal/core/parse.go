package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Parse turns an uploaded file into a Table. Column names come from the first
// row. Any mismatch between bytes and declared format, and any structural
// problem, is reported as a *ParseError.
func Parse(file UploadedFile) (*Table, error) {
	var (
		records [][]string
		err     error
	)

	switch file.Format {
	case FormatCSV:
		records, err = readCSV(file.Data)
	case FormatExcel:
		records, err = readExcel(file.Data)
	default:
		err = fmt.Errorf("%w %q", ErrUnsupportedFormat, file.Format)
	}
	if err != nil {
		return nil, &ParseError{File: file.Name, Format: file.Format, Err: err}
	}

	header, rows, err := splitHeader(records)
	if err != nil {
		return nil, &ParseError{File: file.Name, Format: file.Format, Err: err}
	}

	table, err := NewTable(header, rows)
	if err != nil {
		return nil, &ParseError{File: file.Name, Format: file.Format, Err: err}
	}
	return table, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = stripBOM(data)
	if isBlank(data) {
		return nil, ErrEmptyFile
	}
	if looksLikeZip(data) {
		return nil, errors.New("content is a ZIP/Excel archive, not CSV text")
	}

	r := csv.NewReader(bytes.NewReader(sanitizeUTF8(data)))
	r.FieldsPerRecord = 0 // every record must match the header width
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return records, nil
}

// readExcel reads the first sheet of an .xlsx workbook. Rows shorter than the
// header are padded with empty cells, since excelize trims trailing blanks.
func readExcel(data []byte) ([][]string, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := readSheet(f, sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	width := len(rows[0])
	for i, row := range rows[1:] {
		switch {
		case len(row) > width:
			return nil, fmt.Errorf("row %d has %d cells, header has %d", i+2, len(row), width)
		case len(row) < width:
			padded := make([]string, width)
			copy(padded, row)
			rows[i+1] = padded
		}
	}
	normalizeExcelBools(rows)
	return rows, nil
}

// readSheet returns the cells of sheet as text. Numbers take their stored
// value, since the display format rounds them; every other cell keeps its
// formatted text so booleans read as TRUE/FALSE and dates stay readable.
func readSheet(f *excelize.File, sheet string) ([][]string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	for r := range min(len(rows), len(raw)) {
		for c := range min(len(rows[r]), len(raw[r])) {
			if isNumber(rows[r][c]) && isNumber(raw[r][c]) {
				rows[r][c] = raw[r][c]
			}
		}
	}
	return rows, nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// splitHeader separates the header row from the data rows. Header names are
// trimmed and must be present and unique. Rows with no content are dropped.
func splitHeader(records [][]string) ([]string, [][]string, error) {
	if len(records) == 0 {
		return nil, nil, ErrEmptyFile
	}

	header := make([]string, len(records[0]))
	seen := make(map[string]bool, len(header))
	for i, name := range records[0] {
		name = strings.TrimSpace(name)
		switch {
		case name == "":
			return nil, nil, fmt.Errorf("column %d has a blank header", i+1)
		case seen[name]:
			return nil, nil, fmt.Errorf("duplicate header %q", name)
		}
		seen[name] = true
		header[i] = name
	}

	rows := make([][]string, 0, len(records)-1)
	for _, row := range records[1:] {
		if !isBlankRow(row) {
			rows = append(rows, row)
		}
	}
	return header, rows, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// normalizeExcelBools lowercases columns holding only TRUE and FALSE, the way
// excelize renders boolean cells, so they are detected as bool columns.
func normalizeExcelBools(rows [][]string) {
	for c := range rows[0] {
		if !isExcelBoolColumn(rows[1:], c) {
			continue
		}
		for _, row := range rows[1:] {
			row[c] = strings.ToLower(row[c])
		}
	}
}

func isExcelBoolColumn(rows [][]string, c int) bool {
	seen := false
	for _, row := range rows {
		switch row[c] {
		case "TRUE", "FALSE":
			seen = true
		case "":
		default:
			return false
		}
	}
	return seen
}
