package core

import (
	"fmt"
	"math"
	"strings"
)

// Clean applies the enabled cleaning steps in order: dedupe, then fill, then
// drop. The input table is not modified.
func Clean(t *Table, opts CleaningOptions) (*Table, CleanReport, error) {
	var (
		report CleanReport
		err    error
	)
	if !opts.Any() {
		return t, report, nil
	}

	if opts.Dedupe {
		before := t.NumRows()
		if t, err = dedupe(t); err != nil {
			return nil, report, fmt.Errorf("dedupe: %w", err)
		}
		report.DuplicatesRemoved = before - t.NumRows()
	}

	if opts.FillMissingNumeric {
		if len(t.NumericColumns()) == 0 {
			report.NoNumericColumns = true
		} else if t, report.Filled, err = fillMean(t); err != nil {
			return nil, report, fmt.Errorf("fill missing: %w", err)
		}
	}

	if opts.DropNullRows {
		before := t.NumRows()
		if t, err = dropNullRows(t); err != nil {
			return nil, report, fmt.Errorf("drop null rows: %w", err)
		}
		report.NullRowsRemoved = before - t.NumRows()
	}

	return t, report, nil
}

// dedupe keeps the first occurrence of every distinct row.
func dedupe(t *Table) (*Table, error) {
	seen := make(map[string]struct{}, t.NumRows())
	keep := make([]int, 0, t.NumRows())
	for r := 0; r < t.NumRows(); r++ {
		key := rowKey(t, r)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, r)
	}
	return t.subset(keep)
}

// rowKey identifies a row by value. Missing cells get a marker that cannot
// collide with an empty string.
func rowKey(t *Table, r int) string {
	var b strings.Builder
	for c := 0; c < t.NumColumns(); c++ {
		if c > 0 {
			b.WriteByte(0x1f)
		}
		if t.IsMissing(r, c) {
			b.WriteByte(0x00)
			continue
		}
		b.WriteString(t.Value(r, c))
	}
	return b.String()
}

// fillMean replaces missing numeric cells with their column mean. Columns
// with nothing missing, or nothing present, are left alone.
func fillMean(t *Table) (*Table, []FilledColumn, error) {
	var filled []FilledColumn
	names := t.Columns()

	for c := 0; c < t.NumColumns(); c++ {
		if !t.IsNumeric(c) {
			continue
		}

		values := make([]float64, t.NumRows())
		var sum float64
		var present, missing int
		for r := range values {
			v, ok := t.Float(r, c)
			if !ok {
				values[r] = math.NaN()
				missing++
				continue
			}
			values[r] = v
			sum += v
			present++
		}
		if missing == 0 || present == 0 {
			continue
		}

		mean := sum / float64(present)
		for r, v := range values {
			if math.IsNaN(v) {
				values[r] = mean
			}
		}

		next, err := t.withFloatColumn(c, values)
		if err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", names[c], err)
		}
		t = next
		filled = append(filled, FilledColumn{Column: names[c], Cells: missing, Mean: mean})
	}

	return t, filled, nil
}

// dropNullRows removes every row with at least one missing cell.
func dropNullRows(t *Table) (*Table, error) {
	keep := make([]int, 0, t.NumRows())
rows:
	for r := 0; r < t.NumRows(); r++ {
		for c := 0; c < t.NumColumns(); c++ {
			if t.IsMissing(r, c) {
				continue rows
			}
		}
		keep = append(keep, r)
	}
	return t.subset(keep)
}
