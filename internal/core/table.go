package core

import (
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// missingMarkers are the cell values read as missing, besides the empty cell.
var missingMarkers = []string{"", "NA", "NaN", "null", "<nil>"}

// Table is an ordered collection of named, typed columns backed by a gota
// DataFrame. Tables are treated as values: every pipeline step returns a new
// Table and leaves its input untouched.
type Table struct {
	df dataframe.DataFrame
}

// NewTable builds a table from a header and string rows. Every row must have
// exactly len(header) cells. Column types are detected from the values.
func NewTable(header []string, rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		cols := make([]series.Series, len(header))
		for i, name := range header {
			cols[i] = series.New([]string{}, series.String, name)
		}
		return fromFrame(dataframe.New(cols...))
	}

	records := make([][]string, 0, len(rows)+1)
	records = append(records, header)
	records = append(records, rows...)

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(missingMarkers),
	)
	return fromFrame(df)
}

func fromFrame(df dataframe.DataFrame) (*Table, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	return &Table{df: df}, nil
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return t.df.Names()
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return t.df.Nrow()
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return t.df.Ncol()
}

// Types returns the detected type of each column: int, float, bool or string.
func (t *Table) Types() []string {
	types := t.df.Types()
	out := make([]string, len(types))
	for i, typ := range types {
		out[i] = string(typ)
	}
	return out
}

// IsNumeric reports whether column c holds numbers.
func (t *Table) IsNumeric(c int) bool {
	return isNumericType(t.df.Types()[c])
}

// NumericColumns returns the names of the numeric columns in order.
func (t *Table) NumericColumns() []string {
	var out []string
	for i, name := range t.df.Names() {
		if t.IsNumeric(i) {
			out = append(out, name)
		}
	}
	return out
}

// IsMissing reports whether the cell at row r, column c has no value.
func (t *Table) IsMissing(r, c int) bool {
	return t.df.Elem(r, c).IsNA()
}

// Float returns the numeric value at row r, column c and false if the column
// is not numeric or the cell is missing.
func (t *Table) Float(r, c int) (float64, bool) {
	if !t.IsNumeric(c) || t.IsMissing(r, c) {
		return 0, false
	}
	return t.df.Elem(r, c).Float(), true
}

// Value returns the cell rendered as text. Missing cells render as "".
// Integers print exactly; floats use the shortest representation, so whole
// floats print as integers.
func (t *Table) Value(r, c int) string {
	elem := t.df.Elem(r, c)
	if elem.IsNA() {
		return ""
	}
	switch t.df.Types()[c] {
	case series.Int:
		if i, err := elem.Int(); err == nil {
			return strconv.Itoa(i)
		}
		return elem.String()
	case series.Float:
		return formatFloat(elem.Float())
	default:
		return elem.String()
	}
}

// Cell returns the typed value at row r, column c: nil for missing cells,
// float64 or int64 for numbers, bool, or string.
func (t *Table) Cell(r, c int) any {
	elem := t.df.Elem(r, c)
	if elem.IsNA() {
		return nil
	}
	switch t.df.Types()[c] {
	case series.Int:
		i, err := elem.Int()
		if err != nil {
			return elem.String()
		}
		return int64(i)
	case series.Float:
		return elem.Float()
	case series.Bool:
		b, err := elem.Bool()
		if err != nil {
			return elem.String()
		}
		return b
	default:
		return elem.String()
	}
}

// Row returns row r rendered as text.
func (t *Table) Row(r int) []string {
	out := make([]string, t.df.Ncol())
	for c := range out {
		out[c] = t.Value(r, c)
	}
	return out
}

// Rows returns all rows rendered as text.
func (t *Table) Rows() [][]string {
	out := make([][]string, t.df.Nrow())
	for r := range out {
		out[r] = t.Row(r)
	}
	return out
}

// Preview returns the first n rows for display.
func (t *Table) Preview(n int) *Preview {
	if n > t.NumRows() || n < 0 {
		n = t.NumRows()
	}
	rows := make([][]string, n)
	for r := 0; r < n; r++ {
		rows[r] = t.Row(r)
	}
	return &Preview{
		Columns:   t.Columns(),
		Types:     t.Types(),
		Rows:      rows,
		TotalRows: t.NumRows(),
	}
}

// Equal reports whether both tables have the same columns and the same cell
// values. Numeric columns compare by value, so an int column equals a float
// column holding the same whole numbers.
func (t *Table) Equal(o *Table) bool {
	if t.NumColumns() != o.NumColumns() || t.NumRows() != o.NumRows() {
		return false
	}
	names, other := t.Columns(), o.Columns()
	for i := range names {
		if names[i] != other[i] || t.IsNumeric(i) != o.IsNumeric(i) {
			return false
		}
	}
	for r := 0; r < t.NumRows(); r++ {
		for c := 0; c < t.NumColumns(); c++ {
			if t.IsMissing(r, c) != o.IsMissing(r, c) || t.Value(r, c) != o.Value(r, c) {
				return false
			}
		}
	}
	return true
}

// subset returns a table holding only the given rows, in order.
func (t *Table) subset(rows []int) (*Table, error) {
	if len(rows) == t.NumRows() {
		return t, nil
	}
	if len(rows) == 0 {
		return t.empty()
	}
	return fromFrame(t.df.Subset(rows))
}

// empty returns a table with the same schema and no rows.
func (t *Table) empty() (*Table, error) {
	types := t.df.Types()
	cols := make([]series.Series, t.df.Ncol())
	for i, name := range t.df.Names() {
		cols[i] = series.New([]string{}, types[i], name)
	}
	return fromFrame(dataframe.New(cols...))
}

// withFloatColumn returns a table where column c is replaced by a float
// column built from values; NaN entries stay missing.
func (t *Table) withFloatColumn(c int, values []float64) (*Table, error) {
	raw := make([]string, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			raw[i] = "NaN"
			continue
		}
		raw[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	s := series.New(raw, series.Float, t.df.Names()[c])
	if s.Err != nil {
		return nil, s.Err
	}
	return fromFrame(t.df.Mutate(s))
}

func isNumericType(typ series.Type) bool {
	return typ == series.Int || typ == series.Float
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
