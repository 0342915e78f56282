package core

// ChartSeries is one bar series. Missing cells are nil points.
type ChartSeries struct {
	Name   string     `json:"name"`
	Values []*float64 `json:"values"`
}

// ChartSpec describes a bar chart over the numeric columns of a table.
// Categories are 0-based row indexes.
type ChartSpec struct {
	Type       string        `json:"type"`
	Categories []int         `json:"categories"`
	Series     []ChartSeries `json:"series"`
}

// Chart builds a bar chart with one series per numeric column.
func Chart(t *Table) (*ChartSpec, error) {
	numeric := t.NumericColumns()
	if len(numeric) == 0 {
		return nil, &NoNumericColumnError{Columns: t.Columns()}
	}

	categories := make([]int, t.NumRows())
	for r := range categories {
		categories[r] = r
	}

	spec := &ChartSpec{
		Type:       "bar",
		Categories: categories,
		Series:     make([]ChartSeries, 0, len(numeric)),
	}

	names := t.Columns()
	for c := range names {
		if !t.IsNumeric(c) {
			continue
		}
		values := make([]*float64, t.NumRows())
		for r := range values {
			if v, ok := t.Float(r, c); ok {
				values[r] = &v
			}
		}
		spec.Series = append(spec.Series, ChartSeries{Name: names[c], Values: values})
	}

	return spec, nil
}

// Range returns the smallest and largest plotted values, always including
// zero so bars share a baseline. An empty chart returns (0, 0).
func (s *ChartSpec) Range() (lo, hi float64) {
	for _, series := range s.Series {
		for _, v := range series.Values {
			if v == nil {
				continue
			}
			lo = min(lo, *v)
			hi = max(hi, *v)
		}
	}
	return lo, hi
}
