package core

// Select returns a table with exactly the selected columns in the selected
// order. An empty selection keeps every column. Repeated names are kept once.
func Select(t *Table, sel ColumnSelection) (*Table, error) {
	if len(sel) == 0 {
		return t, nil
	}

	available := t.Columns()
	index := make(map[string]bool, len(available))
	for _, name := range available {
		index[name] = true
	}

	var (
		names   = make([]string, 0, len(sel))
		missing []string
		seen    = make(map[string]bool, len(sel))
	)
	for _, name := range sel {
		if seen[name] {
			continue
		}
		seen[name] = true
		if !index[name] {
			missing = append(missing, name)
			continue
		}
		names = append(names, name)
	}
	if len(missing) > 0 {
		return nil, &UnknownColumnError{Missing: missing, Available: available}
	}

	return fromFrame(t.df.Select(names))
}
