package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable_DetectsTypes(t *testing.T) {
	table := mustTable(t, []string{"id", "price", "name", "active"},
		[]string{"1", "9.5", "apple", "true"},
		[]string{"2", "", "pear", "false"},
	)

	assert.Equal(t, []string{"id", "price", "name", "active"}, table.Columns())
	assert.Equal(t, []string{"int", "float", "string", "bool"}, table.Types())
	assert.Equal(t, []string{"id", "price"}, table.NumericColumns())
	assert.Equal(t, 2, table.NumRows())
	assert.True(t, table.IsMissing(1, 1))
	assert.False(t, table.IsNumeric(3), "bool columns are not numeric")
}

func TestTable_ValueAndCell(t *testing.T) {
	table := mustTable(t, []string{"n", "f", "s", "b"},
		[]string{"3", "2.0", "x", "true"},
		[]string{"NA", "0.25", "", "false"},
	)

	assert.Equal(t, []string{"3", "2", "x", "true"}, table.Row(0))
	assert.Equal(t, []string{"", "0.25", "", "false"}, table.Row(1))

	assert.Equal(t, int64(3), table.Cell(0, 0))
	assert.Equal(t, 2.0, table.Cell(0, 1))
	assert.Equal(t, "x", table.Cell(0, 2))
	assert.Equal(t, true, table.Cell(0, 3))
	assert.Nil(t, table.Cell(1, 0))
	assert.Nil(t, table.Cell(1, 2))

	v, ok := table.Float(1, 1)
	assert.True(t, ok)
	assert.Equal(t, 0.25, v)
	_, ok = table.Float(1, 0)
	assert.False(t, ok)
}

func TestNewTable_HeaderOnly(t *testing.T) {
	table := mustTable(t, []string{"a", "b"})

	assert.Equal(t, 0, table.NumRows())
	assert.Equal(t, []string{"a", "b"}, table.Columns())
	assert.Empty(t, table.Rows())
}

func TestTable_Preview(t *testing.T) {
	table := mustTable(t, []string{"a"}, []string{"1"}, []string{"2"}, []string{"3"})

	p := table.Preview(2)
	assert.Equal(t, [][]string{{"1"}, {"2"}}, p.Rows)
	assert.Equal(t, 3, p.TotalRows)
	assert.Equal(t, []string{"int"}, p.Types)

	assert.Len(t, table.Preview(10).Rows, 3)
}

func TestTable_Equal(t *testing.T) {
	ints := mustTable(t, []string{"a"}, []string{"1"}, []string{"2"})
	floats := mustTable(t, []string{"a"}, []string{"1.0"}, []string{"2"})
	other := mustTable(t, []string{"a"}, []string{"1"}, []string{"3"})
	renamed := mustTable(t, []string{"b"}, []string{"1"}, []string{"2"})

	assert.True(t, ints.Equal(floats))
	assert.False(t, ints.Equal(other))
	assert.False(t, ints.Equal(renamed))
}

func TestTable_Subset(t *testing.T) {
	table := mustTable(t, []string{"a", "b"}, []string{"1", "x"}, []string{"2", "y"}, []string{"3", "z"})

	sub, err := table.subset([]int{0, 2})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "x"}, {"3", "z"}}, sub.Rows())

	none, err := table.subset(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, none.NumRows())
	assert.Equal(t, []string{"int", "string"}, none.Types())
	assert.Equal(t, 3, table.NumRows(), "input must be untouched")
}

func TestNewTable_AllMissingColumnIsText(t *testing.T) {
	table := mustTable(t, []string{"label", "empty"},
		[]string{"a", ""},
		[]string{"b", "NA"},
	)

	assert.Equal(t, []string{"string", "string"}, table.Types())
	assert.Empty(t, table.NumericColumns())
	assert.True(t, table.IsMissing(0, 1))
	assert.True(t, table.IsMissing(1, 1))

	_, err := Chart(table)
	var numericErr *NoNumericColumnError
	assert.ErrorAs(t, err, &numericErr)
}
