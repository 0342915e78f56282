package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect_AllColumnsIsIdentity(t *testing.T) {
	table := mustTable(t, []string{"x", "y", "z"},
		[]string{"1", "a", "2.5"},
		[]string{"", "b", "3"},
	)

	got, err := Select(table, table.Columns())
	require.NoError(t, err)
	assert.True(t, got.Equal(table))
}

func TestSelect_OrderAndSubset(t *testing.T) {
	table := mustTable(t, []string{"x", "y", "z"}, []string{"1", "a", "2.5"})

	got, err := Select(table, ColumnSelection{"z", "x"})
	require.NoError(t, err)

	assert.Equal(t, []string{"z", "x"}, got.Columns())
	assert.Equal(t, [][]string{{"2.5", "1"}}, got.Rows())
	assert.Equal(t, []string{"float", "int"}, got.Types())
}

func TestSelect_EmptySelectsAll(t *testing.T) {
	table := mustTable(t, []string{"x", "y"}, []string{"1", "2"})

	got, err := Select(table, nil)
	require.NoError(t, err)
	assert.Same(t, table, got)
}

func TestSelect_RepeatedNamesKeptOnce(t *testing.T) {
	table := mustTable(t, []string{"x", "y"}, []string{"1", "2"})

	got, err := Select(table, ColumnSelection{"y", "y", "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x"}, got.Columns())
}

func TestSelect_UnknownColumn(t *testing.T) {
	table := mustTable(t, []string{"x", "y"}, []string{"1", "2"})

	_, err := Select(table, ColumnSelection{"z"})

	var colErr *UnknownColumnError
	require.ErrorAs(t, err, &colErr)
	assert.Equal(t, []string{"z"}, colErr.Missing)
	assert.Equal(t, []string{"x", "y"}, colErr.Available)
	assert.Contains(t, err.Error(), `unknown column ["z"]`)
}

func TestSelect_HeaderOnlyTable(t *testing.T) {
	table := mustTable(t, []string{"x", "y"})

	got, err := Select(table, ColumnSelection{"y"})
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, got.Columns())
	assert.Equal(t, 0, got.NumRows())
}
