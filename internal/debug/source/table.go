package source

import "sort"

// LineColumnTable maps line numbers to the column offsets where breakpoints
// may be set. Columns keep their insertion order; line enumeration is
// ascending. Merging concatenates column lists without removing duplicate
// values — duplicate sites are collapsed later by original-location
// identity, not by raw column value.
type LineColumnTable struct {
	columns map[int][]int
}

// NewLineColumnTable returns an empty table.
func NewLineColumnTable() *LineColumnTable {
	return &LineColumnTable{columns: make(map[int][]int)}
}

// Add appends columns to a line.
func (t *LineColumnTable) Add(line int, columns ...int) {
	t.columns[line] = append(t.columns[line], columns...)
}

// Merge appends every line's columns from other into t.
func (t *LineColumnTable) Merge(other *LineColumnTable) {
	if other == nil {
		return
	}
	for line, cols := range other.columns {
		t.columns[line] = append(t.columns[line], cols...)
	}
}

// Lines returns the table's line numbers in ascending order.
func (t *LineColumnTable) Lines() []int {
	lines := make([]int, 0, len(t.columns))
	for line := range t.columns {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}

// Columns returns the column offsets recorded for a line, in insertion
// order. The returned slice is the table's own backing storage.
func (t *LineColumnTable) Columns(line int) []int {
	return t.columns[line]
}

// Len returns the total number of (line, column) positions in the table.
func (t *LineColumnTable) Len() int {
	n := 0
	for _, cols := range t.columns {
		n += len(cols)
	}
	return n
}
