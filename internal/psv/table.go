package psv

import "fmt"

// State is the parsing state of a table block.
type State int

const (
	StateScanning State = iota
	StatePotentialHeader
	StateDataRow
	StateEnd
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StatePotentialHeader:
		return "potential_header"
	case StateDataRow:
		return "data_row"
	case StateEnd:
		return "end"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Cell is one slot of a row. An absent cell is distinct from an empty one.
type Cell struct {
	Value   string
	Present bool
}

// Value returns a present cell holding v.
func Value(v string) Cell {
	return Cell{Value: v, Present: true}
}

// Row holds one cell per column, positionally aligned.
type Row []Cell

// Column is the metadata captured from one header cell.
type Column struct {
	Key         string
	Header      string
	ExplicitKey bool
	Tags        []AnnotationTag
}

// Table is a parsed table block.
type Table struct {
	ID       BoundedString
	Position int
	Columns  []Column
	Rows     []Row
	State    State
	// RowCount counts rows read or skipped so far.
	RowCount int
}

// Keys returns the column keys in order.
func (t *Table) Keys() []string {
	keys := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		keys[i] = col.Key
	}
	return keys
}

// Headers returns the original header text of each column.
func (t *Table) Headers() []string {
	headers := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		headers[i] = col.Header
	}
	return headers
}

// Annotations returns the raw annotation tags of each column.
func (t *Table) Annotations() [][]string {
	out := make([][]string, len(t.Columns))
	for i, col := range t.Columns {
		tags := make([]string, len(col.Tags))
		for j, tag := range col.Tags {
			tags[j] = tag.Raw
		}
		out[i] = tags
	}
	return out
}

// AppendRow adds row, padded or cut to the column count.
func (t *Table) AppendRow(row Row) {
	t.Rows = append(t.Rows, fitRow(row, len(t.Columns)))
}

// Reset drops the rows held by the table.
func (t *Table) Reset() {
	t.Rows = nil
}

func fitRow(row Row, n int) Row {
	if len(row) == n {
		return row
	}
	if len(row) > n {
		return row[:n]
	}
	out := make(Row, n)
	copy(out, row)
	return out
}
