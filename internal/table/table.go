package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tells how a cell value was interpreted at load time.
type Kind int

const (
	Missing Kind = iota
	Number
	Text
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Text:
		return "text"
	default:
		return "missing"
	}
}

// Value is a single scalar cell. Text always holds the raw cell string.
type Value struct {
	Kind Kind
	Num  float64
	Text string
}

// IsMissing reports whether the cell carries no value.
func (v Value) IsMissing() bool { return v.Kind == Missing }

// Float returns the numeric value and whether the cell is a number.
func (v Value) Float() (float64, bool) {
	if v.Kind != Number {
		return 0, false
	}
	return v.Num, true
}

func (v Value) String() string {
	switch v.Kind {
	case Number:
		if v.Text != "" {
			return v.Text
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case Text:
		return v.Text
	default:
		return ""
	}
}

// NumberValue builds a numeric cell.
func NumberValue(f float64) Value {
	return Value{Kind: Number, Num: f, Text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// TextValue builds a text cell; blank strings become missing.
func TextValue(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Value{}
	}
	return Value{Kind: Text, Text: s}
}

// Column is a named, ordered sequence of values.
type Column struct {
	Name   string
	Values []Value
}

// Table is an ordered list of equal-length columns. Tables are not mutated
// after construction.
type Table struct {
	Name    string
	Columns []*Column
}

// New builds a table and fails when columns differ in length.
func New(name string, cols []*Column) (*Table, error) {
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if len(c.Values) != len(cols[0].Values) {
			return nil, fmt.Errorf("column %q has %d values, want %d", c.Name, len(c.Values), len(cols[0].Values))
		}
	}
	return &Table{Name: name, Columns: cols}, nil
}

// FromRecords builds a table from a header and string records. Short records
// are padded with missing cells and extra cells are dropped.
func FromRecords(name string, header []string, records [][]string, nf NumberFormat) *Table {
	cols := make([]*Column, len(header))
	for i, h := range header {
		cols[i] = &Column{Name: strings.TrimSpace(h), Values: make([]Value, len(records))}
	}
	for r, rec := range records {
		for i := range cols {
			var raw string
			if i < len(rec) {
				raw = rec[i]
			}
			cols[i].Values[r] = ParseCell(raw, nf)
		}
	}
	return &Table{Name: name, Columns: cols}
}

// Rows returns the number of data rows.
func (t *Table) Rows() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// Width returns the number of columns.
func (t *Table) Width() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Column returns the first column with the given name, case-insensitively.
func (t *Table) Column(name string) (*Column, int) {
	for i, c := range t.Columns {
		if strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(name)) {
			return c, i
		}
	}
	return nil, -1
}

// Cell returns the value at (row, col) or a missing value when out of range.
func (t *Table) Cell(row, col int) Value {
	if col < 0 || col >= len(t.Columns) {
		return Value{}
	}
	vals := t.Columns[col].Values
	if row < 0 || row >= len(vals) {
		return Value{}
	}
	return vals[row]
}

// Record returns a row as display strings.
func (t *Table) Record(row int) []string {
	out := make([]string, len(t.Columns))
	for i := range t.Columns {
		out[i] = t.Cell(row, i).String()
	}
	return out
}
