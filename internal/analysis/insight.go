package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Insight is one finding produced by an analysis.
type Insight struct {
	Analysis string   `json:"analysis"`
	Title    string   `json:"title"`
	Value    Value    `json:"value"`
	Rows     []RowRef `json:"rows,omitempty"`
}

// RowRef points at a 0-based data row of the analyzed table.
type RowRef struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// Value is either a number or text. A numeric value may carry display text.
type Value struct {
	Num     float64
	Numeric bool
	Text    string
}

// Num builds a numeric value.
func Num(f float64) Value { return Value{Num: f, Numeric: true} }

// NumText builds a numeric value with its own display text.
func NumText(f float64, text string) Value { return Value{Num: f, Numeric: true, Text: text} }

// Text builds a text value.
func Text(s string) Value { return Value{Text: s} }

func (v Value) String() string {
	if v.Text != "" || !v.Numeric {
		return v.Text
	}
	return FormatNumber(v.Num)
}

// MarshalJSON renders numbers as JSON numbers and everything else as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Numeric && !math.IsNaN(v.Num) && !math.IsInf(v.Num, 0) {
		return json.Marshal(v.Num)
	}
	return json.Marshal(v.String())
}

// Skip records an analysis that produced nothing and why.
type Skip struct {
	Analysis string `json:"analysis"`
	Reason   string `json:"reason"`
}

// Result is the output of one Aggregate call. Insights are in display order.
type Result struct {
	Insights []Insight `json:"insights"`
	Skipped  []Skip    `json:"skipped,omitempty"`
}

// FormatNumber prints integers without decimals and other values with two.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// FormatPercent prints a signed percentage with one decimal.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%+.1f%%", p)
}

func joinLabels(refs []RowRef, format func(RowRef) string) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = format(r)
	}
	return strings.Join(parts, ", ")
}
