// File path: internal/tabular/table.go
package tabular

import (
	"strconv"
	"strings"
)

// Kind discriminates the scalar types a cell may hold.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindText
)

// Value is one typed cell. Date-named columns are always text so that the
// assistant's substring-based time scoping sees the raw representation.
type Value struct {
	kind Kind
	num  float64
	text string
}

// Null is the empty cell.
var Null = Value{}

// Number builds a numeric cell.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Text builds a text cell.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Kind reports the cell's scalar type.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the cell is empty.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the numeric value of a number cell.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Coerce converts the cell to a float, parsing numeric-looking text the way
// the executor's coercion step requires. Nulls and non-numeric text fail.
func (v Value) Coerce() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// String renders the cell for substring matching and display.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	default:
		return ""
	}
}

// Row maps column names to cells.
type Row map[string]Value

// Table is one loaded dataset: an ordered set of columns and rows. Tables are
// immutable once loaded and safe for concurrent readers.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	for _, col := range t.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// DateColumn returns the first column whose name contains "date",
// case-insensitive; time scoping is a no-op when none exists.
func (t *Table) DateColumn() (string, bool) {
	for _, col := range t.Columns {
		if strings.Contains(strings.ToLower(col), "date") {
			return col, true
		}
	}
	return "", false
}

func isDateColumn(name string) bool {
	return strings.Contains(strings.ToLower(name), "date")
}

func parseCell(column, raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Null
	}
	if isDateColumn(column) {
		return Text(trimmed)
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return Number(f)
	}
	return Text(trimmed)
}
