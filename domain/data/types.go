// Package data provides the in-memory data values a DataCard can hold,
// the type dispatcher that classifies them, and the artifact formatter
// that converts them to and from their canonical storage form.
package data

import (
	"errors"
	"fmt"
)

// ErrUnsupportedType is returned when a value does not match any
// supported data type.
var ErrUnsupportedType = errors.New("unsupported data type")

// TypeTag is the closed set of supported data types. Classification
// checks candidates in a fixed priority order: dict, array, table, text.
type TypeTag string

const (
	TagDict  TypeTag = "dict"
	TagArray TypeTag = "ndarray"
	TagTable TypeTag = "table"
	TagText  TypeTag = "str"
)

// Element dtypes understood by the codec. Columns may carry other
// dtype strings (e.g. "mixed"); those pass through verbatim.
const (
	DTypeInt64   = "int64"
	DTypeFloat64 = "float64"
	DTypeBool    = "bool"
	DTypeString  = "string"
)

// Column is one named, typed column of a Table. Values holds one entry
// per row; DType is authoritative when set, otherwise it is inferred at
// conversion time.
type Column struct {
	Name   string
	DType  string
	Values []any
}

// Table is an ordered collection of equal-length columns. There is no
// implicit row index; row identity is positional.
type Table struct {
	Columns []Column
}

// NumRows returns the row count of the table.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column, if present.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// Validate checks that all columns are named and of equal length.
func (t *Table) Validate() error {
	seen := make(map[string]bool, len(t.Columns))
	for i, c := range t.Columns {
		if c.Name == "" {
			return fmt.Errorf("column %d has no name", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = true
		if len(c.Values) != t.NumRows() {
			return fmt.Errorf("column %q has %d rows, expected %d", c.Name, len(c.Values), t.NumRows())
		}
	}
	return nil
}

// Array is a dense array with an explicit element dtype. Values holds
// one of []int64, []float64, []bool or []string matching DType, stored
// row-major under Shape.
type Array struct {
	DType  string
	Shape  []int
	Values any
}

// Len returns the total element count.
func (a *Array) Len() int {
	switch v := a.Values.(type) {
	case []int64:
		return len(v)
	case []float64:
		return len(v)
	case []bool:
		return len(v)
	case []string:
		return len(v)
	}
	return 0
}

// NumRows returns the length of the leading axis.
func (a *Array) NumRows() int {
	if len(a.Shape) == 0 {
		return 0
	}
	return a.Shape[0]
}

// rowWidth returns elements per row along the leading axis.
func (a *Array) rowWidth() int {
	width := 1
	for _, dim := range a.Shape[1:] {
		width *= dim
	}
	return width
}

// Validate checks dtype, shape and value-slice consistency.
func (a *Array) Validate() error {
	want := 1
	for _, dim := range a.Shape {
		if dim < 0 {
			return fmt.Errorf("negative dimension %d in shape %v", dim, a.Shape)
		}
		want *= dim
	}
	if len(a.Shape) == 0 {
		want = 0
	}
	if got := a.Len(); got != want {
		return fmt.Errorf("array has %d elements, shape %v wants %d", got, a.Shape, want)
	}

	switch a.Values.(type) {
	case []int64:
		if a.DType != DTypeInt64 {
			return fmt.Errorf("dtype %q does not match []int64 values", a.DType)
		}
	case []float64:
		if a.DType != DTypeFloat64 {
			return fmt.Errorf("dtype %q does not match []float64 values", a.DType)
		}
	case []bool:
		if a.DType != DTypeBool {
			return fmt.Errorf("dtype %q does not match []bool values", a.DType)
		}
	case []string:
		if a.DType != DTypeString {
			return fmt.Errorf("dtype %q does not match []string values", a.DType)
		}
	default:
		return fmt.Errorf("array values must be []int64, []float64, []bool or []string, got %T", a.Values)
	}
	return nil
}

// TakeRows returns a new array holding the given rows of the leading
// axis, in the order given. Duplicate rows are permitted.
func (a *Array) TakeRows(rows []int) (*Array, error) {
	width := a.rowWidth()
	n := a.NumRows()
	for _, r := range rows {
		if r < 0 || r >= n {
			return nil, fmt.Errorf("row %d out of range [0, %d)", r, n)
		}
	}

	shape := append([]int{len(rows)}, a.Shape[1:]...)
	out := &Array{DType: a.DType, Shape: shape}

	switch v := a.Values.(type) {
	case []int64:
		dst := make([]int64, 0, len(rows)*width)
		for _, r := range rows {
			dst = append(dst, v[r*width:(r+1)*width]...)
		}
		out.Values = dst
	case []float64:
		dst := make([]float64, 0, len(rows)*width)
		for _, r := range rows {
			dst = append(dst, v[r*width:(r+1)*width]...)
		}
		out.Values = dst
	case []bool:
		dst := make([]bool, 0, len(rows)*width)
		for _, r := range rows {
			dst = append(dst, v[r*width:(r+1)*width]...)
		}
		out.Values = dst
	case []string:
		dst := make([]string, 0, len(rows)*width)
		for _, r := range rows {
			dst = append(dst, v[r*width:(r+1)*width]...)
		}
		out.Values = dst
	default:
		return nil, fmt.Errorf("array values must be a supported slice type, got %T", a.Values)
	}
	return out, nil
}
