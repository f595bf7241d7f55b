// Package frame implements the ordered metadata tables that ride alongside
// an abundance matrix: one row per sample or feature identifier, named
// string columns, row order significant. It is deliberately small — just
// enough table algebra for identifier alignment, selection and TSV
// round-trips.
package frame

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrDuplicateID is returned when an identifier appears more than once.
var ErrDuplicateID = errors.New("frame: duplicate identifier")

// ErrUnknownColumn is returned when a named column does not exist.
var ErrUnknownColumn = errors.New("frame: unknown column")

// Frame is a string-indexed table. Row order is part of its identity: the
// experiment container keeps it equal to the matrix row/column order.
type Frame struct {
	ids  []string
	pos  map[string]int
	cols []string
	data map[string][]string
}

// New creates a frame with the given identifiers and no columns.
// Identifiers must be unique.
func New(ids []string) (*Frame, error) {
	f := &Frame{
		ids:  append([]string(nil), ids...),
		pos:  make(map[string]int, len(ids)),
		data: make(map[string][]string),
	}
	for i, id := range f.ids {
		if _, dup := f.pos[id]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
		f.pos[id] = i
	}
	return f, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.ids) }

// IDs returns a copy of the identifier order.
func (f *Frame) IDs() []string { return append([]string(nil), f.ids...) }

// ID returns the identifier at row i.
func (f *Frame) ID(i int) string { return f.ids[i] }

// Has reports whether id is present.
func (f *Frame) Has(id string) bool {
	_, ok := f.pos[id]
	return ok
}

// Pos returns the row position of id.
func (f *Frame) Pos(id string) (int, bool) {
	p, ok := f.pos[id]
	return p, ok
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string { return append([]string(nil), f.cols...) }

// HasColumn reports whether the named column exists.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.data[name]
	return ok
}

// Column returns a copy of the named column's values in row order.
func (f *Frame) Column(name string) ([]string, error) {
	col, ok := f.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return append([]string(nil), col...), nil
}

// Float64Column parses the named column as float64 values.
func (f *Frame) Float64Column(name string) ([]float64, error) {
	col, ok := f.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	out := make([]float64, len(col))
	for i, s := range col {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("frame: column %q row %d: %v", name, i, err)
		}
		out[i] = v
	}
	return out, nil
}

// At returns the value at row i of the named column, or "" if the column is
// missing.
func (f *Frame) At(i int, name string) string {
	col, ok := f.data[name]
	if !ok {
		return ""
	}
	return col[i]
}

// SetColumn creates or replaces a column. values must match the row count.
func (f *Frame) SetColumn(name string, values []string) error {
	if len(values) != len(f.ids) {
		return fmt.Errorf("frame: column %q has %d values for %d rows", name, len(values), len(f.ids))
	}
	if _, exists := f.data[name]; !exists {
		f.cols = append(f.cols, name)
	}
	f.data[name] = append([]string(nil), values...)
	return nil
}

// Select returns a new frame holding the rows at the given positions, in
// that order. Positions must not repeat (identifiers stay unique).
func (f *Frame) Select(pos []int) (*Frame, error) {
	ids := make([]string, len(pos))
	for i, p := range pos {
		if p < 0 || p >= len(f.ids) {
			return nil, fmt.Errorf("frame: position %d out of range [0,%d)", p, len(f.ids))
		}
		ids[i] = f.ids[p]
	}
	out, err := New(ids)
	if err != nil {
		return nil, err
	}
	for _, name := range f.cols {
		src := f.data[name]
		col := make([]string, len(pos))
		for i, p := range pos {
			col[i] = src[p]
		}
		if err := out.SetColumn(name, col); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SelectIDs returns a new frame re-indexed to the given identifier order.
// Every requested identifier must be present.
func (f *Frame) SelectIDs(ids []string) (*Frame, error) {
	pos := make([]int, len(ids))
	for i, id := range ids {
		p, ok := f.pos[id]
		if !ok {
			return nil, fmt.Errorf("frame: identifier %q not present", id)
		}
		pos[i] = p
	}
	return f.Select(pos)
}

// Reindex returns a new frame re-ordered to the given identifier order.
// Identifiers absent from the frame get empty values in every column; this
// is how data-only identifiers survive alignment against a metadata table
// that does not mention them.
func (f *Frame) Reindex(ids []string) (*Frame, error) {
	out, err := New(ids)
	if err != nil {
		return nil, err
	}
	for _, name := range f.cols {
		src := f.data[name]
		col := make([]string, len(ids))
		for i, id := range ids {
			if p, ok := f.pos[id]; ok {
				col[i] = src[p]
			}
		}
		if err := out.SetColumn(name, col); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// RenameIDs returns a new frame with every identifier passed through fn,
// keeping row order and columns. Renaming must not introduce duplicates.
func (f *Frame) RenameIDs(fn func(string) string) (*Frame, error) {
	ids := make([]string, len(f.ids))
	for i, id := range f.ids {
		ids[i] = fn(id)
	}
	out, err := New(ids)
	if err != nil {
		return nil, err
	}
	for _, name := range f.cols {
		if err := out.SetColumn(name, f.data[name]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	out, _ := New(f.ids)
	for _, name := range f.cols {
		_ = out.SetColumn(name, f.data[name])
	}
	return out
}

// Equal reports whether two frames have identical identifiers, columns and
// values, in the same order.
func (f *Frame) Equal(other *Frame) bool {
	if f.Len() != other.Len() || len(f.cols) != len(other.cols) {
		return false
	}
	for i, id := range f.ids {
		if other.ids[i] != id {
			return false
		}
	}
	for i, name := range f.cols {
		if other.cols[i] != name {
			return false
		}
		oc := other.data[name]
		for j, v := range f.data[name] {
			if oc[j] != v {
				return false
			}
		}
	}
	return true
}
