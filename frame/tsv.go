package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Read loads a tab-delimited table keyed by its first column. The first
// column becomes the row identifiers and is kept as a regular column as
// well, so writes round-trip.
func Read(path string) (*Frame, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	f, err := ReadFrom(fh)
	if err != nil {
		return nil, fmt.Errorf("frame: reading %s: %w", path, err)
	}
	return f, nil
}

// ReadFrom parses a tab-delimited table from r. See Read.
func ReadFrom(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("empty table")
	}
	header := records[0]
	rows := records[1:]

	ids := make([]string, len(rows))
	for i, rec := range rows {
		if len(rec) == 0 {
			return nil, fmt.Errorf("row %d: empty record", i+2)
		}
		ids[i] = rec[0]
	}
	f, err := New(ids)
	if err != nil {
		return nil, err
	}
	for j, name := range header {
		col := make([]string, len(rows))
		for i, rec := range rows {
			if j < len(rec) {
				col[i] = rec[j]
			}
		}
		if err := f.SetColumn(name, col); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Write saves the frame as a tab-delimited table. Columns are written in
// order; a frame whose first column does not carry the identifiers gets an
// implicit leading identifier column so the output stays keyed by its first
// column.
func (f *Frame) Write(path string) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.WriteTo(fh); err != nil {
		fh.Close()
		return fmt.Errorf("frame: writing %s: %w", path, err)
	}
	return fh.Close()
}

// WriteTo writes the frame as TSV to w. See Write.
func (f *Frame) WriteTo(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	cols := f.cols
	writeIDs := len(cols) == 0 || !f.columnIsIndex(cols[0])
	header := cols
	if writeIDs {
		header = append([]string{"id"}, cols...)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(header))
	for i := range f.ids {
		k := 0
		if writeIDs {
			rec[0] = f.ids[i]
			k = 1
		}
		for _, name := range cols {
			rec[k] = f.data[name][i]
			k++
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// columnIsIndex reports whether the named column equals the identifier
// order, meaning the table already carries its own key column.
func (f *Frame) columnIsIndex(name string) bool {
	col := f.data[name]
	for i, id := range f.ids {
		if col[i] != id {
			return false
		}
	}
	return true
}
