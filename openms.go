package expt

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/micromics/expt/matrix"
)

// mzRTSeparators are tried in order when splitting metabolite identifiers
// of the form "<mz><sep><rt>".
var mzRTSeparators = []string{"_", " "}

// OpenMSOptions configures ReadOpenMS. The zero value expects rows to be
// metabolites, autodetects the m/z / retention-time separator and does not
// normalize.
type OpenMSOptions struct {
	SampleMetadata  string
	FeatureMetadata string

	// RowsAreSamples flags a transposed bucket table where each row is a
	// sample rather than a metabolite.
	RowsAreSamples bool

	// MZRTSeparator splits metabolite identifiers into m/z and retention
	// time. Empty means autodetect ("_" then " ").
	MZRTSeparator string

	// Normalize, when positive, rescales each sample to this total.
	Normalize float64

	Description string
}

// ReadOpenMS loads a metabolomics bucket table (an OpenMS-style CSV where
// metabolite identifiers encode m/z and retention time). The identifiers
// are split into numeric MZ and RT feature metadata columns.
func ReadOpenMS(dataFile string, opts OpenMSOptions) (*Experiment, error) {
	format := "openms"
	if opts.RowsAreSamples {
		format = "openms_transpose"
	}
	exp, err := Read(dataFile, ReadOptions{
		SampleMetadata:  opts.SampleMetadata,
		FeatureMetadata: opts.FeatureMetadata,
		Format:          format,
		Description:     opts.Description,
		Normalize:       opts.Normalize,
	})
	if err != nil {
		return nil, err
	}

	fids := exp.FeatureMetadata.IDs()
	if len(fids) == 0 {
		return exp, nil
	}
	sep := opts.MZRTSeparator
	if sep == "" {
		sep, err = detectMZRTSeparator(fids[0])
		if err != nil {
			return nil, err
		}
	}
	mz := make([]string, len(fids))
	rt := make([]string, len(fids))
	for i, id := range fids {
		parts := strings.SplitN(id, sep, 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: metabolite id %q does not split on %q",
				ErrAmbiguousFormat, id, sep)
		}
		for _, p := range parts {
			if _, err := strconv.ParseFloat(p, 64); err != nil {
				return nil, fmt.Errorf("%w: metabolite id %q has non-numeric part %q",
					ErrAmbiguousFormat, id, p)
			}
		}
		mz[i], rt[i] = parts[0], parts[1]
	}
	if err := exp.FeatureMetadata.SetColumn("MZ", mz); err != nil {
		return nil, err
	}
	if err := exp.FeatureMetadata.SetColumn("RT", rt); err != nil {
		return nil, err
	}
	return exp, nil
}

// detectMZRTSeparator tries the known separators against an identifier,
// requiring both split halves to be numeric.
func detectMZRTSeparator(id string) (string, error) {
	for _, sep := range mzRTSeparators {
		parts := strings.SplitN(id, sep, 2)
		if len(parts) != 2 {
			continue
		}
		if _, err := strconv.ParseFloat(parts[0], 64); err != nil {
			continue
		}
		if _, err := strconv.ParseFloat(parts[1], 64); err != nil {
			continue
		}
		return sep, nil
	}
	return "", fmt.Errorf("%w: cannot split metabolite id %q into m/z and retention time",
		ErrAmbiguousFormat, id)
}

// readOpenMSTable parses a bucket table CSV: a header of column identifiers
// followed by one row per row identifier. transpose flags tables where rows
// are samples instead of metabolites. The result is always sample-major and
// dense.
func readOpenMSTable(path string, transpose bool) (sids, fids []string, data matrix.Matrix, err error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("expt: reading %s: %w", path, err)
	}
	if len(records) == 0 || len(records[0]) < 2 {
		return nil, nil, nil, fmt.Errorf("%w: %s is not a bucket table", ErrUnsupportedFormat, path)
	}

	colIDs := records[0][1:]
	var rowIDs []string
	values := make([]float64, 0, (len(records)-1)*len(colIDs))
	for n, rec := range records[1:] {
		if len(rec) != len(colIDs)+1 {
			return nil, nil, nil, fmt.Errorf("%w: row %d of %s has %d fields, want %d",
				ErrUnsupportedFormat, n+2, path, len(rec), len(colIDs)+1)
		}
		rowIDs = append(rowIDs, rec[0])
		for _, field := range rec[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("expt: row %d of %s: %w", n+2, path, err)
			}
			values = append(values, v)
		}
	}

	d := matrix.NewDense(len(rowIDs), len(colIDs), values)
	if transpose {
		// rows are samples already
		return rowIDs, colIDs, d, nil
	}
	// rows are metabolites; transpose to sample-major
	t := matrix.NewDense(len(colIDs), len(rowIDs), nil)
	for i := 0; i < len(rowIDs); i++ {
		for j := 0; j < len(colIDs); j++ {
			t.Set(j, i, d.At(i, j))
		}
	}
	return colIDs, rowIDs, t, nil
}
