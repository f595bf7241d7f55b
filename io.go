package expt

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/micromics/expt/frame"
	"github.com/micromics/expt/internal/biom"
	"github.com/micromics/expt/internal/monitoring"
	"github.com/micromics/expt/matrix"
)

// ReadOptions configures Read. The zero value reads a biom table with no
// metadata files, keeps the sparse representation and does not normalize.
type ReadOptions struct {
	// SampleMetadata and FeatureMetadata are optional paths to
	// tab-delimited tables keyed by their first column.
	SampleMetadata  string
	FeatureMetadata string

	// Format tags the data file: "biom" (default, accepting both the
	// binary envelope and plain JSON), "openms" (bucket table CSV, rows
	// are features) or "openms_transpose" (rows are samples).
	Format string

	// Description names the experiment; defaults to the data file name.
	Description string

	// Drop removes samples/features that have data but no metadata row.
	// Without it they are kept with empty metadata values.
	Drop bool

	// Dense forces the dense representation for formats that load
	// sparsely.
	Dense bool

	// Normalize, when positive, rescales each sample to this total after
	// construction.
	Normalize float64
}

// Read loads an experiment: the data matrix plus optional sample/feature
// metadata tables, aligned by identifier. Identifier mismatches between the
// matrix and a metadata table are warnings, never failures: metadata-only
// identifiers are dropped, data-only identifiers are kept (or dropped under
// opts.Drop). The metadata tables in the result are always re-ordered to
// the matrix identifier order.
func Read(dataFile string, opts ReadOptions) (*Experiment, error) {
	format := opts.Format
	if format == "" {
		format = "biom"
	}
	monitoring.Debugf("reading experiment (%s, %s, %s)", dataFile, opts.SampleMetadata, opts.FeatureMetadata)

	var (
		sids, fids []string
		data       matrix.Matrix
		biomMD     map[string]map[string]string
	)
	switch format {
	case "biom":
		t, err := biom.ReadFile(dataFile)
		if err != nil {
			return nil, err
		}
		sids, fids, biomMD = t.SampleIDs, t.FeatureIDs, t.FeatureMetadata
		data = t.Data
		if opts.Dense {
			data = data.Dense()
		}
	case "openms", "openms_transpose":
		var err error
		sids, fids, data, err = readOpenMSTable(dataFile, format == "openms_transpose")
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	monitoring.Debugf("loaded %d samples, %d features", len(sids), len(fids))

	sampleMD, sampleKeep, err := alignMetadata(opts.SampleMetadata, sids, "samples")
	if err != nil {
		return nil, err
	}
	featureMD, featureKeep, err := alignMetadata(opts.FeatureMetadata, fids, "features")
	if err != nil {
		return nil, err
	}
	if biomMD != nil {
		if err := mergeBiomMetadata(featureMD, biomMD); err != nil {
			return nil, err
		}
	}

	description := opts.Description
	if description == "" {
		description = filepath.Base(dataFile)
	}
	exp, err := New(data, sampleMD, featureMD, description)
	if err != nil {
		return nil, err
	}
	exp.Metadata["experiment_id"] = uuid.NewString()
	exp.Metadata["data_file"] = dataFile
	exp.Metadata["sample_metadata_file"] = opts.SampleMetadata
	exp.Metadata["feature_metadata_file"] = opts.FeatureMetadata
	exp.Metadata["data_md5"] = dataMD5(data)
	exp.Metadata["map_md5"] = ""
	if opts.SampleMetadata != "" {
		sum, err := fileMD5(opts.SampleMetadata)
		if err != nil {
			return nil, err
		}
		exp.Metadata["map_md5"] = sum
	}

	if opts.Drop {
		if sampleKeep != nil {
			if _, err := exp.ReorderMask(sampleKeep, Samples, true); err != nil {
				return nil, err
			}
		}
		if featureKeep != nil {
			if _, err := exp.ReorderMask(featureKeep, Features, true); err != nil {
				return nil, err
			}
		}
	}
	if opts.Normalize > 0 {
		if _, err := exp.Normalize(opts.Normalize, Samples, true); err != nil {
			return nil, err
		}
	}
	return exp, nil
}

// alignMetadata loads a metadata table and re-indexes it to the matrix
// identifier order. The returned mask marks identifiers that do have a
// metadata row; it is nil when no table was given (a minimal single-column
// table is synthesized instead).
func alignMetadata(path string, ids []string, what string) (*frame.Frame, []bool, error) {
	if path == "" {
		f, err := frame.New(ids)
		if err != nil {
			return nil, nil, fmt.Errorf("expt: %s: %w", what, err)
		}
		if err := f.SetColumn("id", ids); err != nil {
			return nil, nil, err
		}
		return f, nil, nil
	}

	raw, err := frame.Read(path)
	if err != nil {
		return nil, nil, err
	}
	inData := make(map[string]bool, len(ids))
	for _, id := range ids {
		inData[id] = true
	}
	var metadataOnly []string
	for _, id := range raw.IDs() {
		if !inData[id] {
			metadataOnly = append(metadataOnly, id)
		}
	}
	if len(metadataOnly) > 0 {
		monitoring.Warnf("%d %s have metadata but no data and are dropped: %v",
			len(metadataOnly), what, metadataOnly)
	}

	keep := make([]bool, len(ids))
	var dataOnly []string
	for i, id := range ids {
		keep[i] = raw.Has(id)
		if !keep[i] {
			dataOnly = append(dataOnly, id)
		}
	}
	if len(dataOnly) > 0 {
		monitoring.Warnf("%d %s have data but no metadata: %v", len(dataOnly), what, dataOnly)
	}

	aligned, err := raw.Reindex(ids)
	if err != nil {
		return nil, nil, fmt.Errorf("expt: aligning %s metadata: %w", what, err)
	}
	return aligned, keep, nil
}

// mergeBiomMetadata copies per-feature metadata carried inside a biom table
// (commonly taxonomy) into the feature metadata frame.
func mergeBiomMetadata(featureMD *frame.Frame, biomMD map[string]map[string]string) error {
	fieldSet := make(map[string]bool)
	var fields []string
	for _, md := range biomMD {
		for k := range md {
			if !fieldSet[k] {
				fieldSet[k] = true
				fields = append(fields, k)
			}
		}
	}
	ids := featureMD.IDs()
	for _, field := range fields {
		col := make([]string, len(ids))
		for i, id := range ids {
			col[i] = biomMD[id][field]
		}
		if err := featureMD.SetColumn(field, col); err != nil {
			return err
		}
	}
	return nil
}

// Save writes the experiment next to prefix: the data table as
// "<prefix>.biom" and the metadata tables as "<prefix>_sample.txt" and
// "<prefix>_feature.txt". format selects the biom encoding ("binary",
// "json" or "txt"); empty means binary.
func (e *Experiment) Save(prefix, format string) error {
	if err := e.SaveBiom(prefix+".biom", format); err != nil {
		return err
	}
	if err := e.SaveSampleMetadata(prefix + "_sample.txt"); err != nil {
		return err
	}
	return e.SaveFeatureMetadata(prefix + "_feature.txt")
}

// SaveBiom writes the data table in the requested biom encoding. The "txt"
// encoding cannot carry feature metadata; a warning is logged when taxonomy
// would be lost.
func (e *Experiment) SaveBiom(path, format string) error {
	if format == "" {
		format = "binary"
	}
	monitoring.Debugf("saving biom table to %s, format %s", path, format)
	t := e.biomTable()
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fh.Close()
	switch format {
	case "binary":
		err = biom.WriteBinary(t, fh)
	case "json":
		err = biom.WriteJSON(t, fh)
	case "txt":
		if t.FeatureMetadata != nil {
			monitoring.Warnf("the txt format does not carry feature metadata; saving without it")
		}
		err = biom.WriteTSV(t, fh)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return err
	}
	return fh.Sync()
}

// biomTable converts the experiment into the codec's table form, carrying
// the taxonomy column when present.
func (e *Experiment) biomTable() *biom.Table {
	var data *matrix.CSR
	if c, ok := e.Data.(*matrix.CSR); ok {
		data = c.Clone().(*matrix.CSR)
	} else {
		data = matrix.NewCSRFromDense(e.Data.Dense())
	}
	t := &biom.Table{
		ID:         e.Description,
		Type:       "OTU table",
		SampleIDs:  e.SampleMetadata.IDs(),
		FeatureIDs: e.FeatureMetadata.IDs(),
		Data:       data,
	}
	if e.FeatureMetadata.HasColumn("taxonomy") {
		col, _ := e.FeatureMetadata.Column("taxonomy")
		t.FeatureMetadata = make(map[string]map[string]string, len(col))
		for i, id := range t.FeatureIDs {
			t.FeatureMetadata[id] = map[string]string{"taxonomy": col[i]}
		}
	}
	return t
}

// SaveSampleMetadata writes the sample metadata table as TSV.
func (e *Experiment) SaveSampleMetadata(path string) error {
	return e.SampleMetadata.Write(path)
}

// SaveFeatureMetadata writes the feature metadata table as TSV.
func (e *Experiment) SaveFeatureMetadata(path string) error {
	return e.FeatureMetadata.Write(path)
}

// SaveFasta writes feature identifiers as FASTA records, using the feature
// identifier as the sequence. Headers carry the taxonomy annotation when a
// taxonomy column exists. ids nil exports every feature; listed ids missing
// from the experiment are skipped.
func (e *Experiment) SaveFasta(path string, ids []string) error {
	if ids == nil {
		ids = e.FeatureMetadata.IDs()
	}
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	hasTax := e.FeatureMetadata.HasColumn("taxonomy")
	skipped := 0
	for idx, id := range ids {
		p, ok := e.FeatureMetadata.Pos(id)
		if !ok {
			skipped++
			continue
		}
		header := fmt.Sprintf("%d %s", idx, id)
		if hasTax {
			header = fmt.Sprintf("%d %s", idx, e.FeatureMetadata.At(p, "taxonomy"))
		}
		if _, err := fmt.Fprintf(fh, ">%s\n%s\n", header, id); err != nil {
			return err
		}
	}
	monitoring.Debugf("wrote fasta with %d sequences, %d skipped", len(ids)-skipped, skipped)
	return fh.Sync()
}

// dataMD5 hashes the matrix shape and entries, for provenance tracking.
func dataMD5(m matrix.Matrix) string {
	h := md5.New()
	r, c := m.Dims()
	binary.Write(h, binary.LittleEndian, int64(r))
	binary.Write(h, binary.LittleEndian, int64(c))
	var buf []float64
	for i := 0; i < r; i++ {
		buf = m.Row(buf, i)
		for _, v := range buf {
			binary.Write(h, binary.LittleEndian, math.Float64bits(v))
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// fileMD5 hashes a file's raw bytes.
func fileMD5(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", md5.Sum(b)), nil
}
