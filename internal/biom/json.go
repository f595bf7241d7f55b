package biom

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/micromics/expt/matrix"
)

const (
	formatName = "Biological Observation Matrix 1.0.0"
	formatURL  = "http://biom-format.org"
)

// jsonAxisEntry is one row/column descriptor in a biom JSON document.
type jsonAxisEntry struct {
	ID       string                 `json:"id"`
	Metadata map[string]interface{} `json:"metadata"`
}

// jsonTable mirrors the biom-format 1.0 JSON document. Shape and data are
// observation-major as mandated by the format.
type jsonTable struct {
	ID                string          `json:"id"`
	Format            string          `json:"format"`
	FormatURL         string          `json:"format_url"`
	Type              string          `json:"type"`
	GeneratedBy       string          `json:"generated_by"`
	Date              string          `json:"date"`
	MatrixType        string          `json:"matrix_type"`
	MatrixElementType string          `json:"matrix_element_type"`
	Shape             [2]int          `json:"shape"`
	Data              [][]float64     `json:"data"`
	Rows              []jsonAxisEntry `json:"rows"`
	Columns           []jsonAxisEntry `json:"columns"`
}

// ReadJSON parses a biom 1.0 JSON document and transposes it into a
// sample-major Table.
func ReadJSON(r io.Reader) (*Table, error) {
	var doc jsonTable
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("biom: decoding json table: %w", err)
	}
	nObs, nSamp := doc.Shape[0], doc.Shape[1]
	if len(doc.Rows) != nObs || len(doc.Columns) != nSamp {
		return nil, fmt.Errorf("biom: shape %v does not match %d rows, %d columns",
			doc.Shape, len(doc.Rows), len(doc.Columns))
	}

	t := &Table{
		ID:         doc.ID,
		Type:       doc.Type,
		SampleIDs:  make([]string, nSamp),
		FeatureIDs: make([]string, nObs),
	}
	for i, c := range doc.Columns {
		t.SampleIDs[i] = c.ID
	}
	for i, r := range doc.Rows {
		t.FeatureIDs[i] = r.ID
		if r.Metadata == nil {
			continue
		}
		if t.FeatureMetadata == nil {
			t.FeatureMetadata = make(map[string]map[string]string)
		}
		md := make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			switch val := v.(type) {
			case string:
				md[k] = val
			case []interface{}:
				md[k] = joinList(val)
			case float64:
				md[k] = fmt.Sprintf("%g", val)
			}
		}
		t.FeatureMetadata[r.ID] = md
	}

	// transpose observation-major triples into sample-major
	var rows, cols []int
	var vals []float64
	switch doc.MatrixType {
	case "sparse":
		rows = make([]int, 0, len(doc.Data))
		cols = make([]int, 0, len(doc.Data))
		vals = make([]float64, 0, len(doc.Data))
		for _, triple := range doc.Data {
			if len(triple) != 3 {
				return nil, fmt.Errorf("biom: sparse entry has %d elements", len(triple))
			}
			obs, samp := int(triple[0]), int(triple[1])
			if obs < 0 || obs >= nObs || samp < 0 || samp >= nSamp {
				return nil, fmt.Errorf("biom: sparse entry (%d,%d) outside shape %v", obs, samp, doc.Shape)
			}
			rows = append(rows, samp)
			cols = append(cols, obs)
			vals = append(vals, triple[2])
		}
	case "dense":
		if len(doc.Data) != nObs {
			return nil, fmt.Errorf("biom: dense data has %d rows, want %d", len(doc.Data), nObs)
		}
		for obs, row := range doc.Data {
			if len(row) != nSamp {
				return nil, fmt.Errorf("biom: dense row %d has %d values, want %d", obs, len(row), nSamp)
			}
			for samp, v := range row {
				if v == 0 {
					continue
				}
				rows = append(rows, samp)
				cols = append(cols, obs)
				vals = append(vals, v)
			}
		}
	default:
		return nil, fmt.Errorf("biom: unknown matrix_type %q", doc.MatrixType)
	}
	t.Data = matrix.NewCSR(nSamp, nObs, rows, cols, vals)
	return t, nil
}

// WriteJSON renders the table as a sparse biom 1.0 JSON document.
func WriteJSON(t *Table, w io.Writer) error {
	doc := buildJSONDoc(t)
	enc := json.NewEncoder(w)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("biom: encoding json table: %w", err)
	}
	return nil
}

func buildJSONDoc(t *Table) *jsonTable {
	nSamp := len(t.SampleIDs)
	nObs := len(t.FeatureIDs)
	doc := &jsonTable{
		ID:                t.ID,
		Format:            formatName,
		FormatURL:         formatURL,
		Type:              t.Type,
		GeneratedBy:       "expt",
		Date:              time.Now().Format(time.RFC3339),
		MatrixType:        "sparse",
		MatrixElementType: "float",
		Shape:             [2]int{nObs, nSamp},
		Rows:              make([]jsonAxisEntry, nObs),
		Columns:           make([]jsonAxisEntry, nSamp),
	}
	if doc.Type == "" {
		doc.Type = "OTU table"
	}
	for i, id := range t.SampleIDs {
		doc.Columns[i] = jsonAxisEntry{ID: id}
	}
	for i, id := range t.FeatureIDs {
		entry := jsonAxisEntry{ID: id}
		if md, ok := t.FeatureMetadata[id]; ok {
			entry.Metadata = make(map[string]interface{}, len(md))
			for k, v := range md {
				entry.Metadata[k] = v
			}
		}
		doc.Rows[i] = entry
	}

	// emit observation-major sparse triples in deterministic order
	rowIdx, colIdx, vals := t.Data.Triples()
	byObs := make([][]int, nObs)
	for k, c := range colIdx {
		byObs[c] = append(byObs[c], k)
	}
	doc.Data = make([][]float64, 0, len(vals))
	for obs, ks := range byObs {
		for _, k := range ks {
			doc.Data = append(doc.Data, []float64{float64(obs), float64(rowIdx[k]), vals[k]})
		}
	}
	return doc
}
