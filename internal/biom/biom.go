// Package biom reads and writes biom-style observation tables. Three
// encodings are supported: the textual JSON document (biom-format 1.0), the
// classic tab-separated dump, and a compressed binary envelope that wraps
// the JSON document behind a magic signature (the same trick HDF5 uses to
// make files self-identifying).
//
// On disk a biom table is observation-major (features are rows). Table
// always holds the transposed, sample-major matrix, which is what the rest
// of the library works in.
package biom

import (
	"strings"

	"github.com/micromics/expt/matrix"
)

// Table is an in-memory biom table, already transposed to samples-by-features.
type Table struct {
	ID          string
	Type        string
	SampleIDs   []string
	FeatureIDs  []string
	Data        *matrix.CSR
	// FeatureMetadata maps feature id to metadata fields carried in the
	// table itself (commonly "taxonomy"). Nil when the file has none.
	FeatureMetadata map[string]map[string]string
}

// joinList renders a biom metadata list value the way the taxonomy
// convention expects: levels joined by semicolons.
func joinList(parts []interface{}) string {
	strs := make([]string, 0, len(parts))
	for _, p := range parts {
		if s, ok := p.(string); ok {
			strs = append(strs, s)
		}
	}
	return strings.Join(strs, ";")
}
