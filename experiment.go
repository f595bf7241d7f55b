// Package expt wrangles microbiome and metabolomics experiment tables: a
// samples-by-features abundance matrix kept aligned with a per-sample and a
// per-feature metadata table. Reading, writing, reordering, filtering,
// sorting, clustering and numeric transforms all preserve the alignment
// invariants — metadata row order always equals matrix row/column order and
// identifiers stay unique.
package expt

import (
	"fmt"

	"github.com/micromics/expt/frame"
	"github.com/micromics/expt/matrix"
)

// Experiment is the aligned triple of abundance matrix, sample metadata and
// feature metadata, plus a free-form provenance bag.
//
// Invariants, maintained by every operation:
//   - SampleMetadata has exactly one row per matrix row, in matrix order.
//   - FeatureMetadata has exactly one row per matrix column, in matrix order.
//   - identifiers within each metadata table are unique.
//
// Operations take an inplace flag: false computes on a deep copy and leaves
// the receiver untouched, true mutates the receiver and returns it.
type Experiment struct {
	Data            matrix.Matrix
	SampleMetadata  *frame.Frame
	FeatureMetadata *frame.Frame

	// Metadata carries experiment-level provenance: source file paths,
	// content hashes, normalization depth.
	Metadata map[string]interface{}

	Description string
}

// New assembles an experiment and checks the alignment invariants once.
func New(data matrix.Matrix, sampleMD, featureMD *frame.Frame, description string) (*Experiment, error) {
	r, c := data.Dims()
	if sampleMD.Len() != r {
		return nil, fmt.Errorf("expt: %d sample metadata rows for %d samples", sampleMD.Len(), r)
	}
	if featureMD.Len() != c {
		return nil, fmt.Errorf("expt: %d feature metadata rows for %d features", featureMD.Len(), c)
	}
	return &Experiment{
		Data:            data,
		SampleMetadata:  sampleMD,
		FeatureMetadata: featureMD,
		Metadata:        make(map[string]interface{}),
		Description:     description,
	}, nil
}

// Shape returns (number of samples, number of features).
func (e *Experiment) Shape() (int, int) { return e.Data.Dims() }

// Sparse reports whether the matrix is held in compressed sparse row form.
func (e *Experiment) Sparse() bool { return e.Data.IsSparse() }

// Copy returns a deep copy: matrix, both metadata tables and the provenance
// bag are all duplicated.
func (e *Experiment) Copy() *Experiment {
	md := make(map[string]interface{}, len(e.Metadata))
	for k, v := range e.Metadata {
		md[k] = v
	}
	return &Experiment{
		Data:            e.Data.Clone(),
		SampleMetadata:  e.SampleMetadata.Clone(),
		FeatureMetadata: e.FeatureMetadata.Clone(),
		Metadata:        md,
		Description:     e.Description,
	}
}

// target implements the in-place/copy duality: it returns the receiver when
// inplace, a deep copy otherwise.
func (e *Experiment) target(inplace bool) *Experiment {
	if inplace {
		return e
	}
	return e.Copy()
}

// Dense converts the data matrix to its dense representation in place.
// Operations that center or log-transform call this; the conversion is a
// documented side effect of those transforms.
func (e *Experiment) Dense() {
	e.Data = e.Data.Dense()
}

// ToSparse compresses the data matrix to CSR form in place, dropping zeros.
func (e *Experiment) ToSparse() {
	if d, ok := e.Data.(*matrix.Dense); ok {
		e.Data = matrix.NewCSRFromDense(d)
	}
}

// metadataFor returns the metadata table governing the given axis.
func (e *Experiment) metadataFor(axis Axis) *frame.Frame {
	if axis == Samples {
		return e.SampleMetadata
	}
	return e.FeatureMetadata
}

// axisLen returns the matrix extent along the given axis.
func (e *Experiment) axisLen(axis Axis) int {
	r, c := e.Data.Dims()
	if axis == Samples {
		return r
	}
	return c
}

// EqualApprox reports whether two experiments hold the same aligned content:
// identical metadata tables and matrix entries within tol. Representation
// (sparse vs dense) and provenance are ignored.
func (e *Experiment) EqualApprox(other *Experiment, tol float64) bool {
	return matrix.EqualApprox(e.Data, other.Data, tol) &&
		e.SampleMetadata.Equal(other.SampleMetadata) &&
		e.FeatureMetadata.Equal(other.FeatureMetadata)
}

func (e *Experiment) String() string {
	r, c := e.Shape()
	repr := "dense"
	if e.Sparse() {
		repr = "sparse"
	}
	return fmt.Sprintf("Experiment %q: %d samples x %d features (%s)", e.Description, r, c, repr)
}
