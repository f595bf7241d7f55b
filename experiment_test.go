package expt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micromics/expt/frame"
	"github.com/micromics/expt/matrix"
)

// testExperiment builds the shared fixture: 4 samples by 5 features with an
// all-zero sample, a two-value grouping column and a numeric depth column.
func testExperiment(t *testing.T) *Experiment {
	t.Helper()
	data := matrix.NewDense(4, 5, []float64{
		0, 10, 10, 20, 1,
		5, 0, 15, 20, 2,
		0, 0, 0, 0, 0,
		10, 10, 5, 0, 3,
	})
	smd, err := frame.New([]string{"S1", "S2", "S3", "S4"})
	require.NoError(t, err)
	require.NoError(t, smd.SetColumn("group", []string{"a", "a", "b", "b"}))
	require.NoError(t, smd.SetColumn("depth", []string{"41", "42", "0", "28"}))

	fmd, err := frame.New([]string{"F1", "F2", "F3", "F4", "F5"})
	require.NoError(t, err)
	require.NoError(t, fmd.SetColumn("taxonomy", []string{
		"k__Bacteria; p__Firmicutes",
		"k__Bacteria; p__Bacteroidetes",
		"k__Bacteria; p__Proteobacteria",
		"k__Bacteria; p__Firmicutes",
		"k__Bacteria; p__Actinobacteria",
	}))

	exp, err := New(data, smd, fmd, "fixture")
	require.NoError(t, err)
	return exp
}

// testExperimentSparse is the same fixture held in CSR form.
func testExperimentSparse(t *testing.T) *Experiment {
	t.Helper()
	exp := testExperiment(t)
	exp.ToSparse()
	require.True(t, exp.Sparse())
	return exp
}

func TestNewValidatesAlignment(t *testing.T) {
	data := matrix.NewDense(2, 2, []float64{1, 2, 3, 4})
	two, err := frame.New([]string{"A", "B"})
	require.NoError(t, err)
	three, err := frame.New([]string{"A", "B", "C"})
	require.NoError(t, err)

	_, err = New(data, three, two, "")
	assert.Error(t, err)
	_, err = New(data, two, three, "")
	assert.Error(t, err)
	_, err = New(data, two, two, "")
	assert.NoError(t, err)
}

func TestCopyIsDeep(t *testing.T) {
	exp := testExperiment(t)
	cp := exp.Copy()
	require.True(t, exp.EqualApprox(cp, 0))

	cp.Data.(*matrix.Dense).Set(0, 0, 99)
	require.NoError(t, cp.SampleMetadata.SetColumn("group", []string{"x", "x", "x", "x"}))
	cp.Metadata["normalized"] = 10000.0

	assert.Equal(t, 0.0, exp.Data.At(0, 0))
	col, _ := exp.SampleMetadata.Column("group")
	assert.Equal(t, []string{"a", "a", "b", "b"}, col)
	assert.NotContains(t, exp.Metadata, "normalized")
}

func TestInplaceVersusCopy(t *testing.T) {
	exp := testExperiment(t)

	out, err := exp.Normalize(100, Samples, false)
	require.NoError(t, err)
	assert.NotSame(t, exp, out)
	assert.Equal(t, 10.0, exp.Data.At(0, 1), "copy path must leave the receiver untouched")

	same, err := exp.Normalize(100, Samples, true)
	require.NoError(t, err)
	assert.Same(t, exp, same)
	assert.InDelta(t, 100.0/41.0*10.0, exp.Data.At(0, 1), 1e-9)
}

func TestReorderComposition(t *testing.T) {
	exp := testExperiment(t)
	p1 := []int{3, 0, 2, 1}
	p2 := []int{2, 1, 0, 3}

	step, err := exp.Reorder(p1, Samples, false)
	require.NoError(t, err)
	twice, err := step.Reorder(p2, Samples, false)
	require.NoError(t, err)

	composed := make([]int, len(p2))
	for i, p := range p2 {
		composed[i] = p1[p]
	}
	direct, err := exp.Reorder(composed, Samples, false)
	require.NoError(t, err)

	assert.True(t, twice.EqualApprox(direct, 0))
	assert.Equal(t, direct.SampleMetadata.IDs(), twice.SampleMetadata.IDs())
}

func TestReorderValidation(t *testing.T) {
	exp := testExperiment(t)

	_, err := exp.Reorder([]int{0, 4}, Samples, false)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = exp.Reorder([]int{1, 1}, Samples, false)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = exp.Reorder([]int{0}, Axis(7), false)
	assert.ErrorIs(t, err, ErrUnknownAxis)

	// subsetting is legal, including down to nothing
	sub, err := exp.Reorder([]int{2}, Features, false)
	require.NoError(t, err)
	_, c := sub.Shape()
	assert.Equal(t, 1, c)

	empty, err := exp.Reorder(nil, Samples, false)
	require.NoError(t, err)
	r, c := empty.Shape()
	assert.Equal(t, 0, r)
	assert.Equal(t, 5, c)
}

func TestReorderMaskLength(t *testing.T) {
	exp := testExperiment(t)
	_, err := exp.ReorderMask([]bool{true, false}, Samples, false)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestReorderIDsSkipsMissing(t *testing.T) {
	exp := testExperiment(t)
	out, err := exp.ReorderIDs([]string{"S4", "S9", "S1"}, Samples, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"S4", "S1"}, out.SampleMetadata.IDs())
}

func TestSparseDenseAgree(t *testing.T) {
	dense := testExperiment(t)
	sparse := testExperimentSparse(t)
	assert.True(t, dense.EqualApprox(sparse, 0))

	d, err := dense.Reorder([]int{4, 1, 0}, Features, false)
	require.NoError(t, err)
	s, err := sparse.Reorder([]int{4, 1, 0}, Features, false)
	require.NoError(t, err)
	assert.True(t, d.EqualApprox(s, 0))
	assert.True(t, s.Sparse())
}

func TestParseAxis(t *testing.T) {
	for tok, want := range map[string]Axis{
		"0": Samples, "s": Samples, "sample": Samples, "samples": Samples,
		"1": Features, "f": Features, "feature": Features, "features": Features,
	} {
		got, err := ParseAxis(tok)
		require.NoError(t, err, tok)
		assert.Equal(t, want, got, tok)
	}
	_, err := ParseAxis("rows")
	assert.ErrorIs(t, err, ErrUnknownAxis)
}
