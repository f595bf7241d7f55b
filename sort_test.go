package expt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micromics/expt/frame"
	"github.com/micromics/expt/matrix"
)

func TestSortIDsPartition(t *testing.T) {
	exp := testExperiment(t)
	out, err := exp.SortIDs([]string{"F3", "F1"}, Features, false)
	require.NoError(t, err)
	// listed identifiers first in the given order, the rest keep theirs
	assert.Equal(t, []string{"F3", "F1", "F2", "F4", "F5"}, out.FeatureMetadata.IDs())

	out, err = exp.SortIDs([]string{"F9", "F5", "F5"}, Features, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"F5", "F1", "F2", "F3", "F4"}, out.FeatureMetadata.IDs())
}

func TestSortByMetadataNumeric(t *testing.T) {
	exp := testExperiment(t)
	out, err := exp.SortSamples("depth", false)
	require.NoError(t, err)
	// depths 41,42,0,28 sort numerically, not as strings
	assert.Equal(t, []string{"S3", "S4", "S1", "S2"}, out.SampleMetadata.IDs())
}

func TestSortByMetadataLexicographic(t *testing.T) {
	exp := testExperiment(t)
	require.NoError(t, exp.SampleMetadata.SetColumn("site", []string{"pond", "creek", "pond", "bog"}))
	out, err := exp.SortByMetadata("site", Samples, false)
	require.NoError(t, err)
	// ties keep their original relative order
	assert.Equal(t, []string{"S4", "S2", "S1", "S3"}, out.SampleMetadata.IDs())

	_, err = exp.SortByMetadata("nosuch", Samples, false)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSortByDataPrevalence(t *testing.T) {
	exp := testExperimentSparse(t)
	out, err := exp.SortByData("prevalence", Features, nil, false, false)
	require.NoError(t, err)
	// prevalences: F1 F2 F4 at 2/4, F3 F5 at 3/4; stable within ties
	assert.Equal(t, []string{"F1", "F2", "F4", "F3", "F5"}, out.FeatureMetadata.IDs())

	rev, err := exp.SortByData("prevalence", Features, nil, true, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"F5", "F3", "F4", "F2", "F1"}, rev.FeatureMetadata.IDs())

	_, err = exp.SortByData("nosuch", Features, nil, false, false)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSortAbundanceSubset(t *testing.T) {
	exp := testExperiment(t)
	out, err := exp.SortAbundance(map[string][]string{"group": {"a"}}, "mean", false, false)
	require.NoError(t, err)
	// means over S1,S2 only: F5 1.5, F1 2.5, F2 5, F3 12.5, F4 20
	assert.Equal(t, []string{"F5", "F1", "F2", "F3", "F4"}, out.FeatureMetadata.IDs())

	_, err = exp.SortAbundance(map[string][]string{"nosuch": {"a"}}, "mean", false, false)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSortByDataSubsetValidation(t *testing.T) {
	exp := testExperiment(t)
	_, err := exp.SortByData("mean", Features, []int{11}, false, false)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSortCentroid(t *testing.T) {
	data := matrix.NewDense(3, 2, []float64{
		1, 100,
		1, 1,
		100, 1,
	})
	smd, err := frame.New([]string{"S1", "S2", "S3"})
	require.NoError(t, err)
	fmd, err := frame.New([]string{"late", "early"})
	require.NoError(t, err)
	exp, err := New(data, smd, fmd, "")
	require.NoError(t, err)

	out, err := exp.SortCentroid(false)
	require.NoError(t, err)
	// mass concentrated in early samples sorts first
	assert.Equal(t, []string{"early", "late"}, out.FeatureMetadata.IDs())
	// the log transform used for the statistic never touches the output data
	assert.Equal(t, 100.0, out.Data.At(0, 0))
}

func TestClusterDataGroupsSimilarFeatures(t *testing.T) {
	data := matrix.NewDense(3, 4, []float64{
		1, 100, 1.1, 98,
		2, 90, 2.1, 91,
		3, 80, 3.3, 79,
	})
	smd, err := frame.New([]string{"S1", "S2", "S3"})
	require.NoError(t, err)
	fmd, err := frame.New([]string{"F1", "F2", "F3", "F4"})
	require.NoError(t, err)
	exp, err := New(data, smd, fmd, "")
	require.NoError(t, err)

	out, err := exp.ClusterData("euclidean", Features, nil, false)
	require.NoError(t, err)
	ids := out.FeatureMetadata.IDs()
	require.Len(t, ids, 4)
	pos := map[string]int{}
	for i, id := range ids {
		pos[id] = i
	}
	diff := func(a, b string) int {
		d := pos[a] - pos[b]
		if d < 0 {
			d = -d
		}
		return d
	}
	assert.Equal(t, 1, diff("F1", "F3"), "similar features must end up adjacent: %v", ids)
	assert.Equal(t, 1, diff("F2", "F4"), "similar features must end up adjacent: %v", ids)

	_, err = exp.ClusterData("nosuch", Features, nil, false)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestClusterDataDegenerate(t *testing.T) {
	exp := testExperiment(t)
	one, err := exp.Reorder([]int{2}, Features, false)
	require.NoError(t, err)
	out, err := one.ClusterData("euclidean", Features, nil, false)
	require.NoError(t, err)
	_, c := out.Shape()
	assert.Equal(t, 1, c)
}

func TestClusterFeatures(t *testing.T) {
	exp := testExperimentSparse(t)
	out, err := exp.ClusterFeatures(20, false)
	require.NoError(t, err)
	_, c := out.Shape()
	assert.Equal(t, 3, c)
	ids := out.FeatureMetadata.IDs()
	assert.ElementsMatch(t, []string{"F2", "F3", "F4"}, ids)
	// clustering reorders but never transforms the stored values
	for j, id := range ids {
		p, _ := exp.FeatureMetadata.Pos(id)
		for i := 0; i < 4; i++ {
			assert.Equal(t, exp.Data.At(i, p), out.Data.At(i, j))
		}
	}
}
