package expt

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micromics/expt/frame"
	"github.com/micromics/expt/matrix"
)

func TestReadAmplicon(t *testing.T) {
	// mixed-case sequence ids and one sample well below the read cutoff
	data := matrix.NewDense(3, 2, []float64{
		80, 120,
		2, 3,
		50, 150,
	})
	smd, err := frame.New([]string{"S1", "S2", "S3"})
	require.NoError(t, err)
	require.NoError(t, smd.SetColumn("site", []string{"a", "b", "a"}))
	fmd, err := frame.New([]string{"acgt", "TTgg"})
	require.NoError(t, err)
	exp, err := New(data, smd, fmd, "")
	require.NoError(t, err)

	dir := t.TempDir()
	biomPath := filepath.Join(dir, "reads.biom")
	require.NoError(t, exp.SaveBiom(biomPath, "binary"))
	mdPath := filepath.Join(dir, "map.txt")
	require.NoError(t, exp.SaveSampleMetadata(mdPath))

	got, err := ReadAmplicon(biomPath, mdPath, AmpliconOptions{
		FilterReads: 10,
		Normalize:   100,
	})
	require.NoError(t, err)

	// sequence ids compare case-insensitively after loading
	assert.Equal(t, []string{"ACGT", "TTGG"}, got.FeatureMetadata.IDs())

	// a taxonomy column is synthesized when the table carries none
	tax, err := got.FeatureMetadata.Column("taxonomy")
	require.NoError(t, err)
	assert.Equal(t, []string{"NA", "NA"}, tax)

	// S2 (5 reads) falls below the cutoff; survivors are renormalized
	assert.Equal(t, []string{"S1", "S3"}, got.SampleMetadata.IDs())
	r, c := got.Shape()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.InDelta(t, 40.0, got.Data.At(0, 0), 1e-9)
	assert.InDelta(t, 75.0, got.Data.At(1, 1), 1e-9)
	assert.Equal(t, 100.0, got.Metadata["normalized"])
}

func TestReadAmpliconKeepsTaxonomy(t *testing.T) {
	exp := testExperiment(t)
	prefix := filepath.Join(t.TempDir(), "exp")
	require.NoError(t, exp.Save(prefix, "binary"))

	got, err := ReadAmplicon(prefix+".biom", prefix+"_sample.txt", AmpliconOptions{
		FeatureMetadata: prefix + "_feature.txt",
	})
	require.NoError(t, err)
	tax, err := got.FeatureMetadata.Column("taxonomy")
	require.NoError(t, err)
	assert.Equal(t, "k__Bacteria; p__Firmicutes", tax[0])
}
