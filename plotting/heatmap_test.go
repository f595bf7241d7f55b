package plotting

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micromics/expt"
	"github.com/micromics/expt/frame"
	"github.com/micromics/expt/matrix"
)

func plotFixture(t *testing.T) *expt.Experiment {
	t.Helper()
	smd, err := frame.New([]string{"S1", "S2", "S3"})
	require.NoError(t, err)
	fmd, err := frame.New([]string{"F1", "averyverylongsequenceidentifier", "F3"})
	require.NoError(t, err)
	e, err := expt.New(matrix.NewDense(3, 3, []float64{
		0, 10, 100,
		5, 50, 500,
		1, 20, 300,
	}), smd, fmd, "plot fixture")
	require.NoError(t, err)
	return e
}

func TestSavePNG(t *testing.T) {
	e := plotFixture(t)
	path := filepath.Join(t.TempDir(), "heatmap.png")
	require.NoError(t, SavePNG(e, path, HeatmapOptions{Title: "abundances", Log: true}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWriteHTML(t *testing.T) {
	e := plotFixture(t)
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(e, &buf, HeatmapOptions{Log: true}))

	s := buf.String()
	assert.Contains(t, s, "echarts")
	assert.Contains(t, s, "plot fixture", "falls back to the experiment description")
	assert.Contains(t, s, "averyverylon", "feature labels present, truncated")
}

func TestEmptyExperimentRejected(t *testing.T) {
	e := plotFixture(t)
	none, err := e.Reorder(nil, expt.Samples, false)
	require.NoError(t, err)

	assert.Error(t, SavePNG(none, filepath.Join(t.TempDir(), "x.png"), HeatmapOptions{}))
	assert.Error(t, WriteHTML(none, &bytes.Buffer{}, HeatmapOptions{}))
}
