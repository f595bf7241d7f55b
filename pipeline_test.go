package expt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformChain(t *testing.T) {
	exp := testExperimentSparse(t)
	out, err := exp.Transform([]Transformer{
		NormalizeStep{Total: 100},
		LogNStep{},
	}, false)
	require.NoError(t, err)

	assert.True(t, exp.Sparse(), "chain with inplace=false works on a copy")
	assert.False(t, out.Sparse())
	// S1 F4: 20/41*100 then log2
	assert.InDelta(t, math.Log2(20.0/41.0*100), out.Data.At(0, 3), 1e-9)
	assert.Equal(t, 100.0, out.Metadata["normalized"])
}

func TestTransformDefaults(t *testing.T) {
	exp := testExperiment(t)

	out, err := exp.Transform([]Transformer{NormalizeStep{}}, false)
	require.NoError(t, err)
	sums := out.Data.RowSums()
	assert.InDelta(t, 10000, sums[0], 1e-9)

	out, err = exp.Transform([]Transformer{LogNStep{}}, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Data.At(0, 0), "default floor is 1")
}

func TestTransformStepErrorNamesStep(t *testing.T) {
	exp := testExperiment(t)
	_, err := exp.Transform([]Transformer{
		LogNStep{},
		ScaleStep{Axis: Axis(9)},
	}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownAxis)
	assert.Contains(t, err.Error(), "transform step scale")
	// failed chains never touch the receiver
	assert.Equal(t, 10.0, exp.Data.At(0, 1))
}

func TestTransformInplace(t *testing.T) {
	exp := testExperiment(t)
	out, err := exp.Transform([]Transformer{BinarizeStep{Threshold: 0}}, true)
	require.NoError(t, err)
	assert.Same(t, exp, out)
	assert.Equal(t, 1.0, exp.Data.At(0, 1))
}
