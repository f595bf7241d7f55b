package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture returns the same 3×4 matrix in both representations.
func fixture(t *testing.T, sparse bool) Matrix {
	t.Helper()
	data := []float64{
		1, 0, 2, 0,
		0, 3, 0, 4,
		5, 0, 0, 6,
	}
	d := NewDense(3, 4, data)
	if sparse {
		return NewCSRFromDense(d)
	}
	return d
}

func TestRepresentations(t *testing.T) {
	for _, sparse := range []bool{false, true} {
		name := "dense"
		if sparse {
			name = "csr"
		}
		t.Run(name, func(t *testing.T) {
			m := fixture(t, sparse)
			r, c := m.Dims()
			assert.Equal(t, 3, r)
			assert.Equal(t, 4, c)
			assert.Equal(t, sparse, m.IsSparse())
			assert.Equal(t, 3.0, m.At(1, 1))
			assert.Equal(t, 0.0, m.At(0, 3))

			assert.Equal(t, []float64{3, 7, 11}, m.RowSums())
			assert.Equal(t, []float64{6, 3, 2, 10}, m.ColSums())

			assert.Equal(t, []float64{0, 3, 0, 4}, m.Row(nil, 1))
			assert.Equal(t, []float64{0, 4, 6}, m.Col(nil, 3))
		})
	}
}

func TestSelectRows(t *testing.T) {
	for _, sparse := range []bool{false, true} {
		m := fixture(t, sparse)
		sel := m.SelectRows([]int{2, 0})
		r, c := sel.Dims()
		require.Equal(t, 2, r)
		require.Equal(t, 4, c)
		assert.Equal(t, []float64{5, 0, 0, 6}, sel.Row(nil, 0))
		assert.Equal(t, []float64{1, 0, 2, 0}, sel.Row(nil, 1))

		// the original is untouched
		assert.Equal(t, []float64{1, 0, 2, 0}, m.Row(nil, 0))
	}
}

func TestSelectCols(t *testing.T) {
	for _, sparse := range []bool{false, true} {
		m := fixture(t, sparse)
		sel := m.SelectCols([]int{3, 0, 0})
		r, c := sel.Dims()
		require.Equal(t, 3, r)
		require.Equal(t, 3, c)
		assert.Equal(t, []float64{0, 1, 1}, sel.Row(nil, 0))
		assert.Equal(t, []float64{4, 0, 0}, sel.Row(nil, 1))
		assert.Equal(t, []float64{6, 5, 5}, sel.Row(nil, 2))
	}
}

func TestSelectEmpty(t *testing.T) {
	for _, sparse := range []bool{false, true} {
		m := fixture(t, sparse)
		none := m.SelectRows(nil)
		r, c := none.Dims()
		assert.Equal(t, 0, r)
		assert.Equal(t, 4, c)
		assert.Equal(t, []float64{0, 0, 0, 0}, none.ColSums())

		nocol := m.SelectCols([]int{})
		r, c = nocol.Dims()
		assert.Equal(t, 3, r)
		assert.Equal(t, 0, c)
		assert.Equal(t, []float64{0, 0, 0}, nocol.RowSums())
	}
}

func TestScaleOps(t *testing.T) {
	for _, sparse := range []bool{false, true} {
		m := fixture(t, sparse)
		m.Scale(2)
		assert.Equal(t, []float64{6, 14, 22}, m.RowSums())

		m = fixture(t, sparse)
		m.ScaleRows([]float64{1, 10, 100})
		assert.Equal(t, []float64{3, 70, 1100}, m.RowSums())

		m = fixture(t, sparse)
		m.ScaleCols([]float64{0, 1, 1, 1})
		assert.Equal(t, []float64{0, 3, 2, 10}, m.ColSums())
	}
}

func TestApplyAndClone(t *testing.T) {
	for _, sparse := range []bool{false, true} {
		m := fixture(t, sparse)
		clone := m.Clone()
		m.Apply(func(v float64) float64 {
			if v > 2 {
				return 1
			}
			return 0
		})
		assert.Equal(t, 1.0, m.At(1, 1))
		assert.Equal(t, 0.0, m.At(0, 0))
		// clone keeps original values
		assert.Equal(t, 1.0, clone.At(0, 0))
	}
}

func TestCSRFromTriples(t *testing.T) {
	m := NewCSR(2, 3,
		[]int{1, 0, 1, 1},
		[]int{2, 0, 0, 0},
		[]float64{5, 1, 2, 3})
	assert.Equal(t, 1.0, m.At(0, 0))
	assert.Equal(t, 5.0, m.At(1, 2))
	// duplicates are summed
	assert.Equal(t, 5.0, m.At(1, 0))
	assert.Equal(t, 3, m.NNZ())

	rows, cols, vals := m.Triples()
	assert.Equal(t, []int{0, 1, 1}, rows)
	assert.Equal(t, []int{0, 0, 2}, cols)
	assert.Equal(t, []float64{1, 5, 5}, vals)
}

func TestDenseRoundTrip(t *testing.T) {
	m := fixture(t, true).(*CSR)
	d := m.Dense()
	assert.True(t, EqualApprox(m, d, 0))
	back := NewCSRFromDense(d)
	assert.True(t, EqualApprox(m, back, 0))
	assert.Equal(t, m.NNZ(), back.NNZ())
}
