// Package matrix provides the abundance-matrix storage for experiment
// tables. A matrix is rows-by-columns float64 data held either densely
// (backed by gonum's mat.Dense) or in compressed sparse row form. The two
// representations sit behind one interface so that table operations can stay
// representation-agnostic, converting to dense only where the math demands
// it (centering, log transforms, pairwise distances).
package matrix

import "errors"

// ErrShape is returned when requested dimensions or selections are invalid.
var ErrShape = errors.New("matrix: invalid shape")

// Matrix is the common surface of the dense and sparse representations.
// Rows are samples and columns are features throughout the library.
//
// Apply mutates entries in place. For the sparse representation it visits
// stored entries only; callers must either guarantee f(0) == 0 or convert to
// dense first.
type Matrix interface {
	Dims() (rows, cols int)
	At(i, j int) float64

	// SelectRows and SelectCols return a new matrix holding the listed
	// rows/columns in the given order. Positions may repeat or omit
	// indices; they are not required to form a permutation.
	SelectRows(pos []int) Matrix
	SelectCols(pos []int) Matrix

	RowSums() []float64
	ColSums() []float64

	Scale(f float64)
	ScaleRows(factors []float64)
	ScaleCols(factors []float64)
	Apply(f func(v float64) float64)

	// Row copies row i into dst (allocated when nil) and returns it.
	Row(dst []float64, i int) []float64
	Col(dst []float64, j int) []float64

	Clone() Matrix
	IsSparse() bool

	// Dense returns a dense view of the data. The receiver is returned
	// unchanged when already dense; sparse matrices allocate a copy.
	Dense() *Dense
}

// EqualApprox reports whether two matrices have identical shape and entries
// within tol.
func EqualApprox(a, b Matrix, tol float64) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return false
	}
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			d := a.At(i, j) - b.At(i, j)
			if d < -tol || d > tol {
				return false
			}
		}
	}
	return true
}

func checkPositions(pos []int, n int) {
	for _, p := range pos {
		if p < 0 || p >= n {
			panic("matrix: selection position out of range")
		}
	}
}
