package matrix

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Dense is a row-major dense matrix backed by gonum's mat.Dense.
//
// Filters may legitimately produce zero rows or columns, which gonum's
// constructors reject, so an empty shape is carried with a nil backing
// matrix.
type Dense struct {
	rows, cols int
	m          *mat.Dense // nil iff rows*cols == 0
}

// NewDense builds a rows×cols dense matrix. data is row-major and may be nil
// for an all-zero matrix; a non-nil data slice is used directly, not copied.
func NewDense(rows, cols int, data []float64) *Dense {
	if rows < 0 || cols < 0 {
		panic(ErrShape)
	}
	if rows*cols == 0 {
		return &Dense{rows: rows, cols: cols}
	}
	return &Dense{rows: rows, cols: cols, m: mat.NewDense(rows, cols, data)}
}

// RawDense exposes the underlying gonum matrix for numeric routines
// (z-scoring, distance computation) that work directly on mat.Dense.
// It is nil for empty matrices.
func (d *Dense) RawDense() *mat.Dense { return d.m }

func (d *Dense) Dims() (int, int) { return d.rows, d.cols }
func (d *Dense) IsSparse() bool   { return false }
func (d *Dense) Dense() *Dense    { return d }

func (d *Dense) At(i, j int) float64 { return d.m.At(i, j) }

func (d *Dense) Set(i, j int, v float64) { d.m.Set(i, j, v) }

func (d *Dense) SelectRows(pos []int) Matrix {
	checkPositions(pos, d.rows)
	out := NewDense(len(pos), d.cols, nil)
	if out.m == nil {
		return out
	}
	for i, p := range pos {
		out.m.SetRow(i, d.m.RawRowView(p))
	}
	return out
}

func (d *Dense) SelectCols(pos []int) Matrix {
	checkPositions(pos, d.cols)
	out := NewDense(d.rows, len(pos), nil)
	if out.m == nil {
		return out
	}
	for i := 0; i < d.rows; i++ {
		row := d.m.RawRowView(i)
		for j, p := range pos {
			out.m.Set(i, j, row[p])
		}
	}
	return out
}

func (d *Dense) RowSums() []float64 {
	sums := make([]float64, d.rows)
	if d.m == nil {
		return sums
	}
	for i := 0; i < d.rows; i++ {
		sums[i] = floats.Sum(d.m.RawRowView(i))
	}
	return sums
}

func (d *Dense) ColSums() []float64 {
	sums := make([]float64, d.cols)
	if d.m == nil {
		return sums
	}
	for i := 0; i < d.rows; i++ {
		floats.Add(sums, d.m.RawRowView(i))
	}
	return sums
}

func (d *Dense) Scale(f float64) {
	if d.m == nil {
		return
	}
	d.m.Scale(f, d.m)
}

func (d *Dense) ScaleRows(factors []float64) {
	if len(factors) != d.rows {
		panic("matrix: row factor length mismatch")
	}
	for i := 0; i < d.rows && d.m != nil; i++ {
		floats.Scale(factors[i], d.m.RawRowView(i))
	}
}

func (d *Dense) ScaleCols(factors []float64) {
	if len(factors) != d.cols {
		panic("matrix: column factor length mismatch")
	}
	if d.m == nil {
		return
	}
	for i := 0; i < d.rows; i++ {
		row := d.m.RawRowView(i)
		for j := 0; j < d.cols; j++ {
			row[j] *= factors[j]
		}
	}
}

func (d *Dense) Apply(f func(v float64) float64) {
	if d.m == nil {
		return
	}
	d.m.Apply(func(_, _ int, v float64) float64 { return f(v) }, d.m)
}

func (d *Dense) Row(dst []float64, i int) []float64 {
	if d.cols == 0 {
		if dst == nil {
			dst = []float64{}
		}
		return dst[:0]
	}
	return mat.Row(dst, i, d.m)
}

func (d *Dense) Col(dst []float64, j int) []float64 {
	if d.rows == 0 {
		if dst == nil {
			dst = []float64{}
		}
		return dst[:0]
	}
	return mat.Col(dst, j, d.m)
}

func (d *Dense) Clone() Matrix {
	if d.m == nil {
		return &Dense{rows: d.rows, cols: d.cols}
	}
	out := &mat.Dense{}
	out.CloneFrom(d.m)
	return &Dense{rows: d.rows, cols: d.cols, m: out}
}
