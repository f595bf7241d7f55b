package matrix

import (
	"sort"
)

// CSR is a compressed sparse row matrix. Stored entries are kept in
// column-sorted order within each row; explicit zeros are permitted but the
// constructors never produce them.
type CSR struct {
	rows, cols int
	indptr     []int // length rows+1; row i occupies [indptr[i], indptr[i+1])
	indices    []int // column index per stored entry
	values     []float64
}

// NewCSR builds a sparse matrix from coordinate triples. Triples may arrive
// in any order; duplicate coordinates are summed. Zero-valued triples are
// dropped.
func NewCSR(rows, cols int, rowIdx, colIdx []int, vals []float64) *CSR {
	if rows < 0 || cols < 0 || len(rowIdx) != len(colIdx) || len(rowIdx) != len(vals) {
		panic(ErrShape)
	}
	type entry struct {
		r, c int
		v    float64
	}
	entries := make([]entry, 0, len(vals))
	for k, v := range vals {
		if v == 0 {
			continue
		}
		if rowIdx[k] < 0 || rowIdx[k] >= rows || colIdx[k] < 0 || colIdx[k] >= cols {
			panic("matrix: triple out of range")
		}
		entries = append(entries, entry{rowIdx[k], colIdx[k], v})
	}
	sort.SliceStable(entries, func(a, b int) bool {
		if entries[a].r != entries[b].r {
			return entries[a].r < entries[b].r
		}
		return entries[a].c < entries[b].c
	})

	m := &CSR{
		rows:   rows,
		cols:   cols,
		indptr: make([]int, rows+1),
	}
	for i := 0; i < len(entries); {
		j := i + 1
		v := entries[i].v
		for j < len(entries) && entries[j].r == entries[i].r && entries[j].c == entries[i].c {
			v += entries[j].v
			j++
		}
		if v != 0 {
			m.indices = append(m.indices, entries[i].c)
			m.values = append(m.values, v)
			m.indptr[entries[i].r+1]++
		}
		i = j
	}
	for i := 0; i < rows; i++ {
		m.indptr[i+1] += m.indptr[i]
	}
	return m
}

// NewCSRFromDense compresses a dense matrix, dropping zero entries.
func NewCSRFromDense(d *Dense) *CSR {
	r, c := d.Dims()
	m := &CSR{rows: r, cols: c, indptr: make([]int, r+1)}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := d.At(i, j); v != 0 {
				m.indices = append(m.indices, j)
				m.values = append(m.values, v)
			}
		}
		m.indptr[i+1] = len(m.values)
	}
	return m
}

func (m *CSR) Dims() (int, int) { return m.rows, m.cols }
func (m *CSR) IsSparse() bool   { return true }

// NNZ returns the number of stored entries.
func (m *CSR) NNZ() int { return len(m.values) }

func (m *CSR) At(i, j int) float64 {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic("matrix: index out of range")
	}
	lo, hi := m.indptr[i], m.indptr[i+1]
	k := lo + sort.SearchInts(m.indices[lo:hi], j)
	if k < hi && m.indices[k] == j {
		return m.values[k]
	}
	return 0
}

func (m *CSR) SelectRows(pos []int) Matrix {
	checkPositions(pos, m.rows)
	out := &CSR{rows: len(pos), cols: m.cols, indptr: make([]int, len(pos)+1)}
	for i, p := range pos {
		lo, hi := m.indptr[p], m.indptr[p+1]
		out.indices = append(out.indices, m.indices[lo:hi]...)
		out.values = append(out.values, m.values[lo:hi]...)
		out.indptr[i+1] = len(out.values)
	}
	return out
}

func (m *CSR) SelectCols(pos []int) Matrix {
	checkPositions(pos, m.cols)
	// newcol[j] lists the output columns fed by input column j; selections
	// may duplicate a column.
	newcol := make(map[int][]int, len(pos))
	for outj, p := range pos {
		newcol[p] = append(newcol[p], outj)
	}
	out := &CSR{rows: m.rows, cols: len(pos), indptr: make([]int, m.rows+1)}
	cols := make([]int, 0, len(pos))
	vals := make([]float64, 0, len(pos))
	for i := 0; i < m.rows; i++ {
		cols = cols[:0]
		vals = vals[:0]
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			for _, outj := range newcol[m.indices[k]] {
				cols = append(cols, outj)
				vals = append(vals, m.values[k])
			}
		}
		perm := make([]int, len(cols))
		for k := range perm {
			perm[k] = k
		}
		sort.SliceStable(perm, func(a, b int) bool { return cols[perm[a]] < cols[perm[b]] })
		for _, k := range perm {
			out.indices = append(out.indices, cols[k])
			out.values = append(out.values, vals[k])
		}
		out.indptr[i+1] = len(out.values)
	}
	return out
}

func (m *CSR) RowSums() []float64 {
	sums := make([]float64, m.rows)
	for i := 0; i < m.rows; i++ {
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			sums[i] += m.values[k]
		}
	}
	return sums
}

func (m *CSR) ColSums() []float64 {
	sums := make([]float64, m.cols)
	for k, j := range m.indices {
		sums[j] += m.values[k]
	}
	return sums
}

func (m *CSR) Scale(f float64) {
	for k := range m.values {
		m.values[k] *= f
	}
}

func (m *CSR) ScaleRows(factors []float64) {
	if len(factors) != m.rows {
		panic("matrix: row factor length mismatch")
	}
	for i := 0; i < m.rows; i++ {
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			m.values[k] *= factors[i]
		}
	}
}

func (m *CSR) ScaleCols(factors []float64) {
	if len(factors) != m.cols {
		panic("matrix: column factor length mismatch")
	}
	for k, j := range m.indices {
		m.values[k] *= factors[j]
	}
}

// Apply visits stored entries only; f must map zero to zero for the result
// to be meaningful. Callers needing a non-zero-preserving transform convert
// to dense first.
func (m *CSR) Apply(f func(v float64) float64) {
	for k, v := range m.values {
		m.values[k] = f(v)
	}
}

func (m *CSR) Row(dst []float64, i int) []float64 {
	if dst == nil {
		dst = make([]float64, m.cols)
	} else {
		for k := range dst {
			dst[k] = 0
		}
	}
	for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
		dst[m.indices[k]] = m.values[k]
	}
	return dst
}

func (m *CSR) Col(dst []float64, j int) []float64 {
	if dst == nil {
		dst = make([]float64, m.rows)
	} else {
		for k := range dst {
			dst[k] = 0
		}
	}
	for i := 0; i < m.rows; i++ {
		lo, hi := m.indptr[i], m.indptr[i+1]
		k := lo + sort.SearchInts(m.indices[lo:hi], j)
		if k < hi && m.indices[k] == j {
			dst[i] = m.values[k]
		}
	}
	return dst
}

func (m *CSR) Clone() Matrix {
	out := &CSR{rows: m.rows, cols: m.cols}
	out.indptr = append([]int(nil), m.indptr...)
	out.indices = append([]int(nil), m.indices...)
	out.values = append([]float64(nil), m.values...)
	return out
}

func (m *CSR) Dense() *Dense {
	out := NewDense(m.rows, m.cols, nil)
	for i := 0; i < m.rows; i++ {
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			out.Set(i, m.indices[k], m.values[k])
		}
	}
	return out
}

// Triples returns the stored entries in row-major order, for serialization.
func (m *CSR) Triples() (rowIdx, colIdx []int, vals []float64) {
	rowIdx = make([]int, 0, len(m.values))
	for i := 0; i < m.rows; i++ {
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			rowIdx = append(rowIdx, i)
		}
	}
	colIdx = append([]int(nil), m.indices...)
	vals = append([]float64(nil), m.values...)
	return rowIdx, colIdx, vals
}
