package sparse

import (
	"fmt"
	"sort"
)

// COO collects (row, col, value) triplets. Duplicates are allowed and are
// summed when the matrix is frozen with ToCSR.
type COO struct {
	rows, cols int
	ri         []int
	ci         []int
	v          []float64
}

func NewCOO(rows, cols int) *COO {
	return &COO{rows: rows, cols: cols}
}

// Grow reserves room for n more triplets.
func (c *COO) Grow(n int) {
	if cap(c.v)-len(c.v) >= n {
		return
	}
	ri := make([]int, len(c.ri), len(c.ri)+n)
	ci := make([]int, len(c.ci), len(c.ci)+n)
	v := make([]float64, len(c.v), len(c.v)+n)
	copy(ri, c.ri)
	copy(ci, c.ci)
	copy(v, c.v)
	c.ri, c.ci, c.v = ri, ci, v
}

func (c *COO) Add(row, col int, value float64) {
	if row < 0 || row >= c.rows || col < 0 || col >= c.cols {
		panic(fmt.Sprintf("sparse: index (%d,%d) out of range %dx%d", row, col, c.rows, c.cols))
	}
	c.ri = append(c.ri, row)
	c.ci = append(c.ci, col)
	c.v = append(c.v, value)
}

func (c *COO) Dims() (int, int) { return c.rows, c.cols }
func (c *COO) Len() int          { return len(c.v) }

// ToCSR freezes the triplets into compressed sparse row form. Entries of a
// row are ordered by column; duplicates are summed in insertion order.
func (c *COO) ToCSR() *CSR {
	start := make([]int, c.rows+1)
	for _, i := range c.ri {
		start[i+1]++
	}
	for i := 0; i < c.rows; i++ {
		start[i+1] += start[i]
	}

	next := make([]int, c.rows)
	copy(next, start[:c.rows])
	cols := make([]int, len(c.v))
	vals := make([]float64, len(c.v))
	for k, i := range c.ri {
		p := next[i]
		cols[p] = c.ci[k]
		vals[p] = c.v[k]
		next[i]++
	}

	m := &CSR{
		rows:   c.rows,
		cols:   c.cols,
		rowPtr: make([]int, c.rows+1),
		colInd: make([]int, 0, len(cols)),
		values: make([]float64, 0, len(vals)),
	}
	for i := 0; i < c.rows; i++ {
		lo, hi := start[i], start[i+1]
		sort.Stable(rowSorter{cols: cols[lo:hi], vals: vals[lo:hi]})
		for k := lo; k < hi; k++ {
			n := len(m.colInd)
			if n > m.rowPtr[i] && m.colInd[n-1] == cols[k] {
				m.values[n-1] += vals[k]
				continue
			}
			m.colInd = append(m.colInd, cols[k])
			m.values = append(m.values, vals[k])
		}
		m.rowPtr[i+1] = len(m.colInd)
	}
	return m
}

type rowSorter struct {
	cols []int
	vals []float64
}

func (r rowSorter) Len() int           { return len(r.cols) }
func (r rowSorter) Less(i, j int) bool { return r.cols[i] < r.cols[j] }
func (r rowSorter) Swap(i, j int) {
	r.cols[i], r.cols[j] = r.cols[j], r.cols[i]
	r.vals[i], r.vals[j] = r.vals[j], r.vals[i]
}

// CSR is an immutable compressed sparse row matrix.
type CSR struct {
	rows, cols int
	rowPtr     []int
	colInd     []int
	values     []float64
}

func (m *CSR) Dims() (int, int) { return m.rows, m.cols }
func (m *CSR) NNZ() int          { return len(m.values) }
func (m *CSR) IsSquare() bool    { return m.rows == m.cols }

// Row returns views of the column indices and values stored for row i.
// The slices must not be modified.
func (m *CSR) Row(i int) ([]int, []float64) {
	lo, hi := m.rowPtr[i], m.rowPtr[i+1]
	return m.colInd[lo:hi], m.values[lo:hi]
}

func (m *CSR) At(i, j int) float64 {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("sparse: index (%d,%d) out of range %dx%d", i, j, m.rows, m.cols))
	}
	lo, hi := m.rowPtr[i], m.rowPtr[i+1]
	pos := sort.SearchInts(m.colInd[lo:hi], j) + lo
	if pos < hi && m.colInd[pos] == j {
		return m.values[pos]
	}
	return 0
}

// DoNonZero calls fn for every stored entry in row-major order.
func (m *CSR) DoNonZero(fn func(i, j int, v float64)) {
	for i := 0; i < m.rows; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			fn(i, m.colInd[k], m.values[k])
		}
	}
}

// Diagonal returns the main diagonal of a square matrix.
func (m *CSR) Diagonal() []float64 {
	n := m.rows
	if m.cols < n {
		n = m.cols
	}
	d := make([]float64, n)
	for i := 0; i < n; i++ {
		d[i] = m.At(i, i)
	}
	return d
}

// MulVec computes dst = M·x. A nil dst is allocated.
func (m *CSR) MulVec(x, dst []float64) []float64 {
	if len(x) != m.cols {
		panic(fmt.Sprintf("sparse: vector length %d, want %d", len(x), m.cols))
	}
	if dst == nil {
		dst = make([]float64, m.rows)
	}
	for i := 0; i < m.rows; i++ {
		sum := 0.0
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			sum += m.values[k] * x[m.colInd[k]]
		}
		dst[i] = sum
	}
	return dst
}

// MulVecT computes dst = Mᵀ·x. A nil dst is allocated.
func (m *CSR) MulVecT(x, dst []float64) []float64 {
	if len(x) != m.rows {
		panic(fmt.Sprintf("sparse: vector length %d, want %d", len(x), m.rows))
	}
	if dst == nil {
		dst = make([]float64, m.cols)
	} else {
		for j := range dst {
			dst[j] = 0
		}
	}
	for i := 0; i < m.rows; i++ {
		xi := x[i]
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			dst[m.colInd[k]] += m.values[k] * xi
		}
	}
	return dst
}

// SelectColumns returns the submatrix made of the given columns, in the
// given order. Column indices must be unique.
func (m *CSR) SelectColumns(cols []int) *CSR {
	pos := make([]int, m.cols)
	for j := range pos {
		pos[j] = -1
	}
	for k, j := range cols {
		if j < 0 || j >= m.cols {
			panic(fmt.Sprintf("sparse: column %d out of range %d", j, m.cols))
		}
		if pos[j] >= 0 {
			panic(fmt.Sprintf("sparse: duplicate column %d", j))
		}
		pos[j] = k
	}

	coo := NewCOO(m.rows, len(cols))
	coo.Grow(m.NNZ())
	m.DoNonZero(func(i, j int, v float64) {
		if p := pos[j]; p >= 0 {
			coo.Add(i, p, v)
		}
	})
	return coo.ToCSR()
}

// WeightedGram returns Cᵀ·diag(w)·C. Rows with zero weight are skipped.
func WeightedGram(c *CSR, w []float64) *CSR {
	return WeightedCross(c, c, w)
}

// WeightedCross returns Aᵀ·diag(w)·B for matrices sharing the same rows.
func WeightedCross(a, b *CSR, w []float64) *CSR {
	if a.rows != b.rows {
		panic(fmt.Sprintf("sparse: row mismatch %d != %d", a.rows, b.rows))
	}
	if len(w) != a.rows {
		panic(fmt.Sprintf("sparse: weight length %d, want %d", len(w), a.rows))
	}

	coo := NewCOO(a.cols, b.cols)
	for e := 0; e < a.rows; e++ {
		we := w[e]
		if we == 0 {
			continue
		}
		ac, av := a.Row(e)
		bc, bv := b.Row(e)
		for p := range ac {
			for q := range bc {
				coo.Add(ac[p], bc[q], we*av[p]*bv[q])
			}
		}
	}
	return coo.ToCSR()
}
