package sparse

import (
	"math"
	"testing"
)

func incidence(n int, edges [][2]int) *CSR {
	coo := NewCOO(len(edges), n)
	for e, uv := range edges {
		coo.Add(e, uv[0], 1)
		coo.Add(e, uv[1], -1)
	}
	return coo.ToCSR()
}

func TestCOO_ToCSR_SumsDuplicates(t *testing.T) {
	coo := NewCOO(2, 3)
	coo.Add(0, 2, 1.5)
	coo.Add(0, 0, 2.0)
	coo.Add(0, 2, 0.5)
	coo.Add(1, 1, -1.0)

	m := coo.ToCSR()
	if m.NNZ() != 3 {
		t.Fatalf("expected 3 stored entries, got %d", m.NNZ())
	}

	tests := []struct {
		i, j int
		want float64
	}{
		{0, 0, 2.0},
		{0, 1, 0.0},
		{0, 2, 2.0},
		{1, 1, -1.0},
		{1, 2, 0.0},
	}
	for _, tt := range tests {
		if got := m.At(tt.i, tt.j); got != tt.want {
			t.Errorf("At(%d,%d) = %v, want %v", tt.i, tt.j, got, tt.want)
		}
	}

	cols, _ := m.Row(0)
	if cols[0] != 0 || cols[1] != 2 {
		t.Errorf("row 0 columns not sorted: %v", cols)
	}
}

func TestCOO_AddOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range triplet")
		}
	}()
	NewCOO(2, 2).Add(2, 0, 1)
}

func TestCSR_MulVec(t *testing.T) {
	c := incidence(3, [][2]int{{0, 1}, {1, 2}})
	x := []float64{0, 1, 3}

	got := c.MulVec(x, nil)
	want := []float64{-1, -2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("MulVec[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	gotT := c.MulVecT([]float64{1, 1}, nil)
	wantT := []float64{1, 0, -1}
	for i := range wantT {
		if gotT[i] != wantT[i] {
			t.Errorf("MulVecT[%d] = %v, want %v", i, gotT[i], wantT[i])
		}
	}
}

func TestCSR_SelectColumns(t *testing.T) {
	c := incidence(4, [][2]int{{0, 1}, {1, 2}, {2, 3}})
	sub := c.SelectColumns([]int{1, 2})

	r, k := sub.Dims()
	if r != 3 || k != 2 {
		t.Fatalf("dims = %dx%d, want 3x2", r, k)
	}
	if sub.At(0, 0) != -1 || sub.At(1, 0) != 1 || sub.At(1, 1) != -1 || sub.At(2, 1) != 1 {
		t.Errorf("unexpected submatrix entries")
	}
	if sub.NNZ() != 4 {
		t.Errorf("expected 4 entries, got %d", sub.NNZ())
	}
}

func TestWeightedGram_Laplacian(t *testing.T) {
	c := incidence(3, [][2]int{{0, 1}, {1, 2}})
	a := WeightedGram(c, []float64{2, 3})

	want := [3][3]float64{
		{2, -2, 0},
		{-2, 5, -3},
		{0, -3, 3},
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if got := a.At(i, j); got != want[i][j] {
				t.Errorf("A[%d][%d] = %v, want %v", i, j, got, want[i][j])
			}
			if a.At(i, j) != a.At(j, i) {
				t.Errorf("A not symmetric at (%d,%d)", i, j)
			}
		}
	}

	d := a.Diagonal()
	if d[0] != 2 || d[1] != 5 || d[2] != 3 {
		t.Errorf("diagonal = %v", d)
	}
}

func TestWeightedGram_SkipsZeroWeights(t *testing.T) {
	c := incidence(3, [][2]int{{0, 1}, {1, 2}})
	a := WeightedGram(c, []float64{1, 0})
	if a.At(2, 2) != 0 {
		t.Errorf("expected empty row for node reached only by a zero weight")
	}
	cols, _ := a.Row(2)
	if len(cols) != 0 {
		t.Errorf("expected no stored entries in row 2, got %v", cols)
	}
}

func TestWeightedCross(t *testing.T) {
	c := incidence(3, [][2]int{{0, 1}, {1, 2}})
	ci := c.SelectColumns([]int{1})
	cf := c.SelectColumns([]int{0, 2})
	k := WeightedCross(ci, cf, []float64{1, 4})

	// Ciᵀ Q Cf = [-1*1*1, 1*4*-1]
	if got := k.At(0, 0); got != -1 {
		t.Errorf("K[0][0] = %v, want -1", got)
	}
	if got := k.At(0, 1); got != -4 {
		t.Errorf("K[0][1] = %v, want -4", got)
	}
}

func TestToCSR_Deterministic(t *testing.T) {
	build := func() *CSR {
		coo := NewCOO(2, 2)
		for i := 0; i < 50; i++ {
			coo.Add(i%2, (i/2)%2, math.Sqrt(float64(i)+0.1))
		}
		return coo.ToCSR()
	}
	a, b := build(), build()
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if math.Float64bits(a.At(i, j)) != math.Float64bits(b.At(i, j)) {
				t.Errorf("entry (%d,%d) differs between builds", i, j)
			}
		}
	}
}
