package linsolve

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/formfind/internal/sparse"
	"gonum.org/v1/gonum/mat"
)

// Dense factorizes the system as a dense symmetric matrix. All right-hand
// sides are solved against a single factorization. The factorization cannot
// be interrupted: on cancellation Solve returns at once and the running
// factorization finishes in the background. Memory grows with n².
type Dense struct {
	condLimit float64
}

func NewDense(condLimit float64) *Dense {
	if condLimit <= 0 {
		condLimit = DefaultOptions().CondLimit
	}
	return &Dense{condLimit: condLimit}
}

func (d *Dense) Name() string { return "dense" }

func (d *Dense) Solve(ctx context.Context, a *sparse.CSR, b [][]float64) ([][]float64, error) {
	if _, err := checkDims(a, b); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type outcome struct {
		x   [][]float64
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		x, err := d.solve(a, b)
		done <- outcome{x, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-done:
		return o.x, o.err
	}
}

func (d *Dense) solve(a *sparse.CSR, b [][]float64) ([][]float64, error) {
	n, _ := a.Dims()
	k := len(b)
	if n == 0 || k == 0 {
		return make([][]float64, k), nil
	}

	sym := mat.NewSymDense(n, nil)
	a.DoNonZero(func(i, j int, v float64) {
		if i <= j {
			sym.SetSym(i, j, v)
		}
	})

	rhs := mat.NewDense(n, k, nil)
	for c, col := range b {
		for i, v := range col {
			rhs.Set(i, c, v)
		}
	}

	var x mat.Dense
	var chol mat.Cholesky
	if chol.Factorize(sym) && chol.Cond() <= d.condLimit {
		if err := chol.SolveTo(&x, rhs); err == nil {
			return columns(&x, k), nil
		}
	}

	// Compression members make the matrix indefinite; LU still applies.
	var lu mat.LU
	lu.Factorize(sym)
	cond := lu.Cond()
	if math.IsNaN(cond) || math.IsInf(cond, 0) || cond > d.condLimit {
		return nil, fmt.Errorf("%w (condition number %.3g)", ErrSingular, cond)
	}
	if err := lu.SolveTo(&x, false, rhs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return columns(&x, k), nil
}

func columns(x *mat.Dense, k int) [][]float64 {
	n, _ := x.Dims()
	out := make([][]float64, k)
	for c := 0; c < k; c++ {
		col := make([]float64, n)
		mat.Col(col, c, x)
		out[c] = col
	}
	return out
}
