// Package linsolve provides linear solvers for the symmetric systems produced
// by force density assembly.
//
// Three backends are available:
//
//   - dense: gonum Cholesky, falling back to LU for indefinite matrices
//   - cg:    Jacobi preconditioned conjugate gradients over CSR storage
//   - auto:  dense up to a size limit, cg above it
//
// Every backend accepts several right-hand sides and returns one solution
// column per right-hand side.
package linsolve

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/formfind/internal/sparse"
)

var (
	// ErrSingular indicates a singular or numerically indeterminate matrix.
	ErrSingular = errors.New("linsolve: matrix is singular or nearly singular")

	// ErrIndefinite indicates a matrix an iterative SPD method cannot handle.
	ErrIndefinite = errors.New("linsolve: matrix is not positive definite")

	// ErrNotConverged indicates the iteration budget ran out.
	ErrNotConverged = errors.New("linsolve: iteration did not converge")

	// ErrDimensionMismatch indicates right-hand sides that do not fit the matrix.
	ErrDimensionMismatch = errors.New("linsolve: dimension mismatch")
)

// Backend solves A·x = b for every column of b.
//
// Solve returns ctx.Err() once ctx is done. Backends that call into
// non-interruptible code (dense) return immediately but leave that call
// running to completion in the background, so a timed-out dense solve still
// holds its memory and CPU until the factorization ends.
type Backend interface {
	Name() string
	Solve(ctx context.Context, a *sparse.CSR, b [][]float64) ([][]float64, error)
}

type Options struct {
	Tolerance     float64
	MaxIterations int
	CondLimit     float64
	DenseLimit    int
}

func DefaultOptions() Options {
	return Options{
		Tolerance:     1e-12,
		MaxIterations: 0,
		CondLimit:     1e14,
		DenseLimit:    1500,
	}
}

var constructors = map[string]func(Options) Backend{
	"dense": func(o Options) Backend { return NewDense(o.CondLimit) },
	"cg":    func(o Options) Backend { return NewCG(o.Tolerance, o.MaxIterations) },
	"auto":  func(o Options) Backend { return NewAuto(o) },
}

func New(name string, opts Options) (Backend, error) {
	fn, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown solver backend: %s (available: %v)", name, Names())
	}
	return fn(opts), nil
}

func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkDims(a *sparse.CSR, b [][]float64) (int, error) {
	n, m := a.Dims()
	if n != m {
		return 0, fmt.Errorf("%w: matrix is %dx%d", ErrDimensionMismatch, n, m)
	}
	for c, col := range b {
		if len(col) != n {
			return 0, fmt.Errorf("%w: rhs %d has length %d, want %d", ErrDimensionMismatch, c, len(col), n)
		}
	}
	return n, nil
}
