package linsolve

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/plan-systems/klog"
	"github.com/san-kum/formfind/internal/sparse"
)

// CG solves symmetric positive definite systems with Jacobi preconditioned
// conjugate gradients. Right-hand sides are solved concurrently; each one
// owns its buffers, so results do not depend on scheduling.
type CG struct {
	tol     float64
	maxIter int
}

func NewCG(tol float64, maxIter int) *CG {
	if tol <= 0 {
		tol = DefaultOptions().Tolerance
	}
	return &CG{tol: tol, maxIter: maxIter}
}

func (s *CG) Name() string { return "cg" }

func (s *CG) Solve(ctx context.Context, a *sparse.CSR, b [][]float64) ([][]float64, error) {
	n, err := checkDims(a, b)
	if err != nil {
		return nil, err
	}

	diag := a.Diagonal()
	for i, d := range diag {
		switch {
		case d == 0 && mixedSign(a):
			return nil, fmt.Errorf("%w: zero diagonal at row %d", ErrIndefinite, i)
		case d == 0:
			return nil, fmt.Errorf("%w: zero diagonal at row %d", ErrSingular, i)
		case d < 0:
			return nil, fmt.Errorf("%w: negative diagonal at row %d", ErrIndefinite, i)
		}
	}

	maxIter := s.maxIter
	if maxIter <= 0 {
		maxIter = 10 * n
		if maxIter < 100 {
			maxIter = 100
		}
	}

	x := make([][]float64, len(b))
	errs := make([]error, len(b))

	var wg sync.WaitGroup
	for c := range b {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			x[c], errs[c] = s.pcg(ctx, a, diag, b[c], maxIter)
		}(c)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return x, nil
}

func (s *CG) pcg(ctx context.Context, a *sparse.CSR, diag, b []float64, maxIter int) ([]float64, error) {
	n := len(b)
	x := make([]float64, n)

	bnorm := norm(b)
	if bnorm == 0 {
		return x, nil
	}

	r := make([]float64, n)
	copy(r, b)
	z := make([]float64, n)
	for i := range z {
		z[i] = r[i] / diag[i]
	}
	p := make([]float64, n)
	copy(p, z)
	ap := make([]float64, n)
	rz := dot(r, z)

	for it := 0; it < maxIter; it++ {
		if it%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		a.MulVec(p, ap)
		pap := dot(p, ap)
		switch {
		case pap < 0:
			return nil, fmt.Errorf("%w: negative curvature at iteration %d", ErrIndefinite, it)
		case !(pap > 0):
			return nil, fmt.Errorf("%w: breakdown at iteration %d", ErrSingular, it)
		}

		alpha := rz / pap
		for i := range x {
			x[i] += alpha * p[i]
			r[i] -= alpha * ap[i]
		}

		if norm(r) <= s.tol*bnorm {
			return x, nil
		}

		for i := range z {
			z[i] = r[i] / diag[i]
		}
		rzNext := dot(r, z)
		beta := rzNext / rz
		rz = rzNext
		for i := range p {
			p[i] = z[i] + beta*p[i]
		}
	}

	return nil, fmt.Errorf("%w after %d iterations", ErrNotConverged, maxIter)
}

// mixedSign reports a positive off-diagonal entry, which force density
// assembly only produces from a negative q. A zero diagonal then means the
// densities cancel at that node, not that the node is unconnected.
func mixedSign(a *sparse.CSR) bool {
	found := false
	a.DoNonZero(func(i, j int, v float64) {
		if i != j && v > 0 {
			found = true
		}
	})
	return found
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(a []float64) float64 {
	return math.Sqrt(dot(a, a))
}

// Auto uses the dense backend for small systems and conjugate gradients for
// large ones. Any cg failure other than cancellation is retried with dense,
// which also handles indefinite and nearly singular matrices.
type Auto struct {
	dense *Dense
	cg    *CG
	limit int
}

func NewAuto(opts Options) *Auto {
	return &Auto{
		dense: NewDense(opts.CondLimit),
		cg:    NewCG(opts.Tolerance, opts.MaxIterations),
		limit: opts.DenseLimit,
	}
}

func (s *Auto) Name() string { return "auto" }

func (s *Auto) Solve(ctx context.Context, a *sparse.CSR, b [][]float64) ([][]float64, error) {
	n, _ := a.Dims()
	if n <= s.limit {
		return s.dense.Solve(ctx, a, b)
	}

	x, err := s.cg.Solve(ctx, a, b)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return x, err
	}
	klog.V(2).Infof("linsolve: cg failed on %d unknowns (%v), falling back to dense", n, err)
	return s.dense.Solve(ctx, a, b)
}
