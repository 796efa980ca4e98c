package fd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/plan-systems/klog"
	"github.com/san-kum/formfind/internal/linsolve"
	"gonum.org/v1/gonum/spatial/r3"
)

// Equilibrium is anything that can find the equilibrium shape of a
// network. *Solver implements it; caches and adapters wrap it.
type Equilibrium interface {
	Solve(ctx context.Context, net *Network, cfg Config) (*Result, error)
}

type Solver struct {
	backend      linsolve.Backend
	contributors []LoadContributor
}

func New(backend linsolve.Backend) *Solver {
	return &Solver{
		backend:      backend,
		contributors: make([]LoadContributor, 0),
	}
}

func (s *Solver) AddContributor(c LoadContributor) { s.contributors = append(s.contributors, c) }
func (s *Solver) Backend() string                  { return s.backend.Name() }

// Describe identifies everything besides the network that shapes a result:
// the backend and each contributor with its parameters.
func (s *Solver) Describe() string {
	var b strings.Builder
	b.WriteString(s.backend.Name())
	for _, c := range s.contributors {
		fmt.Fprintf(&b, "|%s:%+v", c.Name(), c)
	}
	return b.String()
}

// Solve computes the equilibrium of net. The network is not modified; all
// returned slices are freshly allocated. Failures wrap ErrInvalidInput,
// ErrSingularSystem or ErrTimeout.
func (s *Solver) Solve(ctx context.Context, net *Network, cfg Config) (*Result, error) {
	if err := Validate(net); err != nil {
		return nil, err
	}
	part, err := NewPartition(len(net.Vertices), net.Fixed)
	if err != nil {
		return nil, err
	}
	loads, err := applyContributors(s.contributors, net, part)
	if err != nil {
		return nil, err
	}

	if cfg.CheckConstraints {
		if err := CheckConstrained(net, part); err != nil {
			return nil, err
		}
	}

	sys := Assemble(net, loads, part)
	klog.V(3).Infof("fd: assembled %d free / %d fixed nodes, %d edges, nnz(A)=%d",
		len(part.Free), len(part.Fixed), len(net.Edges), sys.A.NNZ())

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	x, err := s.backend.Solve(ctx, sys.A, sys.B[:])
	if err != nil {
		return nil, s.classify(err)
	}

	vertices := make([]r3.Vec, len(net.Vertices))
	copy(vertices, net.Vertices)
	for axis := 0; axis < 3; axis++ {
		for j, i := range part.Free {
			v := x[axis][j]
			if !isFinite(v) {
				return nil, &SingularSystemError{
					Reason: fmt.Sprintf("non-finite coordinate at node %d", i),
				}
			}
			setComponent(&vertices[i], axis, v)
		}
	}

	res := &Result{
		Vertices: vertices,
		Free:     part.Free,
		Fixed:    part.Fixed,
		Backend:  s.backend.Name(),
	}
	res.Lengths, res.Forces, res.Residuals = postProcess(sys, net.Q, loads, vertices)
	return res, nil
}

func (s *Solver) classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, linsolve.ErrSingular),
		errors.Is(err, linsolve.ErrIndefinite),
		errors.Is(err, linsolve.ErrNotConverged):
		return &SingularSystemError{Reason: s.backend.Name() + " solve failed", Err: err}
	}
	return err
}

// postProcess computes l = rownorm(C·V), f = q ⊙ l and r = p − CᵀQC·V.
func postProcess(sys *System, q []float64, loads, vertices []r3.Vec) (lengths, forces []float64, residuals []r3.Vec) {
	m, n := sys.C.Dims()

	coord := make([]float64, n)
	delta := [3][]float64{}
	for axis := 0; axis < 3; axis++ {
		for i, v := range vertices {
			coord[i] = component(v, axis)
		}
		delta[axis] = sys.C.MulVec(coord, nil)
	}

	lengths = make([]float64, m)
	forces = make([]float64, m)
	for e := 0; e < m; e++ {
		dx, dy, dz := delta[0][e], delta[1][e], delta[2][e]
		lengths[e] = math.Sqrt(dx*dx + dy*dy + dz*dz)
		forces[e] = q[e] * lengths[e]
	}

	residuals = make([]r3.Vec, n)
	copy(residuals, loads)
	qd := make([]float64, m)
	internal := make([]float64, n)
	for axis := 0; axis < 3; axis++ {
		for e := 0; e < m; e++ {
			qd[e] = q[e] * delta[axis][e]
		}
		sys.C.MulVecT(qd, internal)
		for i := range residuals {
			setComponent(&residuals[i], axis, component(residuals[i], axis)-internal[i])
		}
	}
	return lengths, forces, residuals
}
