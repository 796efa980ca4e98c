package fd

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Edge is a member between two node indices. The order sets the sign of
// the member's row in the connectivity matrix.
type Edge [2]int

type Network struct {
	Vertices []r3.Vec
	Edges    []Edge
	Loads    []r3.Vec
	Q        []float64
	Fixed    []int
}

func (n *Network) NumNodes() int { return len(n.Vertices) }
func (n *Network) NumEdges() int { return len(n.Edges) }

// Clone returns a deep copy.
func (n *Network) Clone() *Network {
	c := &Network{
		Vertices: make([]r3.Vec, len(n.Vertices)),
		Edges:    make([]Edge, len(n.Edges)),
		Loads:    make([]r3.Vec, len(n.Loads)),
		Q:        make([]float64, len(n.Q)),
		Fixed:    make([]int, len(n.Fixed)),
	}
	copy(c.Vertices, n.Vertices)
	copy(c.Edges, n.Edges)
	copy(c.Loads, n.Loads)
	copy(c.Q, n.Q)
	copy(c.Fixed, n.Fixed)
	return c
}

type Result struct {
	Vertices  []r3.Vec
	Residuals []r3.Vec
	Forces    []float64
	Lengths   []float64
	Free      []int
	Fixed     []int
	Backend   string
}

// MaxFreeResidual is the largest residual norm over the free nodes.
func (r *Result) MaxFreeResidual() float64 {
	worst := 0.0
	for _, i := range r.Free {
		worst = math.Max(worst, r3.Norm(r.Residuals[i]))
	}
	return worst
}

// Reactions returns the residuals of the fixed nodes, keyed by node index.
func (r *Result) Reactions() map[int]r3.Vec {
	out := make(map[int]r3.Vec, len(r.Fixed))
	for _, i := range r.Fixed {
		out[i] = r.Residuals[i]
	}
	return out
}

type Config struct {
	// Timeout bounds the linear solve; zero means no budget.
	Timeout time.Duration

	// CheckConstraints runs the structural test for unanchored components
	// before the linear solve.
	CheckConstraints bool
}

func DefaultConfig() Config {
	return Config{
		Timeout:          0,
		CheckConstraints: true,
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isFiniteVec(v r3.Vec) bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}
