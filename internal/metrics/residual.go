package metrics

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/formfind/internal/fd"
)

// MaxResidual is the largest out-of-balance force at a free node.
type MaxResidual struct{ peak }

func NewMaxResidual() *MaxResidual {
	return &MaxResidual{peak{name: "max_residual"}}
}

func (m *MaxResidual) Observe(_ *fd.Network, res *fd.Result) {
	m.record(res.MaxFreeResidual())
}

// ReactionTotal is the sum of support reaction magnitudes.
type ReactionTotal struct{ peak }

func NewReactionTotal() *ReactionTotal {
	return &ReactionTotal{peak{name: "reaction_total"}}
}

func (m *ReactionTotal) Observe(_ *fd.Network, res *fd.Result) {
	sum := 0.0
	for _, i := range res.Fixed {
		sum += r3.Norm(res.Residuals[i])
	}
	m.record(sum)
}
