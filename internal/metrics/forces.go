package metrics

import (
	"math"

	"github.com/san-kum/formfind/internal/fd"
)

// LoadPath is Σ|f|·l over all members, a common proxy for material use.
type LoadPath struct{ peak }

func NewLoadPath() *LoadPath {
	return &LoadPath{peak{name: "load_path"}}
}

func (m *LoadPath) Observe(_ *fd.Network, res *fd.Result) {
	sum := 0.0
	for e, f := range res.Forces {
		sum += math.Abs(f) * res.Lengths[e]
	}
	m.record(sum)
}

type MaxTension struct{ peak }

func NewMaxTension() *MaxTension {
	return &MaxTension{peak{name: "max_tension"}}
}

func (m *MaxTension) Observe(_ *fd.Network, res *fd.Result) {
	worst := 0.0
	for _, f := range res.Forces {
		worst = math.Max(worst, f)
	}
	m.record(worst)
}

// MaxCompression reports the largest compressive force as a positive number.
type MaxCompression struct{ peak }

func NewMaxCompression() *MaxCompression {
	return &MaxCompression{peak{name: "max_compression"}}
}

func (m *MaxCompression) Observe(_ *fd.Network, res *fd.Result) {
	worst := 0.0
	for _, f := range res.Forces {
		worst = math.Max(worst, -f)
	}
	m.record(worst)
}

type TotalLength struct{ peak }

func NewTotalLength() *TotalLength {
	return &TotalLength{peak{name: "total_length"}}
}

func (m *TotalLength) Observe(_ *fd.Network, res *fd.Result) {
	sum := 0.0
	for _, l := range res.Lengths {
		sum += l
	}
	m.record(sum)
}
