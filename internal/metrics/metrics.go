// Package metrics summarizes equilibrium results. Each metric keeps the
// worst value seen since the last Reset, so one set of metrics can observe
// a whole batch.
package metrics

import (
	"github.com/san-kum/formfind/internal/fd"
)

type Metric interface {
	Name() string
	Observe(net *fd.Network, res *fd.Result)
	Value() float64
	Reset()
}

// Default returns a fresh instance of every metric.
func Default() []Metric {
	return []Metric{
		NewMaxResidual(),
		NewReactionTotal(),
		NewLoadPath(),
		NewMaxTension(),
		NewMaxCompression(),
		NewTotalLength(),
	}
}

type Sample struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Evaluate observes one result with fresh default metrics.
func Evaluate(net *fd.Network, res *fd.Result) []Sample {
	ms := Default()
	out := make([]Sample, len(ms))
	for i, m := range ms {
		m.Observe(net, res)
		out[i] = Sample{Name: m.Name(), Value: m.Value()}
	}
	return out
}

type peak struct {
	name    string
	value   float64
	samples int
}

func (p *peak) Name() string { return p.name }

func (p *peak) record(v float64) {
	if p.samples == 0 || v > p.value {
		p.value = v
	}
	p.samples++
}

func (p *peak) Value() float64 { return p.value }

func (p *peak) Reset() {
	p.value = 0
	p.samples = 0
}
