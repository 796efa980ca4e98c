package batch

import (
	"context"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/formfind/internal/fd"
	"github.com/san-kum/formfind/internal/mesh"
	"github.com/san-kum/formfind/internal/metrics"
)

// SweepPoint is the outcome of one load factor.
type SweepPoint struct {
	Factor  float64
	Metrics []metrics.Sample
	Err     error
}

// Value returns the named metric, or false if the point failed.
func (p SweepPoint) Value(name string) (float64, bool) {
	for _, s := range p.Metrics {
		if s.Name == name {
			return s.Value, true
		}
	}
	return 0, false
}

// LoadFactors returns n factors evenly spaced over [lo, hi].
func LoadFactors(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// RunSweep solves m once per load factor. m itself is not modified.
func RunSweep(ctx context.Context, m *mesh.CableMesh, eq fd.Equilibrium, cfg fd.Config, factors []float64, workers int) ([]SweepPoint, error) {
	base, _, err := mesh.Read(m)
	if err != nil {
		return nil, errors.Wrap(err, "sweep")
	}

	nets := make([]*fd.Network, len(factors))
	for i, f := range factors {
		net := base.Clone()
		for k := range net.Loads {
			net.Loads[k] = r3.Scale(f, net.Loads[k])
		}
		nets[i] = net
	}

	solved, errs := fd.SolveAll(ctx, eq, nets, cfg, workers)
	points := make([]SweepPoint, len(factors))
	for i, f := range factors {
		points[i] = SweepPoint{Factor: f, Err: errs[i]}
		if errs[i] == nil {
			points[i].Metrics = metrics.Evaluate(nets[i], solved[i])
		}
	}
	return points, nil
}
