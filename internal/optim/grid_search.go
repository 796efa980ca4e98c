// Package optim searches generator parameters for the network that
// minimizes a metric.
package optim

import (
	"context"
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/san-kum/formfind/internal/config"
	"github.com/san-kum/formfind/internal/fd"
	"github.com/san-kum/formfind/internal/mesh"
	"github.com/san-kum/formfind/internal/metrics"
)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

// Candidate is one point of the grid.
type Candidate struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// BuildFunc turns one parameter set into a network.
type BuildFunc func(params map[string]float64) (*mesh.CableMesh, error)

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 {
		return nil, errors.New("grid search needs at least one parameter")
	}
	if len(params) != len(ranges) {
		return nil, errors.Errorf("%d parameters but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, errors.Errorf("parameter %s has no values", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search solves every grid point concurrently and returns the one with the
// smallest metric, plus all points in grid order. Points whose build or
// solve fails are kept with their error.
func (g *GridSearch) Search(ctx context.Context, build BuildFunc, eq fd.Equilibrium, cfg fd.Config, metricName string, workers int) (Candidate, []Candidate, error) {
	var points []map[string]float64
	g.enumerate(0, make(map[string]float64), &points)

	all := make([]Candidate, len(points))
	var nets []*fd.Network
	var slots []int
	for i, p := range points {
		all[i].Params = p
		all[i].Value = math.NaN()
		m, err := build(p)
		if err != nil {
			all[i].Err = err
			continue
		}
		net, _, err := mesh.Read(m)
		if err != nil {
			all[i].Err = err
			continue
		}
		nets = append(nets, net)
		slots = append(slots, i)
	}

	solved, errs := fd.SolveAll(ctx, eq, nets, cfg, workers)

	best := -1
	for k, i := range slots {
		if errs[k] != nil {
			all[i].Err = errs[k]
			continue
		}
		v, ok := lookup(metrics.Evaluate(nets[k], solved[k]), metricName)
		if !ok {
			return Candidate{}, nil, errors.Errorf("unknown metric %q", metricName)
		}
		all[i].Value = v
		if best < 0 || v < all[best].Value {
			best = i
		}
	}
	if best < 0 {
		return Candidate{}, all, errors.Errorf("none of %d grid points solved", len(all))
	}
	klog.V(2).Infof("optim: best %s=%.6g at %v", metricName, all[best].Value, all[best].Params)
	return all[best], all, nil
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		p := make(map[string]float64, len(current))
		for k, v := range current {
			p[k] = v
		}
		*out = append(*out, p)
		return
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[name] = val
		g.enumerate(depth+1, current, out)
	}
	delete(current, name)
}

func lookup(samples []metrics.Sample, name string) (float64, bool) {
	for _, s := range samples {
		if s.Name == name {
			return s.Value, true
		}
	}
	return 0, false
}

// GeneratorParams lists the names SetGeneratorParam accepts.
func GeneratorParams() []string {
	names := make([]string, 0, len(generatorParams))
	for k := range generatorParams {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

var generatorParams = map[string]func(*config.GeneratorConfig, float64){
	"nx":         func(g *config.GeneratorConfig, v float64) { g.Nx = int(math.Round(v)) },
	"ny":         func(g *config.GeneratorConfig, v float64) { g.Ny = int(math.Round(v)) },
	"span":       func(g *config.GeneratorConfig, v float64) { g.Span = v },
	"q":          func(g *config.GeneratorConfig, v float64) { g.Q = v },
	"boundary_q": func(g *config.GeneratorConfig, v float64) { g.BoundaryQ = v },
	"load":       func(g *config.GeneratorConfig, v float64) { g.Load = v },
	"rise":       func(g *config.GeneratorConfig, v float64) { g.Rise = v },
}

// SetGeneratorParam sets one named field of g.
func SetGeneratorParam(g *config.GeneratorConfig, name string, v float64) error {
	set, ok := generatorParams[name]
	if !ok {
		return errors.Errorf("unknown generator parameter %q (have %v)", name, GeneratorParams())
	}
	set(g, v)
	return nil
}
