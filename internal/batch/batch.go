// Package batch solves many independent networks described by a YAML
// scenario, in parallel.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/formfind/internal/config"
	"github.com/san-kum/formfind/internal/fd"
	"github.com/san-kum/formfind/internal/mesh"
	"github.com/san-kum/formfind/internal/metrics"
	"github.com/san-kum/formfind/internal/netfile"
	"github.com/san-kum/formfind/internal/netgen"
)

// Scenario is a list of jobs solved with one solver configuration.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Workers     int    `yaml:"workers"`
	Jobs        []Job  `yaml:"jobs"`

	dir string
}

// Job names one network. Exactly one of Network, Preset or Generator is
// set. Preset has the form kind/name.
type Job struct {
	Name       string                  `yaml:"name"`
	Network    string                  `yaml:"network"`
	Preset     string                  `yaml:"preset"`
	Generator  *config.GeneratorConfig `yaml:"generator"`
	LoadFactor float64                 `yaml:"load_factor"`
}

type JobResult struct {
	Name    string
	Mesh    *mesh.CableMesh
	Result  *fd.Result
	Metrics []metrics.Sample
	Err     error
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario")
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, errors.Wrapf(err, "parse scenario %s", path)
	}
	sc.dir = filepath.Dir(path)
	return &sc, nil
}

// Build creates the job's mesh. Relative network paths resolve against the
// scenario file's directory.
func (j *Job) Build(dir string) (*mesh.CableMesh, error) {
	var (
		m   *mesh.CableMesh
		err error
	)
	set := 0
	for _, ok := range []bool{j.Network != "", j.Preset != "", j.Generator != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, errors.Errorf("job %q: need exactly one of network, preset, generator", j.Name)
	}

	switch {
	case j.Network != "":
		path := j.Network
		if !filepath.IsAbs(path) && dir != "" {
			path = filepath.Join(dir, path)
		}
		m, err = netfile.Load(path)
	case j.Preset != "":
		kind, name, ok := strings.Cut(j.Preset, "/")
		if !ok {
			name = "default"
		}
		g := config.GetPreset(kind, name)
		if g == nil {
			return nil, errors.Errorf("job %q: unknown preset %s", j.Name, j.Preset)
		}
		m, err = netgen.Generate(*g)
	default:
		m, err = netgen.Generate(*j.Generator)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "job %q", j.Name)
	}

	if j.Name != "" {
		m.Name = j.Name
	}
	if j.LoadFactor != 0 && j.LoadFactor != 1 {
		if err := scaleLoads(m, j.LoadFactor); err != nil {
			return nil, errors.Wrapf(err, "job %q", j.Name)
		}
	}
	return m, nil
}

func scaleLoads(m *mesh.CableMesh, factor float64) error {
	for _, v := range m.Vertices() {
		if err := m.SetLoad(v.Key, r3.Scale(factor, v.Load)); err != nil {
			return err
		}
	}
	return nil
}

// Run builds every job and solves the valid ones concurrently. A failing
// job only sets its own Err.
func Run(ctx context.Context, sc *Scenario, eq fd.Equilibrium, cfg fd.Config) []JobResult {
	results := make([]JobResult, len(sc.Jobs))
	bindings := make([]*mesh.Binding, len(sc.Jobs))

	var nets []*fd.Network
	var slots []int
	for i := range sc.Jobs {
		job := &sc.Jobs[i]
		results[i].Name = job.Name

		m, err := job.Build(sc.dir)
		if err != nil {
			results[i].Err = err
			continue
		}
		results[i].Mesh = m
		results[i].Name = m.Name

		net, b, err := mesh.Read(m)
		if err != nil {
			results[i].Err = err
			continue
		}
		bindings[i] = b
		nets = append(nets, net)
		slots = append(slots, i)
	}

	solved, errs := fd.SolveAll(ctx, eq, nets, cfg, sc.Workers)
	for k, i := range slots {
		if errs[k] != nil {
			results[i].Err = errs[k]
			klog.Warningf("batch: %s: %v", results[i].Name, errs[k])
			continue
		}
		if err := results[i].Mesh.Apply(bindings[i].Update(solved[k])); err != nil {
			results[i].Err = err
			continue
		}
		results[i].Result = solved[k]
		results[i].Metrics = metrics.Evaluate(nets[k], solved[k])
		klog.V(2).Infof("batch: %s solved, max residual %.3g", results[i].Name, solved[k].MaxFreeResidual())
	}
	return results
}

// Failed counts jobs that did not produce a result.
func Failed(results []JobResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
