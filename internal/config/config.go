package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/formfind/internal/fd"
	"github.com/san-kum/formfind/internal/linsolve"
)

const (
	DefaultKind       = "cablenet"
	DefaultNx         = 10
	DefaultNy         = 10
	DefaultSpan       = 10.0
	DefaultQ          = 1.0
	DefaultLoad       = -0.1
	DefaultRise       = 2.0
	DefaultBackend    = "auto"
	DefaultTolerance  = 1e-12
	DefaultDenseLimit = 1500
	DefaultCondLimit  = 1e14
	DefaultCacheDir   = ".formfind/cache"
)

type Config struct {
	Name             string          `yaml:"name"`
	Network          string          `yaml:"network"`
	Generator        GeneratorConfig `yaml:"generator"`
	Solver           SolverConfig    `yaml:"solver"`
	Loads            LoadsConfig     `yaml:"loads"`
	Cache            CacheConfig     `yaml:"cache"`
	CheckConstraints bool            `yaml:"check_constraints"`
}

// GeneratorConfig describes a parametric network. It is used when Network
// does not name a file.
type GeneratorConfig struct {
	Kind      string  `yaml:"kind"`
	Nx        int     `yaml:"nx"`
	Ny        int     `yaml:"ny"`
	Span      float64 `yaml:"span"`
	Q         float64 `yaml:"q"`
	BoundaryQ float64 `yaml:"boundary_q"`
	Load      float64 `yaml:"load"`
	Rise      float64 `yaml:"rise"`
}

type SolverConfig struct {
	Backend        string  `yaml:"backend"`
	Tolerance      float64 `yaml:"tolerance"`
	MaxIterations  int     `yaml:"max_iterations"`
	DenseLimit     int     `yaml:"dense_limit"`
	CondLimit      float64 `yaml:"cond_limit"`
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
}

// LoadsConfig adds loads on top of those stored in the network.
type LoadsConfig struct {
	Uniform [3]float64 `yaml:"uniform"`
	Factor  float64    `yaml:"factor"`
}

type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Name: "formfind",
		Generator: GeneratorConfig{
			Kind: DefaultKind,
			Nx:   DefaultNx,
			Ny:   DefaultNy,
			Span: DefaultSpan,
			Q:    DefaultQ,
			Load: DefaultLoad,
			Rise: DefaultRise,
		},
		Solver: SolverConfig{
			Backend:    DefaultBackend,
			Tolerance:  DefaultTolerance,
			DenseLimit: DefaultDenseLimit,
			CondLimit:  DefaultCondLimit,
		},
		Loads: LoadsConfig{
			Factor: 1,
		},
		Cache: CacheConfig{
			Dir: DefaultCacheDir,
		},
		CheckConstraints: true,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) SolverOptions() linsolve.Options {
	return linsolve.Options{
		Tolerance:     c.Solver.Tolerance,
		MaxIterations: c.Solver.MaxIterations,
		CondLimit:     c.Solver.CondLimit,
		DenseLimit:    c.Solver.DenseLimit,
	}
}

func (c *Config) FDConfig() fd.Config {
	return fd.Config{
		Timeout:          time.Duration(c.Solver.TimeoutSeconds * float64(time.Second)),
		CheckConstraints: c.CheckConstraints,
	}
}

// Contributors returns the load contributors implied by Loads, in the order
// they must run: uniform load first, then the factor.
func (c *Config) Contributors() []fd.LoadContributor {
	var cs []fd.LoadContributor
	u := r3.Vec{X: c.Loads.Uniform[0], Y: c.Loads.Uniform[1], Z: c.Loads.Uniform[2]}
	if u != (r3.Vec{}) {
		cs = append(cs, fd.UniformLoad{Load: u})
	}
	if c.Loads.Factor != 1 {
		cs = append(cs, fd.LoadFactor{Factor: c.Loads.Factor})
	}
	return cs
}

// NewSolver builds an fd solver with the configured backend and loads.
func (c *Config) NewSolver() (*fd.Solver, error) {
	backend, err := linsolve.New(c.Solver.Backend, c.SolverOptions())
	if err != nil {
		return nil, err
	}
	s := fd.New(backend)
	for _, contrib := range c.Contributors() {
		s.AddContributor(contrib)
	}
	return s, nil
}
