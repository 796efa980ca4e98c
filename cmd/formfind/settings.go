package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/plan-systems/klog"
	"github.com/spf13/cobra"

	"github.com/san-kum/formfind/internal/cache"
	"github.com/san-kum/formfind/internal/config"
	"github.com/san-kum/formfind/internal/fd"
	"github.com/san-kum/formfind/internal/mesh"
	"github.com/san-kum/formfind/internal/metrics"
	"github.com/san-kum/formfind/internal/netfile"
	"github.com/san-kum/formfind/internal/netgen"
)

// loadSettings merges the config file (if any), the preset (if any) and
// the flags the user actually set, in that order.
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	}

	flags := cmd.Flags()
	if flags.Lookup("preset") != nil && preset != "" {
		k, name, _ := strings.Cut(preset, "/")
		if name == "" {
			name = "default"
		}
		g := config.GetPreset(k, name)
		if g == nil {
			return nil, fmt.Errorf("unknown preset: %s (available for %s: %v)", preset, k, config.ListPresets(k))
		}
		cfg.Generator = *g
	}

	if flags.Changed("kind") {
		cfg.Generator.Kind = kind
	}
	if flags.Changed("nx") {
		cfg.Generator.Nx = nx
	}
	if flags.Changed("ny") {
		cfg.Generator.Ny = ny
	}
	if flags.Changed("span") {
		cfg.Generator.Span = span
	}
	if flags.Changed("q") {
		cfg.Generator.Q = q
	}
	if flags.Changed("boundary-q") {
		cfg.Generator.BoundaryQ = boundaryQ
	}
	if flags.Changed("load") {
		cfg.Generator.Load = load
	}
	if flags.Changed("rise") {
		cfg.Generator.Rise = rise
	}

	if flags.Changed("backend") {
		cfg.Solver.Backend = backend
	}
	if flags.Changed("tol") {
		cfg.Solver.Tolerance = tolerance
	}
	if flags.Changed("max-iter") {
		cfg.Solver.MaxIterations = maxIter
	}
	if flags.Changed("timeout") {
		cfg.Solver.TimeoutSeconds = timeout
	}
	if flags.Changed("load-factor") {
		cfg.Loads.Factor = loadFactor
	}
	if flags.Changed("uniform-z") {
		cfg.Loads.Uniform[2] = uniformZ
	}
	if flags.Changed("cache") {
		cfg.Cache.Enabled = useCache
	}
	if flags.Changed("no-check") {
		cfg.CheckConstraints = !noCheck
	}
	return cfg, nil
}

// sourceMesh reads the network named on the command line or in the config,
// or generates one. It also returns a short description of where it came
// from for the run metadata.
func sourceMesh(cfg *config.Config, args []string) (*mesh.CableMesh, string, error) {
	path := cfg.Network
	if len(args) > 0 {
		path = args[0]
	}
	if path != "" {
		m, err := netfile.Load(path)
		if err != nil {
			return nil, "", err
		}
		return m, filepath.Base(path), nil
	}

	m, err := netgen.Generate(cfg.Generator)
	if err != nil {
		return nil, "", err
	}
	g := cfg.Generator
	return m, fmt.Sprintf("%s %dx%d", g.Kind, g.Nx, g.Ny), nil
}

// equilibrium builds the configured solver, wrapped in the result cache
// when enabled. The returned func releases the cache.
func equilibrium(cfg *config.Config) (fd.Equilibrium, func(), error) {
	s, err := cfg.NewSolver()
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Cache.Enabled {
		return s, func() {}, nil
	}

	dir := cfg.Cache.Dir
	if dir == "" {
		dir = filepath.Join(dataDir, "cache")
	}
	db, err := cache.Open(dir)
	if err != nil {
		return nil, nil, err
	}
	cs := db.Wrap(s)
	return cs, func() {
		hits, misses := cs.Stats()
		klog.V(1).Infof("cache: %d hits, %d misses", hits, misses)
		if err := db.Close(); err != nil {
			klog.Warningf("cache: close: %v", err)
		}
	}, nil
}

// solveMesh equilibrates m in place and evaluates the default metrics.
func solveMesh(ctx context.Context, m *mesh.CableMesh, eq fd.Equilibrium, cfg fd.Config) (*fd.Result, []metrics.Sample, error) {
	net, _, err := mesh.Read(m)
	if err != nil {
		return nil, nil, err
	}
	res, err := mesh.Equilibrate(ctx, m, eq, cfg)
	if err != nil {
		return nil, nil, err
	}
	return res, metrics.Evaluate(net, res), nil
}
