package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/formfind/internal/fd"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Generator.Kind != "cablenet" {
		t.Errorf("expected kind cablenet, got %s", cfg.Generator.Kind)
	}
	if cfg.Solver.Backend != "auto" {
		t.Errorf("expected backend auto, got %s", cfg.Solver.Backend)
	}
	if cfg.Loads.Factor != 1 {
		t.Errorf("expected unit load factor, got %f", cfg.Loads.Factor)
	}
	if !cfg.CheckConstraints {
		t.Error("structural check should be on by default")
	}
	if len(cfg.Contributors()) != 0 {
		t.Error("default config should not add load contributors")
	}
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")

	cfg := DefaultConfig()
	cfg.Name = "roof"
	cfg.Solver.Backend = "cg"
	cfg.Solver.TimeoutSeconds = 1.5
	cfg.Loads.Uniform = [3]float64{0, 0, -2}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Name != "roof" || loaded.Solver.Backend != "cg" {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
	if got := loaded.FDConfig().Timeout; got != 1500*time.Millisecond {
		t.Errorf("expected 1.5s timeout, got %v", got)
	}
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("solver:\n  backend: dense\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Solver.Backend != "dense" {
		t.Errorf("expected dense, got %s", cfg.Solver.Backend)
	}
	if cfg.Solver.CondLimit != DefaultCondLimit {
		t.Errorf("expected default cond limit, got %g", cfg.Solver.CondLimit)
	}
	if cfg.Generator.Nx != DefaultNx {
		t.Errorf("expected default nx, got %d", cfg.Generator.Nx)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestContributors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Loads.Uniform = [3]float64{0, 0, -1}
	cfg.Loads.Factor = 2

	cs := cfg.Contributors()
	if len(cs) != 2 {
		t.Fatalf("expected 2 contributors, got %d", len(cs))
	}
	if cs[0].Name() != "uniform" || cs[1].Name() != "factor" {
		t.Errorf("unexpected order: %s, %s", cs[0].Name(), cs[1].Name())
	}
}

func TestNewSolver(t *testing.T) {
	cfg := DefaultConfig()
	s, err := cfg.NewSolver()
	if err != nil {
		t.Fatalf("new solver: %v", err)
	}
	if s.Backend() != "auto" {
		t.Errorf("expected auto backend, got %s", s.Backend())
	}

	cfg.Solver.Backend = "magic"
	if _, err := cfg.NewSolver(); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestFDConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckConstraints = false
	want := fd.Config{CheckConstraints: false}
	if got := cfg.FDConfig(); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestGetPreset(t *testing.T) {
	g := GetPreset("chain", "default")
	if g == nil {
		t.Fatal("expected preset, got nil")
	}
	if g.Nx != 3 {
		t.Errorf("expected 3 nodes, got %d", g.Nx)
	}

	g.Nx = 99
	if GetPreset("chain", "default").Nx != 3 {
		t.Error("preset table was modified through the returned copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("chain", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "default") != nil {
		t.Error("expected nil for nonexistent kind")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("cablenet")
	if len(presets) == 0 {
		t.Error("expected presets for cablenet")
	}
	for i := 1; i < len(presets); i++ {
		if presets[i-1] > presets[i] {
			t.Errorf("presets not sorted: %v", presets)
		}
	}

	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent kind")
	}
}

func TestPresetKindsMatchKeys(t *testing.T) {
	for _, kind := range ListKinds() {
		for name, g := range Presets[kind] {
			if g.Kind != kind {
				t.Errorf("%s/%s has kind %s", kind, name, g.Kind)
			}
		}
	}
}

