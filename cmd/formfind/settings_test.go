package main

import (
	"context"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/formfind/internal/config"
	"github.com/san-kum/formfind/internal/fd"
	"github.com/san-kum/formfind/internal/netgen"
)

func testCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	addSourceFlags(cmd)
	addSolverFlags(cmd)
	return cmd
}

func TestLoadSettings_FlagsOverridePreset(t *testing.T) {
	cmd := testCommand()
	if err := cmd.ParseFlags([]string{"--preset", "hypar/steep", "--nx", "4", "--backend", "cg"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadSettings(cmd)
	if err != nil {
		t.Fatal(err)
	}
	want := config.GetPreset("hypar", "steep")
	if cfg.Generator.Kind != "hypar" || cfg.Generator.Rise != want.Rise {
		t.Errorf("preset not applied: %+v", cfg.Generator)
	}
	if cfg.Generator.Nx != 4 {
		t.Errorf("expected nx 4, got %d", cfg.Generator.Nx)
	}
	if cfg.Generator.Ny != want.Ny {
		t.Errorf("unchanged flag overrode preset: ny %d", cfg.Generator.Ny)
	}
	if cfg.Solver.Backend != "cg" {
		t.Errorf("expected backend cg, got %s", cfg.Solver.Backend)
	}
	preset = ""
}

func TestLoadSettings_UnknownPreset(t *testing.T) {
	cmd := testCommand()
	if err := cmd.ParseFlags([]string{"--preset", "chain/nope"}); err != nil {
		t.Fatal(err)
	}
	if _, err := loadSettings(cmd); err == nil {
		t.Error("expected error for unknown preset")
	}
	preset = ""
}

func TestStoredResultMatchesSolve(t *testing.T) {
	g := *config.GetPreset("cablenet", "sagging")
	m, err := netgen.Generate(g)
	if err != nil {
		t.Fatal(err)
	}
	s, err := config.DefaultConfig().NewSolver()
	if err != nil {
		t.Fatal(err)
	}
	res, _, err := solveMesh(context.Background(), m, s, fd.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	got := storedResult(m, res.Backend)
	if len(got.Forces) != len(res.Forces) || len(got.Fixed) != len(res.Fixed) {
		t.Fatalf("shape mismatch: %d/%d forces, %d/%d fixed",
			len(got.Forces), len(res.Forces), len(got.Fixed), len(res.Fixed))
	}
	for i := range res.Forces {
		if got.Forces[i] != res.Forces[i] {
			t.Errorf("force %d: got %g, want %g", i, got.Forces[i], res.Forces[i])
		}
	}
	if got.MaxFreeResidual() != res.MaxFreeResidual() {
		t.Errorf("residual mismatch: %g vs %g", got.MaxFreeResidual(), res.MaxFreeResidual())
	}
}

func TestParseParams(t *testing.T) {
	names, ranges, err := parseParams([]string{"q=0.5, 1,2", "rise=3"})
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "q" || names[1] != "rise" {
		t.Errorf("unexpected names %v", names)
	}
	if len(ranges[0]) != 3 || ranges[0][1] != 1 || ranges[1][0] != 3 {
		t.Errorf("unexpected ranges %v", ranges)
	}

	for _, bad := range []string{"q", "=1", "q=", "q=1,x"} {
		if _, _, err := parseParams([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
