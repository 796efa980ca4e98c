package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/plan-systems/klog"
	"github.com/spf13/cobra"

	"github.com/san-kum/formfind/internal/config"
	"github.com/san-kum/formfind/internal/linsolve"
	"github.com/san-kum/formfind/internal/netgen"
	"github.com/san-kum/formfind/internal/optim"
)

var (
	dataDir    string
	configFile string
	preset     string

	// generator overrides
	kind      string
	nx        int
	ny        int
	span      float64
	q         float64
	boundaryQ float64
	load      float64
	rise      float64

	// solver overrides
	backend    string
	tolerance  float64
	maxIter    int
	timeout    float64
	loadFactor float64
	uniformZ   float64
	useCache   bool
	noCheck    bool

	noSave   bool
	openView bool

	// output
	view    string
	outPath string
	width   float64
	height  float64
	workers int

	// sweep
	sweepFrom   float64
	sweepTo     float64
	sweepSteps  int
	sweepMetric string

	// search
	searchParams []string
	searchMetric string
)

func main() {
	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})
	defer klog.Flush()

	rootCmd := &cobra.Command{
		Use:           "formfind",
		Short:         "force density form finding for cable and strut networks",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".formfind", "data directory")
	rootCmd.PersistentFlags().AddGoFlagSet(fset)

	solveCmd := &cobra.Command{
		Use:   "solve [network-file]",
		Short: "find the equilibrium shape of a network",
		Long: "Solve a network read from a .fdn or .yaml file, or generated from a preset\n" +
			"or generator flags when no file is given.",
		Args: cobra.MaximumNArgs(1),
		RunE: solveNetwork,
	}
	addSourceFlags(solveCmd)
	addSolverFlags(solveCmd)
	solveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	solveCmd.Flags().BoolVar(&openView, "view", false, "browse the result interactively")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "summarize a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot forces and the z profile of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	renderCmd := &cobra.Command{
		Use:   "render [run_id]",
		Short: "draw a run to a png, svg or pdf file",
		Args:  cobra.ExactArgs(1),
		RunE:  renderRun,
	}
	renderCmd.Flags().StringVar(&view, "view", "plan", "projection: plan, elevation or section")
	renderCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <run_id>-<view>.png)")
	renderCmd.Flags().Float64Var(&width, "width", 16, "width in cm")
	renderCmd.Flags().Float64Var(&height, "height", 16, "height in cm")

	viewCmd := &cobra.Command{
		Use:   "view [run_id]",
		Short: "browse a run and tune force densities interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  viewRun,
	}
	addSolverFlags(viewCmd)

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id] [nodes|edges]",
		Short: "export node or edge table to CSV",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportCSV,
	}

	exportNetCmd := &cobra.Command{
		Use:   "export-net [run_id] [file]",
		Short: "write the solved network as a .fdn or .yaml file",
		Args:  cobra.ExactArgs(2),
		RunE:  exportNet,
	}

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "solve every job of a scenario in parallel",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	addSolverFlags(batchCmd)
	batchCmd.Flags().IntVar(&workers, "workers", 0, "worker count (default: scenario value or cpu count)")
	batchCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	sweepCmd := &cobra.Command{
		Use:   "sweep [network-file]",
		Short: "solve a network over a range of load factors",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addSourceFlags(sweepCmd)
	addSolverFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0.5, "first load factor")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 2, "last load factor")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 7, "number of load factors")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "max_tension", "metric to plot")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "worker count (default cpu count)")

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "grid search generator parameters for the lowest metric",
		Example: "  formfind search --preset cablenet/edged --param boundary_q=2,5,10 --param q=0.5,1 --metric load_path",
		Args: cobra.NoArgs,
		RunE: runSearch,
	}
	addSourceFlags(searchCmd)
	addSolverFlags(searchCmd)
	searchCmd.Flags().StringArrayVar(&searchParams, "param", nil, fmt.Sprintf("name=v1,v2,... with name in %v (repeatable)", optim.GeneratorParams()))
	searchCmd.Flags().StringVar(&searchMetric, "metric", "load_path", "metric to minimize")
	searchCmd.Flags().IntVar(&workers, "workers", 0, "worker count (default cpu count)")

	presetsCmd := &cobra.Command{
		Use:   "presets [kind]",
		Short: "list generator presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [kind]",
		Short: "time every backend on growing generated networks",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchBackends,
	}

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "inspect the result cache",
	}
	cacheCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cacheCmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "count cached results",
			RunE:  cacheStats,
		},
		&cobra.Command{
			Use:   "purge",
			Short: "drop every cached result",
			RunE:  cachePurge,
		},
	)

	rootCmd.AddCommand(solveCmd, listCmd, showCmd, plotCmd, renderCmd, viewCmd,
		exportJSONCmd, exportCSVCmd, exportNetCmd, batchCmd, sweepCmd, searchCmd, presetsCmd,
		benchCmd, cacheCmd)

	if err := rootCmd.Execute(); err != nil {
		klog.Flush()
		os.Exit(1)
	}
}

func addSourceFlags(cmd *cobra.Command) {
	d := config.DefaultConfig().Generator
	cmd.Flags().StringVar(&preset, "preset", "", "generator preset as kind/name (see presets)")
	cmd.Flags().StringVar(&kind, "kind", d.Kind, fmt.Sprintf("generator kind %v", netgen.Kinds()))
	cmd.Flags().IntVar(&nx, "nx", d.Nx, "nodes along x")
	cmd.Flags().IntVar(&ny, "ny", d.Ny, "nodes along y")
	cmd.Flags().Float64Var(&span, "span", d.Span, "plan size")
	cmd.Flags().Float64Var(&q, "q", d.Q, "force density of generated edges")
	cmd.Flags().Float64Var(&boundaryQ, "boundary-q", d.BoundaryQ, "force density of boundary cables (0: anchor the whole boundary)")
	cmd.Flags().Float64Var(&load, "load", d.Load, "z load per free node")
	cmd.Flags().Float64Var(&rise, "rise", d.Rise, "support rise (hypar, saddle)")
}

func addSolverFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&backend, "backend", d.Solver.Backend, fmt.Sprintf("linear solver %v", linsolve.Names()))
	cmd.Flags().Float64Var(&tolerance, "tol", d.Solver.Tolerance, "cg relative tolerance")
	cmd.Flags().IntVar(&maxIter, "max-iter", d.Solver.MaxIterations, "cg iteration cap (0: system size)")
	cmd.Flags().Float64Var(&timeout, "timeout", d.Solver.TimeoutSeconds, "solve timeout in seconds (0: none)")
	cmd.Flags().Float64Var(&loadFactor, "load-factor", d.Loads.Factor, "scale every load")
	cmd.Flags().Float64Var(&uniformZ, "uniform-z", d.Loads.Uniform[2], "extra z load on every free node")
	cmd.Flags().BoolVar(&useCache, "cache", d.Cache.Enabled, "reuse cached results")
	cmd.Flags().BoolVar(&noCheck, "no-check", !d.CheckConstraints, "skip the structural constraint check")
}
