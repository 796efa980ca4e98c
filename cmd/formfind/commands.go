package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/plan-systems/klog"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/formfind/internal/batch"
	"github.com/san-kum/formfind/internal/cache"
	"github.com/san-kum/formfind/internal/config"
	"github.com/san-kum/formfind/internal/fd"
	"github.com/san-kum/formfind/internal/linsolve"
	"github.com/san-kum/formfind/internal/mesh"
	"github.com/san-kum/formfind/internal/metrics"
	"github.com/san-kum/formfind/internal/netfile"
	"github.com/san-kum/formfind/internal/netgen"
	"github.com/san-kum/formfind/internal/render"
	"github.com/san-kum/formfind/internal/report"
	"github.com/san-kum/formfind/internal/storage"
	"github.com/san-kum/formfind/internal/tui"
)

func solveNetwork(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	m, source, err := sourceMesh(cfg, args)
	if err != nil {
		return err
	}
	eq, closeEq, err := equilibrium(cfg)
	if err != nil {
		return err
	}
	defer closeEq()

	fmt.Printf("solving %s (%d nodes, %d edges)...\n", m.Name, m.NumVertices(), m.NumEdges())
	start := time.Now()
	res, samples, err := solveMesh(cmd.Context(), m, eq, cfg.FDConfig())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Println(report.Summary(m, res, samples))
	fmt.Printf("completed in %v\n", elapsed)

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(source, m, res, samples)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	if openView {
		return tui.Run(m, res, eq, cfg.FDConfig())
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSOURCE\tTIME\tNODES\tEDGES\tFIXED\tBACKEND\tMAX RESIDUAL")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%.2e\n",
			run.ID,
			run.Name,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Nodes,
			run.Edges,
			run.Fixed,
			run.Backend,
			run.Metrics["max_residual"],
		)
	}
	return w.Flush()
}

// openRun loads a stored run and rebuilds its result from the stored
// outputs.
func openRun(runID string) (*storage.RunMetadata, *mesh.CableMesh, *fd.Result, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	m, err := st.LoadMesh(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	return meta, m, storedResult(m, meta.Backend), nil
}

// storedResult rebuilds an fd.Result from the outputs saved on a mesh.
// Inactive edges were not part of the solve and are left out.
func storedResult(m *mesh.CableMesh, backend string) *fd.Result {
	res := &fd.Result{Backend: backend}
	for i, v := range m.Vertices() {
		res.Vertices = append(res.Vertices, v.XYZ)
		res.Residuals = append(res.Residuals, v.Residual)
		if v.Anchor {
			res.Fixed = append(res.Fixed, i)
		} else {
			res.Free = append(res.Free, i)
		}
	}
	for _, e := range m.Edges() {
		if !e.Active {
			continue
		}
		res.Forces = append(res.Forces, e.Force)
		res.Lengths = append(res.Lengths, e.Length)
	}
	return res
}

func samplesOf(meta *storage.RunMetadata) []metrics.Sample {
	out := make([]metrics.Sample, 0, len(meta.Metrics))
	for name, v := range meta.Metrics {
		out = append(out, metrics.Sample{Name: name, Value: v})
	}
	return out
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, m, res, err := openRun(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("source: %s\n", meta.Source)
	fmt.Printf("time: %s\n\n", meta.Timestamp.Format(time.RFC3339))
	fmt.Println(report.Summary(m, res, samplesOf(meta)))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, m, res, err := openRun(args[0])
	if err != nil {
		return err
	}
	if len(res.Forces) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("nodes: %d, edges: %d\n\n", meta.Nodes, meta.Edges)
	fmt.Println(report.ForcePlot(res.Forces, 80, 10))
	fmt.Println()
	fmt.Println(report.ProfilePlot(m, 2, 80, 10))
	return nil
}

func renderRun(cmd *cobra.Command, args []string) error {
	v, err := render.ParseView(view)
	if err != nil {
		return err
	}
	_, m, _, err := openRun(args[0])
	if err != nil {
		return err
	}
	path := outPath
	if path == "" {
		path = fmt.Sprintf("%s-%s.png", args[0], v)
	}
	if err := render.Save(path, m, v, vg.Length(width)*vg.Centimeter, vg.Length(height)*vg.Centimeter); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func viewRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	meta, m, res, err := openRun(args[0])
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("backend") && meta.Backend != "" {
		cfg.Solver.Backend = meta.Backend
	}
	eq, closeEq, err := equilibrium(cfg)
	if err != nil {
		return err
	}
	defer closeEq()
	return tui.Run(m, res, eq, cfg.FDConfig())
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, m, _, err := openRun(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, m)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, m, _, err := openRun(args[0])
	if err != nil {
		return err
	}
	table := "nodes"
	if len(args) > 1 {
		table = args[1]
	}
	switch table {
	case "nodes":
		return storage.WriteNodesCSV(os.Stdout, m)
	case "edges":
		return storage.WriteEdgesCSV(os.Stdout, m)
	}
	return fmt.Errorf("unknown table %q (nodes or edges)", table)
}

func exportNet(cmd *cobra.Command, args []string) error {
	_, m, _, err := openRun(args[0])
	if err != nil {
		return err
	}
	if err := netfile.Save(args[1], m); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[1])
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	sc, err := batch.LoadScenario(args[0])
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("workers") {
		sc.Workers = workers
	}
	eq, closeEq, err := equilibrium(cfg)
	if err != nil {
		return err
	}
	defer closeEq()

	fmt.Printf("running scenario %s (%d jobs)...\n", sc.Name, len(sc.Jobs))
	start := time.Now()
	results := batch.Run(cmd.Context(), sc, eq, cfg.FDConfig())
	fmt.Print(report.BatchTable(results))
	fmt.Printf("completed in %v\n", time.Since(start))

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		source := filepath.Base(args[0])
		for _, r := range results {
			if r.Err != nil {
				continue
			}
			runID, err := st.Save(source, r.Mesh, r.Result, r.Metrics)
			if err != nil {
				return err
			}
			klog.V(1).Infof("batch: stored %s as %s", r.Name, runID)
		}
	}

	if n := batch.Failed(results); n > 0 {
		return fmt.Errorf("%d of %d jobs failed", n, len(results))
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	m, _, err := sourceMesh(cfg, args)
	if err != nil {
		return err
	}
	eq, closeEq, err := equilibrium(cfg)
	if err != nil {
		return err
	}
	defer closeEq()

	factors := batch.LoadFactors(sweepFrom, sweepTo, sweepSteps)
	points, err := batch.RunSweep(cmd.Context(), m, eq, cfg.FDConfig(), factors, workers)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "FACTOR\t%s\n", sweepMetric)
	for _, p := range points {
		if p.Err != nil {
			fmt.Fprintf(w, "%.4g\t%v\n", p.Factor, p.Err)
			continue
		}
		v, ok := p.Value(sweepMetric)
		if !ok {
			return fmt.Errorf("unknown metric %q", sweepMetric)
		}
		fmt.Fprintf(w, "%.4g\t%.6g\n", p.Factor, v)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if plot := report.SweepPlot(points, sweepMetric, 80, 10); plot != "" {
		fmt.Println()
		fmt.Println(plot)
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	kinds := config.ListKinds()
	if len(args) > 0 {
		kinds = []string{args[0]}
	}
	for _, k := range kinds {
		presets := config.ListPresets(k)
		if len(presets) == 0 {
			fmt.Printf("no presets for kind: %s\n", k)
			continue
		}
		fmt.Printf("presets for %s:\n", k)
		for _, p := range presets {
			g := config.GetPreset(k, p)
			fmt.Printf("  %s/%-10s %dx%d span=%g q=%g load=%g\n", k, p, g.Nx, g.Ny, g.Span, g.Q, g.Load)
		}
	}
	return nil
}

func benchBackends(cmd *cobra.Command, args []string) error {
	g := config.DefaultConfig().Generator
	if len(args) > 0 {
		g.Kind = args[0]
	}
	sizes := []int{5, 10, 20, 40}

	fmt.Printf("benchmarking %s\n\n", g.Kind)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NODES\tEDGES\tBACKEND\tTIME\tMAX RESIDUAL")
	for _, n := range sizes {
		g.Nx, g.Ny = n, n
		m, err := netgen.Generate(g)
		if err != nil {
			return err
		}
		net, _, err := mesh.Read(m)
		if err != nil {
			return err
		}
		for _, name := range linsolve.Names() {
			b, err := linsolve.New(name, linsolve.DefaultOptions())
			if err != nil {
				return err
			}
			start := time.Now()
			res, err := fd.New(b).Solve(context.Background(), net, fd.DefaultConfig())
			elapsed := time.Since(start)
			if err != nil {
				fmt.Fprintf(w, "%d\t%d\t%s\t%v\t%v\n", net.NumNodes(), net.NumEdges(), name, elapsed, err)
				continue
			}
			fmt.Fprintf(w, "%d\t%d\t%s\t%v\t%.2e\n",
				net.NumNodes(), net.NumEdges(), name, elapsed, res.MaxFreeResidual())
		}
	}
	return w.Flush()
}

func openCache() (*cache.DB, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		dir = filepath.Join(dataDir, "cache")
	}
	return cache.Open(dir)
}

func cacheStats(cmd *cobra.Command, args []string) error {
	db, err := openCache()
	if err != nil {
		return err
	}
	defer db.Close()
	n, err := db.Len()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]int{"results": n})
}

func cachePurge(cmd *cobra.Command, args []string) error {
	db, err := openCache()
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Purge(); err != nil {
		return err
	}
	fmt.Println("cache purged")
	return nil
}
