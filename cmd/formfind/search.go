package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/formfind/internal/mesh"
	"github.com/san-kum/formfind/internal/netgen"
	"github.com/san-kum/formfind/internal/optim"
)

// parseParams turns "name=v1,v2" flags into parallel name and value lists.
func parseParams(specs []string) ([]string, [][]float64, error) {
	var names []string
	var ranges [][]float64
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("bad --param %q, want name=v1,v2", spec)
		}
		var vals []float64
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("bad --param %q: %w", spec, err)
			}
			vals = append(vals, v)
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}
	return names, ranges, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	names, ranges, err := parseParams(searchParams)
	if err != nil {
		return err
	}
	gs, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	eq, closeEq, err := equilibrium(cfg)
	if err != nil {
		return err
	}
	defer closeEq()

	base := cfg.Generator
	build := func(params map[string]float64) (*mesh.CableMesh, error) {
		g := base
		for name, v := range params {
			if err := optim.SetGeneratorParam(&g, name, v); err != nil {
				return nil, err
			}
		}
		return netgen.Generate(g)
	}

	fmt.Printf("searching %d %s networks for the lowest %s...\n", gs.Size(), base.Kind, searchMetric)
	best, all, err := gs.Search(cmd.Context(), build, eq, cfg.FDConfig(), searchMetric, workers)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), searchMetric)
	for _, c := range all {
		row := make([]string, len(names))
		for i, n := range names {
			row[i] = strconv.FormatFloat(c.Params[n], 'g', -1, 64)
		}
		if c.Err != nil {
			fmt.Fprintf(w, "%s\t%v\n", strings.Join(row, "\t"), c.Err)
			continue
		}
		fmt.Fprintf(w, "%s\t%.6g\n", strings.Join(row, "\t"), c.Value)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(best.Params))
	for k := range best.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, best.Params[k])
	}
	fmt.Printf("\nbest: %s (%s %.6g)\n", strings.Join(parts, " "), searchMetric, best.Value)
	return nil
}
