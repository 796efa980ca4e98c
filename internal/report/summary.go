// Package report renders solved networks for the terminal.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/formfind/internal/batch"
	"github.com/san-kum/formfind/internal/fd"
	"github.com/san-kum/formfind/internal/mesh"
	"github.com/san-kum/formfind/internal/metrics"
)

// ResidualTolerance separates a balanced result from a suspicious one.
const ResidualTolerance = 1e-9

// Status grades the largest free-node residual relative to the load scale.
func Status(res *fd.Result, loadScale float64) string {
	r := res.MaxFreeResidual()
	scale := math.Max(loadScale, 1)
	switch {
	case r <= ResidualTolerance*scale:
		return Good.Render("balanced")
	case r <= 1e-6*scale:
		return Warn.Render(fmt.Sprintf("residual %.2e", r))
	default:
		return Bad.Render(fmt.Sprintf("out of balance %.2e", r))
	}
}

// Summary renders a panel with the run's counts and metrics.
func Summary(m *mesh.CableMesh, res *fd.Result, samples []metrics.Sample) string {
	loadScale := 0.0
	for _, v := range m.Vertices() {
		loadScale = math.Max(loadScale, math.Abs(v.Load.X)+math.Abs(v.Load.Y)+math.Abs(v.Load.Z))
	}

	var b strings.Builder
	b.WriteString(Title.Render(m.Name) + "\n")
	row := func(label, value string) {
		b.WriteString(Label.Render(fmt.Sprintf("%-16s", label)) + value + "\n")
	}
	row("nodes", Value.Render(fmt.Sprintf("%d (%d fixed)", len(res.Vertices), len(res.Fixed))))
	row("edges", Value.Render(fmt.Sprintf("%d", len(res.Forces))))
	row("backend", Value.Render(res.Backend))
	row("status", Status(res, loadScale))

	names := make([]string, len(samples))
	byName := make(map[string]float64, len(samples))
	for i, s := range samples {
		names[i] = s.Name
		byName[s.Name] = s.Value
	}
	sort.Strings(names)
	if len(names) > 0 {
		b.WriteString(Separator(36) + "\n")
	}
	for _, n := range names {
		row(n, Value.Render(fmt.Sprintf("%.6g", byName[n])))
	}

	if len(res.Forces) > 0 {
		b.WriteString(Separator(36) + "\n")
		row("forces", Sparkline(res.Forces, 32))
	}
	return Panel.Render(strings.TrimRight(b.String(), "\n"))
}

// ForcePlot charts member forces in edge order.
func ForcePlot(forces []float64, width, height int) string {
	if len(forces) == 0 {
		return ""
	}
	return asciigraph.Plot(forces,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("member force by edge"),
	)
}

// ProfilePlot charts one coordinate of the vertices in mesh order.
func ProfilePlot(m *mesh.CableMesh, axis int, width, height int) string {
	vs := m.Vertices()
	if len(vs) == 0 {
		return ""
	}
	data := make([]float64, len(vs))
	for i, v := range vs {
		switch axis {
		case 0:
			data[i] = v.XYZ.X
		case 1:
			data[i] = v.XYZ.Y
		default:
			data[i] = v.XYZ.Z
		}
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("%c by node", "xyz"[min(max(axis, 0), 2)])),
	)
}

// SweepPlot charts a metric against the load factor of each point.
func SweepPlot(points []batch.SweepPoint, metric string, width, height int) string {
	var data []float64
	for _, p := range points {
		if v, ok := p.Value(metric); ok {
			data = append(data, v)
		}
	}
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("%s over load factor %.3g..%.3g", metric, points[0].Factor, points[len(points)-1].Factor)),
	)
}

// BatchTable renders one line per job.
func BatchTable(results []batch.JobResult) string {
	var b strings.Builder
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(&b, "%-20s %s\n", r.Name, Bad.Render(r.Err.Error()))
			continue
		}
		tension := 0.0
		for _, s := range r.Metrics {
			if s.Name == "max_tension" {
				tension = s.Value
			}
		}
		fmt.Fprintf(&b, "%-20s %s  nodes=%d edges=%d max_tension=%.4g\n",
			r.Name, Good.Render("ok"), len(r.Result.Vertices), len(r.Result.Forces), tension)
	}
	return b.String()
}
