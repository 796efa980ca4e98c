// Package tui is an interactive browser for solved networks. Edge force
// densities can be tuned in place; every change re-solves the network.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/plan-systems/klog"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/formfind/internal/fd"
	"github.com/san-kum/formfind/internal/mesh"
	"github.com/san-kum/formfind/internal/metrics"
	"github.com/san-kum/formfind/internal/report"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	cursor = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
)

type tab int

const (
	tabNodes tab = iota
	tabEdges
)

// qStep is the factor applied to a force density per key press.
const qStep = 1.1

// Browser is a bubbletea model over a mesh and its last solve.
type Browser struct {
	mesh   *mesh.CableMesh
	solver fd.Equilibrium
	cfg    fd.Config
	res    *fd.Result

	tab      tab
	cursor   int
	offset   int
	byForce  bool
	status   string
	quitting bool

	width  int
	height int

	setQ func(u, v string, q float64) error
}

// New returns a browser for m. solver may be nil, which disables editing.
func New(m *mesh.CableMesh, solver fd.Equilibrium, cfg fd.Config) *Browser {
	return &Browser{
		mesh:   m,
		solver: solver,
		cfg:    cfg,
		width:  100,
		height: 30,
		setQ:   m.SetQ,
	}
}

// WithResult sets the result shown before the first re-solve.
func (m *Browser) WithResult(res *fd.Result) *Browser {
	m.res = res
	return m
}

// Run browses m until the user quits. res may be nil.
func Run(m *mesh.CableMesh, res *fd.Result, solver fd.Equilibrium, cfg fd.Config) error {
	_, err := tea.NewProgram(New(m, solver, cfg).WithResult(res), tea.WithAltScreen()).Run()
	return err
}

func (m *Browser) Init() tea.Cmd { return nil }

func (m *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			m.tab = 1 - m.tab
			m.cursor, m.offset = 0, 0
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.pageSize())
		case "pgdown":
			m.move(m.pageSize())
		case "s":
			m.byForce = !m.byForce
		case "+", "=":
			m.scaleQ(qStep)
		case "-":
			m.scaleQ(1 / qStep)
		case "r":
			m.resolve()
		}
	}
	return m, nil
}

func (m *Browser) rows() int {
	if m.tab == tabNodes {
		return m.mesh.NumVertices()
	}
	return m.mesh.NumEdges()
}

func (m *Browser) pageSize() int { return max(m.height-10, 3) }

func (m *Browser) move(d int) {
	n := m.rows()
	if n == 0 {
		return
	}
	m.cursor = min(max(m.cursor+d, 0), n-1)
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.pageSize() {
		m.offset = m.cursor - m.pageSize() + 1
	}
}

// edgeOrder returns edge indices in display order.
func (m *Browser) edgeOrder(edges []mesh.Edge) []int {
	idx := make([]int, len(edges))
	for i := range idx {
		idx[i] = i
	}
	if m.byForce {
		sort.SliceStable(idx, func(a, b int) bool { return edges[idx[a]].Force > edges[idx[b]].Force })
	}
	return idx
}

func (m *Browser) scaleQ(f float64) {
	if m.tab != tabEdges || m.solver == nil || m.mesh.NumEdges() == 0 {
		return
	}
	edges := m.mesh.Edges()
	e := edges[m.edgeOrder(edges)[m.cursor]]
	if err := m.setQ(e.U, e.V, e.Q*f); err != nil {
		m.status = red.Render(err.Error())
		return
	}
	if m.resolve() {
		return
	}
	if err := m.setQ(e.U, e.V, e.Q); err != nil {
		klog.Warningf("tui: restore q of %s-%s: %v", e.U, e.V, err)
		m.status += "\n" + red.Render(fmt.Sprintf("q of %s-%s left at %.4g: %v", e.U, e.V, e.Q*f, err))
	}
}

// resolve re-solves the mesh and reports whether it succeeded. The mesh
// is only updated on success.
func (m *Browser) resolve() bool {
	if m.solver == nil {
		return false
	}
	res, err := mesh.Equilibrate(context.Background(), m.mesh, m.solver, m.cfg)
	if err != nil {
		m.status = red.Render(err.Error())
		return false
	}
	m.res = res
	m.status = green.Render(fmt.Sprintf("solved, max residual %.2e", res.MaxFreeResidual()))
	return true
}

func (m *Browser) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	b.WriteString(cyan.Render(m.mesh.Name) + "  ")
	for t, name := range []string{"nodes", "edges"} {
		if tab(t) == m.tab {
			b.WriteString(cursor.Render("["+name+"]") + " ")
		} else {
			b.WriteString(dim.Render(" "+name+" ") + " ")
		}
	}
	b.WriteString("\n\n")

	if m.tab == tabNodes {
		m.viewNodes(&b)
	} else {
		m.viewEdges(&b)
	}

	if m.res != nil {
		b.WriteString("\n")
		for _, s := range metrics.Evaluate(nil, m.res) {
			b.WriteString(dim.Render(s.Name+"=") + fmt.Sprintf("%.4g  ", s.Value))
		}
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	b.WriteString(report.KeyHint.Render("tab switch  ↑/↓ move  s sort by force  +/- scale q  r re-solve  q quit"))
	return b.String()
}

func (m *Browser) window(n int) (int, int) {
	end := min(m.offset+m.pageSize(), n)
	return m.offset, end
}

func (m *Browser) viewNodes(b *strings.Builder) {
	fmt.Fprintf(b, "%-12s %10s %10s %10s %12s\n", "KEY", "X", "Y", "Z", "|R|")
	vs := m.mesh.Vertices()
	lo, hi := m.window(len(vs))
	for i := lo; i < hi; i++ {
		v := vs[i]
		key := v.Key
		if v.Anchor {
			key += " ▲"
		}
		line := fmt.Sprintf("%-12s %10.4f %10.4f %10.4f %12.4g",
			key, v.XYZ.X, v.XYZ.Y, v.XYZ.Z, r3.Norm(v.Residual))
		m.writeRow(b, i, line)
	}
}

func (m *Browser) viewEdges(b *strings.Builder) {
	fmt.Fprintf(b, "%-10s %-10s %10s %12s %10s\n", "U", "V", "Q", "FORCE", "LENGTH")
	es := m.mesh.Edges()
	order := m.edgeOrder(es)
	lo, hi := m.window(len(es))
	for k := lo; k < hi; k++ {
		e := es[order[k]]
		force := fmt.Sprintf("%12.4g", e.Force)
		switch {
		case !e.Active:
			force = dim.Render(fmt.Sprintf("%12s", "inactive"))
		case e.Force < 0:
			force = report.Compr.Render(force)
		default:
			force = report.Tension.Render(force)
		}
		line := fmt.Sprintf("%-10s %-10s %10.4g %s %10.4f", e.U, e.V, e.Q, force, e.Length)
		m.writeRow(b, k, line)
	}
}

func (m *Browser) writeRow(b *strings.Builder, i int, line string) {
	if i == m.cursor {
		b.WriteString(cursor.Render("> ") + line + "\n")
		return
	}
	b.WriteString("  " + line + "\n")
}
