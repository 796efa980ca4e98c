package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/formfind/internal/fd"
	"github.com/san-kum/formfind/internal/linsolve"
	"github.com/san-kum/formfind/internal/mesh"
)

func chainMesh(t *testing.T) *mesh.CableMesh {
	t.Helper()
	m := mesh.NewCableMesh("chain")
	require.NoError(t, m.AddVertex("a", r3.Vec{}))
	require.NoError(t, m.AddVertex("b", r3.Vec{X: 0.5, Z: 1}))
	require.NoError(t, m.AddVertex("c", r3.Vec{X: 2}))
	require.NoError(t, m.SetAnchor("a", true))
	require.NoError(t, m.SetAnchor("c", true))
	require.NoError(t, m.AddEdge("a", "b", 1))
	require.NoError(t, m.AddEdge("b", "c", 1))
	return m
}

func denseSolver(t *testing.T) *fd.Solver {
	t.Helper()
	b, err := linsolve.New("dense", linsolve.DefaultOptions())
	require.NoError(t, err)
	return fd.New(b)
}

type brokenSolver struct{}

func (brokenSolver) Solve(context.Context, *fd.Network, fd.Config) (*fd.Result, error) {
	return nil, errors.New("no solution")
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(b *Browser, keys ...string) {
	for _, k := range keys {
		b.Update(key(k))
	}
}

func TestBrowserNavigation(t *testing.T) {
	b := New(chainMesh(t), nil, fd.DefaultConfig())

	send(b, "down", "down", "down", "down")
	assert.Equal(t, 2, b.cursor, "cursor clamps to last node")
	send(b, "up", "k")
	assert.Equal(t, 0, b.cursor)

	send(b, "tab")
	assert.Equal(t, tabEdges, b.tab)
	assert.Equal(t, 0, b.cursor)
	send(b, "j", "j")
	assert.Equal(t, 1, b.cursor)

	send(b, "tab")
	assert.Equal(t, tabNodes, b.tab)
}

func TestBrowserQuit(t *testing.T) {
	b := New(chainMesh(t), nil, fd.DefaultConfig())
	_, cmd := b.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Empty(t, b.View())
}

func TestBrowserScaleQResolves(t *testing.T) {
	m := chainMesh(t)
	b := New(m, denseSolver(t), fd.DefaultConfig())

	send(b, "tab", "+")
	require.NotNil(t, b.res)

	e, ok := m.Edge("a", "b")
	require.True(t, ok)
	assert.InDelta(t, 1.1, e.Q, 1e-12)

	// x_b = (1.1*0 + 1*2) / 2.1
	v, _ := m.Vertex("b")
	assert.InDelta(t, 2/2.1, v.XYZ.X, 1e-9)
	assert.InDelta(t, 0, v.XYZ.Z, 1e-9)
	assert.Contains(t, b.status, "solved")
}

func TestBrowserScaleQRevertsOnFailure(t *testing.T) {
	m := chainMesh(t)
	b := New(m, brokenSolver{}, fd.DefaultConfig())

	send(b, "tab", "-")
	e, _ := m.Edge("a", "b")
	assert.Equal(t, 1.0, e.Q)
	assert.Contains(t, b.status, "no solution")
	assert.Nil(t, b.res)
}

func TestBrowserScaleQIgnoredOnNodes(t *testing.T) {
	m := chainMesh(t)
	b := New(m, denseSolver(t), fd.DefaultConfig())
	send(b, "+")
	e, _ := m.Edge("a", "b")
	assert.Equal(t, 1.0, e.Q)
}

func TestBrowserView(t *testing.T) {
	m := chainMesh(t)
	b := New(m, denseSolver(t), fd.DefaultConfig())
	send(b, "r")

	out := b.View()
	assert.Contains(t, out, "chain")
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "max_residual")

	send(b, "tab", "s")
	assert.True(t, b.byForce)
	out = b.View()
	assert.Contains(t, out, "FORCE")
	assert.Equal(t, 1, strings.Count(out, "> "))
}

func TestBrowserWithResult(t *testing.T) {
	m := chainMesh(t)
	res, err := mesh.Equilibrate(context.Background(), m.Clone(), denseSolver(t), fd.DefaultConfig())
	require.NoError(t, err)

	b := New(m, nil, fd.DefaultConfig()).WithResult(res)
	assert.Contains(t, b.View(), "load_path")

	send(b, "r")
	assert.Same(t, res, b.res, "re-solve needs a solver")
}

func TestBrowserScaleQReportsFailedRestore(t *testing.T) {
	m := chainMesh(t)
	b := New(m, brokenSolver{}, fd.DefaultConfig())
	calls := 0
	b.setQ = func(u, v string, q float64) error {
		calls++
		if calls > 1 {
			return errors.New("edge gone")
		}
		return m.SetQ(u, v, q)
	}

	send(b, "tab", "+")
	assert.Equal(t, 2, calls)
	assert.Contains(t, b.status, "no solution")
	assert.Contains(t, b.status, "edge gone")
	assert.Contains(t, b.status, "left at 1.1")

	e, _ := m.Edge("a", "b")
	assert.InDelta(t, 1.1, e.Q, 1e-12)
}
