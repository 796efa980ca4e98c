package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/formfind/internal/mesh"
)

func sample(t *testing.T) *mesh.CableMesh {
	t.Helper()
	m := mesh.NewCableMesh("sample")
	require.NoError(t, m.AddVertex("a", r3.Vec{}))
	require.NoError(t, m.AddVertex("b", r3.Vec{X: 1, Z: -0.5}))
	require.NoError(t, m.AddVertex("c", r3.Vec{X: 2}))
	require.NoError(t, m.SetAnchor("a", true))
	require.NoError(t, m.SetAnchor("c", true))
	require.NoError(t, m.AddEdge("a", "b", 1))
	require.NoError(t, m.AddEdge("b", "c", -1))
	require.NoError(t, m.AddEdge("a", "c", 1))
	require.NoError(t, m.SetActive("a", "c", false))
	return m
}

func TestParseView(t *testing.T) {
	for in, want := range map[string]View{"plan": Plan, "XZ": Elevation, "section": Section} {
		got, err := ParseView(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseView("iso")
	assert.Error(t, err)
}

func TestPlot(t *testing.T) {
	p, err := Plot(sample(t), Elevation)
	require.NoError(t, err)
	assert.Equal(t, "sample elevation", p.Title.Text)
	assert.Equal(t, "z", p.Y.Label.Text)
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample(t), Plan, "svg", 4*vg.Inch, 3*vg.Inch))
	assert.True(t, strings.Contains(buf.String(), "<svg"))
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "net.png")
	require.NoError(t, Save(path, sample(t), Plan, 4*vg.Inch, 4*vg.Inch))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	assert.Error(t, Save(filepath.Join(t.TempDir(), "noext"), sample(t), Plan, vg.Inch, vg.Inch))
}
