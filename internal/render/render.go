// Package render draws solved networks as plan and elevation views with
// gonum/plot. Members in tension are red, members in compression blue,
// inactive members grey; anchors are drawn as triangles.
package render

import (
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/san-kum/formfind/internal/mesh"
)

type View int

const (
	Plan      View = iota // x–y
	Elevation             // x–z
	Section               // y–z
)

func (v View) String() string {
	switch v {
	case Elevation:
		return "elevation"
	case Section:
		return "section"
	default:
		return "plan"
	}
}

func ParseView(s string) (View, error) {
	switch strings.ToLower(s) {
	case "plan", "xy":
		return Plan, nil
	case "elevation", "xz":
		return Elevation, nil
	case "section", "yz":
		return Section, nil
	}
	return Plan, errors.Errorf("unknown view %q", s)
}

var (
	tensionColor     = color.RGBA{R: 220, G: 50, B: 50, A: 255}
	compressionColor = color.RGBA{R: 40, G: 90, B: 220, A: 255}
	inactiveColor    = color.RGBA{R: 170, G: 170, B: 170, A: 255}
	anchorColor      = color.RGBA{A: 255}
)

func project(v View, x, y, z float64) (float64, float64) {
	switch v {
	case Elevation:
		return x, z
	case Section:
		return y, z
	default:
		return x, y
	}
}

// Plot builds the drawing of m in the given view.
func Plot(m *mesh.CableMesh, v View) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = m.Name + " " + v.String()
	switch v {
	case Elevation:
		p.X.Label.Text, p.Y.Label.Text = "x", "z"
	case Section:
		p.X.Label.Text, p.Y.Label.Text = "y", "z"
	default:
		p.X.Label.Text, p.Y.Label.Text = "x", "y"
	}

	for _, e := range m.Edges() {
		a, okA := m.Vertex(e.U)
		b, okB := m.Vertex(e.V)
		if !okA || !okB {
			return nil, errors.Errorf("edge %s-%s has a missing vertex", e.U, e.V)
		}
		ax, ay := project(v, a.XYZ.X, a.XYZ.Y, a.XYZ.Z)
		bx, by := project(v, b.XYZ.X, b.XYZ.Y, b.XYZ.Z)

		line, err := plotter.NewLine(plotter.XYs{{X: ax, Y: ay}, {X: bx, Y: by}})
		if err != nil {
			return nil, errors.Wrap(err, "edge line")
		}
		switch {
		case !e.Active:
			line.LineStyle.Color = inactiveColor
			line.LineStyle.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		case e.Force < 0:
			line.LineStyle.Color = compressionColor
		default:
			line.LineStyle.Color = tensionColor
		}
		line.LineStyle.Width = vg.Points(1)
		p.Add(line)
	}

	var anchors plotter.XYs
	for _, vert := range m.Vertices() {
		if vert.Anchor {
			x, y := project(v, vert.XYZ.X, vert.XYZ.Y, vert.XYZ.Z)
			anchors = append(anchors, plotter.XY{X: x, Y: y})
		}
	}
	if len(anchors) > 0 {
		sc, err := plotter.NewScatter(anchors)
		if err != nil {
			return nil, errors.Wrap(err, "anchors")
		}
		sc.GlyphStyle.Shape = draw.TriangleGlyph{}
		sc.GlyphStyle.Color = anchorColor
		sc.GlyphStyle.Radius = vg.Points(3)
		p.Add(sc)
		p.Legend.Add("anchor", sc)
	}
	return p, nil
}

// Write renders m to w in the given format (png, svg, pdf, eps, jpg).
func Write(w io.Writer, m *mesh.CableMesh, v View, format string, width, height vg.Length) error {
	p, err := Plot(m, v)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return errors.Wrapf(err, "render %s", format)
	}
	_, err = wt.WriteTo(w)
	return errors.Wrap(err, "write drawing")
}

// Save renders m to path, choosing the format from the extension.
func Save(path string, m *mesh.CableMesh, v View, width, height vg.Length) error {
	p, err := Plot(m, v)
	if err != nil {
		return err
	}
	if filepath.Ext(path) == "" {
		return errors.Errorf("%s: missing file extension", path)
	}
	return errors.Wrapf(p.Save(width, height, path), "save %s", path)
}
