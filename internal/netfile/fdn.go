package netfile

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/formfind/internal/mesh"
)

type fdnFile struct {
	Statements []*fdnStatement `parser:"@@*"`
}

type fdnStatement struct {
	Pos  lexer.Position
	Name *string  `parser:"\"name\" @(Ident | String)"`
	Node *fdnNode `parser:"| \"node\" @@"`
	Edge *fdnEdge `parser:"| \"edge\" @@"`
}

type fdnNode struct {
	Key   string  `parser:"@(Ident | Float)"`
	X     float64 `parser:"@Float"`
	Y     float64 `parser:"@Float"`
	Z     float64 `parser:"@Float"`
	Fixed bool    `parser:"@\"fixed\"?"`
	Load  *fdnVec `parser:"(\"load\" @@)?"`
}

type fdnVec struct {
	X float64 `parser:"@Float"`
	Y float64 `parser:"@Float"`
	Z float64 `parser:"@Float"`
}

type fdnEdge struct {
	U        string  `parser:"@(Ident | Float)"`
	V        string  `parser:"@(Ident | Float)"`
	Q        float64 `parser:"\"q\" @Float"`
	Inactive bool    `parser:"@\"inactive\"?"`
}

var fdnLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "String", Pattern: `"[^"\n]*"`},
	{Name: "Float", Pattern: `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_.\-]*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var fdnParser = participle.MustBuild[fdnFile](
	participle.Lexer(fdnLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
)

// ParseFDN parses .fdn source. filename is only used in error messages.
func ParseFDN(filename, src string) (*mesh.CableMesh, error) {
	file, err := fdnParser.ParseString(filename, src)
	if err != nil {
		return nil, errors.Wrap(err, "parse fdn")
	}

	m := mesh.NewCableMesh("")
	for _, st := range file.Statements {
		if err := applyStatement(m, st); err != nil {
			return nil, errors.Wrapf(err, "%s:%d", filename, st.Pos.Line)
		}
	}
	return m, nil
}

func applyStatement(m *mesh.CableMesh, st *fdnStatement) error {
	switch {
	case st.Name != nil:
		m.Name = *st.Name
	case st.Node != nil:
		n := st.Node
		if err := m.AddVertex(n.Key, r3.Vec{X: n.X, Y: n.Y, Z: n.Z}); err != nil {
			return err
		}
		if n.Fixed {
			if err := m.SetAnchor(n.Key, true); err != nil {
				return err
			}
		}
		if n.Load != nil {
			return m.SetLoad(n.Key, r3.Vec{X: n.Load.X, Y: n.Load.Y, Z: n.Load.Z})
		}
	case st.Edge != nil:
		e := st.Edge
		if err := m.AddEdge(e.U, e.V, e.Q); err != nil {
			return err
		}
		if e.Inactive {
			return m.SetActive(e.U, e.V, false)
		}
	}
	return nil
}

var fdnKey = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.\-]*|[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?)$`)

// WriteFDN writes m in .fdn form. Solver outputs are not written.
func WriteFDN(w io.Writer, m *mesh.CableMesh) error {
	if err := checkWritable(m); err != nil {
		return err
	}
	ew := &errWriter{w: w}
	if m.Name != "" {
		ew.printf("name %s\n", strconv.Quote(m.Name))
	}
	for _, v := range m.Vertices() {
		ew.printf("node %s %s %s %s", v.Key, num(v.XYZ.X), num(v.XYZ.Y), num(v.XYZ.Z))
		if v.Anchor {
			ew.printf(" fixed")
		}
		if v.Load != (r3.Vec{}) {
			ew.printf(" load %s %s %s", num(v.Load.X), num(v.Load.Y), num(v.Load.Z))
		}
		ew.printf("\n")
	}
	for _, e := range m.Edges() {
		ew.printf("edge %s %s q %s", e.U, e.V, num(e.Q))
		if !e.Active {
			ew.printf(" inactive")
		}
		ew.printf("\n")
	}
	return ew.err
}

func checkWritable(m *mesh.CableMesh) error {
	for _, v := range m.Vertices() {
		if !fdnKey.MatchString(v.Key) {
			return errors.Errorf("vertex key %q cannot be written as fdn", v.Key)
		}
		for _, x := range []float64{v.XYZ.X, v.XYZ.Y, v.XYZ.Z, v.Load.X, v.Load.Y, v.Load.Z} {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return errors.Errorf("vertex %q has non-finite value %v", v.Key, x)
			}
		}
	}
	for _, e := range m.Edges() {
		if math.IsNaN(e.Q) || math.IsInf(e.Q, 0) {
			return errors.Errorf("edge %q-%q has non-finite q %v", e.U, e.V, e.Q)
		}
	}
	return nil
}

func num(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
