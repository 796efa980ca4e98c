package mesh

import (
	"context"
	"fmt"

	"github.com/san-kum/formfind/internal/fd"
	"gonum.org/v1/gonum/spatial/r3"
)

type VertexInput struct {
	Key    string
	XYZ    r3.Vec
	Load   r3.Vec
	Anchor bool
}

type EdgeInput struct {
	U, V string
	Q    float64
}

// Source is the read side of a mesh. ReadEdges returns only the edges that
// take part in the equilibrium.
type Source interface {
	ReadVertices() []VertexInput
	ReadEdges() []EdgeInput
}

type VertexOutput struct {
	Key      string
	XYZ      r3.Vec
	Residual r3.Vec
}

type EdgeOutput struct {
	U, V   string
	Force  float64
	Length float64
}

// Update carries a full set of solver outputs keyed back to the mesh.
type Update struct {
	Vertices []VertexOutput
	Edges    []EdgeOutput
}

// Sink is the write side of a mesh. Apply must either write every entry
// or none of them.
type Sink interface {
	Apply(u *Update) error
}

type Mesh interface {
	Source
	Sink
}

// Binding remembers how a network was built from a Source.
type Binding struct {
	Index *KeyIndex
	Edges []EdgeInput
}

// Read builds a network from src. Node indices follow the order of
// ReadVertices and edge indices the order of ReadEdges.
func Read(src Source) (*fd.Network, *Binding, error) {
	vs := src.ReadVertices()
	keys := make([]string, len(vs))
	for i, v := range vs {
		keys[i] = v.Key
	}
	ki, err := NewKeyIndex(keys)
	if err != nil {
		return nil, nil, err
	}

	net := &fd.Network{
		Vertices: make([]r3.Vec, len(vs)),
		Loads:    make([]r3.Vec, len(vs)),
	}
	for i, v := range vs {
		net.Vertices[i] = v.XYZ
		net.Loads[i] = v.Load
		if v.Anchor {
			net.Fixed = append(net.Fixed, i)
		}
	}

	es := src.ReadEdges()
	net.Edges = make([]fd.Edge, len(es))
	net.Q = make([]float64, len(es))
	for e, in := range es {
		u, ok := ki.Index(in.U)
		if !ok {
			return nil, nil, fmt.Errorf("mesh: edge %d references unknown vertex %q: %w", e, in.U, fd.ErrInvalidInput)
		}
		v, ok := ki.Index(in.V)
		if !ok {
			return nil, nil, fmt.Errorf("mesh: edge %d references unknown vertex %q: %w", e, in.V, fd.ErrInvalidInput)
		}
		net.Edges[e] = fd.Edge{u, v}
		net.Q[e] = in.Q
	}

	return net, &Binding{Index: ki, Edges: es}, nil
}

// Update maps res back to keys using the same vertex and edge lists that
// built the network.
func (b *Binding) Update(res *fd.Result) *Update {
	u := &Update{
		Vertices: make([]VertexOutput, b.Index.Len()),
		Edges:    make([]EdgeOutput, len(b.Edges)),
	}
	for i, key := range b.Index.Keys() {
		u.Vertices[i] = VertexOutput{Key: key, XYZ: res.Vertices[i], Residual: res.Residuals[i]}
	}
	for e, in := range b.Edges {
		u.Edges[e] = EdgeOutput{U: in.U, V: in.V, Force: res.Forces[e], Length: res.Lengths[e]}
	}
	return u
}

// Equilibrate solves m in place. On any error m is left unchanged.
func Equilibrate(ctx context.Context, m Mesh, eq fd.Equilibrium, cfg fd.Config) (*fd.Result, error) {
	net, b, err := Read(m)
	if err != nil {
		return nil, err
	}
	res, err := eq.Solve(ctx, net, cfg)
	if err != nil {
		return nil, err
	}
	if err := m.Apply(b.Update(res)); err != nil {
		return nil, fmt.Errorf("mesh: write back: %w", err)
	}
	return res, nil
}
