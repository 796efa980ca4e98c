package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vertex holds the attributes of one mesh vertex. Residual is written by
// the solver; for anchors it is the reaction the support must supply,
// with the sign flipped.
type Vertex struct {
	Key      string
	XYZ      r3.Vec
	Load     r3.Vec
	Anchor   bool
	Residual r3.Vec
}

// Edge holds the attributes of one mesh edge. Inactive edges keep their
// attributes but are ignored by the solver.
type Edge struct {
	U, V   string
	Q      float64
	Active bool
	Force  float64
	Length float64
}

type edgeKey struct{ u, v string }

// CableMesh is a keyed in-memory network. Vertices and edges keep their
// insertion order, which becomes the node and edge order of the solve.
type CableMesh struct {
	Name string

	vertices []Vertex
	vindex   map[string]int
	edges    []Edge
	eindex   map[edgeKey]int
}

func NewCableMesh(name string) *CableMesh {
	return &CableMesh{
		Name:   name,
		vindex: make(map[string]int),
		eindex: make(map[edgeKey]int),
	}
}

func (m *CableMesh) NumVertices() int { return len(m.vertices) }
func (m *CableMesh) NumEdges() int    { return len(m.edges) }

func (m *CableMesh) AddVertex(key string, xyz r3.Vec) error {
	if key == "" {
		return fmt.Errorf("mesh: empty vertex key")
	}
	if _, ok := m.vindex[key]; ok {
		return fmt.Errorf("mesh: vertex %q already exists", key)
	}
	m.vindex[key] = len(m.vertices)
	m.vertices = append(m.vertices, Vertex{Key: key, XYZ: xyz})
	return nil
}

func (m *CableMesh) vertex(key string) (*Vertex, error) {
	i, ok := m.vindex[key]
	if !ok {
		return nil, fmt.Errorf("mesh: no vertex %q", key)
	}
	return &m.vertices[i], nil
}

func (m *CableMesh) SetLoad(key string, p r3.Vec) error {
	v, err := m.vertex(key)
	if err != nil {
		return err
	}
	v.Load = p
	return nil
}

func (m *CableMesh) SetAnchor(key string, anchor bool) error {
	v, err := m.vertex(key)
	if err != nil {
		return err
	}
	v.Anchor = anchor
	return nil
}

// AddEdge adds an active edge. Edges are undirected for lookup, so u-v and
// v-u cannot both exist.
func (m *CableMesh) AddEdge(u, v string, q float64) error {
	if u == v {
		return fmt.Errorf("mesh: self loop at %q", u)
	}
	if _, err := m.vertex(u); err != nil {
		return err
	}
	if _, err := m.vertex(v); err != nil {
		return err
	}
	if _, ok := m.edgeIndex(u, v); ok {
		return fmt.Errorf("mesh: edge %q-%q already exists", u, v)
	}
	m.eindex[edgeKey{u, v}] = len(m.edges)
	m.edges = append(m.edges, Edge{U: u, V: v, Q: q, Active: true})
	return nil
}

func (m *CableMesh) edgeIndex(u, v string) (int, bool) {
	if i, ok := m.eindex[edgeKey{u, v}]; ok {
		return i, true
	}
	i, ok := m.eindex[edgeKey{v, u}]
	return i, ok
}

func (m *CableMesh) SetQ(u, v string, q float64) error {
	i, ok := m.edgeIndex(u, v)
	if !ok {
		return fmt.Errorf("mesh: no edge %q-%q", u, v)
	}
	m.edges[i].Q = q
	return nil
}

func (m *CableMesh) SetActive(u, v string, active bool) error {
	i, ok := m.edgeIndex(u, v)
	if !ok {
		return fmt.Errorf("mesh: no edge %q-%q", u, v)
	}
	m.edges[i].Active = active
	return nil
}

func (m *CableMesh) Vertex(key string) (Vertex, bool) {
	i, ok := m.vindex[key]
	if !ok {
		return Vertex{}, false
	}
	return m.vertices[i], true
}

func (m *CableMesh) Edge(u, v string) (Edge, bool) {
	i, ok := m.edgeIndex(u, v)
	if !ok {
		return Edge{}, false
	}
	return m.edges[i], true
}

// Vertices returns a copy of all vertices in insertion order.
func (m *CableMesh) Vertices() []Vertex {
	out := make([]Vertex, len(m.vertices))
	copy(out, m.vertices)
	return out
}

// Edges returns a copy of all edges, active or not, in insertion order.
func (m *CableMesh) Edges() []Edge {
	out := make([]Edge, len(m.edges))
	copy(out, m.edges)
	return out
}

// Anchors returns the keys of all anchored vertices.
func (m *CableMesh) Anchors() []string {
	var keys []string
	for _, v := range m.vertices {
		if v.Anchor {
			keys = append(keys, v.Key)
		}
	}
	return keys
}

func (m *CableMesh) ReadVertices() []VertexInput {
	out := make([]VertexInput, len(m.vertices))
	for i, v := range m.vertices {
		out[i] = VertexInput{Key: v.Key, XYZ: v.XYZ, Load: v.Load, Anchor: v.Anchor}
	}
	return out
}

func (m *CableMesh) ReadEdges() []EdgeInput {
	out := make([]EdgeInput, 0, len(m.edges))
	for _, e := range m.edges {
		if e.Active {
			out = append(out, EdgeInput{U: e.U, V: e.V, Q: e.Q})
		}
	}
	return out
}

// Apply writes an update after checking that every key exists.
func (m *CableMesh) Apply(u *Update) error {
	vidx := make([]int, len(u.Vertices))
	for k, out := range u.Vertices {
		i, ok := m.vindex[out.Key]
		if !ok {
			return fmt.Errorf("mesh: update references unknown vertex %q", out.Key)
		}
		vidx[k] = i
	}
	eidx := make([]int, len(u.Edges))
	for k, out := range u.Edges {
		i, ok := m.edgeIndex(out.U, out.V)
		if !ok {
			return fmt.Errorf("mesh: update references unknown edge %q-%q", out.U, out.V)
		}
		eidx[k] = i
	}

	for k, out := range u.Vertices {
		v := &m.vertices[vidx[k]]
		v.XYZ = out.XYZ
		v.Residual = out.Residual
	}
	for k, out := range u.Edges {
		e := &m.edges[eidx[k]]
		e.Force = out.Force
		e.Length = out.Length
	}
	return nil
}

// Clone returns a deep copy.
func (m *CableMesh) Clone() *CableMesh {
	c := NewCableMesh(m.Name)
	c.vertices = m.Vertices()
	c.edges = m.Edges()
	for k, i := range m.vindex {
		c.vindex[k] = i
	}
	for k, i := range m.eindex {
		c.eindex[k] = i
	}
	return c
}
