package fd

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// CheckConstrained looks for connected components, over edges with a
// nonzero force density, that contain free nodes but no fixed node. Such a
// component has a null space in A, so the solve cannot succeed.
func CheckConstrained(net *Network, part Partition) error {
	g := simple.NewUndirectedGraph()
	for i := range net.Vertices {
		g.AddNode(simple.Node(i))
	}
	for e, uv := range net.Edges {
		if net.Q[e] == 0 {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(uv[0]), T: simple.Node(uv[1])})
	}

	var loose []int
	for _, comp := range topo.ConnectedComponents(g) {
		anchored := false
		for _, node := range comp {
			if part.IsFixed(int(node.ID())) {
				anchored = true
				break
			}
		}
		if anchored {
			continue
		}
		for _, node := range comp {
			loose = append(loose, int(node.ID()))
		}
	}

	if len(loose) == 0 {
		return nil
	}
	sort.Ints(loose)
	return &SingularSystemError{
		Nodes:  loose,
		Reason: "free nodes without a load path to any fixed node",
	}
}
