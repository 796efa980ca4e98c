package fd

import (
	"github.com/san-kum/formfind/internal/sparse"
	"gonum.org/v1/gonum/spatial/r3"
)

// System is the assembled linear system for the free node coordinates,
// with the incidence blocks kept for post-processing.
type System struct {
	A  *sparse.CSR
	B  [3][]float64
	C  *sparse.CSR
	Ci *sparse.CSR
	Cf *sparse.CSR
	Partition
}

// ConnectivityMatrix builds the M×N signed incidence matrix: row e holds +1
// at edges[e][0] and -1 at edges[e][1].
func ConnectivityMatrix(n int, edges []Edge) *sparse.CSR {
	coo := sparse.NewCOO(len(edges), n)
	coo.Grow(2 * len(edges))
	for e, uv := range edges {
		coo.Add(e, uv[0], 1)
		coo.Add(e, uv[1], -1)
	}
	return coo.ToCSR()
}

// Assemble builds A = CiᵀQCi and b = p_free − CiᵀQCf·x_fixed for a validated
// network and the given partition.
func Assemble(net *Network, loads []r3.Vec, part Partition) *System {
	c := ConnectivityMatrix(len(net.Vertices), net.Edges)
	ci := c.SelectColumns(part.Free)
	cf := c.SelectColumns(part.Fixed)

	sys := &System{
		A:         sparse.WeightedGram(ci, net.Q),
		C:         c,
		Ci:        ci,
		Cf:        cf,
		Partition: part,
	}

	k := sparse.WeightedCross(ci, cf, net.Q)
	xf := make([]float64, len(part.Fixed))
	kx := make([]float64, len(part.Free))
	for axis := 0; axis < 3; axis++ {
		for j, i := range part.Fixed {
			xf[j] = component(net.Vertices[i], axis)
		}
		k.MulVec(xf, kx)

		b := make([]float64, len(part.Free))
		for j, i := range part.Free {
			b[j] = component(loads[i], axis) - kx[j]
		}
		sys.B[axis] = b
	}
	return sys
}

func component(v r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func setComponent(v *r3.Vec, axis int, x float64) {
	switch axis {
	case 0:
		v.X = x
	case 1:
		v.Y = x
	default:
		v.Z = x
	}
}
