// Package netgen builds parametric cable networks: chains, arches and
// grid nets with different support layouts.
package netgen

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/formfind/internal/config"
	"github.com/san-kum/formfind/internal/mesh"
)

type generator func(g config.GeneratorConfig) (*mesh.CableMesh, error)

var generators = map[string]generator{
	"chain":    chain,
	"arch":     arch,
	"cablenet": cableNet,
	"hypar":    hypar,
	"saddle":   saddle,
}

// Generate builds the network described by g.
func Generate(g config.GeneratorConfig) (*mesh.CableMesh, error) {
	gen, ok := generators[g.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown generator: %s", g.Kind)
	}
	if g.Span <= 0 || math.IsNaN(g.Span) || math.IsInf(g.Span, 0) {
		return nil, fmt.Errorf("%s: span must be positive, got %v", g.Kind, g.Span)
	}
	return gen(g)
}

func Kinds() []string {
	kinds := make([]string, 0, len(generators))
	for k := range generators {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func ChainKey(i int) string   { return fmt.Sprintf("n%d", i) }
func GridKey(i, j int) string { return fmt.Sprintf("n%d_%d", i, j) }

func chain(g config.GeneratorConfig) (*mesh.CableMesh, error) {
	if g.Nx < 3 {
		return nil, fmt.Errorf("%s: need at least 3 nodes, got %d", g.Kind, g.Nx)
	}
	m := mesh.NewCableMesh(g.Kind)
	dx := g.Span / float64(g.Nx-1)
	for i := 0; i < g.Nx; i++ {
		if err := m.AddVertex(ChainKey(i), r3.Vec{X: float64(i) * dx}); err != nil {
			return nil, err
		}
		if i == 0 || i == g.Nx-1 {
			if err := m.SetAnchor(ChainKey(i), true); err != nil {
				return nil, err
			}
		} else if g.Load != 0 {
			if err := m.SetLoad(ChainKey(i), r3.Vec{Z: g.Load}); err != nil {
				return nil, err
			}
		}
	}
	for i := 0; i+1 < g.Nx; i++ {
		if err := m.AddEdge(ChainKey(i), ChainKey(i+1), g.Q); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// arch is a chain in compression; a positive Q is flipped.
func arch(g config.GeneratorConfig) (*mesh.CableMesh, error) {
	g.Q = -math.Abs(g.Q)
	return chain(g)
}

type gridSupport func(i, j, nx, ny int) (anchor bool, z float64)

func grid(g config.GeneratorConfig, support gridSupport, boundaryQ float64) (*mesh.CableMesh, error) {
	if g.Nx < 3 || g.Ny < 3 {
		return nil, fmt.Errorf("%s: need at least 3x3 nodes, got %dx%d", g.Kind, g.Nx, g.Ny)
	}
	m := mesh.NewCableMesh(g.Kind)
	d := g.Span / float64(g.Nx-1)

	for j := 0; j < g.Ny; j++ {
		for i := 0; i < g.Nx; i++ {
			key := GridKey(i, j)
			anchor, z := support(i, j, g.Nx, g.Ny)
			if err := m.AddVertex(key, r3.Vec{X: float64(i) * d, Y: float64(j) * d, Z: z}); err != nil {
				return nil, err
			}
			if anchor {
				if err := m.SetAnchor(key, true); err != nil {
					return nil, err
				}
			} else if g.Load != 0 {
				if err := m.SetLoad(key, r3.Vec{Z: g.Load}); err != nil {
					return nil, err
				}
			}
		}
	}

	for j := 0; j < g.Ny; j++ {
		for i := 0; i < g.Nx; i++ {
			if i+1 < g.Nx {
				q := g.Q
				if (j == 0 || j == g.Ny-1) && boundaryQ != 0 {
					q = boundaryQ
				}
				if err := m.AddEdge(GridKey(i, j), GridKey(i+1, j), q); err != nil {
					return nil, err
				}
			}
			if j+1 < g.Ny {
				q := g.Q
				if (i == 0 || i == g.Nx-1) && boundaryQ != 0 {
					q = boundaryQ
				}
				if err := m.AddEdge(GridKey(i, j), GridKey(i, j+1), q); err != nil {
					return nil, err
				}
			}
		}
	}
	return m, nil
}

func isCorner(i, j, nx, ny int) bool {
	return (i == 0 || i == nx-1) && (j == 0 || j == ny-1)
}

// cableNet anchors the whole boundary flat. With a BoundaryQ set, only the
// corners are anchored and the boundary becomes an edge cable.
func cableNet(g config.GeneratorConfig) (*mesh.CableMesh, error) {
	if g.BoundaryQ != 0 {
		return grid(g, func(i, j, nx, ny int) (bool, float64) {
			return isCorner(i, j, nx, ny), 0
		}, g.BoundaryQ)
	}
	return grid(g, func(i, j, nx, ny int) (bool, float64) {
		return i == 0 || j == 0 || i == nx-1 || j == ny-1, 0
	}, 0)
}

// hypar anchors the four corners at alternating heights ±Rise.
func hypar(g config.GeneratorConfig) (*mesh.CableMesh, error) {
	return grid(g, func(i, j, nx, ny int) (bool, float64) {
		if !isCorner(i, j, nx, ny) {
			return false, 0
		}
		if (i == 0) == (j == 0) {
			return true, g.Rise
		}
		return true, -g.Rise
	}, g.BoundaryQ)
}

// saddle anchors the whole boundary on the surface
// z = Rise·(u² − v²) with u, v in [-1, 1].
func saddle(g config.GeneratorConfig) (*mesh.CableMesh, error) {
	return grid(g, func(i, j, nx, ny int) (bool, float64) {
		if !(i == 0 || j == 0 || i == nx-1 || j == ny-1) {
			return false, 0
		}
		u := 2*float64(i)/float64(nx-1) - 1
		v := 2*float64(j)/float64(ny-1) - 1
		return true, g.Rise * (u*u - v*v)
	}, 0)
}
