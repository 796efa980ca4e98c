package fd

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// LoadContributor adds to the nodal loads before assembly. Contributors
// run in registration order on a private copy of the loads and must not
// retain either slice.
type LoadContributor interface {
	Name() string
	Contribute(vertices []r3.Vec, part Partition, loads []r3.Vec) error
}

// UniformLoad adds the same vector to every free node.
type UniformLoad struct {
	Load r3.Vec
}

func (u UniformLoad) Name() string { return "uniform" }

func (u UniformLoad) Contribute(_ []r3.Vec, part Partition, loads []r3.Vec) error {
	for _, i := range part.Free {
		loads[i] = r3.Add(loads[i], u.Load)
	}
	return nil
}

// LoadFactor scales all loads, including those on fixed nodes.
type LoadFactor struct {
	Factor float64
}

func (f LoadFactor) Name() string { return "factor" }

func (f LoadFactor) Contribute(_ []r3.Vec, _ Partition, loads []r3.Vec) error {
	if !isFinite(f.Factor) {
		return invalid("load factor", -1, "non-finite factor %v", f.Factor)
	}
	for i := range loads {
		loads[i] = r3.Scale(f.Factor, loads[i])
	}
	return nil
}

func applyContributors(cs []LoadContributor, net *Network, part Partition) ([]r3.Vec, error) {
	loads := make([]r3.Vec, len(net.Loads))
	copy(loads, net.Loads)
	for _, c := range cs {
		if err := c.Contribute(net.Vertices, part, loads); err != nil {
			return nil, fmt.Errorf("load contributor %s: %w", c.Name(), err)
		}
	}
	for i, p := range loads {
		if !isFiniteVec(p) {
			return nil, invalid("loads", i, "non-finite load %v after contributors", p)
		}
	}
	return loads, nil
}
