package fd

// Validate checks sizes and topology before any assembly happens.
func Validate(net *Network) error {
	if net == nil {
		return invalid("network", -1, "nil network")
	}
	n := len(net.Vertices)
	if n == 0 {
		return invalid("vertices", -1, "network has no nodes")
	}
	if len(net.Loads) != n {
		return invalid("loads", -1, "got %d loads for %d nodes", len(net.Loads), n)
	}
	if len(net.Q) != len(net.Edges) {
		return invalid("q", -1, "got %d force densities for %d edges", len(net.Q), len(net.Edges))
	}

	for i, v := range net.Vertices {
		if !isFiniteVec(v) {
			return invalid("vertices", i, "non-finite coordinate %v", v)
		}
	}
	for i, p := range net.Loads {
		if !isFiniteVec(p) {
			return invalid("loads", i, "non-finite load %v", p)
		}
	}

	for e, uv := range net.Edges {
		for _, k := range uv {
			if k < 0 || k >= n {
				return invalid("edges", e, "node index %d out of range [0,%d)", k, n)
			}
		}
		if uv[0] == uv[1] {
			return invalid("edges", e, "self loop at node %d", uv[0])
		}
		if !isFinite(net.Q[e]) {
			return invalid("q", e, "non-finite force density %v", net.Q[e])
		}
	}

	for k, i := range net.Fixed {
		if i < 0 || i >= n {
			return invalid("fixed", k, "node index %d out of range [0,%d)", i, n)
		}
	}
	return nil
}
