// Package fd computes the static equilibrium of pin-jointed axial force
// networks with the Force Density Method.
//
// A [Network] holds node coordinates, edges, nodal loads, one force density
// per edge and the set of fixed (anchor) nodes. Solving assembles
//
//	A = Ciᵀ Q Ci
//	b = p_free − Ciᵀ Q Cf x_fixed
//
// from the signed incidence matrix C, solves A x = b for the free nodes and
// recovers member lengths, forces f = q·l and residuals r = p − Cᵀ Q C x.
//
// # Example
//
//	backend, _ := linsolve.New("auto", linsolve.DefaultOptions())
//	s := fd.New(backend)
//	res, err := s.Solve(ctx, net, fd.DefaultConfig())
//	if errors.Is(err, fd.ErrSingularSystem) {
//	    // some free nodes are not tied to an anchor
//	}
//
// # Determinism
//
// Free and fixed nodes are ordered by index and all sparse assembly sums in
// a fixed order, so repeated solves of the same input are bit-identical.
// A [Solver] holds no per-solve state and may be shared between goroutines;
// see [SolveAll] for batches.
package fd
