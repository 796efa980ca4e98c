package fd_test

import (
	"context"
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/formfind/internal/fd"
	"github.com/san-kum/formfind/internal/linsolve"
	"github.com/san-kum/formfind/internal/sparse"
)

func chain() *fd.Network {
	return &fd.Network{
		Vertices: []r3.Vec{{X: 0}, {X: 0.3, Y: 0.7, Z: -2}, {X: 2}},
		Edges:    []fd.Edge{{0, 1}, {1, 2}},
		Loads:    make([]r3.Vec, 3),
		Q:        []float64{1, 1},
		Fixed:    []int{0, 2},
	}
}

// grid builds an nx×ny cable net anchored on its boundary with a downward
// load on every interior node.
func grid(nx, ny int) *fd.Network {
	id := func(i, j int) int { return j*nx + i }
	net := &fd.Network{}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			net.Vertices = append(net.Vertices, r3.Vec{X: float64(i), Y: float64(j)})
			net.Loads = append(net.Loads, r3.Vec{Z: -0.1})
			if i == 0 || j == 0 || i == nx-1 || j == ny-1 {
				net.Fixed = append(net.Fixed, id(i, j))
			}
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			if i+1 < nx {
				net.Edges = append(net.Edges, fd.Edge{id(i, j), id(i+1, j)})
				net.Q = append(net.Q, 1+0.1*float64(j))
			}
			if j+1 < ny {
				net.Edges = append(net.Edges, fd.Edge{id(i, j), id(i, j+1)})
				net.Q = append(net.Q, 1+0.1*float64(i))
			}
		}
	}
	return net
}

func solverFor(name string) *fd.Solver {
	b, err := linsolve.New(name, linsolve.DefaultOptions())
	Expect(err).NotTo(HaveOccurred())
	return fd.New(b)
}

type slowBackend struct{}

func (slowBackend) Name() string { return "slow" }

func (slowBackend) Solve(ctx context.Context, _ *sparse.CSR, _ [][]float64) ([][]float64, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type failingContributor struct{}

func (failingContributor) Name() string { return "failing" }

func (failingContributor) Contribute(_ []r3.Vec, _ fd.Partition, _ []r3.Vec) error {
	return errors.New("boom")
}

var _ = Describe("Solver", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("the three-node chain", func() {
		It("settles the middle node midway between the supports", func() {
			res, err := solverFor("dense").Solve(ctx, chain(), fd.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Vertices[1].X).To(BeNumerically("~", 1, 1e-12))
			Expect(res.Vertices[1].Y).To(BeNumerically("~", 0, 1e-12))
			Expect(res.Vertices[1].Z).To(BeNumerically("~", 0, 1e-12))
			Expect(res.Lengths).To(HaveEach(BeNumerically("~", 1, 1e-12)))
			Expect(res.Forces).To(HaveEach(BeNumerically("~", 1, 1e-12)))
		})

		It("reports the support residuals", func() {
			res, err := solverFor("dense").Solve(ctx, chain(), fd.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Residuals[0].X).To(BeNumerically("~", 1, 1e-12))
			Expect(res.Residuals[2].X).To(BeNumerically("~", -1, 1e-12))
			Expect(r3.Norm(res.Residuals[1])).To(BeNumerically("<", 1e-12))
			Expect(res.Reactions()).To(HaveLen(2))
		})

		It("straightens a chain that starts sagging below the supports", func() {
			net := &fd.Network{
				Vertices: []r3.Vec{{}, {X: 1, Z: -1}, {X: 2}},
				Edges:    []fd.Edge{{0, 1}, {1, 2}},
				Loads:    make([]r3.Vec, 3),
				Q:        []float64{1, 1},
				Fixed:    []int{0, 2},
			}
			res, err := solverFor("dense").Solve(ctx, net, fd.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Vertices[1].X).To(BeNumerically("~", 1, 1e-12))
			Expect(res.Vertices[1].Y).To(BeNumerically("~", 0, 1e-12))
			Expect(res.Vertices[1].Z).To(BeNumerically("~", 0, 1e-12))
			Expect(res.Forces[0]).To(BeNumerically("~", res.Forces[1], 1e-12))
			Expect(res.Forces).To(HaveEach(BeNumerically("~", 1, 1e-12)))
			Expect(r3.Norm(res.Residuals[1])).To(BeNumerically("<", 1e-12))

			By("pulling both supports inward along the chain axis")
			Expect(r3.Norm(r3.Sub(res.Residuals[0], r3.Vec{X: 1}))).To(BeNumerically("<", 1e-12))
			Expect(r3.Norm(r3.Sub(res.Residuals[2], r3.Vec{X: -1}))).To(BeNumerically("<", 1e-12))
		})

		It("does not modify the input network", func() {
			net := chain()
			before := net.Clone()
			_, err := solverFor("dense").Solve(ctx, net, fd.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(net).To(Equal(before))
		})
	})

	It("solves a chain whose densities cancel at a node", func() {
		net := &fd.Network{
			Vertices: []r3.Vec{{}, {X: 1, Z: 0.5}, {X: 2, Z: -0.5}, {X: 3}},
			Edges:    []fd.Edge{{0, 1}, {1, 2}, {2, 3}},
			Loads:    []r3.Vec{{}, {Z: -1}, {Z: 1}, {}},
			Q:        []float64{1, -1, 2},
			Fixed:    []int{0, 3},
		}
		b, err := linsolve.New("auto", linsolve.Options{DenseLimit: 0})
		Expect(err).NotTo(HaveOccurred())

		res, err := fd.New(b).Solve(ctx, net, fd.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.MaxFreeResidual()).To(BeNumerically("<=", 1e-9))
		Expect(res.Forces[1]).To(BeNumerically("<", 0))
	})

	DescribeTable("equilibrium on a loaded grid",
		func(backend string) {
			net := grid(7, 6)
			res, err := solverFor(backend).Solve(ctx, net, fd.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Backend).To(Equal(backend))

			By("balancing every free node")
			Expect(res.MaxFreeResidual()).To(BeNumerically("<=", 1e-9))

			By("leaving fixed nodes exactly where they were")
			for _, i := range res.Fixed {
				Expect(res.Vertices[i]).To(Equal(net.Vertices[i]))
			}

			By("keeping f = q·l per edge")
			for e := range net.Edges {
				Expect(res.Forces[e]).To(Equal(net.Q[e] * res.Lengths[e]))
			}

			By("sagging interior nodes under downward load")
			for _, i := range res.Free {
				Expect(res.Vertices[i].Z).To(BeNumerically("<", 0))
			}
		},
		Entry("dense", "dense"),
		Entry("cg", "cg"),
		Entry("auto", "auto"),
	)

	It("is deterministic across repeated solves", func() {
		s := solverFor("dense")
		first, err := s.Solve(ctx, grid(5, 5), fd.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		for k := 0; k < 5; k++ {
			again, err := s.Solve(ctx, grid(5, 5), fd.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(Equal(first))
		}
	})

	It("is independent of the order of the fixed list", func() {
		a := grid(5, 4)
		b := grid(5, 4)
		for i, j := 0, len(b.Fixed)-1; i < j; i, j = i+1, j-1 {
			b.Fixed[i], b.Fixed[j] = b.Fixed[j], b.Fixed[i]
		}
		b.Fixed = append(b.Fixed, b.Fixed[0])

		s := solverFor("dense")
		ra, err := s.Solve(ctx, a, fd.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		rb, err := s.Solve(ctx, b, fd.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(rb.Vertices).To(Equal(ra.Vertices))
	})

	Describe("input errors", func() {
		DescribeTable("rejects malformed networks",
			func(mutate func(*fd.Network)) {
				net := chain()
				mutate(net)
				_, err := solverFor("dense").Solve(ctx, net, fd.DefaultConfig())
				Expect(err).To(MatchError(fd.ErrInvalidInput))

				var ie *fd.InputError
				Expect(errors.As(err, &ie)).To(BeTrue())
			},
			Entry("edge index past the last node", func(n *fd.Network) { n.Edges[1][1] = 3 }),
			Entry("negative edge index", func(n *fd.Network) { n.Edges[0][0] = -1 }),
			Entry("self loop", func(n *fd.Network) { n.Edges[0] = fd.Edge{1, 1} }),
			Entry("short q", func(n *fd.Network) { n.Q = n.Q[:1] }),
			Entry("short loads", func(n *fd.Network) { n.Loads = n.Loads[:2] }),
			Entry("NaN coordinate", func(n *fd.Network) { n.Vertices[1].Y = math.NaN() }),
			Entry("infinite q", func(n *fd.Network) { n.Q[0] = math.Inf(1) }),
			Entry("fixed out of range", func(n *fd.Network) { n.Fixed = append(n.Fixed, 9) }),
			Entry("every node fixed", func(n *fd.Network) { n.Fixed = []int{0, 1, 2} }),
			Entry("no nodes", func(n *fd.Network) { *n = fd.Network{} }),
		)

		It("rejects a nil network", func() {
			_, err := solverFor("dense").Solve(ctx, nil, fd.DefaultConfig())
			Expect(err).To(MatchError(fd.ErrInvalidInput))
		})
	})

	Describe("singular systems", func() {
		disjoint := func() *fd.Network {
			net := chain()
			net.Vertices = append(net.Vertices, r3.Vec{X: 5}, r3.Vec{X: 6})
			net.Loads = append(net.Loads, r3.Vec{Z: -1}, r3.Vec{})
			net.Edges = append(net.Edges, fd.Edge{3, 4})
			net.Q = append(net.Q, 1)
			return net
		}

		It("names the unanchored nodes when the structural check runs", func() {
			_, err := solverFor("dense").Solve(ctx, disjoint(), fd.DefaultConfig())
			Expect(err).To(MatchError(fd.ErrSingularSystem))

			var se *fd.SingularSystemError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Nodes).To(Equal([]int{3, 4}))
		})

		DescribeTable("is caught numerically without the structural check",
			func(backend string) {
				cfg := fd.DefaultConfig()
				cfg.CheckConstraints = false
				_, err := solverFor(backend).Solve(ctx, disjoint(), cfg)
				Expect(err).To(MatchError(fd.ErrSingularSystem))
			},
			Entry("dense", "dense"),
			Entry("cg", "cg"),
		)

		It("treats zero force density edges as absent", func() {
			net := chain()
			net.Q[1] = 0
			net.Q[0] = 0
			_, err := solverFor("dense").Solve(ctx, net, fd.DefaultConfig())
			Expect(err).To(MatchError(fd.ErrSingularSystem))
		})
	})

	It("reports a timeout when the backend overruns its budget", func() {
		cfg := fd.DefaultConfig()
		cfg.Timeout = 10 * time.Millisecond
		_, err := fd.New(slowBackend{}).Solve(ctx, chain(), cfg)
		Expect(err).To(MatchError(fd.ErrTimeout))
	})

	Describe("load contributors", func() {
		It("adds a uniform load to free nodes only", func() {
			s := solverFor("dense")
			s.AddContributor(fd.UniformLoad{Load: r3.Vec{Z: -1}})
			res, err := s.Solve(ctx, chain(), fd.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Vertices[1].Z).To(BeNumerically("~", -0.5, 1e-12))
			Expect(res.MaxFreeResidual()).To(BeNumerically("<", 1e-12))
			Expect(res.Residuals[0].Z + res.Residuals[2].Z).To(BeNumerically("~", -1, 1e-12))
		})

		It("scales loads after they are accumulated", func() {
			s := solverFor("dense")
			s.AddContributor(fd.UniformLoad{Load: r3.Vec{Z: -1}})
			s.AddContributor(fd.LoadFactor{Factor: 2})
			res, err := s.Solve(ctx, chain(), fd.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Vertices[1].Z).To(BeNumerically("~", -1, 1e-12))
		})

		It("rejects a non-finite factor", func() {
			s := solverFor("dense")
			s.AddContributor(fd.LoadFactor{Factor: math.NaN()})
			_, err := s.Solve(ctx, chain(), fd.DefaultConfig())
			Expect(err).To(MatchError(fd.ErrInvalidInput))
		})

		It("propagates contributor failures", func() {
			s := solverFor("dense")
			s.AddContributor(failingContributor{})
			_, err := s.Solve(ctx, chain(), fd.DefaultConfig())
			Expect(err).To(MatchError(ContainSubstring("boom")))
		})
	})

	Describe("SolveAll", func() {
		It("returns results in input order and isolates failures", func() {
			bad := chain()
			bad.Edges[0][1] = 7
			nets := []*fd.Network{grid(4, 4), bad, chain(), grid(5, 3)}

			results, errs := fd.SolveAll(ctx, solverFor("auto"), nets, fd.DefaultConfig(), 2)
			Expect(results).To(HaveLen(4))
			Expect(errs[0]).NotTo(HaveOccurred())
			Expect(errs[1]).To(MatchError(fd.ErrInvalidInput))
			Expect(results[1]).To(BeNil())
			Expect(errs[2]).NotTo(HaveOccurred())
			Expect(results[2].Vertices[1].X).To(BeNumerically("~", 1, 1e-12))
			Expect(results[3].Vertices).To(HaveLen(15))
		})

		It("handles an empty batch", func() {
			results, errs := fd.SolveAll(ctx, solverFor("dense"), nil, fd.DefaultConfig(), 0)
			Expect(results).To(BeEmpty())
			Expect(errs).To(BeEmpty())
		})
	})
})
