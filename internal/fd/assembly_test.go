package fd_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/formfind/internal/fd"
)

var _ = Describe("Partition", func() {
	It("sorts and dedupes the fixed set", func() {
		p, err := fd.NewPartition(6, []int{4, 1, 4, 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Fixed).To(Equal([]int{0, 1, 4}))
		Expect(p.Free).To(Equal([]int{2, 3, 5}))
		Expect(p.IsFixed(4)).To(BeTrue())
		Expect(p.IsFixed(3)).To(BeFalse())
	})

	It("allows an empty fixed set", func() {
		p, err := fd.NewPartition(3, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Free).To(Equal([]int{0, 1, 2}))
		Expect(p.Fixed).To(BeEmpty())
	})
})

var _ = Describe("Assemble", func() {
	It("builds the signed connectivity matrix", func() {
		c := fd.ConnectivityMatrix(3, []fd.Edge{{0, 1}, {2, 1}})
		Expect(c.At(0, 0)).To(Equal(1.0))
		Expect(c.At(0, 1)).To(Equal(-1.0))
		Expect(c.At(1, 2)).To(Equal(1.0))
		Expect(c.At(1, 1)).To(Equal(-1.0))
		Expect(c.NNZ()).To(Equal(4))
	})

	It("moves fixed coordinates to the right-hand side", func() {
		net := chain()
		net.Q = []float64{2, 3}
		part, err := fd.NewPartition(3, net.Fixed)
		Expect(err).NotTo(HaveOccurred())

		sys := fd.Assemble(net, net.Loads, part)
		Expect(sys.A.At(0, 0)).To(Equal(5.0))
		// b = -CiᵀQCf·xf = 2·x0 + 3·x2
		Expect(sys.B[0]).To(Equal([]float64{6}))
		Expect(sys.B[1]).To(Equal([]float64{0}))
	})
})

var _ = Describe("CheckConstrained", func() {
	It("accepts a network whose free nodes reach a support", func() {
		net := grid(4, 4)
		part, err := fd.NewPartition(net.NumNodes(), net.Fixed)
		Expect(err).NotTo(HaveOccurred())
		Expect(fd.CheckConstrained(net, part)).To(Succeed())
	})
})
