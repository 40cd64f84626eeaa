package tree_test

import (
	"context"

	"github.com/madwave-project/madwave/factory"
	"github.com/madwave-project/madwave/tree"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Neighbor/NeighborDisp boundary conditions", func() {
	ctx := context.Background()

	It("wraps around under a periodic boundary", func() {
		t, err := factory.New[float64](ctx,
			factory.WithDimension[float64](1),
			factory.WithEmpty[float64](true),
			factory.WithBC[float64]([]tree.BC{{Lo: tree.Periodic, Hi: tree.Periodic}}),
		)
		Expect(err).NotTo(HaveOccurred())

		key := tree.Key{N: 2, L: []int{0}} // size 4 along this axis
		left := t.Neighbor(key, 0, -1)
		Expect(left.Invalid()).To(BeFalse())
		Expect(left.L[0]).To(Equal(3))

		top := tree.Key{N: 2, L: []int{3}}
		right := t.Neighbor(top, 0, +1)
		Expect(right.Invalid()).To(BeFalse())
		Expect(right.L[0]).To(Equal(0))
	})

	It("returns the invalid sentinel at a zero boundary", func() {
		t, err := factory.New[float64](ctx,
			factory.WithDimension[float64](1),
			factory.WithEmpty[float64](true),
		)
		Expect(err).NotTo(HaveOccurred())

		key := tree.Key{N: 2, L: []int{0}}
		left := t.Neighbor(key, 0, -1)
		Expect(left.Invalid()).To(BeTrue())
	})

	It("reports the unit hypercube and leaf/interior counts consistent with Size", func() {
		t, err := factory.New[float64](ctx,
			factory.WithDimension[float64](1),
			factory.WithK[float64](4),
			factory.WithInitialLevel[float64](3),
			factory.WithFunctor[float64](func(x []float64) float64 { return x[0] * x[0] }),
		)
		Expect(err).NotTo(HaveOccurred())

		lo, hi := t.BoundingBox()
		Expect(lo).To(Equal([]float64{0}))
		Expect(hi).To(Equal([]float64{1}))

		Expect(t.BoxLeaf() + t.BoxInterior()).To(Equal(t.Size()))
	})

	It("SockItToMe finds the nearest ancestor carrying coefficients", func() {
		t, err := factory.New[float64](ctx,
			factory.WithDimension[float64](1),
			factory.WithK[float64](4),
			factory.WithInitialLevel[float64](0),
			factory.WithFunctor[float64](func(x []float64) float64 { return 3 }),
		)
		Expect(err).NotTo(HaveOccurred())

		root := tree.RootKey(1)
		key, coeff := t.SockItToMe(root)
		Expect(key.Equal(root)).To(BeTrue())
		Expect(coeff.Empty()).To(BeFalse())
	})
})
