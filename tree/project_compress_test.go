package tree_test

import (
	"context"
	"math"

	"github.com/madwave-project/madwave/factory"
	"github.com/madwave-project/madwave/tree"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Project/Compress/Reconstruct", func() {
	ctx := context.Background()

	It("projects a constant function onto a single root leaf exactly", func() {
		t, err := factory.New[float64](ctx,
			factory.WithDimension[float64](1),
			factory.WithK[float64](6),
			factory.WithInitialLevel[float64](0),
			factory.WithFunctor[float64](func(x []float64) float64 { return 2.5 }),
		)
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Size()).To(Equal(1))
		Expect(t.Trace()).To(BeNumerically("~", 2.5, 1e-9))
	})

	It("preserves Norm2Sq across a Compress/Reconstruct round trip", func() {
		gaussian := func(x []float64) float64 {
			c := x[0] - 0.5
			return math.Exp(-32 * c * c)
		}
		t, err := factory.New[float64](ctx,
			factory.WithDimension[float64](1),
			factory.WithK[float64](6),
			factory.WithInitialLevel[float64](4),
			factory.WithFunctor[float64](gaussian),
		)
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Mode()).To(Equal(tree.Reconstructed))

		before := t.Norm2Sq()
		Expect(before).To(BeNumerically(">", 0))

		Expect(t.Compress(ctx, tree.CompressOptions{Fence: true})).To(Succeed())
		Expect(t.Mode()).To(Equal(tree.Compressed))

		Expect(t.Reconstruct(ctx, tree.ReconstructOptions{Fence: true})).To(Succeed())
		Expect(t.Mode()).To(Equal(tree.Reconstructed))

		after := t.Norm2Sq()
		Expect(after).To(BeNumerically("~", before, before*1e-6+1e-9))
	})

	It("classifies NonStandard mode when requested", func() {
		t, err := factory.New[float64](ctx,
			factory.WithDimension[float64](1),
			factory.WithK[float64](4),
			factory.WithInitialLevel[float64](2),
			factory.WithFunctor[float64](func(x []float64) float64 { return x[0] }),
		)
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Compress(ctx, tree.CompressOptions{NonStandard: true, Fence: true})).To(Succeed())
		Expect(t.Mode()).To(Equal(tree.NonStandard))
	})
})
