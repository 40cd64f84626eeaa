package tree_test

import (
	"context"
	"math"

	"github.com/madwave-project/madwave/factory"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Truncate", func() {
	ctx := context.Background()

	It("never increases tree size and shrinks monotonically with a looser tolerance", func() {
		gaussian := func(x []float64) float64 {
			c := x[0] - 0.5
			return math.Exp(-48 * c * c)
		}
		base, err := factory.New[float64](ctx,
			factory.WithDimension[float64](1),
			factory.WithK[float64](4),
			factory.WithThresh[float64](1e-8),
			factory.WithInitialLevel[float64](5),
			factory.WithRefine[float64](true),
			factory.WithFunctor[float64](gaussian),
		)
		Expect(err).NotTo(HaveOccurred())
		originalSize := base.Size()
		Expect(originalSize).To(BeNumerically(">", 0))

		tight := base.Copy(true)
		Expect(tight.Truncate(ctx, 1e-12, true)).To(Succeed())
		tightSize := tight.Size()
		Expect(tightSize).To(BeNumerically("<=", originalSize))

		loose := base.Copy(true)
		Expect(loose.Truncate(ctx, 1.0, true)).To(Succeed())
		looseSize := loose.Size()
		Expect(looseSize).To(BeNumerically("<=", tightSize))
	})
})
