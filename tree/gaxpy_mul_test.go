package tree_test

import (
	"context"
	"math"

	"github.com/madwave-project/madwave/factory"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func sinFn(x []float64) float64  { return math.Sin(2 * math.Pi * x[0]) }
func cosFn(x []float64) float64  { return math.Cos(2 * math.Pi * x[0]) }
func constFn(v float64) func([]float64) float64 {
	return func(x []float64) float64 { return v }
}

var _ = Describe("Gaxpy/Mul algebra", func() {
	ctx := context.Background()

	It("satisfies the exact bilinear norm identity |aA+bB|^2 = a^2|A|^2 + 2ab<A,B> + b^2|B|^2", func() {
		a, err := factory.New[float64](ctx,
			factory.WithDimension[float64](1), factory.WithK[float64](5),
			factory.WithInitialLevel[float64](3), factory.WithFunctor[float64](sinFn),
		)
		Expect(err).NotTo(HaveOccurred())
		b, err := factory.New[float64](ctx,
			factory.WithDimension[float64](1), factory.WithK[float64](5),
			factory.WithInitialLevel[float64](3), factory.WithFunctor[float64](cosFn),
		)
		Expect(err).NotTo(HaveOccurred())

		nA2 := a.Norm2Sq()
		nB2 := b.Norm2Sq()
		innerAB := a.Inner(b)

		const alpha, beta = 2.0, 3.0
		Expect(a.Gaxpy(ctx, alpha, b, beta, true)).To(Succeed())

		got := a.Norm2Sq()
		want := alpha*alpha*nA2 + 2*alpha*beta*innerAB + beta*beta*nB2
		Expect(got).To(BeNumerically("~", want, math.Abs(want)*1e-6+1e-9))
	})

	It("reports a symmetric inner product", func() {
		a, err := factory.New[float64](ctx,
			factory.WithDimension[float64](1), factory.WithK[float64](5),
			factory.WithInitialLevel[float64](3), factory.WithFunctor[float64](sinFn),
		)
		Expect(err).NotTo(HaveOccurred())
		b, err := factory.New[float64](ctx,
			factory.WithDimension[float64](1), factory.WithK[float64](5),
			factory.WithInitialLevel[float64](3), factory.WithFunctor[float64](cosFn),
		)
		Expect(err).NotTo(HaveOccurred())

		Expect(a.Inner(b)).To(BeNumerically("~", b.Inner(a), 1e-9))
	})

	It("multiplies two constant functions into their exact product", func() {
		a, err := factory.New[float64](ctx,
			factory.WithDimension[float64](1), factory.WithK[float64](4),
			factory.WithInitialLevel[float64](0), factory.WithFunctor[float64](constFn(2)),
		)
		Expect(err).NotTo(HaveOccurred())
		b, err := factory.New[float64](ctx,
			factory.WithDimension[float64](1), factory.WithK[float64](4),
			factory.WithInitialLevel[float64](0), factory.WithFunctor[float64](constFn(3)),
		)
		Expect(err).NotTo(HaveOccurred())

		product, err := a.Mul(ctx, b, 1e-10, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(product.Trace()).To(BeNumerically("~", 6, 1e-6))
	})

	It("multiplies constant functions held at mismatched refinement depths into their exact product", func() {
		// a is a single leaf at the root; b is forced down to a uniform
		// level-2 tree even though its value is constant, so the product's
		// descent must synthesize a's scaling block into b's finer boxes
		// rather than finding an absent child and truncating to zero.
		a, err := factory.New[float64](ctx,
			factory.WithDimension[float64](1), factory.WithK[float64](4),
			factory.WithInitialLevel[float64](0), factory.WithFunctor[float64](constFn(2)),
		)
		Expect(err).NotTo(HaveOccurred())
		b, err := factory.New[float64](ctx,
			factory.WithDimension[float64](1), factory.WithK[float64](4),
			factory.WithInitialLevel[float64](2), factory.WithFunctor[float64](constFn(3)),
		)
		Expect(err).NotTo(HaveOccurred())

		product, err := a.Mul(ctx, b, 1e-10, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(product.Trace()).To(BeNumerically("~", 6, 1e-6))
	})
})
