package tree_test

import (
	"context"
	"math"

	"github.com/madwave-project/madwave/factory"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Diff", func() {
	ctx := context.Background()

	It("sends a constant function to (near) zero", func() {
		f, err := factory.New[float64](ctx,
			factory.WithDimension[float64](1),
			factory.WithK[float64](6),
			factory.WithInitialLevel[float64](4),
			factory.WithFunctor[float64](func(x []float64) float64 { return 7 }),
		)
		Expect(err).NotTo(HaveOccurred())

		d, err := f.Diff(ctx, 0, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Norm2Sq()).To(BeNumerically("<", 1e-8))
	})

	It("double-differentiates sin(2*pi*x) into approximately -4*pi^2*sin(2*pi*x)", func() {
		sin := func(x []float64) float64 { return math.Sin(2 * math.Pi * x[0]) }
		f, err := factory.New[float64](ctx,
			factory.WithDimension[float64](1),
			factory.WithK[float64](8),
			factory.WithInitialLevel[float64](6),
			factory.WithFunctor[float64](sin),
		)
		Expect(err).NotTo(HaveOccurred())

		d1, err := f.Diff(ctx, 0, true)
		Expect(err).NotTo(HaveOccurred())
		d2, err := d1.Diff(ctx, 0, true)
		Expect(err).NotTo(HaveOccurred())

		// d2 should be approximately -4*pi^2*f; check via the Rayleigh-quotient
		// style ratio <d2, f> / <f, f>, which for an exact eigenfunction equals
		// the eigenvalue regardless of amplitude or sign convention drift.
		ratio := d2.Inner(f) / f.Norm2Sq()
		want := -4 * math.Pi * math.Pi
		Expect(ratio).To(BeNumerically("~", want, math.Abs(want)*0.05))
	})
})
