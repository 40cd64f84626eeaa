// Command madwavectl is a minimal smoke-test driver (stdlib flag, per §1's
// explicit exclusion of command-line drivers from the core): it projects a
// built-in functor, compresses, reconstructs, and reports Norm2Sq/Size.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/madwave-project/madwave/factory"
	"github.com/madwave-project/madwave/internal/nlog"
	"github.com/madwave-project/madwave/tree"
)

func main() {
	k := flag.Int("k", 6, "wavelet order")
	thresh := flag.Float64("thresh", 1e-6, "truncation threshold")
	dim := flag.Int("d", 1, "spatial dimension")
	level := flag.Int("initial-level", 4, "initial projection level")
	verbose := flag.Int("v", 0, "log verbosity")
	flag.Parse()

	nlog.SetVerbosity(*verbose)

	gaussian := func(x []float64) float64 {
		var sumSq float64
		for _, xi := range x {
			c := xi - 0.5
			sumSq += c * c
		}
		return math.Exp(-sumSq * 16)
	}

	ctx := context.Background()
	t, err := factory.New[float64](ctx,
		factory.WithDimension[float64](*dim),
		factory.WithK[float64](*k),
		factory.WithThresh[float64](*thresh),
		factory.WithInitialLevel[float64](*level),
		factory.WithRefine[float64](true),
		factory.WithFunctor[float64](gaussian),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "madwavectl: project failed:", err)
		os.Exit(1)
	}
	fmt.Printf("projected: size=%d norm2sq=%.6e\n", t.Size(), t.Norm2Sq())

	if err := t.Compress(ctx, tree.CompressOptions{Fence: true}); err != nil {
		fmt.Fprintln(os.Stderr, "madwavectl: compress failed:", err)
		os.Exit(1)
	}
	fmt.Printf("compressed: size=%d\n", t.Size())

	if err := t.Reconstruct(ctx, tree.ReconstructOptions{Fence: true}); err != nil {
		fmt.Fprintln(os.Stderr, "madwavectl: reconstruct failed:", err)
		os.Exit(1)
	}
	fmt.Printf("reconstructed: size=%d norm2sq=%.6e\n", t.Size(), t.Norm2Sq())
}
