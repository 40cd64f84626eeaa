// Package apply implements the Operator Apply & Timing of §4.4.6: the
// screened neighbor-dispatch loop for integral-operator application, plus
// the exponentially decayed per-key wallclock record used by load
// balancing.
package apply

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/madwave-project/madwave/internal/nlog"
	"github.com/madwave-project/madwave/tensor"
	"github.com/madwave-project/madwave/tree"
)

const module = "apply"

// fac is the over-screening safety factor named in §4.4.6.
const fac = 3.0

// Displacement is one entry of an operator's displacement list.
type Displacement struct {
	L []int
}

// Operator is the integral-operator contract of §4.4.6.
type Operator[T tensor.Numeric] interface {
	Disp(level int) []Displacement
	OpNorm(level int, d Displacement) float64
	Kernel(src *tensor.Tensor[T]) (dst *tensor.Tensor[T])
}

// WallClock records the exponential-decay (0.9) per-key timing of §4.4.6,
// exported as a prometheus gauge vector keyed by the key's string form for
// inspection, the same way rml exposes its own counters.
type WallClock struct {
	gauge *prometheus.GaugeVec
	ewma  map[string]float64
}

// NewWallClock registers the gauge vector against reg, which may be nil.
func NewWallClock(reg prometheus.Registerer) *WallClock {
	w := &WallClock{
		gauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "madwave", Subsystem: "apply", Name: "key_wallclock_seconds",
		}, []string{"key"}),
		ewma: map[string]float64{},
	}
	if reg != nil {
		reg.MustRegister(w.gauge)
	}
	return w
}

// Gauge exposes the underlying vector for inspection and testing.
func (w *WallClock) Gauge() *prometheus.GaugeVec { return w.gauge }

// Record applies s <- s + (y-s)*0.9 for the given key's observed duration y.
func (w *WallClock) Record(key tree.Key, y float64) {
	ks := key.String()
	s := w.ewma[ks]
	s = s + (y-s)*0.9
	w.ewma[ks] = s
	w.gauge.WithLabelValues(ks).Set(s)
}

// ApplyDriver runs the screened neighbor-dispatch loop of §4.4.6.
type ApplyDriver[T tensor.Numeric] struct {
	WC *WallClock
}

// NewDriver constructs a driver with its own wallclock recorder.
func NewDriver[T tensor.Numeric](reg prometheus.Registerer) *ApplyDriver[T] {
	return &ApplyDriver[T]{WC: NewWallClock(reg)}
}

// Run applies op to every source leaf of src, accumulating into dst, per
// §4.4.6's screening, monotone-abandon, and periodic displacement-cap
// rules. The cap (2^(n-1) per axis at level n, 1 at level 0) is applied on
// every axis, whatever that axis's boundary condition.
func (a *ApplyDriver[T]) Run(ctx context.Context, src, dst *tree.Tree[T], op Operator[T], tol float64, fence bool) error {
	leaves := src.Leaves()
	nlog.Infoln(module, "apply: dispatching", len(leaves), "source leaves")
	for _, lk := range leaves {
		n, ok := src.FindPublic(lk)
		if !ok || !n.HasCoeff() {
			continue
		}
		if err := a.applyAtLeaf(ctx, dst, op, lk, n.Coeff, tol); err != nil {
			return err
		}
	}
	return nil
}

func (a *ApplyDriver[T]) applyAtLeaf(ctx context.Context, dst *tree.Tree[T], op Operator[T], key tree.Key, coeff *tensor.Tensor[T], tol float64) error {
	cnorm := coeff.Norm()
	disps := op.Disp(key.N)
	dispCap := periodicCap(key.N)

	for _, d := range disps {
		if overCap(d, dispCap) {
			continue
		}
		destKey := dst.NeighborDisp(key, d.L)
		if destKey.Invalid() {
			continue
		}

		opnorm := op.OpNorm(key.N, d)
		screen := cnorm * opnorm

		if screen <= tol/fac {
			if isBeyondNearest(d) {
				break // monotone-abandon: displacements are isotropic, monotone-decreasing
			}
			continue
		}

		start := time.Now()
		result := op.Kernel(coeff)
		a.WC.Record(key, time.Since(start).Seconds())
		if result.Norm() > 0.3*tol/fac {
			dst.Accumulate(destKey, result)
		}
	}
	return nil
}

func periodicCap(n int) int { return 1 << uint(maxInt(n-1, 0)) }

func overCap(d Displacement, maxDisp int) bool {
	for _, v := range d.L {
		if v > maxDisp || v < -maxDisp {
			return true
		}
	}
	return false
}

func isBeyondNearest(d Displacement) bool {
	for _, v := range d.L {
		if v < -1 || v > 1 {
			return true
		}
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

