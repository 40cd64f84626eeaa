package tree

import (
	"context"

	"github.com/madwave-project/madwave/procmap"
	"github.com/madwave-project/madwave/runtime"
	"github.com/madwave-project/madwave/tensor"
)

// Gaxpy implements §4.4.7: `this <- alpha*this + beta*other` node-wise.
// Keys this rank owns are merged in place inside a local for_each; a key
// owned by another rank is pushed through the container's Send so the
// merge happens on that rank.
func (t *Tree[T]) Gaxpy(ctx context.Context, alpha T, other *Tree[T], beta T, fence bool) error {
	var keys []Key
	t.cnt.ForEachLocal(func(pk procmap.Key, _ Node[T]) { keys = append(keys, fromProcmap(pk)) })

	err := runtime.ForEach(ctx, t.pool, keys, func(ctx context.Context, k Key) error {
		on := other.get(k)
		return t.sendGaxpyInplace(ctx, k, alpha, on, beta)
	})
	if err != nil {
		return err
	}

	// keys present only in other (this side never materialized them) still
	// need to be merged in; §4.4.7 treats a missing destination as a zero
	// node, so pushing other's own key set with this left as zero covers it.
	var otherOnly []Key
	other.cnt.ForEachLocal(func(pk procmap.Key, _ Node[T]) {
		k := fromProcmap(pk)
		if _, ok := t.cnt.Find(k.toProcmap()); !ok {
			otherOnly = append(otherOnly, k)
		}
	})
	if err := runtime.ForEach(ctx, t.pool, otherOnly, func(ctx context.Context, k Key) error {
		on := other.get(k)
		return t.sendGaxpyInplace(ctx, k, alpha, on, beta)
	}); err != nil {
		return err
	}

	t.fence(ctx, fence)
	return nil
}

func (t *Tree[T]) applyGaxpyInplace(key Key, alpha T, other Node[T], beta T) {
	this := t.get(key)
	merged := Node[T]{HasChildren: this.HasChildren || other.HasChildren, NormTree: unsetNorm}
	switch {
	case this.HasCoeff() && other.HasCoeff():
		c := this.Coeff.Clone()
		c.Gaxpy(alpha, other.Coeff, beta)
		merged.Coeff = c
	case this.HasCoeff():
		c := this.Coeff.Clone()
		c.Scale(alpha)
		merged.Coeff = c
	case other.HasCoeff():
		c := other.Coeff.Clone()
		c.Scale(beta)
		merged.Coeff = c
	default:
		merged.Coeff = tensor.EmptyTensor[T]()
	}
	t.set(key, merged)
}

// Inner computes §4.4.7's inner_local: the trace-conjugate sum over
// co-located nodes that both carry coefficients. Requires identical process
// maps; callers are expected to check before calling.
func (t *Tree[T]) Inner(other *Tree[T]) T {
	var acc T
	t.cnt.ForEachLocal(func(pk procmap.Key, n Node[T]) {
		if !n.HasCoeff() {
			return
		}
		k := fromProcmap(pk)
		on := other.get(k)
		if !on.HasCoeff() {
			return
		}
		acc += tensor.Inner(n.Coeff, on.Coeff)
	})
	return acc
}

// Norm2Sq is norm2sq_local: the sum of squared norms of every locally-owned
// node carrying coefficients.
func (t *Tree[T]) Norm2Sq() float64 {
	var acc float64
	t.cnt.ForEachLocal(func(_ procmap.Key, n Node[T]) {
		if n.HasCoeff() {
			nrm := n.Coeff.Norm()
			acc += nrm * nrm
		}
	})
	return acc
}

// Trace is trace_local: sum of the diagonal scaling coefficient when k == 1,
// or more generally the sum of every locally-owned scaling coefficient's
// first element, matching the multiwavelet convention that the 0th-order
// coefficient carries the cell mean.
func (t *Tree[T]) Trace() T {
	var acc T
	t.cnt.ForEachLocal(func(_ procmap.Key, n Node[T]) {
		if n.HasCoeff() && n.Coeff.Size() > 0 {
			acc += n.Coeff.Data()[0]
		}
	})
	return acc
}

// Size is the local node count.
func (t *Tree[T]) Size() int { return t.cnt.Size() }

// TreeSize is an alias for Size kept for parity with §4.4.7's naming
// (tree_size vs. size both name the node count at different layers of the
// original source).
func (t *Tree[T]) TreeSize() int { return t.Size() }

// MaxDepth returns the deepest locally-owned key's level.
func (t *Tree[T]) MaxDepth() int {
	depth := 0
	t.cnt.ForEachLocal(func(pk procmap.Key, _ Node[T]) {
		k := fromProcmap(pk)
		if k.N > depth {
			depth = k.N
		}
	})
	return depth
}

// MaxNodes/MinNodes report the local shard's node count; a collective must
// reduce these across ranks to get the true cluster-wide bound, per §4.4.7
// ("leave the caller to apply the appropriate collective").
func (t *Tree[T]) MaxNodes() int { return t.Size() }
func (t *Tree[T]) MinNodes() int { return t.Size() }
