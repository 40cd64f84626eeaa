package tree

import (
	"context"

	"github.com/madwave-project/madwave/tensor"
)

// Truncate implements §4.4.3's depth-first prune: an interior node whose
// children all report nothing left and whose own wavelet norm is below
// truncate_tol has its children deleted and is itself demoted to a leaf.
func (t *Tree[T]) Truncate(ctx context.Context, tol float64, fence bool) error {
	t.truncateNode(RootKey(t.d), tol)
	t.fence(ctx, fence)
	return nil
}

// truncateNode reports whether anything survives at or below key.
func (t *Tree[T]) truncateNode(key Key, tol float64) bool {
	n := t.get(key)
	if !n.HasChildren {
		return n.HasCoeff()
	}

	anyLeft := false
	for c := 0; c < key.NumChildren(); c++ {
		if t.truncateNode(key.Child(c), tol) {
			anyLeft = true
		}
	}

	waveletNorm := 0.0
	if n.HasCoeff() {
		waveletNorm = t.waveletSubBlock(n.Coeff).Norm()
	}

	if !anyLeft && waveletNorm <= t.truncateTol(tol, key) {
		for c := 0; c < key.NumChildren(); c++ {
			t.deleteSubtree(key.Child(c))
		}
		leaf := newNode[T](scalingPartOrEmpty(t, n), false)
		t.set(key, leaf)
		return leaf.HasCoeff()
	}
	return true
}

// scalingPartOrEmpty extracts the scaling corner of an interior node's
// (2k)^d block when demoting it to a leaf, or the empty sentinel when the
// node carried no coefficients at all (a purely structural interior node).
func scalingPartOrEmpty[T tensor.Numeric](t *Tree[T], n Node[T]) *tensor.Tensor[T] {
	if !n.HasCoeff() {
		return tensor.EmptyTensor[T]()
	}
	lo := make([]int, t.d)
	return tensor.Slice(n.Coeff, lo, scalingHi(t.k, t.d))
}

func (t *Tree[T]) deleteSubtree(key Key) {
	n := t.get(key)
	if n.HasChildren {
		for c := 0; c < key.NumChildren(); c++ {
			t.deleteSubtree(key.Child(c))
		}
	}
	t.delete(key)
}
