package tree

import (
	"context"

	"github.com/madwave-project/madwave/tensor"
)

// CompressOptions mirrors §4.4.2's keepleaves/nonstandard/fence knobs.
type CompressOptions struct {
	KeepLeaves  bool
	NonStandard bool
	Fence       bool
}

// Compress performs §4.4.2's post-order recursion from the root, leaving
// the tree in Compressed (or NonStandard) mode.
func (t *Tree[T]) Compress(ctx context.Context, opts CompressOptions) error {
	root := RootKey(t.d)
	if _, err := t.compressNode(ctx, root, opts, true); err != nil {
		return err
	}
	if opts.NonStandard {
		t.mode = NonStandard
	} else {
		t.mode = Compressed
	}
	t.fence(ctx, opts.Fence)
	return nil
}

// compressNode returns the (pre-zero) scaling sub-block to hand to the
// parent.
func (t *Tree[T]) compressNode(ctx context.Context, key Key, opts CompressOptions, isRoot bool) (*tensor.Tensor[T], error) {
	n := t.get(key)
	if !n.HasChildren {
		if !n.HasCoeff() {
			return tensor.New[T](t.scalingShape()), nil
		}
		if !opts.KeepLeaves {
			defer t.delete(key)
		}
		return n.Coeff, nil
	}

	childBlocks := make([]*tensor.Tensor[T], key.NumChildren())
	for c := 0; c < key.NumChildren(); c++ {
		block, err := t.compressNode(ctx, key.Child(c), opts, false)
		if err != nil {
			return nil, err
		}
		childBlocks[c] = block
	}

	assembled := t.assembleChildren(childBlocks)
	filtered := tensor.GeneralTransform(assembled, t.filterMats())

	s0lo := make([]int, t.d)
	s0hi := scalingHi(t.k, t.d)
	scaling := tensor.Slice(filtered, s0lo, s0hi)

	stored := filtered
	if !opts.NonStandard && !isRoot {
		stored = filtered.Clone()
		tensor.SetSlice(stored, s0lo, tensor.New[T](scaling.Shape()))
	}
	t.set(key, newNode[T](stored, true))
	return scaling, nil
}

func (t *Tree[T]) scalingShape() []int {
	shape := make([]int, t.d)
	for i := range shape {
		shape[i] = t.k
	}
	return shape
}

// ReconstructOptions mirrors §4.4.2's fence knob.
type ReconstructOptions struct {
	Fence bool
}

// Reconstruct is the inverse pre-order recursion of §4.4.2, leaving the
// tree in Reconstructed mode.
func (t *Tree[T]) Reconstruct(ctx context.Context, opts ReconstructOptions) error {
	root := RootKey(t.d)
	rootNode := t.get(root)
	var incoming *tensor.Tensor[T]
	if rootNode.HasCoeff() {
		incoming = tensor.Slice(rootNode.Coeff, make([]int, t.d), scalingHi(t.k, t.d))
	} else {
		incoming = tensor.New[T](t.scalingShape())
	}
	if err := t.reconstructNode(ctx, root, incoming); err != nil {
		return err
	}
	t.mode = Reconstructed
	t.fence(ctx, opts.Fence)
	return nil
}

func (t *Tree[T]) reconstructNode(ctx context.Context, key Key, incoming *tensor.Tensor[T]) error {
	n := t.get(key)
	if !n.HasChildren {
		t.set(key, newNode[T](incoming, false))
		return nil
	}

	combined := n.Coeff.Clone()
	tensor.SetSlice(combined, make([]int, t.d), incoming)
	unfiltered := tensor.GeneralTransform(combined, t.unfilterMats())

	for c := 0; c < key.NumChildren(); c++ {
		lo := tensor.ChildPatchOrigin(c, t.d, t.k)
		hi := make([]int, t.d)
		for i := range hi {
			hi[i] = lo[i] + t.k
		}
		patch := tensor.Slice(unfiltered, lo, hi)
		child := key.Child(c)
		cn := t.get(child)
		if !cn.HasChildren {
			t.set(child, newNode[T](patch, false))
			continue
		}
		if err := t.reconstructNode(ctx, child, patch); err != nil {
			return err
		}
	}
	t.set(key, newNode[T](tensor.EmptyTensor[T](), true))
	return nil
}

// Standard converts a non-standard tree to the standard compressed layout
// of §4.4.2: zeroing the scaling sub-block of interior nodes other than the
// root (which keeps it, as Compress leaves it) and deleting leaves.
func (t *Tree[T]) Standard(ctx context.Context, fence bool) error {
	root := RootKey(t.d)
	t.standardNode(root)
	t.mode = Compressed
	t.fence(ctx, fence)
	return nil
}

func (t *Tree[T]) standardNode(key Key) {
	n := t.get(key)
	if !n.HasChildren {
		t.delete(key)
		return
	}
	if n.HasCoeff() && key.N > 0 {
		c := n.Coeff.Clone()
		tensor.SetSlice(c, make([]int, t.d), tensor.New[T](scalingHi(t.k, t.d)))
		n.Coeff = c
		t.set(key, n)
	}
	for c := 0; c < key.NumChildren(); c++ {
		t.standardNode(key.Child(c))
	}
}
