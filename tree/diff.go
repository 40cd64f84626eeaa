package tree

import (
	"context"
	"math"

	"github.com/madwave-project/madwave/tensor"
)

// Diff implements §4.4.5: adaptive-stencil differentiation along axis into
// a freshly constructed result tree. Every box, including one that must
// first be refined, is differentiated synchronously in the calling
// goroutine; no pool tasks or task priorities are used.
func (t *Tree[T]) Diff(ctx context.Context, axis int, fence bool) (*Tree[T], error) {
	result := t.emptyLike()
	var leaves []Key
	t.walkLeaves(RootKey(t.d), &leaves)
	for _, leaf := range leaves {
		if err := t.diffAt(ctx, result, leaf, axis); err != nil {
			return nil, err
		}
	}
	result.fence(ctx, fence)
	return result, nil
}

func (t *Tree[T]) walkLeaves(key Key, out *[]Key) {
	n := t.get(key)
	if !n.HasChildren {
		if n.HasCoeff() {
			*out = append(*out, key)
		}
		return
	}
	for c := 0; c < key.NumChildren(); c++ {
		t.walkLeaves(key.Child(c), out)
	}
}

// diffAt fetches the left/right neighbor coefficients along axis (routed
// through the process map, honoring boundary conditions) and either
// refines locally (do_diff1) when a neighbor is at a coarser level, or
// applies the three-point stencil directly (do_diff2).
func (t *Tree[T]) diffAt(ctx context.Context, result *Tree[T], key Key, axis int) error {
	this := t.get(key)

	leftKey := t.Neighbor(key, axis, -1)
	rightKey := t.Neighbor(key, axis, +1)

	leftCoeff, leftLevel, leftOK := t.fetchNeighborCoeff(leftKey, key.N)
	rightCoeff, rightLevel, rightOK := t.fetchNeighborCoeff(rightKey, key.N)

	if (leftOK && leftLevel != key.N) || (rightOK && rightLevel != key.N) {
		return t.doDiff1(ctx, result, key, axis)
	}
	return result.doDiff2(key, this.Coeff, leftCoeff, rightCoeff, axis, leftOK, rightOK)
}

// fetchNeighborCoeff reads the neighbor's locally-visible coefficients. If
// the neighbor is interior (coarser) this returns the ancestor actually
// holding coefficients along with its level, so the caller can detect the
// level mismatch that triggers do_diff1's local refinement.
func (t *Tree[T]) fetchNeighborCoeff(key Key, wantLevel int) (*tensor.Tensor[T], int, bool) {
	if key.Invalid() {
		return nil, 0, false
	}
	for k := key; ; {
		n := t.get(k)
		if n.HasCoeff() {
			return n.Coeff, k.N, true
		}
		if k.N == 0 {
			return nil, 0, false
		}
		k = k.Parent()
	}
}

// doDiff1 synthesizes the missing child block by unfiltering the coarser
// tensor and re-spawns differentiation on each child, per §4.4.5.
func (t *Tree[T]) doDiff1(ctx context.Context, result *Tree[T], key Key, axis int) error {
	n := t.get(key)
	if n.HasCoeff() {
		// We already hold the finest local data; refine a synthetic copy of
		// this node's coefficients into the (2k)^d block via unfilter using
		// a zero wavelet half, install the children as leaves, then re-run
		// differentiation on each, matching "synthesizes the missing child
		// block by unfilter of the coarser tensor."
		twoK := tensor.New[T](t.doubleShape())
		tensor.SetSlice(twoK, make([]int, t.d), n.Coeff)
		unfiltered := tensor.GeneralTransform(twoK, t.unfilterMats())
		for c := 0; c < key.NumChildren(); c++ {
			lo := tensor.ChildPatchOrigin(c, t.d, t.k)
			hi := make([]int, t.d)
			for i := range hi {
				hi[i] = lo[i] + t.k
			}
			patch := tensor.Slice(unfiltered, lo, hi)
			child := key.Child(c)
			t.set(child, newNode[T](patch, false))
			if err := t.diffAt(ctx, result, child, axis); err != nil {
				return err
			}
		}
		return nil
	}
	for c := 0; c < key.NumChildren(); c++ {
		if err := t.diffAt(ctx, result, key.Child(c), axis); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree[T]) doubleShape() []int {
	shape := make([]int, t.d)
	for i := range shape {
		shape[i] = 2 * t.k
	}
	return shape
}

// doDiff2 applies the precomputed three-point stencil rm/r0/rp, scaled by
// the per-level factor 2^n, along axis.
func (t *Tree[T]) doDiff2(key Key, this, left, right *tensor.Tensor[T], axis int, haveLeft, haveRight bool) error {
	out := tensor.New[T](t.scalingShape())
	if this != nil {
		out = tensor.GeneralTransform(this, t.stencilMats(axis, t.tab.R0))
	}
	if haveLeft {
		lterm := tensor.GeneralTransform(left, t.stencilMats(axis, t.tab.Rm))
		out.Gaxpy(fromComplexParts[T](1, 0), lterm, fromComplexParts[T](1, 0))
	}
	if haveRight {
		rterm := tensor.GeneralTransform(right, t.stencilMats(axis, t.tab.Rp))
		out.Gaxpy(fromComplexParts[T](1, 0), rterm, fromComplexParts[T](1, 0))
	}
	scale := math.Pow(2, float64(key.N))
	out.Scale(fromComplexParts[T](scale, 0))
	t.set(key, newNode[T](out, false))
	t.registerWithParent(key)
	return nil
}

// stencilMats returns identity on every axis except axis, which carries m.
func (t *Tree[T]) stencilMats(axis int, m *tensor.Matrix) []*tensor.Matrix {
	mats := make([]*tensor.Matrix, t.d)
	ident := identityMatrix(t.k)
	for i := range mats {
		if i == axis {
			mats[i] = m
		} else {
			mats[i] = ident
		}
	}
	return mats
}

func identityMatrix(k int) *tensor.Matrix {
	m := tensor.NewMatrix(k, k)
	for i := 0; i < k; i++ {
		m.Set(i, i, 1)
	}
	return m
}
