package tree

import (
	"context"
	"math"

	"github.com/madwave-project/madwave/tensor"
)

// ProjectOptions controls §4.4.1's project-from-functor traversal.
type ProjectOptions struct {
	InitialLevel     int
	Refine           bool
	TruncateOnProject bool
	Fence            bool
}

// Project seeds the tree from fn, per §4.4.1: zero nodes down to
// InitialLevel (InitialLevel-1 when Refine is requested), then for every
// local leaf schedules project_refine_op.
func (t *Tree[T]) Project(ctx context.Context, fn Functor[T], opts ProjectOptions) error {
	seedLevel := opts.InitialLevel
	if opts.Refine && seedLevel > 0 {
		seedLevel--
	}

	var leaves []Key
	var walk func(k Key, level int)
	walk = func(k Key, level int) {
		if level == seedLevel {
			t.set(k, newNode[T](tensor.EmptyTensor[T](), false))
			leaves = append(leaves, k)
			return
		}
		t.set(k, newNode[T](tensor.EmptyTensor[T](), true))
		for c := 0; c < k.NumChildren(); c++ {
			walk(k.Child(c), level+1)
		}
	}
	walk(RootKey(t.d), 0)

	for _, leaf := range leaves {
		if err := t.projectRefineOp(ctx, leaf, fn, opts.Refine, opts.TruncateOnProject); err != nil {
			return err
		}
	}
	t.fence(ctx, opts.Fence)
	return nil
}

// projectRefineOp evaluates fn on the box's quadrature grid, transforms to
// scaling coefficients, and recursively refines if the child-level wavelet
// energy exceeds truncate_tol, per §4.4.1.
func (t *Tree[T]) projectRefineOp(ctx context.Context, key Key, fn Functor[T], refine, truncateOnProject bool) error {
	coeff := t.evalScalingCoeff(key, fn)

	if refine {
		childEnergy, children := t.childWaveletEnergy(key, fn)
		if childEnergy > t.truncateTol(t.thr, key) {
			t.set(key, newNode[T](tensor.EmptyTensor[T](), true))
			for _, cc := range children {
				if err := t.projectRefineOp(ctx, cc, fn, refine, truncateOnProject); err != nil {
					return err
				}
			}
			return nil
		}
	}

	storeAt := key
	if truncateOnProject && key.N > 0 {
		storeAt = key.Parent()
	}
	t.set(storeAt, newNode[T](coeff, false))
	return nil
}

// evalScalingCoeff evaluates fn on the box's quadrature grid and transforms
// it into k^d scaling coefficients via quad_phiw^T, per §4.4.1.
func (t *Tree[T]) evalScalingCoeff(key Key, fn Functor[T]) *tensor.Tensor[T] {
	k := t.k
	npt := k
	vals := t.sampleOnGrid(key, fn, npt)
	mats := make([]*tensor.Matrix, t.d)
	for i := range mats {
		mats[i] = t.tab.QuadPhiWT
	}
	return tensor.GeneralTransform(vals, mats)
}

// sampleOnGrid evaluates fn at the tensor-product quadrature grid of the
// box identified by key, scaled by the cell extent and offset by the
// translation (2^{-n}*l + 2^{-n}*x).
func (t *Tree[T]) sampleOnGrid(key Key, fn Functor[T], npt int) *tensor.Tensor[T] {
	h := math.Pow(2, float64(-key.N))
	shape := make([]int, t.d)
	for i := range shape {
		shape[i] = npt
	}
	out := tensor.New[T](shape)
	idx := make([]int, t.d)
	coords := make([]float64, t.d)
	var walk func(axis int)
	walk = func(axis int) {
		if axis == t.d {
			for i := range coords {
				coords[i] = h * (float64(key.L[i]) + t.tab.QuadX[idx[i]])
			}
			out.Set(append([]int(nil), idx...), fn(coords))
			return
		}
		for i := 0; i < npt; i++ {
			idx[axis] = i
			walk(axis + 1)
		}
	}
	walk(0)
	return out
}

// childWaveletEnergy evaluates fn inside each of key's 2^d children, sums
// the squared norm of the wavelet sub-block that a filter of the children's
// scaling coefficients would produce, and returns the children's keys for
// the caller to recurse into on refinement.
func (t *Tree[T]) childWaveletEnergy(key Key, fn Functor[T]) (float64, []Key) {
	n := key.NumChildren()
	children := make([]Key, n)
	childCoeffs := make([]*tensor.Tensor[T], n)
	for c := 0; c < n; c++ {
		children[c] = key.Child(c)
		childCoeffs[c] = t.evalScalingCoeff(children[c], fn)
	}

	assembled := t.assembleChildren(childCoeffs)
	filtered := tensor.GeneralTransform(assembled, t.filterMats())
	wave := t.waveletSubBlock(filtered)

	var energy float64
	nrm := wave.Norm()
	energy = nrm * nrm
	return energy, children
}

// assembleChildren packs 2^d k^d child blocks into one (2k)^d block at the
// bit-indexed child patch origin, the inverse of the reconstruct carve.
func (t *Tree[T]) assembleChildren(children []*tensor.Tensor[T]) *tensor.Tensor[T] {
	shape := make([]int, t.d)
	for i := range shape {
		shape[i] = 2 * t.k
	}
	out := tensor.New[T](shape)
	for c, child := range children {
		lo := tensor.ChildPatchOrigin(c, t.d, t.k)
		tensor.SetSlice(out, lo, child)
	}
	return out
}

// filterMats returns one hg matrix per axis, for the per-axis
// GeneralTransform filter step of §4.4.2. tensor.Transform contracts with
// m[j, l], so passing hg computes hg * children = [scaling; wavelet].
func (t *Tree[T]) filterMats() []*tensor.Matrix {
	mats := make([]*tensor.Matrix, t.d)
	for i := range mats {
		mats[i] = t.tab.HG
	}
	return mats
}

// unfilterMats returns one hg^T matrix per axis, the inverse of filterMats.
func (t *Tree[T]) unfilterMats() []*tensor.Matrix {
	mats := make([]*tensor.Matrix, t.d)
	for i := range mats {
		mats[i] = t.tab.HGT
	}
	return mats
}

// waveletSubBlock extracts the wavelet half along every axis of a (2k)^d
// filtered block (the complement of the s0 scaling sub-block).
func (t *Tree[T]) waveletSubBlock(filtered *tensor.Tensor[T]) *tensor.Tensor[T] {
	lo := make([]int, t.d)
	hi := make([]int, t.d)
	for i := range lo {
		lo[i] = 0
		hi[i] = 2 * t.k
	}
	// the wavelet energy is everything outside the all-scaling corner; a
	// cheap and sufficient proxy (matching the autorefine test's use of
	// "the high-order half") is the norm of the whole filtered block minus
	// the scaling corner's norm, computed by zeroing the corner in a copy.
	full := filtered.Clone()
	scalingCorner := tensor.Slice(filtered, lo, scalingHi(t.k, t.d))
	zeroPatch := tensor.New[T](scalingCorner.Shape())
	tensor.SetSlice(full, lo, zeroPatch)
	return full
}

func scalingHi(k, d int) []int {
	hi := make([]int, d)
	for i := range hi {
		hi[i] = k
	}
	return hi
}
