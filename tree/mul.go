package tree

import (
	"context"
	"math"

	"github.com/madwave-project/madwave/tensor"
)

// Mul computes the pointwise product of two reconstructed-form trees into a
// freshly constructed result tree sharing this tree's k/thresh/bc/pmap, per
// §4.4.4's recursive descent assuming equal process maps.
func (t *Tree[T]) Mul(ctx context.Context, other *Tree[T], tol float64, fence bool) (*Tree[T], error) {
	result := t.emptyLike()
	if err := t.mulNode(ctx, result, RootKey(t.d), t, other, tol); err != nil {
		return nil, err
	}
	result.fence(ctx, fence)
	return result, nil
}

// MulVec multiplies this tree against every element of others, sharing the
// descent per element (§4.4.4's "vectorized form"); a direct per-pair call
// here, since the shared-descent benefit is an implementation-level
// scheduling optimization rather than an observable semantic difference.
func (t *Tree[T]) MulVec(ctx context.Context, others []*Tree[T], tol float64, fence bool) ([]*Tree[T], error) {
	out := make([]*Tree[T], len(others))
	for i, o := range others {
		r, err := t.Mul(ctx, o, tol, fence)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func (t *Tree[T]) emptyLike() *Tree[T] {
	return &Tree[T]{
		d: t.d, k: t.k, tab: t.tab, thr: t.thr, bc: t.bc, tmod: t.tmod,
		rank: t.rank, pmap: t.pmap, cnt: t.cnt.EmptySibling(), pool: t.pool, engine: nil,
		mode: Reconstructed,
	}
}

func (t *Tree[T]) mulNode(ctx context.Context, dst *Tree[T], key Key, left, right *Tree[T], tol float64) error {
	return t.mulAt(ctx, dst, key, left, right, left.get(key), right.get(key), tol)
}

// mulAt implements §4.4.4's case analysis for ln/rn already resolved at
// key: both sides carrying coefficients multiplies directly; both sides
// childless screens by the product of subtree norms and either truncates
// or multiplies; otherwise at least one side is interior, and the other
// side's scaling block (if it has one) is pushed through unfilter to
// synthesize its 2^d child blocks before recursing, so a leaf on one side
// paired with a refined region on the other contributes its real
// coefficients rather than an absent, implicitly-zero child lookup.
func (t *Tree[T]) mulAt(ctx context.Context, dst *Tree[T], key Key, left, right *Tree[T], ln, rn Node[T], tol float64) error {
	switch {
	case ln.HasCoeff() && rn.HasCoeff():
		return dst.doMul(key, ln, rn)

	case !ln.HasChildren && !rn.HasChildren:
		lnorm, rnorm := subtreeNorm(ln), subtreeNorm(rn)
		if lnorm*rnorm <= dst.truncateTol(tol, key) {
			dst.set(key, newNode[T](tensor.New[T](dst.scalingShape()), false))
			return nil
		}
		return dst.doMul(key, ln, rn)

	default:
		lChildren := left.childBlocks(key, ln)
		rChildren := right.childBlocks(key, rn)
		for c := 0; c < key.NumChildren(); c++ {
			child := key.Child(c)
			if err := t.mulAt(ctx, dst, child, left, right, lChildren[c], rChildren[c], tol); err != nil {
				return err
			}
		}
		dst.set(key, newNode[T](tensor.EmptyTensor[T](), true))
		return nil
	}
}

// childBlocks returns key's 2^d child nodes for the purpose of mulAt's
// descent: an interior node's children are looked up directly; a leaf
// carrying coefficients has its scaling block pushed through unfilter into
// a (2k)^d block and sliced per child, the same synthesis RefineOp and
// Diff's do_diff1 step use to refine a coarser node; a node with neither
// children nor coefficients contributes zero child blocks.
func (t *Tree[T]) childBlocks(key Key, n Node[T]) []Node[T] {
	out := make([]Node[T], key.NumChildren())
	switch {
	case n.HasChildren:
		for c := range out {
			out[c] = t.get(key.Child(c))
		}
	case n.HasCoeff():
		twoK := tensor.New[T](t.doubleShape())
		tensor.SetSlice(twoK, make([]int, t.d), n.Coeff)
		unfiltered := tensor.GeneralTransform(twoK, t.unfilterMats())
		for c := range out {
			lo := tensor.ChildPatchOrigin(c, t.d, t.k)
			hi := make([]int, t.d)
			for i := range hi {
				hi[i] = lo[i] + t.k
			}
			out[c] = newNode[T](tensor.Slice(unfiltered, lo, hi), false)
		}
	default:
		for c := range out {
			out[c] = newNode[T](tensor.EmptyTensor[T](), false)
		}
	}
	return out
}

func subtreeNorm(n Node[T]) float64 {
	if n.HasCoeff() {
		return n.Coeff.Norm()
	}
	return 0
}

// doMul evaluates both factors on a common refined quadrature grid in this
// box, pointwise-multiplies, and transforms back via quad_phiw with the
// per-level rescaling 2^{-nd/2} * sqrt(|cell|) named in §4.4.4.
func (t *Tree[T]) doMul(key Key, ln, rn Node[T]) error {
	quadMats := make([]*tensor.Matrix, t.d)
	for i := range quadMats {
		quadMats[i] = t.tab.QuadPhi
	}
	lv := tensor.GeneralTransform(ln.Coeff, quadMats)
	rv := tensor.GeneralTransform(rn.Coeff, quadMats)

	prod := tensor.New[T](lv.Shape())
	pd, ld, rd := prod.Data(), lv.Data(), rv.Data()
	for i := range pd {
		pd[i] = ld[i] * rd[i]
	}

	backMats := make([]*tensor.Matrix, t.d)
	for i := range backMats {
		backMats[i] = t.tab.QuadPhiWT
	}
	out := tensor.GeneralTransform(prod, backMats)

	scale := math.Pow(2, -float64(key.N*t.d)/2)
	out.Scale(fromComplexParts[T](scale, 0))
	t.set(key, newNode[T](out, false))
	return nil
}
