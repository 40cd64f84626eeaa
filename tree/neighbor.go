package tree

import (
	"context"

	"github.com/madwave-project/madwave/procmap"
	"github.com/madwave-project/madwave/tensor"
)

// Neighbor returns the key reached by shifting l by step along axis, per
// §4.4.8. If the shifted coordinate leaves [0, 2^n) the boundary condition
// on that axis decides: periodic wraps modulo 2^n, zero returns the
// invalid sentinel.
func (t *Tree[T]) Neighbor(key Key, axis, step int) Key {
	return t.NeighborDisp(key, unitDisp(key.Dim(), axis, step))
}

// NeighborDisp is the displacement-vector form of Neighbor.
func (t *Tree[T]) NeighborDisp(key Key, disp []int) Key {
	n := key.N
	size := 1 << uint(n)
	out := Key{N: n, L: make([]int, key.Dim())}
	for i, l := range key.L {
		v := l + disp[i]
		if v < 0 || v >= size {
			switch t.bc[i].boundaryFor(v) {
			case Periodic:
				v = ((v % size) + size) % size
			default:
				return invalidKey
			}
		}
		out.L[i] = v
	}
	return out
}

// boundaryFor picks which side's BCKind governs a coordinate that left the
// box on the low (v<0) or high (v>=size) side.
func (b BC) boundaryFor(v int) BCKind {
	if v < 0 {
		return b.Lo
	}
	return b.Hi
}

func unitDisp(d, axis, step int) []int {
	disp := make([]int, d)
	disp[axis] = step
	return disp
}

// RefineOp implements §4.4.8's autorefine_square_test-gated split: if the
// node is below max_refine_level and 2*lo*hi + hi^2 (lo, hi being the norms
// of the low- and high-order halves) exceeds truncate_tol, unfilter into a
// (2k)^d block and
// install each child patch as a new leaf.
func (t *Tree[T]) RefineOp(ctx context.Context, key Key, maxRefineLevel int) error {
	if key.N >= maxRefineLevel {
		return nil
	}
	n := t.get(key)
	if !n.HasCoeff() {
		return nil
	}
	lo, hi := t.autorefineHalves(n.Coeff)
	if 2*lo*hi+hi*hi <= t.truncateTol(t.thr, key) {
		return nil
	}

	twoK := tensor.New[T](t.doubleShape())
	tensor.SetSlice(twoK, make([]int, t.d), n.Coeff)
	unfiltered := tensor.GeneralTransform(twoK, t.unfilterMats())

	t.set(key, newNode[T](tensor.EmptyTensor[T](), true))
	for c := 0; c < key.NumChildren(); c++ {
		lo := tensor.ChildPatchOrigin(c, t.d, t.k)
		hi := make([]int, t.d)
		for i := range hi {
			hi[i] = lo[i] + t.k
		}
		patch := tensor.Slice(unfiltered, lo, hi)
		t.set(key.Child(c), newNode[T](patch, false))
	}
	return nil
}

// autorefineHalves returns the norms of the low-order and high-order
// halves of a k^d scaling coefficient tensor along its first axis, per
// §4.3's Sh slice and §4.4.8's autorefine_square_test.
func (t *Tree[T]) autorefineHalves(c *tensor.Tensor[T]) (lo, hi float64) {
	half := t.k / 2
	loLo := make([]int, t.d)
	loHi := c.Shape()
	loHi = append([]int(nil), loHi...)
	loHi[0] = half
	hiLo := make([]int, t.d)
	hiLo[0] = half
	hiHi := c.Shape()

	lowPart := tensor.Slice(c, loLo, loHi)
	highPart := tensor.Slice(c, hiLo, hiHi)
	return lowPart.Norm(), highPart.Norm()
}

// SockItToMe walks upward from key looking for an ancestor with
// coefficients and, if found, reports that ancestor's key and coefficients
// so the caller can synthesize the child block via parent_to_child, per
// §4.4.8. If a descendant has them instead, reports the empty tensor.
func (t *Tree[T]) SockItToMe(key Key) (Key, *tensor.Tensor[T]) {
	for k := key; ; {
		n := t.get(k)
		if n.HasCoeff() {
			return k, n.Coeff
		}
		if k.N == 0 {
			break
		}
		k = k.Parent()
	}
	if desc, ok := t.findDescendantWithCoeff(key); ok {
		return desc, tensor.EmptyTensor[T]()
	}
	return invalidKey, tensor.EmptyTensor[T]()
}

func (t *Tree[T]) findDescendantWithCoeff(key Key) (Key, bool) {
	n := t.get(key)
	if n.HasCoeff() {
		return key, true
	}
	if !n.HasChildren {
		return Key{}, false
	}
	for c := 0; c < key.NumChildren(); c++ {
		if k, ok := t.findDescendantWithCoeff(key.Child(c)); ok {
			return k, true
		}
	}
	return Key{}, false
}

// Depth returns key's level, a convenience accessor named in SPEC_FULL's
// supplemented-features list.
func (t *Tree[T]) Depth(key Key) int { return key.N }

// BoundingBox returns the [0,1]^d unit hypercube every tree in this package
// represents, a convenience accessor; neither the CLI demo nor package
// apply calls it.
func (t *Tree[T]) BoundingBox() ([]float64, []float64) {
	lo := make([]float64, t.d)
	hi := make([]float64, t.d)
	for i := range hi {
		hi[i] = 1
	}
	return lo, hi
}

// BoxLeaf/BoxInterior are unbounded collective diagnostics: they return
// this rank's local leaf/interior counts, for the caller to reduce across
// ranks.
func (t *Tree[T]) BoxLeaf() int {
	n := 0
	t.cnt.ForEachLocal(func(_ procmap.Key, node Node[T]) {
		if !node.HasChildren {
			n++
		}
	})
	return n
}

func (t *Tree[T]) BoxInterior() int {
	n := 0
	t.cnt.ForEachLocal(func(_ procmap.Key, node Node[T]) {
		if node.HasChildren {
			n++
		}
	})
	return n
}
