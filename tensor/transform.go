package tensor

import "github.com/madwave-project/madwave/internal/debug"

// Transform contracts the last axis of t with m: out[..., j] = sum_l t[..., l] * m[j, l].
// This is the two-scale / quadrature workhorse: every unfilter, filter, and
// quadrature projection in `numerics`/`tree` reduces to a sequence of these.
func Transform[T Numeric](t *Tensor[T], m *Matrix) *Tensor[T] {
	d := t.Rank()
	lastIn := t.shape[d-1]
	debug.Assertf(lastIn == m.Cols, "tensor.Transform: last axis %d != matrix cols %d", lastIn, m.Cols)

	outShape := append([]int(nil), t.shape[:d-1]...)
	outShape = append(outShape, m.Rows)
	out := New[T](outShape)

	outer := 1
	for _, s := range t.shape[:d-1] {
		outer *= s
	}
	for o := 0; o < outer; o++ {
		inBase := o * lastIn
		outBase := o * m.Rows
		for j := 0; j < m.Rows; j++ {
			var acc T
			for l := 0; l < lastIn; l++ {
				acc += t.data[inBase+l] * fromReal[T](m.At(j, l))
			}
			out.data[outBase+j] = acc
		}
	}
	return out
}

// fromReal converts a real matrix entry to the tensor's element type.
func fromReal[T Numeric](v float64) T {
	var out T
	switch p := any(&out).(type) {
	case *float64:
		*p = v
	case *complex128:
		*p = complex(v, 0)
	}
	return out
}

// FastTransform is the double-scratch variant: identical result to Transform
// but writes it into scratch1, reusing scratch1's storage when its capacity
// suffices; scratch2 is accepted for the caller's next axis and is not used.
func FastTransform[T Numeric](t *Tensor[T], m *Matrix, scratch1, scratch2 *Tensor[T]) *Tensor[T] {
	d := t.Rank()
	lastIn := t.shape[d-1]
	outer := 1
	for _, s := range t.shape[:d-1] {
		outer *= s
	}
	need := outer * m.Rows
	if cap(scratch1.data) < need {
		scratch1.data = make([]T, need)
	}
	scratch1.data = scratch1.data[:need]
	scratch1.shape = append(append(scratch1.shape[:0], t.shape[:d-1]...), m.Rows)
	scratch1.strides = stridesOf(scratch1.shape)

	for o := 0; o < outer; o++ {
		inBase := o * lastIn
		outBase := o * m.Rows
		for j := 0; j < m.Rows; j++ {
			var acc T
			for l := 0; l < lastIn; l++ {
				acc += t.data[inBase+l] * fromReal[T](m.At(j, l))
			}
			scratch1.data[outBase+j] = acc
		}
	}
	_ = scratch2 // reserved for the caller's next axis
	return scratch1
}

func stridesOf(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

// GeneralTransform applies a distinct matrix to each axis, mats[i] acting on
// axis i. Used by multiply's common-refinement-grid evaluation where each
// spatial axis can in principle carry a different quadrature map.
func GeneralTransform[T Numeric](t *Tensor[T], mats []*Matrix) *Tensor[T] {
	d := t.Rank()
	debug.Assert(len(mats) == d, "tensor.GeneralTransform: need one matrix per axis")
	cur := t
	for axis := 0; axis < d; axis++ {
		rotated := rotateLast(cur, axis)
		transformed := Transform(rotated, mats[axis])
		cur = unrotateLast(transformed, axis)
	}
	return cur
}

// rotateLast permutes axes so that `axis` becomes the last axis.
func rotateLast[T Numeric](t *Tensor[T], axis int) *Tensor[T] {
	if axis == t.Rank()-1 {
		return t
	}
	perm := make([]int, t.Rank())
	k := 0
	for i := range t.shape {
		if i != axis {
			perm[k] = i
			k++
		}
	}
	perm[t.Rank()-1] = axis
	return permute(t, perm)
}

// unrotateLast is the inverse of rotateLast for the given original axis.
func unrotateLast[T Numeric](t *Tensor[T], axis int) *Tensor[T] {
	if axis == t.Rank()-1 {
		return t
	}
	perm := make([]int, t.Rank())
	k := 0
	for i := 0; i < t.Rank(); i++ {
		if i == axis {
			perm[i] = t.Rank() - 1
		} else {
			perm[i] = k
			k++
		}
	}
	return permute(t, perm)
}

// permute returns a new tensor laid out as t but with axes reordered per
// perm: out's axis i holds t's axis perm[i].
func permute[T Numeric](t *Tensor[T], perm []int) *Tensor[T] {
	d := t.Rank()
	outShape := make([]int, d)
	for i, p := range perm {
		outShape[i] = t.shape[p]
	}
	out := New[T](outShape)
	idx := make([]int, d)
	outIdx := make([]int, d)
	var walk func(axis int)
	walk = func(axis int) {
		if axis == d {
			for i, p := range perm {
				outIdx[i] = idx[p]
			}
			out.Set(append([]int(nil), outIdx...), t.At(idx))
			return
		}
		for i := 0; i < t.shape[axis]; i++ {
			idx[axis] = i
			walk(axis + 1)
		}
	}
	walk(0)
	return out
}

// Slice extracts the hyper-rectangle [lo[i],hi[i]) along every axis.
func Slice[T Numeric](t *Tensor[T], lo, hi []int) *Tensor[T] {
	d := t.Rank()
	shape := make([]int, d)
	for i := range shape {
		shape[i] = hi[i] - lo[i]
	}
	out := New[T](shape)
	idx := make([]int, d)
	var walk func(axis int)
	walk = func(axis int) {
		if axis == d {
			src := make([]int, d)
			for i := range src {
				src[i] = lo[i] + idx[i]
			}
			out.Set(idx, t.At(src))
			return
		}
		for i := 0; i < shape[axis]; i++ {
			idx[axis] = i
			walk(axis + 1)
		}
	}
	walk(0)
	return out
}

// SetSlice writes patch into t at the hyper-rectangle starting at lo.
func SetSlice[T Numeric](t *Tensor[T], lo []int, patch *Tensor[T]) {
	d := t.Rank()
	idx := make([]int, d)
	var walk func(axis int)
	walk = func(axis int) {
		if axis == d {
			dst := make([]int, d)
			for i := range dst {
				dst[i] = lo[i] + idx[i]
			}
			t.Set(dst, patch.At(idx))
			return
		}
		for i := 0; i < patch.shape[axis]; i++ {
			idx[axis] = i
			walk(axis + 1)
		}
	}
	walk(0)
}

// ChildPatchOrigin returns the per-axis low offset (0 or k) for child index
// c in [0, 2^d), used to carve a (2k)^d block into 2^d k^d children (or vice
// versa), per the "bit-indexed slicing" of §4.4.2.
func ChildPatchOrigin(c, d, k int) []int {
	lo := make([]int, d)
	for axis := 0; axis < d; axis++ {
		if c&(1<<axis) != 0 {
			lo[axis] = k
		}
	}
	return lo
}
