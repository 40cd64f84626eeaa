// Package tensor is the dense N-dimensional tensor backend named as an
// external, black-box collaborator in the design (§1, §6): the core tree
// algorithms only ever call Transform/FastTransform/GeneralTransform,
// Gaxpy/Scale, Norm/Inner, and slice assignment. A concrete, simple
// implementation lives here so the engine is runnable end to end; a
// production deployment would swap this package for a BLAS-backed one
// without touching `tree`.
package tensor

import (
	"math"
	"math/cmplx"

	"github.com/madwave-project/madwave/internal/debug"
)

// Numeric is the element type a Tensor can hold.
type Numeric interface {
	~float64 | ~complex128
}

// Tensor is a row-major, runtime-rank-d dense array. Rank is a runtime
// quantity (see DESIGN NOTES: "Tree polymorphism by dimension") even though
// the wavelet order k and the element type are fixed once per Tree.
type Tensor[T Numeric] struct {
	shape   []int
	strides []int
	data    []T
}

// Empty reports whether the tensor has no backing storage, i.e. an
// "invalid"/uninitialized node coefficient per §3.
func (t *Tensor[T]) Empty() bool { return t == nil || len(t.data) == 0 }

// EmptyTensor returns the rank-0 sentinel tensor representing "no
// coefficients", the third legal state of a node's Coeff field.
func EmptyTensor[T Numeric]() *Tensor[T] { return &Tensor[T]{} }

func New[T Numeric](shape []int) *Tensor[T] {
	n := 1
	for _, s := range shape {
		n *= s
	}
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return &Tensor[T]{shape: append([]int(nil), shape...), strides: strides, data: make([]T, n)}
}

func (t *Tensor[T]) Shape() []int { return t.shape }
func (t *Tensor[T]) Rank() int    { return len(t.shape) }
func (t *Tensor[T]) Data() []T    { return t.data }
func (t *Tensor[T]) Size() int    { return len(t.data) }

func (t *Tensor[T]) Clone() *Tensor[T] {
	c := &Tensor[T]{shape: append([]int(nil), t.shape...), strides: append([]int(nil), t.strides...), data: make([]T, len(t.data))}
	copy(c.data, t.data)
	return c
}

func (t *Tensor[T]) At(idx []int) T {
	off := 0
	for i, s := range t.strides {
		off += idx[i] * s
	}
	return t.data[off]
}

func (t *Tensor[T]) Set(idx []int, v T) {
	off := 0
	for i, s := range t.strides {
		off += idx[i] * s
	}
	t.data[off] = v
}

// Fill sets every element to v.
func (t *Tensor[T]) Fill(v T) {
	for i := range t.data {
		t.data[i] = v
	}
}

// Scale multiplies every element by alpha in place.
func (t *Tensor[T]) Scale(alpha T) {
	for i := range t.data {
		t.data[i] *= alpha
	}
}

// Gaxpy computes t <- alpha*t + beta*other element-wise, in place.
func (t *Tensor[T]) Gaxpy(alpha T, other *Tensor[T], beta T) {
	debug.Assert(len(t.data) == len(other.data), "tensor.Gaxpy: shape mismatch")
	for i := range t.data {
		t.data[i] = alpha*t.data[i] + beta*other.data[i]
	}
}

// Norm returns the Frobenius (L2) norm.
func (t *Tensor[T]) Norm() float64 {
	var acc float64
	for _, v := range t.data {
		acc += abs2(v)
	}
	return math.Sqrt(acc)
}

// Inner returns sum(conj(t) * other), the trace-conjugate inner product.
func Inner[T Numeric](a, b *Tensor[T]) T {
	debug.Assert(len(a.data) == len(b.data), "tensor.Inner: shape mismatch")
	var acc T
	for i := range a.data {
		acc += conjMul(a.data[i], b.data[i])
	}
	return acc
}

func abs2[T Numeric](v T) float64 {
	switch x := any(v).(type) {
	case float64:
		return x * x
	case complex128:
		return real(x)*real(x) + imag(x)*imag(x)
	default:
		return 0
	}
}

func conjMul[T Numeric](a, b T) T {
	switch x := any(a).(type) {
	case complex128:
		y := any(b).(complex128)
		return any(cmplx.Conj(x) * y).(T)
	default:
		return a * b
	}
}

// Matrix is a plain dense k x k (or k x 2k, 2k x k ...) row-major matrix
// used by the two-scale and quadrature tables; kept distinct from Tensor
// because its rank is always exactly 2 and it is never sharded.
type Matrix struct {
	Rows, Cols int
	Data       []float64
}

func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

func (m *Matrix) At(i, j int) float64     { return m.Data[i*m.Cols+j] }
func (m *Matrix) Set(i, j int, v float64) { m.Data[i*m.Cols+j] = v }

func (m *Matrix) T() *Matrix {
	out := NewMatrix(m.Cols, m.Rows)
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			out.Set(j, i, m.At(i, j))
		}
	}
	return out
}

// MatMul computes a x b.
func MatMul(a, b *Matrix) *Matrix {
	debug.Assert(a.Cols == b.Rows, "tensor.MatMul: shape mismatch")
	out := NewMatrix(a.Rows, b.Cols)
	for i := 0; i < a.Rows; i++ {
		for k := 0; k < a.Cols; k++ {
			aik := a.At(i, k)
			if aik == 0 {
				continue
			}
			for j := 0; j < b.Cols; j++ {
				out.Set(i, j, out.At(i, j)+aik*b.At(k, j))
			}
		}
	}
	return out
}

// HStack concatenates matrices side by side (same row count).
func HStack(mats ...*Matrix) *Matrix {
	rows := mats[0].Rows
	cols := 0
	for _, m := range mats {
		cols += m.Cols
	}
	out := NewMatrix(rows, cols)
	coff := 0
	for _, m := range mats {
		for i := 0; i < rows; i++ {
			for j := 0; j < m.Cols; j++ {
				out.Set(i, coff+j, m.At(i, j))
			}
		}
		coff += m.Cols
	}
	return out
}

// VStack concatenates matrices on top of each other (same column count).
func VStack(mats ...*Matrix) *Matrix {
	cols := mats[0].Cols
	rows := 0
	for _, m := range mats {
		rows += m.Rows
	}
	out := NewMatrix(rows, cols)
	roff := 0
	for _, m := range mats {
		for i := 0; i < m.Rows; i++ {
			for j := 0; j < cols; j++ {
				out.Set(roff+i, j, m.At(i, j))
			}
		}
		roff += m.Rows
	}
	return out
}
