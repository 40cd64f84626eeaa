package tensor

import (
	"math"
	"testing"
)

func TestNewAndAt(t *testing.T) {
	tt := New[float64]([]int{2, 3})
	tt.Set([]int{0, 0}, 1)
	tt.Set([]int{1, 2}, 5)
	if got := tt.At([]int{0, 0}); got != 1 {
		t.Fatalf("At(0,0) = %v, want 1", got)
	}
	if got := tt.At([]int{1, 2}); got != 5 {
		t.Fatalf("At(1,2) = %v, want 5", got)
	}
	if tt.Size() != 6 {
		t.Fatalf("Size() = %d, want 6", tt.Size())
	}
}

func TestEmptyTensor(t *testing.T) {
	e := EmptyTensor[float64]()
	if !e.Empty() {
		t.Fatal("EmptyTensor() should report Empty() == true")
	}
	var nilT *Tensor[float64]
	if !nilT.Empty() {
		t.Fatal("nil *Tensor should report Empty() == true")
	}
	full := New[float64]([]int{2})
	if full.Empty() {
		t.Fatal("New([]int{2}) should not be Empty()")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	a := New[float64]([]int{3})
	a.Fill(2)
	b := a.Clone()
	b.Scale(3)
	if a.At([]int{0}) != 2 {
		t.Fatal("Clone should not alias the source's backing storage")
	}
	if b.At([]int{0}) != 6 {
		t.Fatalf("b.At(0) = %v, want 6", b.At([]int{0}))
	}
}

func TestGaxpy(t *testing.T) {
	a := New[float64]([]int{3})
	a.Fill(1)
	b := New[float64]([]int{3})
	b.Fill(2)
	a.Gaxpy(2, b, 3) // a <- 2*a + 3*b = 2 + 6 = 8
	for i, v := range a.Data() {
		if v != 8 {
			t.Fatalf("Gaxpy result[%d] = %v, want 8", i, v)
		}
	}
}

func TestNormAndInner(t *testing.T) {
	a := New[float64]([]int{2})
	a.Set([]int{0}, 3)
	a.Set([]int{1}, 4)
	if got := a.Norm(); math.Abs(got-5) > 1e-12 {
		t.Fatalf("Norm() = %v, want 5", got)
	}
	b := New[float64]([]int{2})
	b.Set([]int{0}, 1)
	b.Set([]int{1}, 1)
	if got := Inner[float64](a, b); math.Abs(got-7) > 1e-12 {
		t.Fatalf("Inner = %v, want 7", got)
	}
}

func TestInnerComplexConjugates(t *testing.T) {
	a := New[complex128]([]int{1})
	a.Set([]int{0}, complex(0, 1)) // i
	b := New[complex128]([]int{1})
	b.Set([]int{0}, complex(0, 1)) // i
	got := Inner[complex128](a, b)
	// conj(i)*i = (-i)*i = 1
	if real(got) < 1-1e-9 || imag(got) > 1e-9 {
		t.Fatalf("Inner(i,i) = %v, want 1+0i", got)
	}
}

func TestTransformIdentity(t *testing.T) {
	k := 4
	id := NewMatrix(k, k)
	for i := 0; i < k; i++ {
		id.Set(i, i, 1)
	}
	x := New[float64]([]int{k})
	for i := 0; i < k; i++ {
		x.Set([]int{i}, float64(i+1))
	}
	out := Transform[float64](x, id)
	for i := 0; i < k; i++ {
		if out.At([]int{i}) != x.At([]int{i}) {
			t.Fatalf("identity transform mismatch at %d", i)
		}
	}
}

func TestSliceAndSetSliceRoundTrip(t *testing.T) {
	full := New[float64]([]int{4, 4})
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			full.Set([]int{i, j}, float64(i*4+j))
		}
	}
	patch := Slice[float64](full, []int{1, 1}, []int{3, 3})
	if patch.Shape()[0] != 2 || patch.Shape()[1] != 2 {
		t.Fatalf("Slice shape = %v, want [2 2]", patch.Shape())
	}
	if patch.At([]int{0, 0}) != full.At([]int{1, 1}) {
		t.Fatal("Slice should copy the sub-block values")
	}

	dst := New[float64]([]int{4, 4})
	SetSlice[float64](dst, []int{1, 1}, patch)
	if dst.At([]int{1, 1}) != full.At([]int{1, 1}) || dst.At([]int{2, 2}) != full.At([]int{2, 2}) {
		t.Fatal("SetSlice should write the patch back at the given origin")
	}
	if dst.At([]int{0, 0}) != 0 {
		t.Fatal("SetSlice should not touch cells outside the patch")
	}
}

func TestChildPatchOrigin(t *testing.T) {
	cases := []struct {
		c, d, k int
		want    []int
	}{
		{0, 2, 3, []int{0, 0}},
		{1, 2, 3, []int{3, 0}},
		{2, 2, 3, []int{0, 3}},
		{3, 2, 3, []int{3, 3}},
	}
	for _, c := range cases {
		got := ChildPatchOrigin(c.c, c.d, c.k)
		if got[0] != c.want[0] || got[1] != c.want[1] {
			t.Errorf("ChildPatchOrigin(%d,%d,%d) = %v, want %v", c.c, c.d, c.k, got, c.want)
		}
	}
}

func TestMatMulAndHVStack(t *testing.T) {
	a := NewMatrix(2, 2)
	a.Set(0, 0, 1)
	a.Set(0, 1, 2)
	a.Set(1, 0, 3)
	a.Set(1, 1, 4)
	id := NewMatrix(2, 2)
	id.Set(0, 0, 1)
	id.Set(1, 1, 1)
	out := MatMul(a, id)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if out.At(i, j) != a.At(i, j) {
				t.Fatalf("MatMul by identity changed element (%d,%d)", i, j)
			}
		}
	}

	h := HStack(a, id)
	if h.Rows != 2 || h.Cols != 4 {
		t.Fatalf("HStack shape = %dx%d, want 2x4", h.Rows, h.Cols)
	}
	v := VStack(a, id)
	if v.Rows != 4 || v.Cols != 2 {
		t.Fatalf("VStack shape = %dx%d, want 4x2", v.Rows, v.Cols)
	}
}

func TestGeneralTransformPermutesAxesBack(t *testing.T) {
	k := 2
	id := NewMatrix(k, k)
	id.Set(0, 0, 1)
	id.Set(1, 1, 1)
	x := New[float64]([]int{k, k})
	x.Set([]int{0, 1}, 9)
	out := GeneralTransform[float64](x, []*Matrix{id, id})
	if out.At([]int{0, 1}) != 9 {
		t.Fatalf("GeneralTransform with identities should be a no-op, got %v", out.At([]int{0, 1}))
	}
}
