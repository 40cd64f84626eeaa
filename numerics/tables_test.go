package numerics

import (
	"math"
	"testing"

	"github.com/madwave-project/madwave/tensor"
)

func TestQuadratureWeightsSumToOne(t *testing.T) {
	tab := Get(6)
	var sum float64
	for _, w := range tab.QuadW {
		sum += w
	}
	if math.Abs(sum-1) > 1e-10 {
		t.Fatalf("quadrature weights on [0,1] sum to %v, want 1", sum)
	}
	for _, x := range tab.QuadX {
		if x < 0 || x > 1 {
			t.Fatalf("quadrature node %v out of [0,1]", x)
		}
	}
}

func TestGetCachesByOrder(t *testing.T) {
	a := Get(4)
	b := Get(4)
	if a != b {
		t.Fatal("Get(k) should return the same cached *Tables instance for repeated calls")
	}
	c := Get(5)
	if a == c {
		t.Fatal("Get(k) for different k should not alias the same Tables")
	}
}

func TestHGIsOrthogonal(t *testing.T) {
	k := 4
	tab := Get(k)
	n := 2 * k
	prod := tensor.MatMul(tab.HG, tab.HGT)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if math.Abs(prod.At(i, j)-want) > 1e-8 {
				t.Fatalf("HG * HG^T[%d,%d] = %v, want %v (HG should be orthogonal)", i, j, prod.At(i, j), want)
			}
		}
	}
}

func TestRankOneFactorsMatchDense(t *testing.T) {
	k := 5
	tab := Get(k)
	dense := tab.RmFactor.Dense(k)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			if math.Abs(dense.At(i, j)-tab.Rm.At(i, j)) > 1e-10 {
				t.Fatalf("Rm rank-1 reconstruction mismatch at (%d,%d)", i, j)
			}
		}
	}
}

func TestGetRejectsOutOfRangeOrder(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Get(0) should panic via debug.Assertf on an out-of-range order")
		}
	}()
	Get(0)
}
