// Package numerics is the per-order-k common-numerics singleton of §4.3:
// two-scale matrices, Gauss-Legendre quadrature, and the periodic
// differentiation blocks, computed once per k and shared read-only
// thereafter.
package numerics

import (
	"fmt"
	"sync"

	"github.com/madwave-project/madwave/internal/debug"
	"github.com/madwave-project/madwave/tensor"
)

// KMAX bounds the recognized wavelet order, per §6's Factory options.
const KMAX = 30

// Slice is a half-open index range [Lo, Hi) along one tensor axis.
type Slice struct{ Lo, Hi int }

// Rank1 represents a rank-one k x k matrix block u ⊗ v, the natural form of
// the boundary-coupling blocks Rm/Rp (§4.3).
type Rank1 struct {
	U, V []float64
}

func (r Rank1) At(i, j int) float64 { return r.U[i] * r.V[j] }

func (r Rank1) Dense(k int) *tensor.Matrix {
	m := tensor.NewMatrix(k, k)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			m.Set(i, j, r.At(i, j))
		}
	}
	return m
}

// Tables holds every immutable per-k quantity named in §4.3.
type Tables struct {
	K int

	// quadrature
	QuadX, QuadW []float64 // Gauss-Legendre nodes/weights on [0,1], npt = k
	QuadPhi      *tensor.Matrix
	QuadPhiT     *tensor.Matrix
	QuadPhiW     *tensor.Matrix // phi(x_i,j) * w_i
	QuadPhiWT    *tensor.Matrix

	// two-scale
	H0, H1, G0, G1 *tensor.Matrix // k x k
	HG, HGT        *tensor.Matrix // 2k x 2k composed forms

	// index bookkeeping
	S0, S1, S2, S3 Slice // s[0..3] = [i*k, (i+1)*k)
	Sh             Slice // low-half slice, for autorefine tests
	Vk, V2k, Vq    int   // shape scalars (per-axis); npt == k

	// periodic difference-operator blocks and their rank-1 factorization
	Rm, R0, Rp     *tensor.Matrix
	RmFactor, RpFactor Rank1
}

var (
	cacheMu sync.Mutex
	cache   = map[int]*Tables{}
)

// Get returns the (lazily built, process-wide, immutable) tables for order
// k, building them on first request.
func Get(k int) *Tables {
	debug.Assertf(k >= 1 && k <= KMAX, "numerics.Get: k=%d out of [1,%d]", k, KMAX)

	cacheMu.Lock()
	defer cacheMu.Unlock()
	if t, ok := cache[k]; ok {
		return t
	}
	t := build(k)
	cache[k] = t
	return t
}

func build(k int) *Tables {
	t := &Tables{K: k}
	t.QuadX, t.QuadW = gaussLegendreNodes01(k)

	t.QuadPhi = tensor.NewMatrix(k, k) // [point][order]
	t.QuadPhiW = tensor.NewMatrix(k, k)
	for i := 0; i < k; i++ {
		phi := scalingPhi(k, t.QuadX[i])
		for j := 0; j < k; j++ {
			t.QuadPhi.Set(i, j, phi[j])
			t.QuadPhiW.Set(i, j, phi[j]*t.QuadW[i])
		}
	}
	t.QuadPhiT = t.QuadPhi.T()
	t.QuadPhiWT = t.QuadPhiW.T()

	t.H0, t.H1 = buildTwoScale(k, t.QuadX, t.QuadW)
	t.G0, t.G1 = buildWaveletComplement(k, t.H0, t.H1)

	top := tensor.HStack(t.H0, t.H1)
	bot := tensor.HStack(t.G0, t.G1)
	t.HG = tensor.VStack(top, bot)
	t.HGT = t.HG.T()

	t.S0 = Slice{0, k}
	t.S1 = Slice{k, 2 * k}
	t.S2 = Slice{2 * k, 3 * k}
	t.S3 = Slice{3 * k, 4 * k}
	t.Sh = Slice{0, k / 2}
	t.Vk, t.V2k, t.Vq = k, 2*k, k

	t.Rm, t.R0, t.Rp, t.RmFactor, t.RpFactor = buildDiffBlocks(k)
	return t
}

// buildTwoScale computes h0,h1 by quadrature-projecting the two half-width
// child scaling functions onto the parent basis (the standard numerical
// construction of Alpert multiwavelet filters).
func buildTwoScale(k int, x, w []float64) (h0, h1 *tensor.Matrix) {
	h0, h1 = tensor.NewMatrix(k, k), tensor.NewMatrix(k, k)
	inv := 1.0 / sqrt2
	for i := 0; i < k; i++ {
		left := scalingPhi(k, x[i]/2)
		right := scalingPhi(k, (x[i]+1)/2)
		child := scalingPhi(k, x[i])
		for j := 0; j < k; j++ {
			for l := 0; l < k; l++ {
				h0.Set(j, l, h0.At(j, l)+inv*w[i]*left[j]*child[l])
				h1.Set(j, l, h1.At(j, l)+inv*w[i]*right[j]*child[l])
			}
		}
	}
	return h0, h1
}

const sqrt2 = 1.4142135623730951

// buildWaveletComplement finds g0,g1 such that [[h0,h1],[g0,g1]] is a 2k x 2k
// orthogonal matrix: g0/g1 span the orthogonal complement of h0/h1's column
// space within R^{2k}, built by Gram-Schmidt against the standard basis. No
// third-party linear-algebra library appears anywhere in the retrieved
// corpus, so this (and buildDiffBlocks below) is hand-rolled rather than
// reached for an ecosystem dependency, since no such dependency exists.
func buildWaveletComplement(k int, h0, h1 *tensor.Matrix) (g0, g1 *tensor.Matrix) {
	n := 2 * k
	// columns of A: A[:,c] = [h0[c,:]; h1[c,:]]^T read column-major from rows
	cols := make([][]float64, k)
	for c := 0; c < k; c++ {
		v := make([]float64, n)
		for r := 0; r < k; r++ {
			v[r] = h0.At(c, r)
			v[k+r] = h1.At(c, r)
		}
		cols[c] = v
	}
	basis := append([][]float64(nil), cols...)
	for e := 0; e < n && len(basis) < n; e++ {
		v := make([]float64, n)
		v[e] = 1
		v = gramSchmidtReject(basis, v)
		if norm(v) > 1e-9 {
			normalize(v)
			basis = append(basis, v)
		}
	}
	g0, g1 = tensor.NewMatrix(k, k), tensor.NewMatrix(k, k)
	for c := 0; c < k; c++ {
		v := basis[k+c]
		for r := 0; r < k; r++ {
			g0.Set(c, r, v[r])
			g1.Set(c, r, v[k+r])
		}
	}
	return g0, g1
}

func gramSchmidtReject(basis [][]float64, v []float64) []float64 {
	out := append([]float64(nil), v...)
	for _, b := range basis {
		proj := dot(out, b)
		for i := range out {
			out[i] -= proj * b[i]
		}
	}
	return out
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func norm(a []float64) float64 { return sqrtf(dot(a, a)) }

func sqrtf(x float64) float64 {
	if x <= 0 {
		return 0
	}
	// Newton's method; avoids importing math twice for one call site.
	z := x
	for i := 0; i < 30; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}

func normalize(a []float64) {
	n := norm(a)
	if n == 0 {
		return
	}
	for i := range a {
		a[i] /= n
	}
}

// buildDiffBlocks computes the three-point differentiation stencil blocks
// with a central flux at each cell face. R0 is the same-box part (the
// in-box derivative with half of each face's jump removed); Rm/Rp are the
// coupling terms with the left/right neighbor and are exactly rank one:
// half the flux of the scaling functions across the shared cell face. A
// constant therefore has zero derivative in every box whose two neighbors
// are present.
func buildDiffBlocks(k int) (rm, r0, rp *tensor.Matrix, rmF, rpF Rank1) {
	x, w := gaussLegendreNodes01(2 * k)
	r0 = tensor.NewMatrix(k, k)
	for i := range x {
		phi := scalingPhi(k, x[i])
		dphi := scalingPhiDeriv(k, x[i])
		for a := 0; a < k; a++ {
			for b := 0; b < k; b++ {
				r0.Set(a, b, r0.At(a, b)+w[i]*phi[a]*dphi[b])
			}
		}
	}
	phi0 := scalingPhi(k, 0)
	phi1 := scalingPhi(k, 1)
	for a := 0; a < k; a++ {
		for b := 0; b < k; b++ {
			r0.Set(a, b, r0.At(a, b)-0.5*(phi1[a]*phi1[b]-phi0[a]*phi0[b]))
		}
	}
	rmF = Rank1{U: phi0, V: scaled(-0.5, phi1)}
	rpF = Rank1{U: phi1, V: scaled(0.5, phi0)}
	rm = rmF.Dense(k)
	rp = rpF.Dense(k)
	return rm, r0, rp, rmF, rpF
}

func scaled(s float64, a []float64) []float64 {
	out := make([]float64, len(a))
	for i, v := range a {
		out[i] = s * v
	}
	return out
}

func (t *Tables) String() string {
	return fmt.Sprintf("numerics.Tables{k=%d}", t.K)
}
