package numerics

import "math"

// legendreP evaluates the standard Legendre polynomial P_n at x in [-1,1]
// together with its derivative, via the standard three-term recurrence.
func legendreP(n int, x float64) (p, dp float64) {
	if n == 0 {
		return 1, 0
	}
	p0, p1 := 1.0, x
	for k := 2; k <= n; k++ {
		p2 := ((2*float64(k)-1)*x*p1 - (float64(k)-1)*p0) / float64(k)
		p0, p1 = p1, p2
	}
	// derivative via the standard identity (1-x^2) P_n' = n (P_{n-1} - x P_n)
	pnm1, _ := legendreP(n-1, x)
	denom := 1 - x*x
	if math.Abs(denom) < 1e-14 {
		// endpoints: P_n'(1) = n(n+1)/2, P_n'(-1) = (-1)^(n+1) n(n+1)/2
		val := float64(n*(n+1)) / 2
		if x < 0 && n%2 == 0 {
			val = -val
		}
		return p1, val
	}
	return p1, float64(n) * (pnm1 - x*p1) / denom
}

// gaussLegendreNodes01 computes the n-point Gauss-Legendre nodes/weights on
// [-1,1] via Newton iteration on the roots of P_n, then maps to [0,1].
func gaussLegendreNodes01(n int) (x, w []float64) {
	x = make([]float64, n)
	w = make([]float64, n)
	for i := 0; i < n; i++ {
		// Chebyshev-based initial guess for the i-th root
		guess := math.Cos(math.Pi * (float64(i) + 0.75) / (float64(n) + 0.5))
		for iter := 0; iter < 100; iter++ {
			p, dp := legendreP(n, guess)
			if dp == 0 {
				break
			}
			delta := p / dp
			guess -= delta
			if math.Abs(delta) < 1e-15 {
				break
			}
		}
		_, dp := legendreP(n, guess)
		x[i] = guess
		w[i] = 2 / ((1 - guess*guess) * dp * dp)
	}
	// sort ascending (Newton from Chebyshev guesses comes out roughly descending)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if x[j] < x[i] {
				x[i], x[j] = x[j], x[i]
				w[i], w[j] = w[j], w[i]
			}
		}
	}
	// map [-1,1] -> [0,1]
	for i := range x {
		x[i] = 0.5 * (x[i] + 1)
		w[i] = 0.5 * w[i]
	}
	return x, w
}

// scalingPhi evaluates the k orthonormal Legendre scaling functions at x in
// [0,1]: phi_j(x) = sqrt(2j+1) * P_j(2x-1).
func scalingPhi(k int, x float64) []float64 {
	out := make([]float64, k)
	y := 2*x - 1
	for j := 0; j < k; j++ {
		p, _ := legendreP(j, y)
		out[j] = math.Sqrt(2*float64(j)+1) * p
	}
	return out
}

// scalingPhiDeriv evaluates d/dx phi_j(x) for the k scaling functions.
func scalingPhiDeriv(k int, x float64) []float64 {
	out := make([]float64, k)
	y := 2*x - 1
	for j := 0; j < k; j++ {
		_, dp := legendreP(j, y)
		out[j] = math.Sqrt(2*float64(j)+1) * 2 * dp
	}
	return out
}
