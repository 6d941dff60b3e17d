package domain

import "sort"

// cubicSpline is a natural cubic interpolant held in segment-polynomial
// form: s_j(x) = ys[j] + b[j]·dx + c[j]·dx² + d[j]·dx³ with dx = x − xs[j].
// Temperatures outside [xs[0], xs[n-1]] evaluate the boundary segment's
// polynomial, so the curve extrapolates instead of clamping.
type cubicSpline struct {
	xs []float64
	ys []float64
	b  []float64
	c  []float64
	d  []float64
}

// fitNaturalCubic solves the tridiagonal system for natural boundary
// conditions (zero curvature at both ends). xs must be strictly increasing
// and len(xs) == len(ys) >= 2; NewPartitionFunction guarantees both.
func fitNaturalCubic(xs, ys []float64) cubicSpline {
	n := len(xs)

	h := make([]float64, n-1)
	for i := range h {
		h[i] = xs[i+1] - xs[i]
	}

	alpha := make([]float64, n)
	for i := 1; i < n-1; i++ {
		alpha[i] = 3*(ys[i+1]-ys[i])/h[i] - 3*(ys[i]-ys[i-1])/h[i-1]
	}

	l := make([]float64, n)
	mu := make([]float64, n)
	z := make([]float64, n)
	l[0] = 1
	for i := 1; i < n-1; i++ {
		l[i] = 2*(xs[i+1]-xs[i-1]) - h[i-1]*mu[i-1]
		mu[i] = h[i] / l[i]
		z[i] = (alpha[i] - h[i-1]*z[i-1]) / l[i]
	}
	l[n-1] = 1

	c := make([]float64, n)
	b := make([]float64, n-1)
	d := make([]float64, n-1)
	for j := n - 2; j >= 0; j-- {
		c[j] = z[j] - mu[j]*c[j+1]
		b[j] = (ys[j+1]-ys[j])/h[j] - h[j]*(c[j+1]+2*c[j])/3
		d[j] = (c[j+1] - c[j]) / (3 * h[j])
	}

	return cubicSpline{xs: xs, ys: ys, b: b, c: c[:n-1], d: d}
}

// at evaluates the spline, reusing the first or last segment polynomial
// for points outside the knot range.
func (s cubicSpline) at(x float64) float64 {
	n := len(s.xs)
	if x == s.xs[n-1] {
		return s.ys[n-1]
	}
	j := n - 2
	if x < s.xs[n-1] {
		j = sort.SearchFloat64s(s.xs, x)
		if j > 0 && s.xs[j] != x {
			j--
		}
	}
	dx := x - s.xs[j]
	return s.ys[j] + dx*(s.b[j]+dx*(s.c[j]+dx*s.d[j]))
}
