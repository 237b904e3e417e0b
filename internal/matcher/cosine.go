package matcher

import "math"

// dot returns the inner product of two equal-length vectors.
func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// normalize scales v to unit length in place. It returns false for a zero or
// non-finite vector, which cannot be meaningfully compared.
func normalize(v []float64) bool {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	if sumSq == 0 || math.IsNaN(sumSq) || math.IsInf(sumSq, 0) {
		return false
	}
	inv := 1 / math.Sqrt(sumSq)
	for i := range v {
		v[i] *= inv
	}
	return true
}

// clamp01 bounds a similarity score to [0,1]. Negative similarity carries no
// signal for market matching, so the lower bound is clamped rather than
// shifted.
func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
