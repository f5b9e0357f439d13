package geom

import "math"

// Sign returns -1, 0 or 1.
func Sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// SignedPow raises |v| to p and restores the sign of v, giving a response
// curve that is symmetric about zero.
func SignedPow(v, p float64) float64 {
	return math.Pow(math.Abs(v), p) * Sign(v)
}

func SignedSquare(v float64) float64 {
	return SignedPow(v, 2)
}
