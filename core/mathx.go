package core

import "golang.org/x/exp/constraints"

// clamp limits v to [lo, hi].
func clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ceilDiv divides rounding up. d must be positive.
func ceilDiv[T constraints.Integer](n, d T) T {
	return (n + d - 1) / d
}
