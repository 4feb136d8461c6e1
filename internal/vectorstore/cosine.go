package vectorstore

import (
	"fmt"
	"math"

	"finchat/internal/domain"
)

// Cosine returns dot(a,b) / (|a| * |b|), clamped to [-1, 1].
// A zero-magnitude operand scores negative infinity so it ranks last.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", domain.ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return math.Inf(-1), nil
	}
	// One square root keeps self-similarity exactly 1.
	return max(-1, min(1, dot/math.Sqrt(na*nb))), nil
}
