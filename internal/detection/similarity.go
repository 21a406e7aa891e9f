package detection

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// AmountSimilarity is 1 - |a-b| / max(a, b). It is 0 when either amount is
// zero, which also covers untotaled orders.
func AmountSimilarity(a, b decimal.Decimal) float64 {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	return decimal.NewFromInt(1).Sub(a.Sub(b).Abs().Div(decimal.Max(a, b))).InexactFloat64()
}

// ProductSimilarity is the cosine similarity of two product-quantity
// vectors. Empty, all-zero or overflowing vectors score 0.
func ProductSimilarity(a, b map[string]decimal.Decimal) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var dot float64
	for _, code := range sortedCodes(a) {
		if vb, ok := b[code]; ok {
			dot += a[code].InexactFloat64() * vb.InexactFloat64()
		}
	}
	na, nb := norm(a), norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (na * nb)
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return 0
	}
	return sim
}

// norm sums in code order so results are reproducible to the last bit.
func norm(m map[string]decimal.Decimal) float64 {
	var sum float64
	for _, code := range sortedCodes(m) {
		v := m[code].InexactFloat64()
		sum += v * v
	}
	return math.Sqrt(sum)
}

func sortedCodes(m map[string]decimal.Decimal) []string {
	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
