package detection

import "github.com/shopspring/decimal"

// Per-field merge strategies used when folding line items into an order.
// A field only moves from unset to set, or to a larger amount; nothing is
// ever cleared.

// firstNonEmpty keeps the first non-empty value seen.
func firstNonEmpty[T ~string](dst *T, v T) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

// firstNonNil keeps the first non-nil value seen.
func firstNonNil[T any](dst **T, v *T) {
	if *dst == nil && v != nil {
		c := *v
		*dst = &c
	}
}

// maxWins keeps the largest value seen.
func maxWins(dst **decimal.Decimal, v *decimal.Decimal) {
	if v == nil {
		return
	}
	if *dst == nil || v.GreaterThan(**dst) {
		c := *v
		*dst = &c
	}
}

// sumInto accumulates a quantity under its product code. A missing quantity
// still registers the product with zero.
func sumInto(acc map[string]decimal.Decimal, code string, qty *decimal.Decimal) {
	if code == "" {
		return
	}
	q := decimal.Zero
	if qty != nil {
		q = *qty
	}
	acc[code] = acc[code].Add(q)
}
