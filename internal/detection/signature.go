package detection

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/orderwatch/dupguard/internal/domain"
)

// BuildSignature derives the exact-match key material of an order. Amount
// and quantities are rounded half to even; an untotaled order rounds to zero.
func BuildSignature(o *domain.Order, amountPlaces, qtyPlaces int) domain.Signature {
	sig := domain.Signature{
		RoundedAmount: o.AmountOrZero().RoundBank(int32(amountPlaces)),
		Products:      make([]domain.ProductQty, 0, len(o.Products)),
	}
	for code, qty := range o.Products {
		if code == "" {
			continue
		}
		sig.Products = append(sig.Products, domain.ProductQty{
			Code:     code,
			Quantity: qty.RoundBank(int32(qtyPlaces)),
		})
	}
	sort.Slice(sig.Products, func(i, j int) bool {
		return sig.Products[i].Code < sig.Products[j].Code
	})
	return sig
}

type exactKey struct {
	customer string
	delivery string
	amount   string
	products string
}

// keyOf renders decimals through String, which drops trailing zeros, so
// 100, 100.0 and 100.00 share a key.
func keyOf(o *domain.Order, sig domain.Signature) exactKey {
	k := exactKey{customer: o.CustomerID, amount: sig.RoundedAmount.String()}
	if o.Delivery != nil {
		k.delivery = o.Delivery.Format("2006-01-02")
	}

	var b strings.Builder
	for _, p := range sig.Products {
		b.WriteString(p.Code)
		b.WriteByte(0x1f)
		b.WriteString(p.Quantity.String())
		b.WriteByte(0x1e)
	}
	k.products = b.String()
	return k
}

// roundScore rounds a similarity score half to even on its decimal form.
// Non-finite scores have no decimal form and count as no similarity.
func roundScore(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return decimal.NewFromFloat(x).RoundBank(int32(places)).InexactFloat64()
}
