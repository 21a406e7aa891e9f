package detection

import (
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/orderwatch/dupguard/internal/domain"
)

func signatureText(sig domain.Signature) []string {
	out := make([]string, len(sig.Products))
	for i, p := range sig.Products {
		out[i] = p.Code + "=" + p.Quantity.String()
	}
	return out
}

func TestBuildSignature_RoundsHalfToEvenOnDecimals(t *testing.T) {
	tests := []struct {
		amount   string
		places   int
		expected string
	}{
		{amount: "100.004", places: 2, expected: "100"},
		{amount: "100.006", places: 2, expected: "100.01"},
		{amount: "2.5", places: 0, expected: "2"},
		{amount: "3.5", places: 0, expected: "4"},
		// 2.675 has no exact binary form; as a float it would round down.
		{amount: "2.675", places: 2, expected: "2.68"},
		{amount: "2.665", places: 2, expected: "2.66"},
		{amount: "0.125", places: 2, expected: "0.12"},
		{amount: "-0.001", places: 2, expected: "0"},
		{amount: "12.3456", places: 6, expected: "12.3456"},
		{amount: "1e400", places: 2, expected: "1" + strings.Repeat("0", 400)},
	}

	for _, test := range tests {
		d := decimal.RequireFromString(test.amount)
		o := &domain.Order{CustomerID: "1", OrderID: "A", Amount: &d}
		sig := BuildSignature(o, test.places, 3)
		assert.Equal(t, test.expected, sig.RoundedAmount.String(), "%s at %d places", test.amount, test.places)
	}
}

func TestBuildSignature(t *testing.T) {
	o := newOrder("1", "A", domain.StatusRET, "2024-05-01", 100.004, map[string]float64{
		"P2": 1.5,
		"P1": 5.0004,
		"P3": 0,
	})

	sig := BuildSignature(o, 2, 3)
	assert.Equal(t, "100", sig.RoundedAmount.String())
	assert.Equal(t, []string{"P1=5", "P2=1.5", "P3=0"}, signatureText(sig))
}

func TestBuildSignature_UntotaledOrder(t *testing.T) {
	o := &domain.Order{CustomerID: "1", OrderID: "A", Products: map[string]decimal.Decimal{}}

	sig := BuildSignature(o, 2, 3)
	assert.True(t, sig.RoundedAmount.IsZero())
	assert.Empty(t, sig.Products)
}

func TestKeyOf_IgnoresTrailingZeros(t *testing.T) {
	a := &domain.Order{CustomerID: "1", Amount: amountOf("100.00"), Products: map[string]decimal.Decimal{
		"P1": decimal.RequireFromString("2.0"),
	}}
	b := &domain.Order{CustomerID: "1", Amount: amountOf("100"), Products: map[string]decimal.Decimal{
		"P1": decimal.RequireFromString("2"),
	}}

	assert.Equal(t, keyOf(a, BuildSignature(a, 2, 3)), keyOf(b, BuildSignature(b, 2, 3)))
}

func TestRoundScore(t *testing.T) {
	tests := []struct {
		x        float64
		expected float64
	}{
		{x: 0.99985, expected: 0.9998},
		{x: 0.99995, expected: 1},
		{x: 0.12345, expected: 0.1234},
		{x: 0.5, expected: 0.5},
		{x: 1, expected: 1},
		{x: math.NaN(), expected: 0},
		{x: math.Inf(1), expected: 0},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, roundScore(test.x, scorePlaces), "roundScore(%v)", test.x)
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, domain.PriorityAlta, Classify(domain.StatusRET, domain.StatusPRC))
	assert.Equal(t, domain.PriorityAlta, Classify(domain.StatusPRC, domain.StatusRET))
	assert.Equal(t, domain.PriorityAlta, Classify(domain.StatusRET, domain.StatusRET, domain.StatusPRC))
	assert.Equal(t, domain.PriorityMedia, Classify(domain.StatusRET, domain.StatusRET))
	assert.Equal(t, domain.PriorityMedia, Classify(domain.StatusPRC))
	assert.Equal(t, domain.PriorityMedia, Classify(domain.StatusNone, domain.StatusRET))
	assert.Equal(t, domain.PriorityMedia, Classify())
}
