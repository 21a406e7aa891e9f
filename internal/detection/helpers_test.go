package detection

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/orderwatch/dupguard/internal/domain"
)

func day(iso string) *time.Time {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		panic(err)
	}
	return &t
}

func ptr(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

func products(m map[string]float64) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(m))
	for code, q := range m {
		out[code] = decimal.NewFromFloat(q)
	}
	return out
}

// quantities renders a product vector for comparison; decimals with equal
// value may differ in representation.
func quantities(m map[string]decimal.Decimal) map[string]string {
	out := make(map[string]string, len(m))
	for code, q := range m {
		out[code] = q.String()
	}
	return out
}

func newOrder(customer, id string, status domain.Status, delivery string, amount float64, items map[string]float64) *domain.Order {
	o := &domain.Order{
		CustomerID:  customer,
		OrderID:     id,
		Status:      status,
		Amount:      ptr(amount),
		DisplayName: "Cliente " + customer,
		Products:    products(items),
	}
	if delivery != "" {
		o.Delivery = day(delivery)
	}
	return o
}
