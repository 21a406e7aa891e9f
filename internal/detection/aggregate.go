package detection

import (
	"github.com/shopspring/decimal"

	"github.com/orderwatch/dupguard/internal/domain"
)

// Aggregator folds line items into one order per (customer, order id),
// keeping orders in first-seen order.
type Aggregator struct {
	orders  []*domain.Order
	index   map[domain.OrderKey]int
	skipped map[domain.SkipReason]int
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		index:   make(map[domain.OrderKey]int),
		skipped: make(map[domain.SkipReason]int),
	}
}

// Add folds one line item. Items with an unknown status or without a
// customer or order id are dropped and counted, never reported as errors.
func (a *Aggregator) Add(li domain.LineItem) bool {
	if !li.Status.Valid() {
		a.skipped[domain.SkipInvalidStatus]++
		return false
	}
	if li.CustomerID == "" || li.OrderID == "" {
		a.skipped[domain.SkipMissingKey]++
		return false
	}

	key := domain.OrderKey{CustomerID: li.CustomerID, OrderID: li.OrderID}
	i, ok := a.index[key]
	if !ok {
		i = len(a.orders)
		a.index[key] = i
		a.orders = append(a.orders, &domain.Order{
			CustomerID: li.CustomerID,
			OrderID:    li.OrderID,
			Products:   make(map[string]decimal.Decimal),
		})
	}

	o := a.orders[i]
	firstNonEmpty(&o.DisplayName, li.DisplayName)
	firstNonEmpty(&o.Status, li.Status)
	firstNonNil(&o.Delivery, li.Delivery)
	maxWins(&o.Amount, li.Amount)
	sumInto(o.Products, li.ProductCode, li.Quantity)
	return true
}

// Skip records a row dropped before it became a line item.
func (a *Aggregator) Skip(reason domain.SkipReason) {
	a.skipped[reason]++
}

func (a *Aggregator) Orders() []*domain.Order {
	return a.orders
}

func (a *Aggregator) Skipped() map[domain.SkipReason]int {
	out := make(map[domain.SkipReason]int, len(a.skipped))
	for k, v := range a.skipped {
		out[k] = v
	}
	return out
}
