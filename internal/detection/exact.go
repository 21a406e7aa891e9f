package detection

import "github.com/orderwatch/dupguard/internal/domain"

// GroupExact emits every order that shares (customer, delivery date, rounded
// amount, product signature) with at least one other. Groups appear in the
// order their first member was seen. When only is set, orders with any
// other status are left out before grouping.
func GroupExact(orders []*domain.Order, only domain.Status, amountPlaces, qtyPlaces int) ([]domain.ExactDuplicateRow, int) {
	type group struct {
		members []*domain.Order
		sigs    []domain.Signature
	}

	groups := make(map[exactKey]*group)
	var keys []exactKey
	for _, o := range orders {
		if only != domain.StatusNone && o.Status != only {
			continue
		}
		sig := BuildSignature(o, amountPlaces, qtyPlaces)
		k := keyOf(o, sig)
		g, ok := groups[k]
		if !ok {
			g = &group{}
			groups[k] = g
			keys = append(keys, k)
		}
		g.members = append(g.members, o)
		g.sigs = append(g.sigs, sig)
	}

	var rows []domain.ExactDuplicateRow
	n := 0
	for _, k := range keys {
		g := groups[k]
		if len(g.members) < 2 {
			continue
		}
		n++

		statuses := make([]domain.Status, len(g.members))
		for i, o := range g.members {
			statuses[i] = o.Status
		}
		prio := Classify(statuses...)

		for i, o := range g.members {
			rows = append(rows, domain.ExactDuplicateRow{
				CustomerID:   o.CustomerID,
				DisplayName:  o.DisplayName,
				Status:       o.Status,
				OrderID:      o.OrderID,
				Delivery:     o.Delivery,
				Amount:       o.Amount,
				Priority:     prio,
				ProductCount: len(g.sigs[i].Products),
				Signature:    g.sigs[i].Products,
			})
		}
	}
	return rows, n
}
