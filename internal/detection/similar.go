package detection

import (
	"sort"

	"github.com/orderwatch/dupguard/internal/domain"
)

// prefilterMargin widens the amount threshold for the cheap first check;
// the real acceptance test runs afterwards.
const prefilterMargin = 0.05

const scorePlaces = 4

type PairOptions struct {
	MaxDays              int
	MinAmountSimilarity  float64
	MinProductSimilarity float64
}

// PairSimilar finds near-duplicate orders of the same customer. Each
// customer's dated orders are sorted by (delivery, order id) and scanned
// with a day window; once a later order is out of the window, every order
// after it is too.
func PairSimilar(orders []*domain.Order, opts PairOptions) []domain.SimilarPairRow {
	byCustomer := make(map[string][]*domain.Order)
	var customers []string
	for _, o := range orders {
		if o.Delivery == nil {
			continue
		}
		if _, ok := byCustomer[o.CustomerID]; !ok {
			customers = append(customers, o.CustomerID)
		}
		byCustomer[o.CustomerID] = append(byCustomer[o.CustomerID], o)
	}

	var rows []domain.SimilarPairRow
	for _, customer := range customers {
		list := byCustomer[customer]
		sort.SliceStable(list, func(i, j int) bool {
			di, dj := *list[i].Delivery, *list[j].Delivery
			if !di.Equal(dj) {
				return di.Before(dj)
			}
			return list[i].OrderID < list[j].OrderID
		})

		for i := range list {
			a := list[i]
			for j := i + 1; j < len(list); j++ {
				b := list[j]
				if daysBetween(a, b) > opts.MaxDays {
					break
				}
				simAmount := AmountSimilarity(a.AmountOrZero(), b.AmountOrZero())
				if simAmount < opts.MinAmountSimilarity-prefilterMargin {
					continue
				}
				simProducts := ProductSimilarity(a.Products, b.Products)
				if simAmount < opts.MinAmountSimilarity || simProducts < opts.MinProductSimilarity {
					continue
				}

				name := a.DisplayName
				if name == "" {
					name = b.DisplayName
				}
				rows = append(rows, domain.SimilarPairRow{
					CustomerID:        customer,
					DisplayName:       name,
					Status1:           a.Status,
					Status2:           b.Status,
					OrderID1:          a.OrderID,
					OrderID2:          b.OrderID,
					Delivery1:         a.Delivery,
					Delivery2:         b.Delivery,
					Amount1:           a.Amount,
					Amount2:           b.Amount,
					AmountSimilarity:  roundScore(simAmount, scorePlaces),
					ProductSimilarity: roundScore(simProducts, scorePlaces),
					Priority:          Classify(a.Status, b.Status),
				})
			}
		}
	}
	return rows
}

func daysBetween(a, b *domain.Order) int {
	return int(b.Delivery.Sub(*a.Delivery).Hours() / 24)
}
