package detection

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orderwatch/dupguard/internal/domain"
)

type DispatchFilter struct {
	Date     time.Time
	Statuses []domain.Status
	Query    string
}

// Dispatch lists the orders due for delivery on one date, optionally
// narrowed by status and a case-insensitive search over customer id,
// display name and order id.
func Dispatch(orders []*domain.Order, f DispatchFilter) domain.DispatchList {
	day := f.Date.Format("2006-01-02")
	query := strings.ToLower(strings.TrimSpace(f.Query))

	allowed := make(map[domain.Status]bool, len(f.Statuses))
	for _, s := range f.Statuses {
		allowed[s] = true
	}

	list := domain.DispatchList{Date: f.Date, Orders: []domain.Order{}, Total: decimal.Zero}
	customers := make(map[string]bool)
	for _, o := range orders {
		if o.Delivery == nil || o.Delivery.Format("2006-01-02") != day {
			continue
		}
		if len(allowed) > 0 && !allowed[o.Status] {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(o.CustomerID), query) &&
			!strings.Contains(strings.ToLower(o.DisplayName), query) &&
			!strings.Contains(strings.ToLower(o.OrderID), query) {
			continue
		}
		list.Orders = append(list.Orders, *o)
		customers[o.CustomerID] = true
		list.Total = list.Total.Add(o.AmountOrZero())
	}

	sort.SliceStable(list.Orders, func(i, j int) bool {
		a, b := list.Orders[i], list.Orders[j]
		if a.CustomerID != b.CustomerID {
			return a.CustomerID < b.CustomerID
		}
		return a.OrderID < b.OrderID
	})
	list.Customers = len(customers)
	return list
}
