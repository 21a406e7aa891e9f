package ingestion

import "github.com/orderwatch/dupguard/internal/domain"

// LineItem applies the field parser to a record. Unparsable dates and
// numbers become nil rather than errors.
func (r Record) LineItem() domain.LineItem {
	return domain.LineItem{
		CustomerID:  Trim(r.CustomerID),
		OrderID:     Trim(r.OrderID),
		Status:      domain.Status(Trim(r.Status)),
		Delivery:    ParseDate(r.Delivery),
		Amount:      ParseDecimal(r.Amount),
		ProductCode: Trim(r.ProductCode),
		Quantity:    ParseDecimal(r.Quantity),
		DisplayName: Trim(r.DisplayName),
	}
}
