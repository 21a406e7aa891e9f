package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusNone Status = ""
	StatusRET  Status = "RET"
	StatusPRC  Status = "PRC"
)

// Valid reports whether s is one of the fulfillment states a report may carry.
// An absent status is valid; anything else is noise.
func (s Status) Valid() bool {
	switch s {
	case StatusNone, StatusRET, StatusPRC:
		return true
	}
	return false
}

type LineItem struct {
	CustomerID  string
	OrderID     string
	Status      Status
	Delivery    *time.Time
	Amount      *decimal.Decimal
	ProductCode string
	Quantity    *decimal.Decimal
	DisplayName string
}

type OrderKey struct {
	CustomerID string
	OrderID    string
}

type Order struct {
	CustomerID  string                     `json:"customer_id"`
	OrderID     string                     `json:"order_id"`
	Status      Status                     `json:"status"`
	Delivery    *time.Time                 `json:"delivery_date,omitempty"`
	Amount      *decimal.Decimal           `json:"amount,omitempty"`
	DisplayName string                     `json:"display_name"`
	Products    map[string]decimal.Decimal `json:"products"`
}

// AmountOrZero treats an untotaled order as zero.
func (o *Order) AmountOrZero() decimal.Decimal {
	if o.Amount == nil {
		return decimal.Zero
	}
	return *o.Amount
}

type ProductQty struct {
	Code     string          `json:"code"`
	Quantity decimal.Decimal `json:"quantity"`
}

type Signature struct {
	RoundedAmount decimal.Decimal `json:"rounded_amount"`
	Products      []ProductQty    `json:"products"`
}
