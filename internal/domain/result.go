package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Priority string

const (
	PriorityAlta  Priority = "ALTA"
	PriorityMedia Priority = "MEDIA"
)

// Rank orders priorities so that ALTA sorts above MEDIA.
func (p Priority) Rank() int {
	if p == PriorityAlta {
		return 2
	}
	return 1
}

type ExactDuplicateRow struct {
	CustomerID   string           `json:"customer_id"`
	DisplayName  string           `json:"display_name"`
	Status       Status           `json:"status"`
	OrderID      string           `json:"order_id"`
	Delivery     *time.Time       `json:"delivery_date"`
	Amount       *decimal.Decimal `json:"amount"`
	Priority     Priority         `json:"priority"`
	ProductCount int              `json:"product_count"`
	Signature    []ProductQty     `json:"product_signature"`
}

type SimilarPairRow struct {
	CustomerID        string           `json:"customer_id"`
	DisplayName       string           `json:"display_name"`
	Status1           Status           `json:"status_1"`
	Status2           Status           `json:"status_2"`
	OrderID1          string           `json:"order_id_1"`
	OrderID2          string           `json:"order_id_2"`
	Delivery1         *time.Time       `json:"delivery_date_1"`
	Delivery2         *time.Time       `json:"delivery_date_2"`
	Amount1           *decimal.Decimal `json:"amount_1"`
	Amount2           *decimal.Decimal `json:"amount_2"`
	AmountSimilarity  float64          `json:"amount_similarity"`
	ProductSimilarity float64          `json:"product_similarity"`
	Priority          Priority         `json:"priority"`
}

type SkipReason string

const (
	SkipInvalidStatus SkipReason = "invalid_status"
	SkipMissingKey    SkipReason = "missing_key"
	SkipMalformedRow  SkipReason = "malformed_row"
)

type RunStats struct {
	RowsRead     int                `json:"rows_read"`
	Skipped      map[SkipReason]int `json:"skipped"`
	Orders       int                `json:"orders"`
	ExactGroups  int                `json:"exact_groups"`
	ExactRows    int                `json:"exact_rows"`
	SimilarPairs int                `json:"similar_pairs"`
}

// Result is the output of one detection run over a full report.
type Result struct {
	Exact   []ExactDuplicateRow `json:"exact"`
	Similar []SimilarPairRow    `json:"similar"`
	Stats   RunStats            `json:"stats"`
}

type ClientSummary struct {
	CustomerID  string   `json:"customer_id"`
	DisplayName string   `json:"display_name"`
	Cases       int      `json:"cases"`
	MaxPriority Priority `json:"max_priority"`
}

type DispatchList struct {
	Date      time.Time       `json:"date"`
	Orders    []Order         `json:"orders"`
	Customers int             `json:"customers"`
	Total     decimal.Decimal `json:"total_amount"`
}

// Run is the stored record of one detection over an uploaded report.
type Run struct {
	ID          string    `json:"id"`
	SourceName  string    `json:"source_name"`
	Fingerprint string    `json:"fingerprint"`
	Settings    string    `json:"settings"`
	Stats       RunStats  `json:"stats"`
	CreatedAt   time.Time `json:"created_at"`
}
