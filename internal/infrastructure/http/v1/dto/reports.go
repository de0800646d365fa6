package dto

import (
	"trailerpos/internal/core/entity"
)

// ReportQuery is the common query of the stock reports.
type ReportQuery struct {
	StoreQuery
	Limit int `form:"limit" binding:"min=0"`
}

// ProfitQuery is the query of the profit reports.
type ProfitQuery struct {
	StoreQuery
	PeriodQuery
	Limit int `form:"limit" binding:"min=0"`
}

// LedgerQuery selects the ledger of one product.
type LedgerQuery struct {
	StoreQuery
	SKU string `form:"sku" binding:"required"`
}

// LedgerResponse is the movement history of one product with its aggregate.
type LedgerResponse struct {
	SKU     string               `json:"sku"`
	State   entity.CostState     `json:"state"`
	Entries []entity.LedgerEntry `json:"entries"`
}
