package dto

import (
	"github.com/shopspring/decimal"
)

// PurchaseLineRequest is one delivered product. An absent unit cost is
// recorded as unknown and valued at the running average.
type PurchaseLineRequest struct {
	SKU      string              `json:"sku" binding:"required"`
	Qty      decimal.Decimal     `json:"qty"`
	UnitCost decimal.NullDecimal `json:"unitCost"`
}

// PurchaseRequest creates a purchase, receiving it at once when Receive is set.
type PurchaseRequest struct {
	Store        string                `json:"store"`
	SupplierCode string                `json:"supplierCode" binding:"required"`
	Notes        string                `json:"notes"`
	Receive      bool                  `json:"receive"`
	Lines        []PurchaseLineRequest `json:"lines" binding:"dive"`
}

// WasteRequest writes off stock.
type WasteRequest struct {
	Store  string          `json:"store"`
	SKU    string          `json:"sku" binding:"required"`
	Qty    decimal.Decimal `json:"qty"`
	Reason string          `json:"reason"`
}
