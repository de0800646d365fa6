package dto

import (
	"github.com/shopspring/decimal"

	"trailerpos/internal/core/types"
	"trailerpos/internal/domain/documents/order"
)

// PaymentRequest tenders a payment. A zero amount pays the grand total.
type PaymentRequest struct {
	Method string          `json:"method" binding:"required,oneof=CASH CARD OTHER"`
	Amount decimal.Decimal `json:"amount"`
}

// SaleRequest is a complete single-item sale.
type SaleRequest struct {
	Store       string           `json:"store"`
	OrderType   string           `json:"orderType" binding:"omitempty,oneof=WALKUP DINE_IN TAKEAWAY DELIVERY"`
	MenuItemSKU string           `json:"menuItemSku" binding:"required"`
	Qty         decimal.Decimal  `json:"qty"`
	UnitPrice   *decimal.Decimal `json:"unitPrice"`
	Modifiers   []string         `json:"modifierOptionIds" binding:"dive,uuid"`
	Discount    decimal.Decimal  `json:"discount"`
	Tip         decimal.Decimal  `json:"tip"`
	Payment     *PaymentRequest  `json:"payment"`
}

// Quantity returns the sold quantity; an omitted quantity sells one.
func (r *SaleRequest) Quantity() types.Quantity {
	return orOne(r.Qty)
}

// OpenOrderRequest opens an empty order.
type OpenOrderRequest struct {
	Store     string `json:"store"`
	OrderType string `json:"orderType" binding:"omitempty,oneof=WALKUP DINE_IN TAKEAWAY DELIVERY"`
}

// AddLineRequest sells a menu item on an open order.
type AddLineRequest struct {
	MenuItemSKU string           `json:"menuItemSku" binding:"required"`
	Qty         decimal.Decimal  `json:"qty"`
	UnitPrice   *decimal.Decimal `json:"unitPrice"`
}

// Quantity returns the sold quantity; an omitted quantity sells one.
func (r *AddLineRequest) Quantity() types.Quantity {
	return orOne(r.Qty)
}

// AddModifierRequest applies a modifier option to a line.
type AddModifierRequest struct {
	OptionID string `json:"optionId" binding:"required,uuid"`
}

// AmountRequest sets a discount or a tip.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// OrderListQuery filters the order list.
type OrderListQuery struct {
	StoreQuery
	PeriodQuery
}

// OrderResponse is an order header with its gross profit.
type OrderResponse struct {
	*order.Order
	GrossProfit types.Money `json:"grossProfit"`
}

// FromOrder creates response from domain order.
func FromOrder(o *order.Order) OrderResponse {
	return OrderResponse{Order: o, GrossProfit: o.GrossProfit()}
}

// FromOrders converts a list of orders.
func FromOrders(orders []*order.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = FromOrder(o)
	}
	return out
}

func orOne(q decimal.Decimal) types.Quantity {
	if q.IsZero() {
		return types.NewQuantity(1)
	}
	return q
}
