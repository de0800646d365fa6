// Package order provides the sale order document and its engine:
// lines, modifiers, discount, tip, payments and the running totals.
package order

import (
	"context"
	"time"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/core/security"
	"trailerpos/internal/core/types"
)

// Type is how the order is served.
type Type string

const (
	TypeWalkUp   Type = "WALKUP"
	TypeDineIn   Type = "DINE_IN"
	TypeTakeaway Type = "TAKEAWAY"
	TypeDelivery Type = "DELIVERY"
)

// IsValid reports whether t is a known order type.
func (t Type) IsValid() bool {
	switch t {
	case TypeWalkUp, TypeDineIn, TypeTakeaway, TypeDelivery:
		return true
	}
	return false
}

// Order is a sale. Totals are maintained incrementally: each line and
// modifier adds its own rounded amounts to Subtotal and TaxTotal.
type Order struct {
	entity.Document

	CashierID id.ID `json:"cashierId"`
	OrderType Type  `json:"orderType"`

	Subtotal       types.Money `json:"subtotal"`
	TaxTotal       types.Money `json:"taxTotal"`
	DiscountAmount types.Money `json:"discountAmount"`
	TipAmount      types.Money `json:"tipAmount"`
	GrandTotal     types.Money `json:"grandTotal"`

	// PriceIncludesTax is informational; tax is always added on top
	PriceIncludesTax bool `json:"priceIncludesTax"`

	// CogsTotal is written only by the cost aggregator
	CogsTotal types.Money `json:"cogsTotal"`
}

// NewOrder creates an order header with all amounts at zero.
func NewOrder(storeID, cashierID id.ID, orderType Type, now time.Time, createdBy string) *Order {
	if orderType == "" {
		orderType = TypeWalkUp
	}
	return &Order{
		Document:         entity.NewDocument(storeID, now, createdBy),
		CashierID:        cashierID,
		OrderType:        orderType,
		Subtotal:         types.Zero(),
		TaxTotal:         types.Zero(),
		DiscountAmount:   types.Zero(),
		TipAmount:        types.Zero(),
		GrandTotal:       types.Zero(),
		PriceIncludesTax: true,
		CogsTotal:        types.Zero(),
	}
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}
	if !o.OrderType.IsValid() {
		return apperror.NewValidation("invalid order type").
			WithDetail("field", "orderType").
			WithDetail("value", string(o.OrderType))
	}
	return nil
}

// ExpectedGrandTotal is round2(subtotal + tax - discount + tip).
func (o *Order) ExpectedGrandTotal() types.Money {
	return types.Round2(o.Subtotal.Add(o.TaxTotal).Sub(o.DiscountAmount).Add(o.TipAmount))
}

// AddAmounts adds already rounded subtotal and tax amounts and refreshes the grand total.
func (o *Order) AddAmounts(subtotal, tax types.Money) {
	o.Subtotal = o.Subtotal.Add(subtotal)
	o.TaxTotal = o.TaxTotal.Add(tax)
	o.GrandTotal = o.ExpectedGrandTotal()
}

// SetDiscount replaces the discount and refreshes the grand total.
func (o *Order) SetDiscount(amount types.Money) {
	o.DiscountAmount = amount
	o.GrandTotal = o.ExpectedGrandTotal()
}

// SetTip replaces the tip and refreshes the grand total.
func (o *Order) SetTip(amount types.Money) {
	o.TipAmount = amount
	o.GrandTotal = o.ExpectedGrandTotal()
}

// GrossProfit is round2(grand_total - cogs).
func (o *Order) GrossProfit() types.Money {
	return types.Round2(o.GrandTotal.Sub(o.CogsTotal))
}

// Facts returns the values a lock policy is evaluated on.
func (o *Order) Facts(paid types.Money, lineCount int) security.OrderFacts {
	return security.OrderFacts{
		Subtotal:       o.Subtotal,
		TaxTotal:       o.TaxTotal,
		DiscountAmount: o.DiscountAmount,
		TipAmount:      o.TipAmount,
		GrandTotal:     o.GrandTotal,
		PaidTotal:      paid,
		LineCount:      lineCount,
	}
}

// Line is one menu item sold on an order. Immutable once inserted.
type Line struct {
	ID         id.ID          `json:"id"`
	OrderID    id.ID          `json:"orderId"`
	LineNo     int            `json:"lineNo"`
	MenuItemID id.ID          `json:"menuItemId"`
	Qty        types.Quantity `json:"qty"`
	UnitPrice  types.Money    `json:"unitPrice"`

	// TaxRate is the menu item's rate at the time of sale
	TaxRate   types.Money `json:"taxRate"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Amounts returns round2(price*qty) and round2(price*qty*rate).
func (l *Line) Amounts() (subtotal, tax types.Money) {
	base := l.UnitPrice.Mul(l.Qty)
	return types.Round2(base), types.Round2(base.Mul(l.TaxRate))
}

// LineModifier is one modifier option applied to a line. Immutable once inserted.
type LineModifier struct {
	ID         id.ID       `json:"id"`
	OrderID    id.ID       `json:"orderId"`
	LineID     id.ID       `json:"lineId"`
	OptionID   id.ID       `json:"optionId"`
	GroupID    id.ID       `json:"groupId"`
	PriceDelta types.Money `json:"priceDelta"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// Amounts returns round2(delta) and round2(delta*rate).
// The delta applies once per line, not per unit.
func (m *LineModifier) Amounts(taxRate types.Money) (subtotal, tax types.Money) {
	return types.Round2(m.PriceDelta), types.Round2(m.PriceDelta.Mul(taxRate))
}

// PaymentMethod is how a payment was tendered.
type PaymentMethod string

const (
	MethodCash  PaymentMethod = "CASH"
	MethodCard  PaymentMethod = "CARD"
	MethodOther PaymentMethod = "OTHER"
)

// IsValid reports whether m is a known method.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodCard, MethodOther:
		return true
	}
	return false
}

// Payment is an informational tender record.
type Payment struct {
	ID      id.ID         `json:"id"`
	OrderID id.ID         `json:"orderId"`
	Method  PaymentMethod `json:"method"`
	Amount  types.Money   `json:"amount"`
	PaidAt  time.Time     `json:"paidAt"`
	Actor   string        `json:"actor,omitempty"`
}
