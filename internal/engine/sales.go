package engine

import (
	"context"
	"fmt"

	"trailerpos/internal/core/id"
	"trailerpos/internal/core/types"
	"trailerpos/internal/domain/documents/order"
	"trailerpos/pkg/logger"
)

// PaymentRequest tenders a payment as part of a sale.
type PaymentRequest struct {
	Method order.PaymentMethod

	// Amount defaults to the order's grand total
	Amount types.Money
}

// SaleRequest is a complete single-item sale.
type SaleRequest struct {
	StoreID   id.ID
	CashierID id.ID
	OrderType order.Type

	MenuItemSKU string
	Qty         types.Quantity

	// UnitPrice defaults to the menu item price
	UnitPrice *types.Money

	// ModifierOptionIDs are applied to the line in order
	ModifierOptionIDs []id.ID

	Discount types.Money
	Tip      types.Money

	// Payment is optional. A defaulted amount of zero records no payment.
	Payment *PaymentRequest
}

// OrderSummary is the outcome of a sale.
type OrderSummary struct {
	OrderID     id.ID       `json:"orderId"`
	Number      string      `json:"number"`
	Revenue     types.Money `json:"revenue"`
	Cogs        types.Money `json:"cogs"`
	GrossProfit types.Money `json:"grossProfit"`
}

func summarize(o *order.Order) OrderSummary {
	return OrderSummary{
		OrderID:     o.ID,
		Number:      o.Number,
		Revenue:     o.GrandTotal,
		Cogs:        o.CogsTotal,
		GrossProfit: o.GrossProfit(),
	}
}

// RecordSale opens an order, sells one line with its modifiers, applies
// discount and tip, and records the payment, all in one transaction.
func (e *Engine) RecordSale(ctx context.Context, req SaleRequest) (OrderSummary, error) {
	var summary OrderSummary
	err := e.atomically(ctx, "record_sale", func(ctx context.Context) error {
		item, err := e.catalog.GetMenuItemBySKU(ctx, req.MenuItemSKU)
		if err != nil {
			return err
		}

		o, err := e.orders.OpenOrder(ctx, order.OpenInput{
			StoreID:   req.StoreID,
			CashierID: req.CashierID,
			OrderType: req.OrderType,
		})
		if err != nil {
			return err
		}

		line, err := e.orders.AddLine(ctx, order.LineInput{
			OrderID:    o.ID,
			MenuItemID: item.ID,
			Qty:        req.Qty,
			UnitPrice:  req.UnitPrice,
		})
		if err != nil {
			return err
		}

		for _, optionID := range req.ModifierOptionIDs {
			if _, err := e.orders.AddModifier(ctx, line.ID, optionID); err != nil {
				return fmt.Errorf("modifier %s: %w", optionID, err)
			}
		}

		if !req.Discount.IsZero() {
			if _, err := e.orders.SetDiscount(ctx, o.ID, req.Discount); err != nil {
				return err
			}
		}
		if !req.Tip.IsZero() {
			if _, err := e.orders.SetTip(ctx, o.ID, req.Tip); err != nil {
				return err
			}
		}

		if req.Payment != nil {
			current, err := e.orders.Get(ctx, o.ID)
			if err != nil {
				return err
			}
			amount := req.Payment.Amount
			if amount.IsZero() {
				amount = current.GrandTotal
			}
			// a free sale has nothing to tender
			if !amount.IsZero() {
				if _, err := e.orders.RecordPayment(ctx, o.ID, req.Payment.Method, amount); err != nil {
					return err
				}
			}
		}

		final, err := e.orders.Get(ctx, o.ID)
		if err != nil {
			return err
		}
		summary = summarize(final)
		return nil
	})
	if err != nil {
		return OrderSummary{}, err
	}

	logger.Info(ctx, "sale recorded",
		"order_id", summary.OrderID,
		"number", summary.Number,
		"revenue", summary.Revenue.String(),
		"cogs", summary.Cogs.String())

	return summary, nil
}

// OpenOrder creates an empty order.
func (e *Engine) OpenOrder(ctx context.Context, in order.OpenInput) (*order.Order, error) {
	var o *order.Order
	err := e.atomically(ctx, "open_order", func(ctx context.Context) error {
		var err error
		o, err = e.orders.OpenOrder(ctx, in)
		return err
	})
	return o, err
}

// AddLine sells a menu item on an open order.
func (e *Engine) AddLine(ctx context.Context, in order.LineInput) (*order.Line, error) {
	var l *order.Line
	err := e.atomically(ctx, "add_line", func(ctx context.Context) error {
		var err error
		l, err = e.orders.AddLine(ctx, in)
		return err
	})
	return l, err
}

// AddLineBySKU sells a menu item given by SKU.
func (e *Engine) AddLineBySKU(ctx context.Context, orderID id.ID, sku string, qty types.Quantity, unitPrice *types.Money) (*order.Line, error) {
	var l *order.Line
	err := e.atomically(ctx, "add_line", func(ctx context.Context) error {
		item, err := e.catalog.GetMenuItemBySKU(ctx, sku)
		if err != nil {
			return err
		}
		l, err = e.orders.AddLine(ctx, order.LineInput{
			OrderID:    orderID,
			MenuItemID: item.ID,
			Qty:        qty,
			UnitPrice:  unitPrice,
		})
		return err
	})
	return l, err
}

// AddModifier applies a modifier option to a line.
func (e *Engine) AddModifier(ctx context.Context, lineID, optionID id.ID) (*order.LineModifier, error) {
	var m *order.LineModifier
	err := e.atomically(ctx, "add_modifier", func(ctx context.Context) error {
		var err error
		m, err = e.orders.AddModifier(ctx, lineID, optionID)
		return err
	})
	return m, err
}

// SetDiscount replaces the discount of an order.
func (e *Engine) SetDiscount(ctx context.Context, orderID id.ID, amount types.Money) (*order.Order, error) {
	var o *order.Order
	err := e.atomically(ctx, "set_discount", func(ctx context.Context) error {
		var err error
		o, err = e.orders.SetDiscount(ctx, orderID, amount)
		return err
	})
	return o, err
}

// SetTip replaces the tip of an order.
func (e *Engine) SetTip(ctx context.Context, orderID id.ID, amount types.Money) (*order.Order, error) {
	var o *order.Order
	err := e.atomically(ctx, "set_tip", func(ctx context.Context) error {
		var err error
		o, err = e.orders.SetTip(ctx, orderID, amount)
		return err
	})
	return o, err
}

// RecordPayment appends a payment to an order. A zero amount pays the
// order's current grand total.
func (e *Engine) RecordPayment(ctx context.Context, orderID id.ID, method order.PaymentMethod, amount types.Money) (*order.Payment, error) {
	var p *order.Payment
	err := e.atomically(ctx, "record_payment", func(ctx context.Context) error {
		if amount.IsZero() {
			o, err := e.orders.Get(ctx, orderID)
			if err != nil {
				return err
			}
			amount = o.GrandTotal
		}
		var err error
		p, err = e.orders.RecordPayment(ctx, orderID, method, amount)
		return err
	})
	return p, err
}

// Order returns an order with its lines, modifiers and payments.
func (e *Engine) Order(ctx context.Context, orderID id.ID) (*order.Details, error) {
	var d *order.Details
	err := e.tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		d, err = e.orders.GetDetails(ctx, orderID)
		return err
	})
	return d, err
}

// OrderSummary returns revenue, COGS and gross profit of an order.
func (e *Engine) OrderSummary(ctx context.Context, orderID id.ID) (OrderSummary, error) {
	o, err := e.orders.Get(ctx, orderID)
	if err != nil {
		return OrderSummary{}, err
	}
	return summarize(o), nil
}

// Orders lists order headers.
func (e *Engine) Orders(ctx context.Context, filter order.ListFilter) ([]*order.Order, error) {
	return e.orders.List(ctx, filter)
}
