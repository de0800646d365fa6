package engine

import (
	"context"
	"fmt"
	"strings"

	"trailerpos/internal/core/id"
	"trailerpos/internal/core/types"
	"trailerpos/internal/domain/documents/purchase"
	"trailerpos/internal/domain/documents/waste"
)

// PurchaseLine is one delivered product given by SKU.
type PurchaseLine struct {
	SKU      string
	Qty      types.Quantity
	UnitCost types.NullMoney
}

// PurchaseRequest describes a delivery.
type PurchaseRequest struct {
	StoreID    id.ID
	SupplierID id.ID
	Notes      string
	Lines      []PurchaseLine
}

func (e *Engine) purchaseLines(ctx context.Context, lines []PurchaseLine) ([]purchase.LineInput, error) {
	out := make([]purchase.LineInput, 0, len(lines))
	for i, l := range lines {
		p, err := e.catalog.GetProductBySKU(ctx, l.SKU)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		out = append(out, purchase.LineInput{ProductID: p.ID, Qty: l.Qty, UnitCost: l.UnitCost})
	}
	return out, nil
}

// ReceivePurchase creates a purchase and receives it in one transaction.
func (e *Engine) ReceivePurchase(ctx context.Context, req PurchaseRequest) (*purchase.Purchase, error) {
	var p *purchase.Purchase
	err := e.atomically(ctx, "receive_purchase", func(ctx context.Context) error {
		lines, err := e.purchaseLines(ctx, req.Lines)
		if err != nil {
			return err
		}
		draft, err := e.purchases.Create(ctx, purchase.CreateInput{
			StoreID:    req.StoreID,
			SupplierID: req.SupplierID,
			Notes:      req.Notes,
			Lines:      lines,
		})
		if err != nil {
			return err
		}
		p, err = e.purchases.Receive(ctx, draft.ID)
		return err
	})
	return p, err
}

// CreatePurchase stores a draft purchase.
func (e *Engine) CreatePurchase(ctx context.Context, req PurchaseRequest) (*purchase.Purchase, error) {
	var p *purchase.Purchase
	err := e.atomically(ctx, "create_purchase", func(ctx context.Context) error {
		lines, err := e.purchaseLines(ctx, req.Lines)
		if err != nil {
			return err
		}
		p, err = e.purchases.Create(ctx, purchase.CreateInput{
			StoreID:    req.StoreID,
			SupplierID: req.SupplierID,
			Notes:      req.Notes,
			Lines:      lines,
		})
		return err
	})
	return p, err
}

// AddPurchaseLine appends a line to a draft purchase.
func (e *Engine) AddPurchaseLine(ctx context.Context, purchaseID id.ID, line PurchaseLine) (*purchase.Purchase, error) {
	var p *purchase.Purchase
	err := e.atomically(ctx, "add_purchase_line", func(ctx context.Context) error {
		lines, err := e.purchaseLines(ctx, []PurchaseLine{line})
		if err != nil {
			return err
		}
		p, err = e.purchases.AddLine(ctx, purchaseID, lines[0])
		return err
	})
	return p, err
}

// Receive moves a draft purchase to RECEIVED.
func (e *Engine) Receive(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	var p *purchase.Purchase
	err := e.atomically(ctx, "receive", func(ctx context.Context) error {
		var err error
		p, err = e.purchases.Receive(ctx, purchaseID)
		return err
	})
	return p, err
}

// CancelPurchase moves a draft purchase to CANCELLED.
func (e *Engine) CancelPurchase(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	var p *purchase.Purchase
	err := e.atomically(ctx, "cancel_purchase", func(ctx context.Context) error {
		var err error
		p, err = e.purchases.Cancel(ctx, purchaseID)
		return err
	})
	return p, err
}

// Purchase returns a purchase with its lines.
func (e *Engine) Purchase(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	return e.purchases.Get(ctx, purchaseID)
}

// Purchases lists purchases, optionally of one store.
func (e *Engine) Purchases(ctx context.Context, storeID *id.ID) ([]*purchase.Purchase, error) {
	return e.purchases.List(ctx, storeID)
}

// WasteRequest describes spoiled or dropped stock.
type WasteRequest struct {
	StoreID id.ID
	SKU     string
	Qty     types.Quantity
	Reason  string
}

// RecordWaste writes off qty of a product.
func (e *Engine) RecordWaste(ctx context.Context, req WasteRequest) (*waste.Event, error) {
	var ev *waste.Event
	err := e.atomically(ctx, "record_waste", func(ctx context.Context) error {
		p, err := e.catalog.GetProductBySKU(ctx, strings.TrimSpace(req.SKU))
		if err != nil {
			return err
		}
		if _, err := e.catalog.GetStore(ctx, req.StoreID); err != nil {
			return err
		}
		ev, err = e.waste.Record(ctx, req.StoreID, p.ID, req.Qty, req.Reason)
		return err
	})
	return ev, err
}

// WasteEvents lists waste events, optionally of one store.
func (e *Engine) WasteEvents(ctx context.Context, storeID *id.ID) ([]*waste.Event, error) {
	return e.waste.List(ctx, storeID)
}
