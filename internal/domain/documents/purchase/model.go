// Package purchase provides the Purchase document: a supplier delivery that
// enters the stock ledger only when it is received.
package purchase

import (
	"context"
	"fmt"
	"time"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/core/types"
)

// Status is the lifecycle state of a purchase.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusReceived  Status = "RECEIVED"
	StatusCancelled Status = "CANCELLED"
)

// transitions lists the allowed moves. RECEIVED and CANCELLED are terminal.
var transitions = map[Status][]Status{
	StatusDraft: {StatusReceived, StatusCancelled},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Purchase is a delivery from a supplier to a store.
type Purchase struct {
	entity.Document

	SupplierID id.ID      `json:"supplierId"`
	Status     Status     `json:"status"`
	ReceivedAt *time.Time `json:"receivedAt,omitempty"`
	Notes      string     `json:"notes,omitempty"`

	Lines []Line `json:"lines"`
}

// Line is a delivered quantity of one product.
// A negative quantity is a correction of an earlier delivery.
type Line struct {
	LineNo    int             `json:"lineNo"`
	ProductID id.ID           `json:"productId"`
	Qty       types.Quantity  `json:"qty"`
	UnitCost  types.NullMoney `json:"unitCost"`
}

// NewPurchase creates a draft purchase.
func NewPurchase(storeID, supplierID id.ID, now time.Time, createdBy string) *Purchase {
	return &Purchase{
		Document:   entity.NewDocument(storeID, now, createdBy),
		SupplierID: supplierID,
		Status:     StatusDraft,
		Lines:      make([]Line, 0),
	}
}

// Validate implements entity.Validatable.
func (p *Purchase) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(p.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}
	for _, l := range p.Lines {
		if err := l.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (l Line) validate() error {
	if id.IsNil(l.ProductID) {
		return apperror.NewValidation(fmt.Sprintf("line %d: product is required", l.LineNo)).
			WithDetail("field", "productId")
	}
	if l.Qty.IsZero() {
		return apperror.NewValidation(fmt.Sprintf("line %d: quantity must not be zero", l.LineNo)).
			WithDetail("field", "qty")
	}
	if l.UnitCost.Valid && l.UnitCost.Decimal.IsNegative() {
		return apperror.NewValidation(fmt.Sprintf("line %d: unit cost cannot be negative", l.LineNo)).
			WithDetail("field", "unitCost")
	}
	return nil
}

// AddLine appends a line. Lines change only while the purchase is a draft.
func (p *Purchase) AddLine(productID id.ID, qty types.Quantity, unitCost types.NullMoney) (Line, error) {
	if p.Status != StatusDraft {
		return Line{}, apperror.NewInvalidTransition("purchase", p.Status, "edited")
	}
	l := Line{
		LineNo:    len(p.Lines) + 1,
		ProductID: productID,
		Qty:       qty,
		UnitCost:  unitCost,
	}
	if err := l.validate(); err != nil {
		return Line{}, err
	}
	p.Lines = append(p.Lines, l)
	return l, nil
}

// TransitionTo moves the purchase to status or fails with InvalidTransition.
func (p *Purchase) TransitionTo(status Status, now time.Time) error {
	if !CanTransition(p.Status, status) {
		return apperror.NewInvalidTransition("purchase", p.Status, status).
			WithDetail("purchaseId", p.ID.String())
	}
	p.Status = status
	if status == StatusReceived {
		at := now.UTC()
		p.ReceivedAt = &at
	}
	p.TouchAt(now)
	return nil
}

// Total is Σ qty*unit_cost over the lines, rounded to cents.
func (p *Purchase) Total() types.Money {
	total := types.Zero()
	for _, l := range p.Lines {
		if l.UnitCost.Valid {
			total = total.Add(l.Qty.Mul(l.UnitCost.Decimal))
		}
	}
	return types.Round2(total)
}
