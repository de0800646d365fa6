package order

import (
	"context"
	"time"

	"trailerpos/internal/core/id"
	"trailerpos/internal/core/types"
)

// Repository persists orders with their lines, modifiers and payments.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, orderID id.ID) (*Order, error)

	// Update stores header totals. CogsTotal is left as stored.
	Update(ctx context.Context, o *Order) error

	// SetCogs overwrites only CogsTotal
	SetCogs(ctx context.Context, orderID id.ID, cogs types.Money) error

	List(ctx context.Context, filter ListFilter) ([]*Order, error)

	AddLine(ctx context.Context, l *Line) error
	GetLine(ctx context.Context, lineID id.ID) (*Line, error)
	Lines(ctx context.Context, orderID id.ID) ([]Line, error)

	AddModifier(ctx context.Context, m *LineModifier) error
	Modifiers(ctx context.Context, lineID id.ID) ([]LineModifier, error)

	AddPayment(ctx context.Context, p *Payment) error
	Payments(ctx context.Context, orderID id.ID) ([]Payment, error)
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	StoreID *id.ID
	From    *time.Time
	To      *time.Time
}
