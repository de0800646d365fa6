package memory

import (
	"context"
	"slices"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/core/id"
	"trailerpos/internal/core/types"
	"trailerpos/internal/domain/documents/order"
	"trailerpos/internal/domain/documents/purchase"
	"trailerpos/internal/domain/documents/waste"
)

// Compile-time checks for the document repositories.
var (
	_ order.Repository    = (*OrderRepo)(nil)
	_ purchase.Repository = (*PurchaseRepo)(nil)
	_ waste.Repository    = (*WasteRepo)(nil)
)

// OrderRepo stores orders with their lines, modifiers and payments.
type OrderRepo struct {
	db *DB
}

// NewOrderRepo creates a new order repository.
func NewOrderRepo(db *DB) *OrderRepo {
	return &OrderRepo{db: db}
}

func orders(st *state) *table[order.Order] { return st.orders }

func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	return insertInto(ctx, r.db, orders, o.ID, o.Number, o)
}

func (r *OrderRepo) Get(ctx context.Context, orderID id.ID) (*order.Order, error) {
	return getFrom(ctx, r.db, orders, byID[order.Order](orderID))
}

// Update stores the header. CogsTotal keeps its stored value.
func (r *OrderRepo) Update(ctx context.Context, o *order.Order) error {
	tx, err := r.db.writeTx(ctx)
	if err != nil {
		return err
	}
	stored, err := r.db.st.orders.get(o.ID)
	if err != nil {
		return err
	}
	next := *o
	next.CogsTotal = stored.CogsTotal
	return r.db.st.orders.update(tx, o.ID, next)
}

func (r *OrderRepo) SetCogs(ctx context.Context, orderID id.ID, cogs types.Money) error {
	tx, err := r.db.writeTx(ctx)
	if err != nil {
		return err
	}
	stored, err := r.db.st.orders.get(orderID)
	if err != nil {
		return err
	}
	stored.CogsTotal = cogs
	return r.db.st.orders.update(tx, orderID, stored)
}

// List returns matching orders in creation order.
// From is inclusive and To is exclusive.
func (r *OrderRepo) List(ctx context.Context, filter order.ListFilter) ([]*order.Order, error) {
	all, err := listFrom(ctx, r.db, orders)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(o *order.Order) bool {
		return !matchesFilter(o, filter)
	}), nil
}

func matchesFilter(o *order.Order, f order.ListFilter) bool {
	if f.StoreID != nil && o.StoreID != *f.StoreID {
		return false
	}
	if f.From != nil && o.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !o.CreatedAt.Before(*f.To) {
		return false
	}
	return true
}

func (r *OrderRepo) AddLine(ctx context.Context, l *order.Line) error {
	tx, err := r.db.writeTx(ctx)
	if err != nil {
		return err
	}
	st := r.db.st
	if !st.orders.has(l.OrderID) {
		return apperror.NewNotFound("order", l.OrderID.String())
	}
	if err := st.lines.insert(tx, l.ID, "", *l); err != nil {
		return err
	}
	st.linesByOrder.add(tx, l.OrderID, l.ID)
	return nil
}

func (r *OrderRepo) GetLine(ctx context.Context, lineID id.ID) (*order.Line, error) {
	return getFrom(ctx, r.db, func(st *state) *table[order.Line] { return st.lines }, byID[order.Line](lineID))
}

func (r *OrderRepo) Lines(ctx context.Context, orderID id.ID) ([]order.Line, error) {
	var out []order.Line
	err := r.db.view(ctx, func(st *state) error {
		out = st.lines.pick(st.linesByOrder.children(orderID))
		return nil
	})
	return out, err
}

func (r *OrderRepo) AddModifier(ctx context.Context, m *order.LineModifier) error {
	tx, err := r.db.writeTx(ctx)
	if err != nil {
		return err
	}
	st := r.db.st
	if !st.lines.has(m.LineID) {
		return apperror.NewNotFound("order line", m.LineID.String())
	}
	if err := st.modifiers.insert(tx, m.ID, "", *m); err != nil {
		return err
	}
	st.modsByLine.add(tx, m.LineID, m.ID)
	return nil
}

func (r *OrderRepo) Modifiers(ctx context.Context, lineID id.ID) ([]order.LineModifier, error) {
	var out []order.LineModifier
	err := r.db.view(ctx, func(st *state) error {
		out = st.modifiers.pick(st.modsByLine.children(lineID))
		return nil
	})
	return out, err
}

func (r *OrderRepo) AddPayment(ctx context.Context, p *order.Payment) error {
	tx, err := r.db.writeTx(ctx)
	if err != nil {
		return err
	}
	st := r.db.st
	if !st.orders.has(p.OrderID) {
		return apperror.NewNotFound("order", p.OrderID.String())
	}
	if err := st.payments.insert(tx, p.ID, "", *p); err != nil {
		return err
	}
	st.paymentsByOrdr.add(tx, p.OrderID, p.ID)
	return nil
}

func (r *OrderRepo) Payments(ctx context.Context, orderID id.ID) ([]order.Payment, error) {
	var out []order.Payment
	err := r.db.view(ctx, func(st *state) error {
		out = st.payments.pick(st.paymentsByOrdr.children(orderID))
		return nil
	})
	return out, err
}

// PurchaseRepo stores purchases with their lines.
type PurchaseRepo struct {
	db *DB
}

// NewPurchaseRepo creates a new purchase repository.
func NewPurchaseRepo(db *DB) *PurchaseRepo {
	return &PurchaseRepo{db: db}
}

func purchases(st *state) *table[purchase.Purchase] { return st.purchases }

func (r *PurchaseRepo) Create(ctx context.Context, p *purchase.Purchase) error {
	return insertInto(ctx, r.db, purchases, p.ID, p.Number, p)
}

func (r *PurchaseRepo) Get(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	return getFrom(ctx, r.db, purchases, byID[purchase.Purchase](purchaseID))
}

func (r *PurchaseRepo) Update(ctx context.Context, p *purchase.Purchase) error {
	tx, err := r.db.writeTx(ctx)
	if err != nil {
		return err
	}
	return r.db.st.purchases.update(tx, p.ID, *p)
}

func (r *PurchaseRepo) List(ctx context.Context, storeID *id.ID) ([]*purchase.Purchase, error) {
	all, err := listFrom(ctx, r.db, purchases)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(p *purchase.Purchase) bool {
		return storeID != nil && p.StoreID != *storeID
	}), nil
}

// WasteRepo stores waste events.
type WasteRepo struct {
	db *DB
}

// NewWasteRepo creates a new waste event repository.
func NewWasteRepo(db *DB) *WasteRepo {
	return &WasteRepo{db: db}
}

func wasteEvents(st *state) *table[waste.Event] { return st.waste }

func (r *WasteRepo) Create(ctx context.Context, e *waste.Event) error {
	return insertInto(ctx, r.db, wasteEvents, e.ID, e.Number, e)
}

func (r *WasteRepo) List(ctx context.Context, storeID *id.ID) ([]*waste.Event, error) {
	all, err := listFrom(ctx, r.db, wasteEvents)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(e *waste.Event) bool {
		return storeID != nil && e.StoreID != *storeID
	}), nil
}
