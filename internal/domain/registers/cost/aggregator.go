// Package cost maintains the moving-average cost aggregate per
// (store, product) and the cost of goods sold of each order.
package cost

import (
	"context"
	"fmt"

	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/core/types"
)

// Repository persists cost aggregates. Only the Aggregator writes to it.
type Repository interface {
	// Get returns the aggregate for key; ok is false when none exists yet
	Get(ctx context.Context, key entity.CostKey) (state entity.CostState, ok bool, err error)
	Put(ctx context.Context, state entity.CostState) error
	List(ctx context.Context, storeID id.ID) ([]entity.CostState, error)
}

// EntryStore gives the aggregator the access it needs to the ledger.
type EntryStore interface {
	Backfill(ctx context.Context, seq int64, cost types.Money) error
	ByReference(ctx context.Context, ref entity.Reference) ([]entity.LedgerEntry, error)
}

// CogsSink receives the recomputed cost of goods sold of an order.
type CogsSink interface {
	SetCogs(ctx context.Context, orderID id.ID, cogs types.Money) error
}

// Aggregator folds new ledger entries into cost state.
type Aggregator struct {
	states  Repository
	entries EntryStore
	cogs    CogsSink
}

// NewAggregator creates an aggregator.
func NewAggregator(states Repository, entries EntryStore, cogs CogsSink) *Aggregator {
	return &Aggregator{states: states, entries: entries, cogs: cogs}
}

// Apply folds e into its aggregate, then backfills a missing SALE cost,
// then recomputes the COGS of the referenced order. The steps run in this
// order so the rollup observes the backfilled cost. e is updated in place.
// Callers must hold a write transaction.
func (a *Aggregator) Apply(ctx context.Context, e *entity.LedgerEntry) error {
	key := entity.CostKey{StoreID: e.StoreID, ProductID: e.ProductID}

	prev, ok, err := a.states.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get cost state: %w", err)
	}
	if !ok {
		prev = entity.CostState{StoreID: e.StoreID, ProductID: e.ProductID}
	}

	next := Fold(prev, *e)
	if err := a.states.Put(ctx, next); err != nil {
		return fmt.Errorf("put cost state: %w", err)
	}

	if e.Reason == entity.ReasonSale && !e.UnitCost.Valid {
		if err := a.entries.Backfill(ctx, e.Seq, next.AvgUnitCost); err != nil {
			return fmt.Errorf("backfill entry %d: %w", e.Seq, err)
		}
		e.UnitCost = types.Known(next.AvgUnitCost)
		e.CostBackfilled = true
	}

	if e.Reference != nil && e.Reference.Kind == entity.RefSale {
		if err := a.rollupCogs(ctx, *e.Reference); err != nil {
			return err
		}
	}
	return nil
}

// rollupCogs recomputes an order's COGS from all its SALE entries.
func (a *Aggregator) rollupCogs(ctx context.Context, ref entity.Reference) error {
	linked, err := a.entries.ByReference(ctx, ref)
	if err != nil {
		return fmt.Errorf("entries of order %s: %w", ref.ID, err)
	}
	if err := a.cogs.SetCogs(ctx, ref.ID, Cogs(linked)); err != nil {
		return fmt.Errorf("set cogs of order %s: %w", ref.ID, err)
	}
	return nil
}

// Fold applies one entry to an aggregate.
//
// A PURCHASE moves the weighted average:
//
//	avg = (old_qty*old_avg + qty*unit_cost) / (old_qty + qty)
//
// unless the new on-hand is not positive, in which case the average resets
// to the entry's unit cost, or keeps the old average when the entry has none.
// Every other reason only changes the on-hand quantity.
func Fold(s entity.CostState, e entity.LedgerEntry) entity.CostState {
	newQty := s.QtyOnHand.Add(e.Qty)

	if e.Reason == entity.ReasonPurchase {
		switch {
		case !newQty.IsPositive():
			if e.UnitCost.Valid {
				s.AvgUnitCost = e.UnitCost.Decimal
			}
		default:
			unitCost := types.Zero()
			if e.UnitCost.Valid {
				unitCost = e.UnitCost.Decimal
			}
			s.AvgUnitCost = s.QtyOnHand.Mul(s.AvgUnitCost).
				Add(e.Qty.Mul(unitCost)).
				Div(newQty)
		}
	}

	s.QtyOnHand = newQty
	s.LastSeq = e.Seq
	s.UpdatedAt = e.Timestamp
	return s
}

// Cogs sums -qty*unit_cost over the SALE entries and rounds to cents.
// Entries of other reasons are ignored.
func Cogs(entries []entity.LedgerEntry) types.Money {
	total := types.Zero()
	for i := range entries {
		if entries[i].Reason != entity.ReasonSale {
			continue
		}
		total = total.Add(entries[i].CostedValue())
	}
	return types.Round2(total)
}
