package engine

import (
	"context"
	"iter"

	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/core/types"
	"trailerpos/internal/domain/reports"
)

// LedgerEntries returns the entries of one (store, product) in insertion
// order, bound to the entries that exist when it is called.
func (e *Engine) LedgerEntries(ctx context.Context, storeID, productID id.ID) iter.Seq[entity.LedgerEntry] {
	return e.ledger.Query(ctx, storeID, productID)
}

// AllLedgerEntries returns every ledger entry in insertion order.
func (e *Engine) AllLedgerEntries(ctx context.Context) iter.Seq[entity.LedgerEntry] {
	return e.ledger.Entries(ctx)
}

// CostState returns the aggregate of one (store, product).
// A product that never moved has zero on-hand at zero cost.
func (e *Engine) CostState(ctx context.Context, storeID, productID id.ID) (entity.CostState, error) {
	s, ok, err := e.costs.Get(ctx, entity.CostKey{StoreID: storeID, ProductID: productID})
	if err != nil {
		return entity.CostState{}, err
	}
	if !ok {
		return entity.CostState{
			StoreID:     storeID,
			ProductID:   productID,
			QtyOnHand:   types.Zero(),
			AvgUnitCost: types.Zero(),
		}, nil
	}
	return s, nil
}

// Inventory reports on-hand quantities of ingredients.
func (e *Engine) Inventory(ctx context.Context, filter reports.InventoryFilter) ([]reports.InventoryRow, error) {
	return e.reports.Inventory(ctx, filter)
}

// Valuation reports stock value at moving average cost.
func (e *Engine) Valuation(ctx context.Context, filter reports.InventoryFilter) (*reports.Valuation, error) {
	return e.reports.Valuation(ctx, filter)
}

// OrderProfit reports revenue, COGS and gross profit per order.
func (e *Engine) OrderProfit(ctx context.Context, filter reports.ProfitFilter) ([]reports.OrderProfitRow, error) {
	return e.reports.OrderProfit(ctx, filter)
}

// DailyProfit reports revenue, COGS, gross profit and margin per day.
func (e *Engine) DailyProfit(ctx context.Context, filter reports.ProfitFilter) ([]reports.DailyProfitRow, error) {
	return e.reports.DailyProfit(ctx, filter)
}

// FoodCost reports the theoretical food cost of every menu item with a recipe.
func (e *Engine) FoodCost(ctx context.Context, storeID id.ID) ([]reports.FoodCostRow, error) {
	return e.reports.FoodCost(ctx, storeID)
}
