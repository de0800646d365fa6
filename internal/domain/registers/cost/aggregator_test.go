package cost

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/core/types"
)

var (
	storeID   = id.New()
	productID = id.New()
	ts        = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
)

func purchase(qty, cost string) entity.LedgerEntry {
	e := entity.LedgerEntry{
		StoreID:   storeID,
		ProductID: productID,
		Qty:       types.MustQuantity(qty),
		Reason:    entity.ReasonPurchase,
		Timestamp: ts,
	}
	if cost != "" {
		e.UnitCost = types.Known(types.MustMoney(cost))
	}
	return e
}

func TestFold_WeightedMean(t *testing.T) {
	lots := []struct{ qty, cost string }{
		{"10", "2.00"},
		{"5", "3.50"},
		{"2.5", "1.20"},
		{"7", "2.75"},
	}

	var s entity.CostState
	sumQty, sumValue := types.Zero(), types.Zero()
	for i, lot := range lots {
		e := purchase(lot.qty, lot.cost)
		e.Seq = int64(i + 1)
		s = Fold(s, e)

		sumQty = sumQty.Add(types.MustQuantity(lot.qty))
		sumValue = sumValue.Add(types.MustQuantity(lot.qty).Mul(types.MustMoney(lot.cost)))
	}

	assert.True(t, sumQty.Equal(s.QtyOnHand))
	assert.Equal(t, sumValue.Div(sumQty).Round(8).String(), s.AvgUnitCost.Round(8).String())
	assert.Equal(t, int64(4), s.LastSeq)
}

func TestFold_CorrectionResetsAverage(t *testing.T) {
	s := Fold(entity.CostState{}, purchase("3", "2.00"))

	s = Fold(s, purchase("-5", "1.10"))
	assert.Equal(t, "-2", s.QtyOnHand.String())
	assert.Equal(t, "1.1", s.AvgUnitCost.String())

	// Without a cost the previous average survives.
	s = Fold(entity.CostState{}, purchase("3", "2.00"))
	s = Fold(s, purchase("-5", ""))
	assert.Equal(t, "-2", s.QtyOnHand.String())
	assert.Equal(t, "2", s.AvgUnitCost.String())
}

func TestFold_ConsumptionKeepsAverage(t *testing.T) {
	s := Fold(entity.CostState{}, purchase("10", "2.00"))

	for _, reason := range []entity.Reason{entity.ReasonSale, entity.ReasonAdjustment, entity.ReasonReturnSale, entity.ReasonReturnVendor} {
		e := entity.LedgerEntry{Qty: types.MustQuantity("-1"), Reason: reason, Timestamp: ts}
		s = Fold(s, e)
		assert.Equal(t, "2", s.AvgUnitCost.String(), reason)
	}
	assert.Equal(t, "6", s.QtyOnHand.String())
}

func TestFold_MissingPurchaseCostCountsAsZero(t *testing.T) {
	s := Fold(entity.CostState{}, purchase("10", "2.00"))
	s = Fold(s, purchase("10", ""))

	assert.Equal(t, "1", s.AvgUnitCost.String())
}

func TestCogs_OnlySaleEntries(t *testing.T) {
	entries := []entity.LedgerEntry{
		{Qty: types.MustQuantity("-2"), UnitCost: types.Known(types.MustMoney("2.005")), Reason: entity.ReasonSale},
		{Qty: types.MustQuantity("-1"), Reason: entity.ReasonSale},
		{Qty: types.MustQuantity("-9"), UnitCost: types.Known(types.MustMoney("5")), Reason: entity.ReasonAdjustment},
	}

	assert.Equal(t, "4.01", Cogs(entries).String())
}

// --- Apply with in-memory fakes ---

type fakeStates struct {
	m map[entity.CostKey]entity.CostState
}

func (f *fakeStates) Get(_ context.Context, key entity.CostKey) (entity.CostState, bool, error) {
	s, ok := f.m[key]
	return s, ok, nil
}

func (f *fakeStates) Put(_ context.Context, s entity.CostState) error {
	f.m[s.Key()] = s
	return nil
}

func (f *fakeStates) List(_ context.Context, _ id.ID) ([]entity.CostState, error) {
	return nil, nil
}

type fakeEntries struct {
	entries []entity.LedgerEntry
}

func (f *fakeEntries) add(e *entity.LedgerEntry) {
	e.Seq = int64(len(f.entries) + 1)
	f.entries = append(f.entries, *e)
}

func (f *fakeEntries) Backfill(_ context.Context, seq int64, cost types.Money) error {
	f.entries[seq-1].UnitCost = types.Known(cost)
	f.entries[seq-1].CostBackfilled = true
	return nil
}

func (f *fakeEntries) ByReference(_ context.Context, ref entity.Reference) ([]entity.LedgerEntry, error) {
	var out []entity.LedgerEntry
	for _, e := range f.entries {
		if e.RefersTo(ref.Kind, ref.ID) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeCogs map[id.ID]types.Money

func (f fakeCogs) SetCogs(_ context.Context, orderID id.ID, cogs types.Money) error {
	f[orderID] = cogs
	return nil
}

func TestApply_BackfillsAfterOnHandUpdateAndRollsUpCogs(t *testing.T) {
	ctx := context.Background()
	states := &fakeStates{m: map[entity.CostKey]entity.CostState{}}
	entries := &fakeEntries{}
	cogs := fakeCogs{}
	agg := NewAggregator(states, entries, cogs)

	p := purchase("10", "2.00")
	entries.add(&p)
	require.NoError(t, agg.Apply(ctx, &p))

	orderID := id.New()
	sale := entity.LedgerEntry{
		StoreID:   storeID,
		ProductID: productID,
		Qty:       types.MustQuantity("-2"),
		Reason:    entity.ReasonSale,
		Reference: &entity.Reference{Kind: entity.RefSale, ID: orderID},
		Timestamp: ts,
	}
	entries.add(&sale)
	require.NoError(t, agg.Apply(ctx, &sale))

	assert.True(t, sale.CostBackfilled)
	assert.Equal(t, "2", sale.UnitCost.Decimal.String())
	assert.True(t, entries.entries[1].CostBackfilled)
	assert.Equal(t, "4", cogs[orderID].String())

	st := states.m[entity.CostKey{StoreID: storeID, ProductID: productID}]
	assert.Equal(t, "8", st.QtyOnHand.String())
	assert.Equal(t, int64(2), st.LastSeq)
}

func TestApply_SaleWithoutPurchasesCostsZero(t *testing.T) {
	ctx := context.Background()
	entries := &fakeEntries{}
	cogs := fakeCogs{}
	agg := NewAggregator(&fakeStates{m: map[entity.CostKey]entity.CostState{}}, entries, cogs)

	orderID := id.New()
	sale := entity.LedgerEntry{
		StoreID: storeID, ProductID: productID,
		Qty:       types.MustQuantity("-1"),
		Reason:    entity.ReasonSale,
		Reference: &entity.Reference{Kind: entity.RefSale, ID: orderID},
	}
	entries.add(&sale)
	require.NoError(t, agg.Apply(ctx, &sale))

	assert.True(t, sale.UnitCost.Valid)
	assert.True(t, sale.UnitCost.Decimal.IsZero())
	assert.True(t, cogs[orderID].IsZero())
}
