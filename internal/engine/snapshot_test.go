package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/core/id"
	"trailerpos/internal/core/types"
	"trailerpos/internal/infrastructure/snapshot"
)

// busyFixture has purchases, sales with modifiers, waste and a cancelled draft.
func busyFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t, Options{})
	ctx := context.Background()
	require.NoError(t, f.eng.LinkModifierGroup(ctx, f.item.ID, f.extras.ID))

	f.receive(t, "10", "2.00")
	_, err := f.eng.RecordSale(ctx, f.sale("1"))
	require.NoError(t, err)

	f.receive(t, "4", "3.10")
	req := f.sale("2")
	req.Tip = money("0.40")
	req.ModifierOptionIDs = []id.ID{f.extraX.ID}
	_, err = f.eng.RecordSale(ctx, req)
	require.NoError(t, err)

	_, err = f.eng.RecordWaste(ctx, WasteRequest{StoreID: f.store.ID, SKU: "X", Qty: qty("1"), Reason: "expired"})
	require.NoError(t, err)

	draft, err := f.eng.CreatePurchase(ctx, PurchaseRequest{StoreID: f.store.ID, SupplierID: f.supplier.ID})
	require.NoError(t, err)
	_, err = f.eng.CancelPurchase(ctx, draft.ID)
	require.NoError(t, err)
	return f
}

func TestSnapshot_RoundTripIsByteIdentical(t *testing.T) {
	f := busyFixture(t)
	ctx := context.Background()

	first, err := f.eng.ExportSnapshot(ctx)
	require.NoError(t, err)

	restored := New(Options{Clock: func() time.Time { return fixedNow }})
	require.NoError(t, restored.ImportSnapshot(ctx, first))

	second, err := restored.ExportSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	want, err := f.eng.CostState(ctx, f.store.ID, f.x.ID)
	require.NoError(t, err)
	got, err := restored.CostState(ctx, f.store.ID, f.x.ID)
	require.NoError(t, err)
	assert.True(t, want.QtyOnHand.Equal(got.QtyOnHand))
	assert.True(t, want.AvgUnitCost.Equal(got.AvgUnitCost))
}

func TestSnapshot_ImportContinuesNumbering(t *testing.T) {
	f := busyFixture(t)
	ctx := context.Background()

	blob, err := f.eng.ExportSnapshot(ctx)
	require.NoError(t, err)

	restored := New(Options{Clock: func() time.Time { return fixedNow }})
	require.NoError(t, restored.ImportSnapshot(ctx, blob))

	summary, err := restored.RecordSale(ctx, f.sale("1"))
	require.NoError(t, err)
	assert.Equal(t, "S-2026-00003", summary.Number)
}

func TestSnapshot_TamperedDocumentIsRejected(t *testing.T) {
	tests := []struct {
		name   string
		tamper func(doc *snapshot.Document)
	}{
		{
			name: "average cost",
			tamper: func(doc *snapshot.Document) {
				doc.CostStates[0].AvgUnitCost = money("9.99")
			},
		},
		{
			name: "backfilled sale cost",
			tamper: func(doc *snapshot.Document) {
				for i := range doc.Ledger {
					if doc.Ledger[i].CostBackfilled {
						doc.Ledger[i].UnitCost = types.Known(money("0.01"))
						return
					}
				}
			},
		},
		{
			name: "order cogs",
			tamper: func(doc *snapshot.Document) {
				doc.Orders[0].CogsTotal = money("1.23")
			},
		},
		{
			name: "grand total",
			tamper: func(doc *snapshot.Document) {
				doc.Orders[0].GrandTotal = doc.Orders[0].GrandTotal.Add(money("1"))
			},
		},
		{
			name: "ledger gap",
			tamper: func(doc *snapshot.Document) {
				doc.Ledger = append(doc.Ledger[:1], doc.Ledger[2:]...)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := busyFixture(t)
			ctx := context.Background()

			blob, err := src.eng.ExportSnapshot(ctx)
			require.NoError(t, err)
			doc, err := snapshot.Decode(blob)
			require.NoError(t, err)
			tt.tamper(doc)
			tampered, err := snapshot.Encode(doc)
			require.NoError(t, err)

			target := newFixture(t, Options{})
			before, err := target.eng.ExportSnapshot(ctx)
			require.NoError(t, err)

			err = target.eng.ImportSnapshot(ctx, tampered)
			assert.True(t, apperror.IsConsistency(err), "got %v", err)

			after, err := target.eng.ExportSnapshot(ctx)
			require.NoError(t, err)
			assert.Equal(t, before, after, "a rejected import leaves the state untouched")
		})
	}
}

func TestSnapshot_MalformedBlob(t *testing.T) {
	f := newFixture(t, Options{})

	err := f.eng.ImportSnapshot(context.Background(), []byte("not a snapshot"))
	assert.True(t, apperror.IsValidation(err))
}
