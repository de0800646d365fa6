package stock_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/core/types"
	"trailerpos/internal/domain/catalog"
	"trailerpos/internal/domain/registers/cost"
	"trailerpos/internal/domain/registers/stock"
	"trailerpos/internal/infrastructure/storage/memory"
)

type ledgerFixture struct {
	svc     *stock.Service
	costs   *memory.CostRepo
	txm     *memory.TxManager
	store   *catalog.Store
	product *catalog.Product
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	ctx := context.Background()
	db := memory.NewDB()
	txm := memory.NewTxManager(db)
	cat := catalog.NewService(memory.NewCatalogRepo(db), txm, "STD21")

	ledgerRepo := memory.NewLedgerRepo(db)
	costRepo := memory.NewCostRepo(db)
	aggregator := cost.NewAggregator(costRepo, ledgerRepo, memory.NewOrderRepo(db))
	clock := func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }

	f := &ledgerFixture{
		svc:   stock.NewService(ledgerRepo, aggregator, cat, txm, clock),
		costs: costRepo,
		txm:   txm,
	}
	require.NoError(t, txm.RunInTransaction(ctx, func(ctx context.Context) error {
		f.store = catalog.NewStore("T1", "Trailer-1")
		if err := cat.CreateStore(ctx, f.store); err != nil {
			return err
		}
		if err := cat.CreateUnit(ctx, catalog.NewUnit("pcs", "Pieces")); err != nil {
			return err
		}
		f.product = catalog.NewProduct("X", "Ingredient X", "pcs")
		return cat.CreateProduct(ctx, f.product)
	}))
	return f
}

func (f *ledgerFixture) entry(qty string) entity.LedgerEntry {
	return entity.LedgerEntry{
		StoreID:   f.store.ID,
		ProductID: f.product.ID,
		Qty:       types.MustQuantity(qty),
		Reason:    entity.ReasonPurchase,
		UnitCost:  types.Known(types.MustMoney("2.00")),
	}
}

func TestAppend_RejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *entity.LedgerEntry)
		field  string
	}{
		{"zero quantity", func(e *entity.LedgerEntry) { e.Qty = types.MustQuantity("0") }, "qty"},
		{"unknown reason", func(e *entity.LedgerEntry) { e.Reason = "GIFT" }, "reason"},
		{"unknown store", func(e *entity.LedgerEntry) { e.StoreID = id.New() }, "storeId"},
		{"unknown product", func(e *entity.LedgerEntry) { e.ProductID = id.New() }, "productId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			ctx := context.Background()

			e := f.entry("5")
			tt.mutate(&e)
			_, err := f.svc.Append(ctx, e)
			require.True(t, apperror.IsValidation(err), "got %v", err)

			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.field, appErr.Details["field"])

			assert.Empty(t, slices.Collect(f.svc.Entries(ctx)))
			_, found, err := f.costs.Get(ctx, entity.CostKey{StoreID: e.StoreID, ProductID: e.ProductID})
			require.NoError(t, err)
			assert.False(t, found, "no cost state is written")
		})
	}
}

func TestAppend_AssignsSequenceAndAggregates(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	first, err := f.svc.Append(ctx, f.entry("4"))
	require.NoError(t, err)
	second, err := f.svc.Append(ctx, f.entry("6"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
	assert.Len(t, slices.Collect(f.svc.Query(ctx, f.store.ID, f.product.ID)), 2)

	s, found, err := f.costs.Get(ctx, entity.CostKey{StoreID: f.store.ID, ProductID: f.product.ID})
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, s.QtyOnHand.Equal(types.MustQuantity("10")))
	assert.Equal(t, int64(2), s.LastSeq)
}
