package memory

import (
	"context"
	"errors"
	"iter"
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
	"trailerpos/internal/domain/documents/order"
)

func newStore(t *testing.T) (*DB, *TxManager, *CatalogRepo) {
	t.Helper()
	db := NewDB()
	return db, NewTxManager(db), NewCatalogRepo(db)
}

func saleEntry(storeID, productID id.ID, qty string) *entity.LedgerEntry {
	return &entity.LedgerEntry{
		ID:        id.New(),
		StoreID:   storeID,
		ProductID: productID,
		Qty:       types.MustQuantity(qty),
		Reason:    entity.ReasonSale,
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWrite_RequiresTransaction(t *testing.T) {
	_, _, repo := newStore(t)

	err := repo.CreateStore(context.Background(), catalog.NewStore("T1", "Trailer-1"))
	assert.ErrorIs(t, err, errNoTransaction)
}

func TestRunInTransaction_RollsBackOnError(t *testing.T) {
	_, txm, repo := newStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.CreateStore(ctx, catalog.NewStore("T1", "Trailer-1")))
		return boom
	})
	require.ErrorIs(t, err, boom)

	stores, err := repo.ListStores(ctx)
	require.NoError(t, err)
	assert.Empty(t, stores)

	_, err = repo.GetStoreByCode(ctx, "T1")
	assert.True(t, apperror.IsNotFound(err))
}

func TestRunInTransaction_RollsBackOnPanic(t *testing.T) {
	db, txm, repo := newStore(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = txm.RunInTransaction(ctx, func(ctx context.Context) error {
			_, _ = db.NextSequence(ctx, "S_2026")
			require.NoError(t, repo.CreateStore(ctx, catalog.NewStore("T1", "Trailer-1")))
			panic("kaboom")
		})
	})

	stores, err := repo.ListStores(ctx)
	require.NoError(t, err)
	assert.Empty(t, stores)
	assert.Empty(t, db.st.sequences)
}

func TestRunInTransaction_NestedFailureUndoesOnlyInnerWrites(t *testing.T) {
	_, txm, repo := newStore(t)
	ctx := context.Background()

	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.CreateStore(ctx, catalog.NewStore("T1", "Trailer-1")))

		inner := txm.RunInTransaction(ctx, func(ctx context.Context) error {
			require.NoError(t, repo.CreateStore(ctx, catalog.NewStore("T2", "Trailer-2")))
			return errors.New("inner failed")
		})
		require.Error(t, inner)
		return nil
	})
	require.NoError(t, err)

	stores, err := repo.ListStores(ctx)
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, "T1", stores[0].Code)
}

func TestReadOnly_RejectsWrites(t *testing.T) {
	_, txm, repo := newStore(t)

	err := txm.ReadOnly(context.Background(), func(ctx context.Context) error {
		return repo.CreateStore(ctx, catalog.NewStore("T1", "Trailer-1"))
	})
	assert.ErrorIs(t, err, errReadOnly)

	err = txm.ReadOnly(context.Background(), func(ctx context.Context) error {
		return txm.RunInTransaction(ctx, func(ctx context.Context) error { return nil })
	})
	assert.ErrorIs(t, err, errUpgrade)
}

func TestCatalog_DuplicateKeys(t *testing.T) {
	_, txm, repo := newStore(t)
	ctx := context.Background()

	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.CreateProduct(ctx, catalog.NewProduct("BUN", "Bun", "pcs")))
		return repo.CreateProduct(ctx, catalog.NewProduct("BUN", "Another bun", "pcs"))
	})
	assert.True(t, apperror.IsDuplicate(err))

	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.CreateSupplier(ctx, catalog.NewSupplier("MEAT", "Meat Co")))
		return repo.CreateSupplier(ctx, catalog.NewSupplier("MEAT2", "Meat Co"))
	})
	assert.True(t, apperror.IsDuplicate(err))
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	_, txm, repo := newStore(t)
	ctx := context.Background()

	item := catalog.NewMenuItem("BRGR", "Classic Burger", types.MustMoney("8.00"), id.New())
	item.ModifierGroupIDs = []id.ID{id.New()}
	require.NoError(t, txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return repo.CreateMenuItem(ctx, item)
	}))

	got, err := repo.GetMenuItemBySKU(ctx, "BRGR")
	require.NoError(t, err)
	got.ModifierGroupIDs[0] = id.Nil()
	got.Name = "changed"

	again, err := repo.GetMenuItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Classic Burger", again.Name)
	assert.Equal(t, item.ModifierGroupIDs[0], again.ModifierGroupIDs[0])
}

func TestLedger_AppendAssignsSequenceAndIndexes(t *testing.T) {
	db, txm, _ := newStore(t)
	ledger := NewLedgerRepo(db)
	ctx := context.Background()
	storeID, bun, patty := id.New(), id.New(), id.New()
	orderID := id.New()

	require.NoError(t, txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, e := range []*entity.LedgerEntry{
			saleEntry(storeID, bun, "-1"),
			saleEntry(storeID, patty, "-100"),
			saleEntry(storeID, bun, "-2"),
		} {
			e.Reference = &entity.Reference{Kind: entity.RefSale, ID: orderID}
			if err := ledger.Append(ctx, e); err != nil {
				return err
			}
		}
		return nil
	}))

	last, err := ledger.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), last)

	var seqs []int64
	for e := range ledger.Query(ctx, entity.CostKey{StoreID: storeID, ProductID: bun}) {
		seqs = append(seqs, e.Seq)
	}
	assert.Equal(t, []int64{1, 3}, seqs)

	linked, err := ledger.ByReference(ctx, entity.Reference{Kind: entity.RefSale, ID: orderID})
	require.NoError(t, err)
	assert.Len(t, linked, 3)
}

func TestLedger_QueryIsBoundToCallTime(t *testing.T) {
	db, txm, _ := newStore(t)
	ledger := NewLedgerRepo(db)
	ctx := context.Background()
	storeID, bun := id.New(), id.New()
	key := entity.CostKey{StoreID: storeID, ProductID: bun}

	appendOne := func() {
		require.NoError(t, txm.RunInTransaction(ctx, func(ctx context.Context) error {
			return ledger.Append(ctx, saleEntry(storeID, bun, "-1"))
		}))
	}

	appendOne()
	seq := ledger.Query(ctx, key)
	appendOne()

	count := 0
	for range seq {
		count++
	}
	assert.Equal(t, 1, count)

	count = 0
	for range seq {
		count++
	}
	assert.Equal(t, 1, count, "ranging again replays the same prefix")
}

func TestLedger_QuerySurvivesReplace(t *testing.T) {
	db, txm, _ := newStore(t)
	ledger := NewLedgerRepo(db)
	ctx := context.Background()
	storeID, bun := id.New(), id.New()
	key := entity.CostKey{StoreID: storeID, ProductID: bun}

	first := saleEntry(storeID, bun, "-1")
	require.NoError(t, txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return ledger.Append(ctx, first)
	}))
	byKey := ledger.Query(ctx, key)
	all := ledger.All(ctx)

	other := NewDB()
	otherTx := NewTxManager(other)
	otherLedger := NewLedgerRepo(other)
	require.NoError(t, otherTx.RunInTransaction(ctx, func(ctx context.Context) error {
		for range 3 {
			if err := otherLedger.Append(ctx, saleEntry(storeID, bun, "-2")); err != nil {
				return err
			}
		}
		return nil
	}))
	require.NoError(t, db.Replace(ctx, other))

	for _, seq := range []iter.Seq[entity.LedgerEntry]{byKey, all} {
		got := slices.Collect(seq)
		require.Len(t, got, 1)
		assert.Equal(t, first.ID, got[0].ID)
	}

	assert.Len(t, slices.Collect(ledger.Query(ctx, key)), 3, "a new query sees the swapped state")
}

func TestLedger_BackfillOnce(t *testing.T) {
	db, txm, _ := newStore(t)
	ledger := NewLedgerRepo(db)
	ctx := context.Background()

	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		e := saleEntry(id.New(), id.New(), "-2")
		require.NoError(t, ledger.Append(ctx, e))
		require.NoError(t, ledger.Backfill(ctx, e.Seq, types.MustMoney("2")))
		return ledger.Backfill(ctx, e.Seq, types.MustMoney("3"))
	})
	assert.True(t, apperror.IsConsistency(err))

	last, err := ledger.LastSeq(ctx)
	require.NoError(t, err)
	assert.Zero(t, last, "the failed transaction leaves no entries")
}

func TestLedger_BackfillRejectsOtherReasons(t *testing.T) {
	db, txm, _ := newStore(t)
	ledger := NewLedgerRepo(db)
	ctx := context.Background()

	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		e := saleEntry(id.New(), id.New(), "-2")
		e.Reason = entity.ReasonAdjustment
		require.NoError(t, ledger.Append(ctx, e))
		return ledger.Backfill(ctx, e.Seq, types.MustMoney("2"))
	})
	assert.True(t, apperror.IsConsistency(err))
}

func TestOrders_UpdateKeepsCogs(t *testing.T) {
	db, txm, _ := newStore(t)
	orders := NewOrderRepo(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	o := order.NewOrder(id.New(), id.New(), order.TypeWalkUp, now, "cashier1")
	require.NoError(t, txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := orders.Create(ctx, o); err != nil {
			return err
		}
		if err := orders.SetCogs(ctx, o.ID, types.MustMoney("4.00")); err != nil {
			return err
		}
		o.AddAmounts(types.MustMoney("8.00"), types.MustMoney("1.68"))
		return orders.Update(ctx, o)
	}))

	got, err := orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, got.CogsTotal.Equal(types.MustMoney("4")))
	assert.True(t, got.GrandTotal.Equal(types.MustMoney("9.68")))
}

func TestOrders_ListFilter(t *testing.T) {
	db, txm, _ := newStore(t)
	orders := NewOrderRepo(db)
	ctx := context.Background()
	storeA, storeB := id.New(), id.New()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, o := range []*order.Order{
			order.NewOrder(storeA, id.New(), "", day.Add(9*time.Hour), ""),
			order.NewOrder(storeA, id.New(), "", day.Add(33*time.Hour), ""),
			order.NewOrder(storeB, id.New(), "", day.Add(10*time.Hour), ""),
		} {
			if err := orders.Create(ctx, o); err != nil {
				return err
			}
		}
		return nil
	}))

	next := day.Add(24 * time.Hour)
	got, err := orders.List(ctx, order.ListFilter{StoreID: &storeA, From: &day, To: &next})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, day.Add(9*time.Hour), got[0].CreatedAt)
}

func TestExport_RoundTripsIntoNewStore(t *testing.T) {
	db, txm, repo := newStore(t)
	orders := NewOrderRepo(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	st := catalog.NewStore("T1", "Trailer-1")
	o := order.NewOrder(st.ID, id.New(), order.TypeWalkUp, now, "cashier1")
	o.Number = "S-2026-00001"
	line := &order.Line{ID: id.New(), OrderID: o.ID, LineNo: 1, MenuItemID: id.New(), Qty: types.NewQuantity(1)}

	require.NoError(t, txm.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.CreateStore(ctx, st))
		require.NoError(t, orders.Create(ctx, o))
		require.NoError(t, orders.SetCogs(ctx, o.ID, types.MustMoney("4")))
		require.NoError(t, orders.AddLine(ctx, line))
		_, err := db.NextSequence(ctx, "S_2026")
		return err
	}))

	doc, err := db.Export(ctx, now)
	require.NoError(t, err)
	assert.Len(t, doc.Orders, 1)
	assert.Equal(t, int64(1), doc.Sequences["S_2026"])

	restored, err := NewDBFromSnapshot(doc)
	require.NoError(t, err)

	got, err := NewOrderRepo(restored).Get(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, got.CogsTotal.IsZero(), "cogs is rebuilt by ledger replay")

	lines, err := NewOrderRepo(restored).Lines(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	_, err = NewCatalogRepo(restored).GetStoreByCode(ctx, "T1")
	assert.NoError(t, err)
}

func TestNewDBFromSnapshot_RejectsOrphans(t *testing.T) {
	db, _, _ := newStore(t)
	doc, err := db.Export(context.Background(), time.Now())
	require.NoError(t, err)

	doc.Lines = append(doc.Lines, order.Line{ID: id.New(), OrderID: id.New()})
	_, err = NewDBFromSnapshot(doc)
	assert.True(t, apperror.IsValidation(err))
}
