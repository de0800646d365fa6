package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/core/types"
	"trailerpos/internal/domain/auth"
	"trailerpos/internal/domain/documents/order"
	"trailerpos/internal/engine"
)

func TestSeedDemo_CatalogIsSellable(t *testing.T) {
	ctx := context.Background()
	eng := engine.New(engine.Options{})
	require.NoError(t, seedDemo(ctx, eng, "4321"))

	c := eng.Catalog()
	store, err := c.GetStoreByCode(ctx, demoStore)
	require.NoError(t, err)
	cashier, err := c.GetCashierByUsername(ctx, demoCashier)
	require.NoError(t, err)
	supplier, err := c.GetSupplierByCode(ctx, demoSupplier)
	require.NoError(t, err)

	items, err := c.ListMenuItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, demoBurger, items[0].SKU())
	assert.Len(t, items[0].ModifierGroupIDs, 1)

	_, err = eng.ReceivePurchase(ctx, engine.PurchaseRequest{
		StoreID:    store.ID,
		SupplierID: supplier.ID,
		Lines: []engine.PurchaseLine{
			{SKU: "BUN", Qty: types.MustQuantity("10"), UnitCost: types.Known(types.MustMoney("0.50"))},
			{SKU: "PATTY", Qty: types.MustQuantity("1000"), UnitCost: types.Known(types.MustMoney("0.01"))},
			{SKU: "CHEESE-SL", Qty: types.MustQuantity("10"), UnitCost: types.Known(types.MustMoney("0.30"))},
			{SKU: "ONION", Qty: types.MustQuantity("500"), UnitCost: types.Known(types.MustMoney("0.002"))},
		},
	})
	require.NoError(t, err)

	summary, err := eng.RecordSale(ctx, engine.SaleRequest{
		StoreID:     store.ID,
		CashierID:   cashier.ID,
		OrderType:   order.TypeWalkUp,
		MenuItemSKU: demoBurger,
		Qty:         types.MustQuantity("1"),
	})
	require.NoError(t, err)
	assert.True(t, summary.Cogs.Equal(types.MustMoney("1.84")), "cogs %s", summary.Cogs)
}

func TestSeedDemo_CashierCanLogIn(t *testing.T) {
	ctx := context.Background()
	eng := engine.New(engine.Options{})
	require.NoError(t, seedDemo(ctx, eng, "4321"))

	svc := auth.NewService(eng.Catalog(), auth.NewJWTService(auth.DefaultJWTConfig("test-secret"), time.Now))
	_, cashier, err := svc.Login(ctx, auth.Credentials{Username: demoCashier, PIN: "4321"})
	require.NoError(t, err)
	assert.Contains(t, cashier.Roles, "manager")
}

func TestSeedDemo_Twice(t *testing.T) {
	ctx := context.Background()
	eng := engine.New(engine.Options{})
	require.NoError(t, seedDemo(ctx, eng, "4321"))

	err := seedDemo(ctx, eng, "4321")
	assert.True(t, apperror.IsDuplicate(err), "got %v", err)

	items, err := eng.Catalog().ListMenuItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1, "failed seed leaves no partial catalog")
}

func TestSeedDemo_ShortPIN(t *testing.T) {
	err := seedDemo(context.Background(), engine.New(engine.Options{}), "12")
	assert.True(t, apperror.IsValidation(err), "got %v", err)
}
