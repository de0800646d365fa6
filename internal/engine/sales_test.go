package engine

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/core/types"
	"trailerpos/internal/domain/catalog"
	"trailerpos/internal/domain/documents/order"
	"trailerpos/internal/infrastructure/storage/memory"
	"trailerpos/pkg/numerator"
)

var errLedgerDown = errors.New("ledger unavailable")

// failingLedger rejects appends for one product and passes the rest through.
type failingLedger struct {
	next    order.Ledger
	product id.ID
}

func (l failingLedger) Append(ctx context.Context, e entity.LedgerEntry) (entity.LedgerEntry, error) {
	if e.ProductID == l.product {
		return entity.LedgerEntry{}, errLedgerDown
	}
	return l.next.Append(ctx, e)
}

func TestRecordSale_LaterComponentFailureUndoesEarlierOnes(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	var y *catalog.Product
	require.NoError(t, f.eng.Define(ctx, func(ctx context.Context, c *catalog.Service) error {
		y = catalog.NewProduct("Y", "Ingredient Y", "pcs")
		return c.CreateProduct(ctx, y)
	}))
	_, err := f.eng.AddMenuItem(ctx, catalog.MenuItemInput{
		SKU:   "COMBO",
		Name:  "Combo",
		Price: money("5.00"),
		Recipe: []catalog.RecipeLine{
			{SKU: "X", Qty: qty("1")},
			{SKU: "Y", Qty: qty("1")},
		},
	})
	require.NoError(t, err)

	_, err = f.eng.ReceivePurchase(ctx, PurchaseRequest{
		StoreID:    f.store.ID,
		SupplierID: f.supplier.ID,
		Lines: []PurchaseLine{
			{SKU: "X", Qty: qty("10"), UnitCost: types.Known(money("2.00"))},
			{SKU: "Y", Qty: qty("10"), UnitCost: types.Known(money("1.00"))},
		},
	})
	require.NoError(t, err)
	before := f.costOfX(t)
	revision := f.eng.Revision()

	f.eng.orders = order.NewService(order.Config{
		Repo:      memory.NewOrderRepo(f.eng.db),
		Ledger:    failingLedger{next: f.eng.ledger, product: y.ID},
		Catalog:   f.eng.catalog,
		Numerator: numerator.New(f.eng.db),
		TxManager: f.eng.tx,
		Now:       f.eng.opts.Clock,
	})

	req := f.sale("1")
	req.MenuItemSKU = "COMBO"
	_, err = f.eng.RecordSale(ctx, req)
	require.ErrorIs(t, err, errLedgerDown)

	entries := f.entriesOfX()
	require.Len(t, entries, 1, "the X consumption is rolled back")
	assert.Equal(t, entity.ReasonPurchase, entries[0].Reason)

	after := f.costOfX(t)
	assert.True(t, before.QtyOnHand.Equal(after.QtyOnHand))
	assert.Equal(t, before.LastSeq, after.LastSeq)
	assert.Len(t, slices.Collect(f.eng.AllLedgerEntries(ctx)), 2)

	orders, err := f.eng.Orders(ctx, order.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, revision, f.eng.Revision())
}

func TestRecordSale_FreeItemWithPayment(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	f.receive(t, "10", "2.00")

	_, err := f.eng.AddMenuItem(ctx, catalog.MenuItemInput{
		SKU:    "FREE",
		Name:   "Staff meal",
		Price:  money("0.00"),
		Recipe: []catalog.RecipeLine{{SKU: "X", Qty: qty("1")}},
	})
	require.NoError(t, err)

	req := f.sale("1")
	req.MenuItemSKU = "FREE"
	req.Payment = &PaymentRequest{Method: order.MethodCash}
	summary, err := f.eng.RecordSale(ctx, req)
	require.NoError(t, err)

	assertMoney(t, "0", summary.Revenue)
	assertMoney(t, "2.00", summary.Cogs)
	assertMoney(t, "9", f.costOfX(t).QtyOnHand)

	details, err := f.eng.Order(ctx, summary.OrderID)
	require.NoError(t, err)
	assert.Empty(t, details.Payments)
}

func TestRecordSale_ExplicitNegativePaymentFails(t *testing.T) {
	f := newFixture(t, Options{})
	f.receive(t, "10", "2.00")

	req := f.sale("1")
	req.Payment = &PaymentRequest{Method: order.MethodCash, Amount: money("-1.00")}
	_, err := f.eng.RecordSale(context.Background(), req)
	require.Error(t, err)
	assert.Len(t, f.entriesOfX(), 1)
}
