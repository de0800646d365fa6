package memory

import (
	"context"
	"fmt"
	"maps"
	"time"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/core/id"
	"trailerpos/internal/core/types"
	"trailerpos/internal/infrastructure/snapshot"
)

// Export copies the complete state into a snapshot document.
func (db *DB) Export(ctx context.Context, exportedAt time.Time) (*snapshot.Document, error) {
	doc := &snapshot.Document{
		Version:    snapshot.FormatVersion,
		ExportedAt: exportedAt.UTC(),
	}
	err := db.view(ctx, func(st *state) error {
		doc.Catalog = snapshot.Catalog{
			Stores:          st.stores.all(),
			Cashiers:        st.cashiers.all(),
			TaxRates:        st.taxRates.all(),
			Units:           st.units.all(),
			Categories:      st.categories.all(),
			Products:        st.products.all(),
			MenuItems:       st.menuItems.all(),
			Recipes:         st.recipes.all(),
			ModifierGroups:  st.groups.all(),
			ModifierOptions: st.options.all(),
			Suppliers:       st.suppliers.all(),
		}
		doc.Orders = st.orders.all()
		doc.Lines = st.lines.all()
		doc.Modifiers = st.modifiers.all()
		doc.Payments = st.payments.all()
		doc.Purchases = st.purchases.all()
		doc.Waste = st.waste.all()
		doc.Ledger = st.ledger.pick(allPositions(len(st.ledger.entries)))
		doc.CostStates = st.costs.all()
		doc.Sequences = maps.Clone(st.sequences)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func allPositions(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// NewDBFromSnapshot builds a store holding the catalog, documents and
// sequences of doc. The ledger and cost state are left empty and every
// order starts with zero COGS so both can be rebuilt by replaying
// doc.Ledger through the stock service.
func NewDBFromSnapshot(doc *snapshot.Document) (*DB, error) {
	db := NewDB()
	st := db.st
	load := &Tx{db: db}

	err := loadAll(load, st.stores, doc.Catalog.Stores, func(i int) (id.ID, string) {
		return doc.Catalog.Stores[i].ID, doc.Catalog.Stores[i].Code
	})
	if err == nil {
		err = loadAll(load, st.cashiers, doc.Catalog.Cashiers, func(i int) (id.ID, string) {
			return doc.Catalog.Cashiers[i].ID, doc.Catalog.Cashiers[i].Username
		})
	}
	if err == nil {
		err = loadAll(load, st.taxRates, doc.Catalog.TaxRates, func(i int) (id.ID, string) {
			return doc.Catalog.TaxRates[i].ID, doc.Catalog.TaxRates[i].Code
		})
	}
	if err == nil {
		err = loadAll(load, st.units, doc.Catalog.Units, func(i int) (id.ID, string) {
			return doc.Catalog.Units[i].ID, doc.Catalog.Units[i].Code
		})
	}
	if err == nil {
		err = loadAll(load, st.categories, doc.Catalog.Categories, func(i int) (id.ID, string) {
			return doc.Catalog.Categories[i].ID, doc.Catalog.Categories[i].Code
		})
	}
	if err == nil {
		err = loadAll(load, st.products, doc.Catalog.Products, func(i int) (id.ID, string) {
			return doc.Catalog.Products[i].ID, doc.Catalog.Products[i].Code
		})
	}
	if err == nil {
		err = loadAll(load, st.menuItems, doc.Catalog.MenuItems, func(i int) (id.ID, string) {
			return doc.Catalog.MenuItems[i].ID, doc.Catalog.MenuItems[i].Code
		})
	}
	if err == nil {
		err = loadAll(load, st.recipes, doc.Catalog.Recipes, func(i int) (id.ID, string) {
			return doc.Catalog.Recipes[i].MenuItemID, ""
		})
	}
	if err == nil {
		err = loadAll(load, st.groups, doc.Catalog.ModifierGroups, func(i int) (id.ID, string) {
			return doc.Catalog.ModifierGroups[i].ID, doc.Catalog.ModifierGroups[i].Name
		})
	}
	if err == nil {
		err = loadAll(load, st.options, doc.Catalog.ModifierOptions, func(i int) (id.ID, string) {
			o := doc.Catalog.ModifierOptions[i]
			return o.ID, o.GroupID.String() + "/" + o.Name
		})
	}
	if err == nil {
		err = loadAll(load, st.suppliers, doc.Catalog.Suppliers, func(i int) (id.ID, string) {
			return doc.Catalog.Suppliers[i].ID, doc.Catalog.Suppliers[i].Code
		})
	}
	if err == nil {
		for _, o := range doc.Orders {
			o.CogsTotal = types.Zero()
			if err = st.orders.insert(load, o.ID, o.Number, o); err != nil {
				break
			}
		}
	}
	if err == nil {
		for _, l := range doc.Lines {
			if !st.orders.has(l.OrderID) {
				err = apperror.NewNotFound("order", l.OrderID.String())
				break
			}
			if err = st.lines.insert(load, l.ID, "", l); err != nil {
				break
			}
			st.linesByOrder.add(load, l.OrderID, l.ID)
		}
	}
	if err == nil {
		for _, m := range doc.Modifiers {
			if !st.lines.has(m.LineID) {
				err = apperror.NewNotFound("order line", m.LineID.String())
				break
			}
			if err = st.modifiers.insert(load, m.ID, "", m); err != nil {
				break
			}
			st.modsByLine.add(load, m.LineID, m.ID)
		}
	}
	if err == nil {
		for _, p := range doc.Payments {
			if !st.orders.has(p.OrderID) {
				err = apperror.NewNotFound("order", p.OrderID.String())
				break
			}
			if err = st.payments.insert(load, p.ID, "", p); err != nil {
				break
			}
			st.paymentsByOrdr.add(load, p.OrderID, p.ID)
		}
	}
	if err == nil {
		err = loadAll(load, st.purchases, doc.Purchases, func(i int) (id.ID, string) {
			return doc.Purchases[i].ID, doc.Purchases[i].Number
		})
	}
	if err == nil {
		err = loadAll(load, st.waste, doc.Waste, func(i int) (id.ID, string) {
			return doc.Waste[i].ID, doc.Waste[i].Number
		})
	}
	if err != nil {
		return nil, apperror.NewValidation(fmt.Sprintf("snapshot is inconsistent: %v", err)).WithCause(err)
	}

	if doc.Sequences != nil {
		st.sequences = maps.Clone(doc.Sequences)
	}
	return db, nil
}

// loadAll inserts rows; key returns the ID and unique key of rows[i].
func loadAll[T any](load *Tx, t *table[T], rows []T, key func(i int) (id.ID, string)) error {
	for i, v := range rows {
		rowID, k := key(i)
		if err := t.insert(load, rowID, k, v); err != nil {
			return err
		}
	}
	return nil
}
