package main

import (
	"context"

	"trailerpos/internal/core/types"
	"trailerpos/internal/domain/auth"
	"trailerpos/internal/domain/catalog"
	"trailerpos/internal/engine"
)

// Demo catalog codes.
const (
	demoStore    = "T1"
	demoCashier  = "cashier1"
	demoSupplier = "ACME"
	demoBurger   = "BRGR"
)

type demoIngredient struct {
	sku, name, unit string
	perBurger       string
}

var demoIngredients = []demoIngredient{
	{"BUN", "Burger Bun", "pcs", "1"},
	{"PATTY", "Beef Patty", "g", "100"},
	{"CHEESE-SL", "Cheese Slice", "slice", "1"},
	{"ONION", "Onion", "g", "20"},
}

// seedDemo writes the demo trailer in one transaction: a store, a cashier
// who may also manage, the standard tax rate, four ingredients, a burger
// made of them and an extra cheese option for it.
func seedDemo(ctx context.Context, eng *engine.Engine, pin string) error {
	hash, err := auth.HashPIN(pin)
	if err != nil {
		return err
	}

	return eng.Define(ctx, func(ctx context.Context, c *catalog.Service) error {
		store := catalog.NewStore(demoStore, "Trailer-1")
		if err := c.CreateStore(ctx, store); err != nil {
			return err
		}

		cashier := catalog.NewCashier(store.ID, demoCashier, "Front Cashier")
		cashier.PinHash = hash
		cashier.Roles = []string{"cashier", "manager"}
		if err := c.CreateCashier(ctx, cashier); err != nil {
			return err
		}

		if err := c.CreateTaxRate(ctx, catalog.NewTaxRate(engine.DefaultTaxCode, "Standard 21%", types.MustMoney("0.21"))); err != nil {
			return err
		}
		for _, u := range []struct{ code, name string }{
			{"kg", "Kilogram"}, {"g", "Gram"}, {"pcs", "Pieces"}, {"slice", "Slice"},
		} {
			if err := c.CreateUnit(ctx, catalog.NewUnit(u.code, u.name)); err != nil {
				return err
			}
		}

		ingredients := catalog.NewCategory("ING", "Ingredients")
		if err := c.CreateCategory(ctx, ingredients); err != nil {
			return err
		}
		recipe := make([]catalog.RecipeLine, 0, len(demoIngredients))
		for _, in := range demoIngredients {
			p := catalog.NewProduct(in.sku, in.name, in.unit)
			p.CategoryID = &ingredients.ID
			if err := c.CreateProduct(ctx, p); err != nil {
				return err
			}
			recipe = append(recipe, catalog.RecipeLine{SKU: in.sku, Qty: types.MustQuantity(in.perBurger)})
		}

		if err := c.CreateSupplier(ctx, catalog.NewSupplier(demoSupplier, "Acme")); err != nil {
			return err
		}

		burger, err := c.AddMenuItem(ctx, catalog.MenuItemInput{
			SKU:    demoBurger,
			Name:   "Classic Burger",
			Price:  types.MustMoney("8.00"),
			Recipe: recipe,
		})
		if err != nil {
			return err
		}

		extras := catalog.NewModifierGroup("Extras")
		if err := c.CreateModifierGroup(ctx, extras); err != nil {
			return err
		}
		cheese, err := c.GetProductBySKU(ctx, "CHEESE-SL")
		if err != nil {
			return err
		}
		extraCheese := catalog.NewModifierOption(extras.ID, "Extra cheese", types.MustMoney("0.50"))
		extraCheese.IngredientID = &cheese.ID
		extraCheese.QtyDelta = types.MustQuantity("1")
		if err := c.CreateModifierOption(ctx, extraCheese); err != nil {
			return err
		}
		return c.LinkModifierGroup(ctx, burger.ID, extras.ID)
	})
}
