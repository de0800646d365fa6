// Package catalog provides the reference data of the outlet:
// stores, cashiers, tax rates, units, products, menu items, recipes,
// modifiers and suppliers.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/core/types"
)

// DefaultPrintGroup is the kitchen ticket group of a new menu item.
const DefaultPrintGroup = "KITCHEN"

// Store is a selling location. Every ledger entry and document belongs to one.
type Store struct {
	entity.Catalog
}

// NewStore creates a store.
func NewStore(code, name string) *Store {
	return &Store{Catalog: entity.NewCatalog(code, name)}
}

// Cashier is an operator who can open orders.
type Cashier struct {
	entity.BaseEntity

	Username string `json:"username"`
	FullName string `json:"fullName,omitempty"`

	// PinHash is a bcrypt hash of the login PIN
	PinHash string `json:"pinHash,omitempty"`

	StoreID id.ID    `json:"storeId"`
	Roles   []string `json:"roles,omitempty"`
	Active  bool     `json:"active"`
}

// NewCashier creates an active cashier.
func NewCashier(storeID id.ID, username, fullName string) *Cashier {
	return &Cashier{
		BaseEntity: entity.NewBaseEntity(),
		Username:   strings.TrimSpace(username),
		FullName:   strings.TrimSpace(fullName),
		StoreID:    storeID,
		Active:     true,
	}
}

// Validate implements entity.Validatable.
func (c *Cashier) Validate(ctx context.Context) error {
	if c.Username == "" {
		return apperror.NewValidation("username is required").
			WithDetail("field", "username")
	}
	if id.IsNil(c.StoreID) {
		return apperror.NewValidation("store is required").
			WithDetail("field", "storeId")
	}
	return nil
}

// TaxRate is a named sales tax percentage expressed as a fraction (0.21).
type TaxRate struct {
	entity.Catalog

	Rate types.Money `json:"rate"`
}

// NewTaxRate creates a tax rate.
func NewTaxRate(code, name string, rate types.Money) *TaxRate {
	return &TaxRate{Catalog: entity.NewCatalog(code, name), Rate: rate}
}

// Validate implements entity.Validatable.
func (t *TaxRate) Validate(ctx context.Context) error {
	if err := t.Catalog.Validate(ctx); err != nil {
		return err
	}
	if t.Rate.IsNegative() {
		return apperror.NewValidation("tax rate cannot be negative").
			WithDetail("field", "rate").
			WithDetail("value", t.Rate.String())
	}
	return nil
}

// Unit is a unit of measure (kg, g, pcs, slice).
type Unit struct {
	entity.Catalog
}

// NewUnit creates a unit of measure.
func NewUnit(code, name string) *Unit {
	return &Unit{Catalog: entity.NewCatalog(code, name)}
}

// Category groups products and menu items for display.
type Category struct {
	entity.Catalog
}

// NewCategory creates a category.
func NewCategory(code, name string) *Category {
	return &Category{Catalog: entity.NewCatalog(code, name)}
}

// Product is a stocked item. Ingredients are consumed by recipes.
// Code holds the SKU.
type Product struct {
	entity.Catalog

	// Unit is the code of the base unit every ledger quantity is expressed in
	Unit string `json:"unit"`

	CategoryID   *id.ID `json:"categoryId,omitempty"`
	TaxRateID    *id.ID `json:"taxRateId,omitempty"`
	IsIngredient bool   `json:"isIngredient"`

	// Purchasing hints, informational only
	PurchaseUnit   string         `json:"purchaseUnit,omitempty"`
	ConversionHint types.Quantity `json:"conversionHint"`
}

// NewProduct creates an active ingredient product.
func NewProduct(sku, name, unit string) *Product {
	return &Product{
		Catalog:      entity.NewCatalog(sku, name),
		Unit:         strings.TrimSpace(unit),
		IsIngredient: true,
	}
}

// SKU returns the product code.
func (p *Product) SKU() string { return p.Code }

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}
	if p.Unit == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}
	return nil
}

// MenuItem is a sellable item. Code holds the SKU.
type MenuItem struct {
	entity.Catalog

	Price      types.Money `json:"price"`
	TaxRateID  id.ID       `json:"taxRateId"`
	CategoryID *id.ID      `json:"categoryId,omitempty"`
	PrintGroup string      `json:"printGroup"`

	// ModifierGroupIDs are the modifier groups offered with this item
	ModifierGroupIDs []id.ID `json:"modifierGroupIds,omitempty"`
}

// NewMenuItem creates an active menu item.
func NewMenuItem(sku, name string, price types.Money, taxRateID id.ID) *MenuItem {
	return &MenuItem{
		Catalog:    entity.NewCatalog(sku, name),
		Price:      price,
		TaxRateID:  taxRateID,
		PrintGroup: DefaultPrintGroup,
	}
}

// SKU returns the menu item code.
func (m *MenuItem) SKU() string { return m.Code }

// OffersGroup reports whether the modifier group is linked to the item.
func (m *MenuItem) OffersGroup(groupID id.ID) bool {
	for _, g := range m.ModifierGroupIDs {
		if g == groupID {
			return true
		}
	}
	return false
}

// Validate implements entity.Validatable.
func (m *MenuItem) Validate(ctx context.Context) error {
	if err := m.Catalog.Validate(ctx); err != nil {
		return err
	}
	if m.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").
			WithDetail("field", "price")
	}
	if id.IsNil(m.TaxRateID) {
		return apperror.NewValidation("tax rate is required").
			WithDetail("field", "taxRateId")
	}
	return nil
}

// RecipeComponent is one ingredient of a recipe.
type RecipeComponent struct {
	ProductID   id.ID          `json:"productId"`
	QtyPerYield types.Quantity `json:"qtyPerYield"`
	Note        string         `json:"note,omitempty"`
}

// Recipe lists the ingredients consumed by one sold unit of a menu item.
type Recipe struct {
	entity.BaseEntity

	MenuItemID id.ID             `json:"menuItemId"`
	YieldQty   types.Quantity    `json:"yieldQty"`
	Components []RecipeComponent `json:"components"`
}

// NewRecipe creates a recipe with yield 1.
func NewRecipe(menuItemID id.ID, components []RecipeComponent) *Recipe {
	return &Recipe{
		BaseEntity: entity.NewBaseEntity(),
		MenuItemID: menuItemID,
		YieldQty:   types.NewQuantity(1),
		Components: components,
	}
}

// Validate implements entity.Validatable.
func (r *Recipe) Validate(ctx context.Context) error {
	if id.IsNil(r.MenuItemID) {
		return apperror.NewValidation("menu item is required").
			WithDetail("field", "menuItemId")
	}
	if !r.YieldQty.IsPositive() {
		return apperror.NewValidation("yield must be positive").
			WithDetail("field", "yieldQty")
	}
	for i, c := range r.Components {
		if id.IsNil(c.ProductID) {
			return apperror.NewValidation(fmt.Sprintf("component %d: ingredient is required", i+1)).
				WithDetail("field", "components")
		}
		if !c.QtyPerYield.IsPositive() {
			return apperror.NewValidation(fmt.Sprintf("component %d: quantity must be positive", i+1)).
				WithDetail("field", "components").
				WithDetail("value", c.QtyPerYield.String())
		}
	}
	return nil
}

// ModifierGroup bundles options offered together ("Extras", "Sauces").
type ModifierGroup struct {
	entity.BaseEntity

	Name      string `json:"name"`
	MinSelect int    `json:"minSelect"`
	MaxSelect int    `json:"maxSelect"`
}

// NewModifierGroup creates a group allowing up to three options.
func NewModifierGroup(name string) *ModifierGroup {
	return &ModifierGroup{
		BaseEntity: entity.NewBaseEntity(),
		Name:       strings.TrimSpace(name),
		MaxSelect:  3,
	}
}

// Validate implements entity.Validatable.
func (g *ModifierGroup) Validate(ctx context.Context) error {
	if g.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if g.MinSelect < 0 || g.MaxSelect < g.MinSelect {
		return apperror.NewValidation("invalid selection bounds").
			WithDetail("minSelect", g.MinSelect).
			WithDetail("maxSelect", g.MaxSelect)
	}
	return nil
}

// ModifierOption is one choice within a group. It may change the price and,
// when IngredientID is set, consume QtyDelta of an ingredient per line unit.
type ModifierOption struct {
	entity.BaseEntity

	GroupID      id.ID          `json:"groupId"`
	Name         string         `json:"name"`
	PriceDelta   types.Money    `json:"priceDelta"`
	IngredientID *id.ID         `json:"ingredientId,omitempty"`
	QtyDelta     types.Quantity `json:"qtyDelta"`
}

// NewModifierOption creates an option.
func NewModifierOption(groupID id.ID, name string, priceDelta types.Money) *ModifierOption {
	return &ModifierOption{
		BaseEntity: entity.NewBaseEntity(),
		GroupID:    groupID,
		Name:       strings.TrimSpace(name),
		PriceDelta: priceDelta,
	}
}

// Consumes reports whether choosing the option writes a ledger entry.
func (o *ModifierOption) Consumes() bool {
	return o.IngredientID != nil && !o.QtyDelta.IsZero()
}

// Validate implements entity.Validatable.
func (o *ModifierOption) Validate(ctx context.Context) error {
	if id.IsNil(o.GroupID) {
		return apperror.NewValidation("modifier group is required").
			WithDetail("field", "groupId")
	}
	if o.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}

// Supplier delivers purchases. Names are unique.
type Supplier struct {
	entity.Catalog

	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// NewSupplier creates a supplier.
func NewSupplier(code, name string) *Supplier {
	return &Supplier{Catalog: entity.NewCatalog(code, name)}
}
