package catalog

import (
	"context"

	"trailerpos/internal/core/id"
)

// Repository persists catalog entries.
// Get methods return an apperror NotFound when the entry does not exist,
// Create methods return an apperror Duplicate when the unique key is taken.
type Repository interface {
	CreateStore(ctx context.Context, s *Store) error
	GetStore(ctx context.Context, storeID id.ID) (*Store, error)
	GetStoreByCode(ctx context.Context, code string) (*Store, error)
	ListStores(ctx context.Context) ([]*Store, error)

	CreateCashier(ctx context.Context, c *Cashier) error
	GetCashier(ctx context.Context, cashierID id.ID) (*Cashier, error)
	GetCashierByUsername(ctx context.Context, username string) (*Cashier, error)

	CreateTaxRate(ctx context.Context, t *TaxRate) error
	GetTaxRate(ctx context.Context, taxRateID id.ID) (*TaxRate, error)
	GetTaxRateByCode(ctx context.Context, code string) (*TaxRate, error)

	CreateUnit(ctx context.Context, u *Unit) error
	GetUnitByCode(ctx context.Context, code string) (*Unit, error)

	CreateCategory(ctx context.Context, c *Category) error

	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, productID id.ID) (*Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*Product, error)
	ListProducts(ctx context.Context) ([]*Product, error)

	CreateMenuItem(ctx context.Context, m *MenuItem) error
	UpdateMenuItem(ctx context.Context, m *MenuItem) error
	GetMenuItem(ctx context.Context, menuItemID id.ID) (*MenuItem, error)
	GetMenuItemBySKU(ctx context.Context, sku string) (*MenuItem, error)
	ListMenuItems(ctx context.Context) ([]*MenuItem, error)

	// SaveRecipe replaces the recipe of r.MenuItemID
	SaveRecipe(ctx context.Context, r *Recipe) error
	GetRecipeByMenuItem(ctx context.Context, menuItemID id.ID) (*Recipe, error)

	CreateModifierGroup(ctx context.Context, g *ModifierGroup) error
	GetModifierGroup(ctx context.Context, groupID id.ID) (*ModifierGroup, error)

	CreateModifierOption(ctx context.Context, o *ModifierOption) error
	GetModifierOption(ctx context.Context, optionID id.ID) (*ModifierOption, error)

	CreateSupplier(ctx context.Context, s *Supplier) error
	GetSupplier(ctx context.Context, supplierID id.ID) (*Supplier, error)
	GetSupplierByCode(ctx context.Context, code string) (*Supplier, error)
}
