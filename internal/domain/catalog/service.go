package catalog

import (
	"context"
	"fmt"
	"strings"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/core/tx"
	"trailerpos/internal/core/types"
	"trailerpos/pkg/logger"
)

// Service provides administrative operations on reference data.
type Service struct {
	repo      Repository
	txManager tx.Manager

	// defaultTaxCode is used by AddMenuItem when no tax rate is given
	defaultTaxCode string
}

// NewService creates a new catalog service.
func NewService(repo Repository, txManager tx.Manager, defaultTaxCode string) *Service {
	return &Service{
		repo:           repo,
		txManager:      txManager,
		defaultTaxCode: defaultTaxCode,
	}
}

func normalizeValidationErr(err error) error {
	if err == nil || apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

// create validates v and stores it in a transaction.
func create[T entity.Validatable](ctx context.Context, s *Service, v T, kind string, store func(ctx context.Context, v T) error) error {
	if err := v.Validate(ctx); err != nil {
		return normalizeValidationErr(err)
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := store(ctx, v); err != nil {
			return fmt.Errorf("create %s: %w", kind, err)
		}
		return nil
	})
}

// --- Stores & cashiers ---

// CreateStore creates a store.
func (s *Service) CreateStore(ctx context.Context, st *Store) error {
	return create(ctx, s, st, "store", s.repo.CreateStore)
}

// GetStore returns a store by ID.
func (s *Service) GetStore(ctx context.Context, storeID id.ID) (*Store, error) {
	return s.repo.GetStore(ctx, storeID)
}

// GetStoreByCode returns a store by code.
func (s *Service) GetStoreByCode(ctx context.Context, code string) (*Store, error) {
	return s.repo.GetStoreByCode(ctx, strings.TrimSpace(code))
}

// ListStores returns all stores in creation order.
func (s *Service) ListStores(ctx context.Context) ([]*Store, error) {
	return s.repo.ListStores(ctx)
}

// CreateCashier creates a cashier of an existing store.
func (s *Service) CreateCashier(ctx context.Context, c *Cashier) error {
	return create(ctx, s, c, "cashier", func(ctx context.Context, c *Cashier) error {
		if _, err := s.repo.GetStore(ctx, c.StoreID); err != nil {
			return err
		}
		return s.repo.CreateCashier(ctx, c)
	})
}

// GetCashier returns a cashier by ID.
func (s *Service) GetCashier(ctx context.Context, cashierID id.ID) (*Cashier, error) {
	return s.repo.GetCashier(ctx, cashierID)
}

// GetCashierByUsername returns a cashier by login name.
func (s *Service) GetCashierByUsername(ctx context.Context, username string) (*Cashier, error) {
	return s.repo.GetCashierByUsername(ctx, strings.TrimSpace(username))
}

// --- Tax rates, units, categories ---

// CreateTaxRate creates a tax rate.
func (s *Service) CreateTaxRate(ctx context.Context, t *TaxRate) error {
	return create(ctx, s, t, "tax rate", s.repo.CreateTaxRate)
}

// GetTaxRate returns a tax rate by ID.
func (s *Service) GetTaxRate(ctx context.Context, taxRateID id.ID) (*TaxRate, error) {
	return s.repo.GetTaxRate(ctx, taxRateID)
}

// CreateUnit creates a unit of measure.
func (s *Service) CreateUnit(ctx context.Context, u *Unit) error {
	return create(ctx, s, u, "unit", s.repo.CreateUnit)
}

// CreateCategory creates a category.
func (s *Service) CreateCategory(ctx context.Context, c *Category) error {
	return create(ctx, s, c, "category", s.repo.CreateCategory)
}

// --- Products ---

// CreateProduct creates a product. Its unit must exist.
func (s *Service) CreateProduct(ctx context.Context, p *Product) error {
	return create(ctx, s, p, "product", func(ctx context.Context, p *Product) error {
		if _, err := s.repo.GetUnitByCode(ctx, p.Unit); err != nil {
			return err
		}
		return s.repo.CreateProduct(ctx, p)
	})
}

// GetProduct returns a product by ID.
func (s *Service) GetProduct(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetProduct(ctx, productID)
}

// GetProductBySKU returns a product by SKU.
func (s *Service) GetProductBySKU(ctx context.Context, sku string) (*Product, error) {
	return s.repo.GetProductBySKU(ctx, strings.TrimSpace(sku))
}

// ListProducts returns all products in creation order.
func (s *Service) ListProducts(ctx context.Context) ([]*Product, error) {
	return s.repo.ListProducts(ctx)
}

// --- Menu items & recipes ---

// RecipeLine is one ingredient of AddMenuItem given by SKU.
type RecipeLine struct {
	SKU string
	Qty types.Quantity
}

// MenuItemInput describes a menu item created together with its recipe.
type MenuItemInput struct {
	SKU   string
	Name  string
	Price types.Money

	// TaxRateCode defaults to the configured default tax rate
	TaxRateCode string

	Recipe []RecipeLine
}

// AddMenuItem creates a menu item and its recipe in one transaction.
// Every recipe SKU must name an existing product.
func (s *Service) AddMenuItem(ctx context.Context, in MenuItemInput) (*MenuItem, error) {
	var item *MenuItem
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		taxCode := in.TaxRateCode
		if taxCode == "" {
			taxCode = s.defaultTaxCode
		}
		rate, err := s.repo.GetTaxRateByCode(ctx, taxCode)
		if err != nil {
			return err
		}

		item = NewMenuItem(in.SKU, in.Name, in.Price, rate.ID)
		if err := s.CreateMenuItem(ctx, item); err != nil {
			return err
		}

		components := make([]RecipeComponent, 0, len(in.Recipe))
		for _, line := range in.Recipe {
			p, err := s.repo.GetProductBySKU(ctx, strings.TrimSpace(line.SKU))
			if err != nil {
				return err
			}
			components = append(components, RecipeComponent{ProductID: p.ID, QtyPerYield: line.Qty})
		}
		_, err = s.SetRecipe(ctx, item.ID, components)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "menu item added",
		"sku", item.Code,
		"price", item.Price.String(),
		"components", len(in.Recipe))

	return item, nil
}

// CreateMenuItem creates a menu item without a recipe.
func (s *Service) CreateMenuItem(ctx context.Context, m *MenuItem) error {
	return create(ctx, s, m, "menu item", func(ctx context.Context, m *MenuItem) error {
		if _, err := s.repo.GetTaxRate(ctx, m.TaxRateID); err != nil {
			return err
		}
		return s.repo.CreateMenuItem(ctx, m)
	})
}

// GetMenuItem returns a menu item by ID.
func (s *Service) GetMenuItem(ctx context.Context, menuItemID id.ID) (*MenuItem, error) {
	return s.repo.GetMenuItem(ctx, menuItemID)
}

// GetMenuItemBySKU returns a menu item by SKU.
func (s *Service) GetMenuItemBySKU(ctx context.Context, sku string) (*MenuItem, error) {
	return s.repo.GetMenuItemBySKU(ctx, strings.TrimSpace(sku))
}

// ListMenuItems returns all menu items in creation order.
func (s *Service) ListMenuItems(ctx context.Context) ([]*MenuItem, error) {
	return s.repo.ListMenuItems(ctx)
}

// SetRecipe replaces the recipe of a menu item.
func (s *Service) SetRecipe(ctx context.Context, menuItemID id.ID, components []RecipeComponent) (*Recipe, error) {
	r := NewRecipe(menuItemID, components)
	if err := r.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetMenuItem(ctx, menuItemID); err != nil {
			return err
		}
		for _, c := range components {
			if _, err := s.repo.GetProduct(ctx, c.ProductID); err != nil {
				return err
			}
		}
		if existing, err := s.repo.GetRecipeByMenuItem(ctx, menuItemID); err == nil {
			r.ID = existing.ID
			r.Version = existing.Version + 1
		} else if !apperror.IsNotFound(err) {
			return err
		}
		return s.repo.SaveRecipe(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetRecipe returns the recipe of a menu item.
func (s *Service) GetRecipe(ctx context.Context, menuItemID id.ID) (*Recipe, error) {
	return s.repo.GetRecipeByMenuItem(ctx, menuItemID)
}

// --- Modifiers ---

// CreateModifierGroup creates a modifier group.
func (s *Service) CreateModifierGroup(ctx context.Context, g *ModifierGroup) error {
	return create(ctx, s, g, "modifier group", s.repo.CreateModifierGroup)
}

// GetModifierGroup returns a modifier group by ID.
func (s *Service) GetModifierGroup(ctx context.Context, groupID id.ID) (*ModifierGroup, error) {
	return s.repo.GetModifierGroup(ctx, groupID)
}

// CreateModifierOption creates an option of an existing group.
func (s *Service) CreateModifierOption(ctx context.Context, o *ModifierOption) error {
	return create(ctx, s, o, "modifier option", func(ctx context.Context, o *ModifierOption) error {
		if _, err := s.repo.GetModifierGroup(ctx, o.GroupID); err != nil {
			return err
		}
		if o.IngredientID != nil {
			if _, err := s.repo.GetProduct(ctx, *o.IngredientID); err != nil {
				return err
			}
		}
		return s.repo.CreateModifierOption(ctx, o)
	})
}

// GetModifierOption returns a modifier option by ID.
func (s *Service) GetModifierOption(ctx context.Context, optionID id.ID) (*ModifierOption, error) {
	return s.repo.GetModifierOption(ctx, optionID)
}

// LinkModifierGroup offers a modifier group with a menu item. Linking twice is a no-op.
func (s *Service) LinkModifierGroup(ctx context.Context, menuItemID, groupID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetMenuItem(ctx, menuItemID)
		if err != nil {
			return err
		}
		if _, err := s.repo.GetModifierGroup(ctx, groupID); err != nil {
			return err
		}
		if item.OffersGroup(groupID) {
			return nil
		}
		item.ModifierGroupIDs = append(item.ModifierGroupIDs, groupID)
		item.Touch()
		return s.repo.UpdateMenuItem(ctx, item)
	})
}

// --- Suppliers ---

// CreateSupplier creates a supplier.
func (s *Service) CreateSupplier(ctx context.Context, sup *Supplier) error {
	return create(ctx, s, sup, "supplier", s.repo.CreateSupplier)
}

// GetSupplier returns a supplier by ID.
func (s *Service) GetSupplier(ctx context.Context, supplierID id.ID) (*Supplier, error) {
	return s.repo.GetSupplier(ctx, supplierID)
}

// GetSupplierByCode returns a supplier by code.
func (s *Service) GetSupplierByCode(ctx context.Context, code string) (*Supplier, error) {
	return s.repo.GetSupplierByCode(ctx, strings.TrimSpace(code))
}

// --- Ledger dimensions ---

// StoreExists reports whether the store is known.
func (s *Service) StoreExists(ctx context.Context, storeID id.ID) (bool, error) {
	return exists(s.repo.GetStore(ctx, storeID))
}

// ProductExists reports whether the product is known.
func (s *Service) ProductExists(ctx context.Context, productID id.ID) (bool, error) {
	return exists(s.repo.GetProduct(ctx, productID))
}

func exists[T any](_ *T, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case apperror.IsNotFound(err):
		return false, nil
	default:
		return false, err
	}
}
