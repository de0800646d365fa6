package memory

import (
	"context"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/core/id"
	"trailerpos/internal/domain/catalog"
)

// Compile-time check that CatalogRepo implements catalog.Repository.
var _ catalog.Repository = (*CatalogRepo)(nil)

// CatalogRepo stores the reference data.
type CatalogRepo struct {
	db *DB
}

// NewCatalogRepo creates a new catalog repository.
func NewCatalogRepo(db *DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

// insertInto stores a copy of *v under the given unique key.
func insertInto[T any](ctx context.Context, db *DB, pick func(*state) *table[T], rowID id.ID, key string, v *T) error {
	tx, err := db.writeTx(ctx)
	if err != nil {
		return err
	}
	return pick(db.st).insert(tx, rowID, key, *v)
}

// getFrom reads a copy of one row.
func getFrom[T any](ctx context.Context, db *DB, pick func(*state) *table[T], read func(t *table[T]) (T, error)) (*T, error) {
	var out T
	err := db.view(ctx, func(st *state) error {
		v, err := read(pick(st))
		out = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// listFrom reads copies of every row.
func listFrom[T any](ctx context.Context, db *DB, pick func(*state) *table[T]) ([]*T, error) {
	var out []*T
	err := db.view(ctx, func(st *state) error {
		rows := pick(st).all()
		out = make([]*T, len(rows))
		for i := range rows {
			out[i] = &rows[i]
		}
		return nil
	})
	return out, err
}

func byID[T any](rowID id.ID) func(t *table[T]) (T, error) {
	return func(t *table[T]) (T, error) { return t.get(rowID) }
}

func byCode[T any](code string) func(t *table[T]) (T, error) {
	return func(t *table[T]) (T, error) { return t.byKey(code) }
}

func stores(st *state) *table[catalog.Store]                 { return st.stores }
func cashiers(st *state) *table[catalog.Cashier]             { return st.cashiers }
func taxRates(st *state) *table[catalog.TaxRate]             { return st.taxRates }
func units(st *state) *table[catalog.Unit]                   { return st.units }
func categories(st *state) *table[catalog.Category]          { return st.categories }
func products(st *state) *table[catalog.Product]             { return st.products }
func menuItems(st *state) *table[catalog.MenuItem]           { return st.menuItems }
func recipes(st *state) *table[catalog.Recipe]               { return st.recipes }
func modifierGroups(st *state) *table[catalog.ModifierGroup] { return st.groups }
func modifierOptions(st *state) *table[catalog.ModifierOption] {
	return st.options
}
func suppliers(st *state) *table[catalog.Supplier] { return st.suppliers }

// --- Stores & cashiers ---

func (r *CatalogRepo) CreateStore(ctx context.Context, s *catalog.Store) error {
	return insertInto(ctx, r.db, stores, s.ID, s.Code, s)
}

func (r *CatalogRepo) GetStore(ctx context.Context, storeID id.ID) (*catalog.Store, error) {
	return getFrom(ctx, r.db, stores, byID[catalog.Store](storeID))
}

func (r *CatalogRepo) GetStoreByCode(ctx context.Context, code string) (*catalog.Store, error) {
	return getFrom(ctx, r.db, stores, byCode[catalog.Store](code))
}

func (r *CatalogRepo) ListStores(ctx context.Context) ([]*catalog.Store, error) {
	return listFrom(ctx, r.db, stores)
}

func (r *CatalogRepo) CreateCashier(ctx context.Context, c *catalog.Cashier) error {
	return insertInto(ctx, r.db, cashiers, c.ID, c.Username, c)
}

func (r *CatalogRepo) GetCashier(ctx context.Context, cashierID id.ID) (*catalog.Cashier, error) {
	return getFrom(ctx, r.db, cashiers, byID[catalog.Cashier](cashierID))
}

func (r *CatalogRepo) GetCashierByUsername(ctx context.Context, username string) (*catalog.Cashier, error) {
	return getFrom(ctx, r.db, cashiers, byCode[catalog.Cashier](username))
}

// --- Tax rates, units, categories ---

func (r *CatalogRepo) CreateTaxRate(ctx context.Context, t *catalog.TaxRate) error {
	return insertInto(ctx, r.db, taxRates, t.ID, t.Code, t)
}

func (r *CatalogRepo) GetTaxRate(ctx context.Context, taxRateID id.ID) (*catalog.TaxRate, error) {
	return getFrom(ctx, r.db, taxRates, byID[catalog.TaxRate](taxRateID))
}

func (r *CatalogRepo) GetTaxRateByCode(ctx context.Context, code string) (*catalog.TaxRate, error) {
	return getFrom(ctx, r.db, taxRates, byCode[catalog.TaxRate](code))
}

func (r *CatalogRepo) CreateUnit(ctx context.Context, u *catalog.Unit) error {
	return insertInto(ctx, r.db, units, u.ID, u.Code, u)
}

func (r *CatalogRepo) GetUnitByCode(ctx context.Context, code string) (*catalog.Unit, error) {
	return getFrom(ctx, r.db, units, byCode[catalog.Unit](code))
}

func (r *CatalogRepo) CreateCategory(ctx context.Context, c *catalog.Category) error {
	return insertInto(ctx, r.db, categories, c.ID, c.Code, c)
}

// --- Products ---

func (r *CatalogRepo) CreateProduct(ctx context.Context, p *catalog.Product) error {
	return insertInto(ctx, r.db, products, p.ID, p.Code, p)
}

func (r *CatalogRepo) GetProduct(ctx context.Context, productID id.ID) (*catalog.Product, error) {
	return getFrom(ctx, r.db, products, byID[catalog.Product](productID))
}

func (r *CatalogRepo) GetProductBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	return getFrom(ctx, r.db, products, byCode[catalog.Product](sku))
}

func (r *CatalogRepo) ListProducts(ctx context.Context) ([]*catalog.Product, error) {
	return listFrom(ctx, r.db, products)
}

// --- Menu items & recipes ---

func (r *CatalogRepo) CreateMenuItem(ctx context.Context, m *catalog.MenuItem) error {
	return insertInto(ctx, r.db, menuItems, m.ID, m.Code, m)
}

func (r *CatalogRepo) UpdateMenuItem(ctx context.Context, m *catalog.MenuItem) error {
	tx, err := r.db.writeTx(ctx)
	if err != nil {
		return err
	}
	return r.db.st.menuItems.update(tx, m.ID, *m)
}

func (r *CatalogRepo) GetMenuItem(ctx context.Context, menuItemID id.ID) (*catalog.MenuItem, error) {
	return getFrom(ctx, r.db, menuItems, byID[catalog.MenuItem](menuItemID))
}

func (r *CatalogRepo) GetMenuItemBySKU(ctx context.Context, sku string) (*catalog.MenuItem, error) {
	return getFrom(ctx, r.db, menuItems, byCode[catalog.MenuItem](sku))
}

func (r *CatalogRepo) ListMenuItems(ctx context.Context) ([]*catalog.MenuItem, error) {
	return listFrom(ctx, r.db, menuItems)
}

// SaveRecipe stores r as the only recipe of its menu item.
// Recipe rows are keyed by menu item.
func (r *CatalogRepo) SaveRecipe(ctx context.Context, rec *catalog.Recipe) error {
	tx, err := r.db.writeTx(ctx)
	if err != nil {
		return err
	}
	return r.db.st.recipes.upsert(tx, rec.MenuItemID, *rec)
}

func (r *CatalogRepo) GetRecipeByMenuItem(ctx context.Context, menuItemID id.ID) (*catalog.Recipe, error) {
	rec, err := getFrom(ctx, r.db, recipes, byID[catalog.Recipe](menuItemID))
	if apperror.IsNotFound(err) {
		return nil, apperror.NewNotFound("recipe", menuItemID.String()).
			WithDetail("menuItemId", menuItemID.String())
	}
	return rec, err
}

// --- Modifiers ---

func (r *CatalogRepo) CreateModifierGroup(ctx context.Context, g *catalog.ModifierGroup) error {
	return insertInto(ctx, r.db, modifierGroups, g.ID, g.Name, g)
}

func (r *CatalogRepo) GetModifierGroup(ctx context.Context, groupID id.ID) (*catalog.ModifierGroup, error) {
	return getFrom(ctx, r.db, modifierGroups, byID[catalog.ModifierGroup](groupID))
}

// CreateModifierOption stores an option. Names are unique within a group.
func (r *CatalogRepo) CreateModifierOption(ctx context.Context, o *catalog.ModifierOption) error {
	return insertInto(ctx, r.db, modifierOptions, o.ID, o.GroupID.String()+"/"+o.Name, o)
}

func (r *CatalogRepo) GetModifierOption(ctx context.Context, optionID id.ID) (*catalog.ModifierOption, error) {
	return getFrom(ctx, r.db, modifierOptions, byID[catalog.ModifierOption](optionID))
}

// --- Suppliers ---

// CreateSupplier stores a supplier. Both code and name are unique.
func (r *CatalogRepo) CreateSupplier(ctx context.Context, s *catalog.Supplier) error {
	tx, err := r.db.writeTx(ctx)
	if err != nil {
		return err
	}
	for _, existing := range r.db.st.suppliers.all() {
		if existing.Name == s.Name {
			return apperror.NewDuplicate("supplier", "name", s.Name)
		}
	}
	return r.db.st.suppliers.insert(tx, s.ID, s.Code, *s)
}

func (r *CatalogRepo) GetSupplier(ctx context.Context, supplierID id.ID) (*catalog.Supplier, error) {
	return getFrom(ctx, r.db, suppliers, byID[catalog.Supplier](supplierID))
}

func (r *CatalogRepo) GetSupplierByCode(ctx context.Context, code string) (*catalog.Supplier, error) {
	return getFrom(ctx, r.db, suppliers, byCode[catalog.Supplier](code))
}
