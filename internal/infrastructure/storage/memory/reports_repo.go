package memory

import (
	"context"

	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/domain/catalog"
	"trailerpos/internal/domain/documents/order"
	"trailerpos/internal/domain/reports"
)

// Compile-time check that ReportRepo implements reports.Repository.
var _ reports.Repository = (*ReportRepo)(nil)

// ReportRepo serves the read side of reports.
type ReportRepo struct {
	catalog *CatalogRepo
	orders  *OrderRepo
	costs   *CostRepo
}

// NewReportRepo creates a new report repository.
func NewReportRepo(db *DB) *ReportRepo {
	return &ReportRepo{
		catalog: NewCatalogRepo(db),
		orders:  NewOrderRepo(db),
		costs:   NewCostRepo(db),
	}
}

func (r *ReportRepo) ListProducts(ctx context.Context) ([]*catalog.Product, error) {
	return r.catalog.ListProducts(ctx)
}

func (r *ReportRepo) ListMenuItems(ctx context.Context) ([]*catalog.MenuItem, error) {
	return r.catalog.ListMenuItems(ctx)
}

func (r *ReportRepo) GetRecipe(ctx context.Context, menuItemID id.ID) (*catalog.Recipe, error) {
	return r.catalog.GetRecipeByMenuItem(ctx, menuItemID)
}

func (r *ReportRepo) CostStates(ctx context.Context, storeID id.ID) ([]entity.CostState, error) {
	return r.costs.List(ctx, storeID)
}

func (r *ReportRepo) Orders(ctx context.Context, filter order.ListFilter) ([]*order.Order, error) {
	return r.orders.List(ctx, filter)
}
