package reports

import (
	"context"

	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/domain/catalog"
	"trailerpos/internal/domain/documents/order"
)

// Repository defines report data access interface.
type Repository interface {
	ListProducts(ctx context.Context) ([]*catalog.Product, error)
	ListMenuItems(ctx context.Context) ([]*catalog.MenuItem, error)
	GetRecipe(ctx context.Context, menuItemID id.ID) (*catalog.Recipe, error)
	CostStates(ctx context.Context, storeID id.ID) ([]entity.CostState, error)
	Orders(ctx context.Context, filter order.ListFilter) ([]*order.Order, error)
}
