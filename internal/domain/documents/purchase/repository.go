package purchase

import (
	"context"

	"trailerpos/internal/core/id"
)

// Repository persists purchases together with their lines.
type Repository interface {
	Create(ctx context.Context, p *Purchase) error
	Get(ctx context.Context, purchaseID id.ID) (*Purchase, error)
	Update(ctx context.Context, p *Purchase) error
	List(ctx context.Context, storeID *id.ID) ([]*Purchase, error)
}
