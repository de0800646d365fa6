package engine

import (
	"context"

	"trailerpos/internal/core/id"
	"trailerpos/internal/domain/catalog"
)

// AddMenuItem creates a menu item and its recipe atomically.
func (e *Engine) AddMenuItem(ctx context.Context, in catalog.MenuItemInput) (*catalog.MenuItem, error) {
	var item *catalog.MenuItem
	err := e.atomically(ctx, "add_menu_item", func(ctx context.Context) error {
		var err error
		item, err = e.catalog.AddMenuItem(ctx, in)
		return err
	})
	return item, err
}

// Define runs a batch of catalog writes as one transaction.
// The seed command and tests build reference data with it.
func (e *Engine) Define(ctx context.Context, fn func(ctx context.Context, c *catalog.Service) error) error {
	return e.atomically(ctx, "define_catalog", func(ctx context.Context) error {
		return fn(ctx, e.catalog)
	})
}

// LinkModifierGroup offers a modifier group with a menu item.
func (e *Engine) LinkModifierGroup(ctx context.Context, menuItemID, groupID id.ID) error {
	return e.atomically(ctx, "link_modifier_group", func(ctx context.Context) error {
		return e.catalog.LinkModifierGroup(ctx, menuItemID, groupID)
	})
}
