package entity

import (
	"context"
	"strings"

	"trailerpos/internal/core/apperror"
)

// Catalog is the base type for reference data.
// Examples: products, menu items, tax rates, suppliers.
type Catalog struct {
	BaseEntity

	// Code is a human-readable unique identifier (SKU for products and menu items)
	Code string `json:"code"`

	// Name is the display name
	Name string `json:"name"`

	// Active catalog entries can be used by new documents
	Active bool `json:"active"`
}

// NewCatalog creates a new active Catalog with generated ID.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		BaseEntity: NewBaseEntity(),
		Code:       strings.TrimSpace(code),
		Name:       strings.TrimSpace(name),
		Active:     true,
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Code == "" {
		return apperror.NewValidation("code is required").
			WithDetail("field", "code")
	}
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}
