package entity

import (
	"context"
	"time"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/core/id"
)

// Document is the base type for business transactions.
// Examples: Order, Purchase, WasteEvent.
type Document struct {
	BaseDocument

	// Number is the document number (auto-generated, unique within type+year)
	Number string `json:"number"`

	// StoreID is the outlet the document belongs to
	StoreID id.ID `json:"storeId"`
}

// NewDocument creates a new Document with generated ID.
func NewDocument(storeID id.ID, now time.Time, createdBy string) Document {
	return Document{
		BaseDocument: NewBaseDocument(now, createdBy),
		StoreID:      storeID,
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if id.IsNil(d.StoreID) {
		return apperror.NewValidation("store is required").
			WithDetail("field", "storeId")
	}
	if d.CreatedAt.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "createdAt")
	}
	return nil
}

// GetID returns the document ID.
func (d *Document) GetID() id.ID {
	return d.ID
}
