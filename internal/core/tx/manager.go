// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces; the in-memory unit of work
// lives in infrastructure/storage/memory.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
//
// RunInTransaction executes fn with exclusive access to engine state.
// If fn returns an error (or panics) every write made inside it is undone.
// Nested calls reuse the existing transaction from context, so a composite
// operation built from several service calls commits or rolls back as one.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with shared read access.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn while writers are excluded.
	// Writes attempted inside fn fail.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
