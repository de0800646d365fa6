// Package stock provides the stock ledger: the append-mostly register of
// signed quantity changes per (store, product).
package stock

import (
	"context"
	"iter"

	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/core/types"
)

// Repository persists ledger entries in insertion order.
type Repository interface {
	// Append stores e and assigns its Seq (last sequence + 1)
	Append(ctx context.Context, e *entity.LedgerEntry) error

	// LastSeq returns the sequence of the newest entry, 0 when empty
	LastSeq(ctx context.Context) (int64, error)

	// Get returns the entry with the given sequence
	Get(ctx context.Context, seq int64) (entity.LedgerEntry, error)

	// Backfill sets the unit cost of a SALE entry written without one.
	// It fails if the entry already carries a cost.
	Backfill(ctx context.Context, seq int64, cost types.Money) error

	// ByReference returns entries produced by a document, in insertion order
	ByReference(ctx context.Context, ref entity.Reference) ([]entity.LedgerEntry, error)

	// Query returns a lazy sequence over the entries of one key that exist at
	// call time. Ranging it again replays the same prefix.
	Query(ctx context.Context, key entity.CostKey) iter.Seq[entity.LedgerEntry]

	// All returns a lazy sequence over every entry in insertion order
	All(ctx context.Context) iter.Seq[entity.LedgerEntry]
}

// Aggregator reacts to a freshly persisted entry before Append returns.
type Aggregator interface {
	Apply(ctx context.Context, e *entity.LedgerEntry) error
}

// Dimensions resolves the store and product an entry refers to.
type Dimensions interface {
	StoreExists(ctx context.Context, storeID id.ID) (bool, error)
	ProductExists(ctx context.Context, productID id.ID) (bool, error)
}
