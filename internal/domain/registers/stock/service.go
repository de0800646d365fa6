package stock

import (
	"context"
	"fmt"
	"iter"
	"time"

	"trailerpos/internal/core/apperror"
	appctx "trailerpos/internal/core/context"
	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/core/tx"
	"trailerpos/pkg/logger"
)

// Service provides business operations for the stock ledger.
// Every append runs the aggregator synchronously inside the same
// transaction, so no reader observes an entry without its effects.
type Service struct {
	repo       Repository
	aggregator Aggregator
	dims       Dimensions
	txManager  tx.Manager
	now        func() time.Time
}

// NewService creates a new stock ledger service.
func NewService(repo Repository, aggregator Aggregator, dims Dimensions, txManager tx.Manager, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:       repo,
		aggregator: aggregator,
		dims:       dims,
		txManager:  txManager,
		now:        now,
	}
}

// Append validates, persists and aggregates one entry.
// Timestamp and Actor default to the clock and the context actor.
// The returned entry carries its ID, Seq and any backfilled unit cost.
func (s *Service) Append(ctx context.Context, e entity.LedgerEntry) (entity.LedgerEntry, error) {
	if err := s.validate(ctx, &e); err != nil {
		return entity.LedgerEntry{}, err
	}

	if id.IsNil(e.ID) {
		e.ID = id.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	e.Timestamp = e.Timestamp.UTC()
	if e.Actor == "" {
		e.Actor = appctx.GetActorName(ctx)
	}
	e.Seq = 0
	e.CostBackfilled = false

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.persist(ctx, &e)
	})
	if err != nil {
		return entity.LedgerEntry{}, err
	}

	logger.Debug(ctx, "ledger entry appended",
		"seq", e.Seq,
		"reason", e.Reason,
		"product_id", e.ProductID,
		"qty", e.Qty.String())

	return e, nil
}

func (s *Service) persist(ctx context.Context, e *entity.LedgerEntry) error {
	if err := s.repo.Append(ctx, e); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	if err := s.aggregator.Apply(ctx, e); err != nil {
		return fmt.Errorf("aggregate ledger entry %d: %w", e.Seq, err)
	}
	return nil
}

func (s *Service) validate(ctx context.Context, e *entity.LedgerEntry) error {
	if e.Qty.IsZero() {
		return apperror.NewValidation("quantity must not be zero").
			WithDetail("field", "qty")
	}
	if !e.Reason.IsValid() {
		return apperror.NewValidation("invalid movement reason").
			WithDetail("field", "reason").
			WithDetail("value", string(e.Reason))
	}

	ok, err := s.dims.StoreExists(ctx, e.StoreID)
	if err != nil {
		return fmt.Errorf("check store: %w", err)
	}
	if !ok {
		return apperror.NewValidation("unknown store").
			WithDetail("field", "storeId").
			WithDetail("value", e.StoreID.String())
	}

	ok, err = s.dims.ProductExists(ctx, e.ProductID)
	if err != nil {
		return fmt.Errorf("check product: %w", err)
	}
	if !ok {
		return apperror.NewValidation("unknown product").
			WithDetail("field", "productId").
			WithDetail("value", e.ProductID.String())
	}
	return nil
}

// Replay re-applies an entry read from a snapshot.
// The entry must carry the next sequence, and a backfilled SALE cost must
// come out of the aggregator exactly as recorded.
func (s *Service) Replay(ctx context.Context, e entity.LedgerEntry) error {
	if err := s.validate(ctx, &e); err != nil {
		return apperror.NewConsistency("snapshot ledger entry is invalid").
			WithDetail("seq", e.Seq).
			WithCause(err)
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		last, err := s.repo.LastSeq(ctx)
		if err != nil {
			return err
		}
		if e.Seq != last+1 {
			return apperror.NewConsistency("ledger entries out of order").
				WithDetail("expected", last+1).
				WithDetail("got", e.Seq)
		}

		recorded := e.UnitCost
		if e.CostBackfilled {
			e.UnitCost.Valid = false
			e.CostBackfilled = false
		}

		if err := s.persist(ctx, &e); err != nil {
			return err
		}

		if recorded.Valid != e.UnitCost.Valid ||
			(recorded.Valid && !recorded.Decimal.Equal(e.UnitCost.Decimal)) {
			return apperror.NewConsistency("replayed unit cost differs from snapshot").
				WithDetail("seq", e.Seq).
				WithDetail("recorded", formatCost(recorded.Valid, recorded.Decimal.String())).
				WithDetail("replayed", formatCost(e.UnitCost.Valid, e.UnitCost.Decimal.String()))
		}
		return nil
	})
}

func formatCost(valid bool, v string) string {
	if !valid {
		return "null"
	}
	return v
}

// Query returns the entries of one (store, product) in insertion order.
// The sequence is bound to the entries committed when Query is called.
func (s *Service) Query(ctx context.Context, storeID, productID id.ID) iter.Seq[entity.LedgerEntry] {
	return s.repo.Query(ctx, entity.CostKey{StoreID: storeID, ProductID: productID})
}

// Entries returns every ledger entry in insertion order.
func (s *Service) Entries(ctx context.Context) iter.Seq[entity.LedgerEntry] {
	return s.repo.All(ctx)
}

// ByReference returns the entries produced by one document.
func (s *Service) ByReference(ctx context.Context, kind entity.RefKind, docID id.ID) ([]entity.LedgerEntry, error) {
	return s.repo.ByReference(ctx, entity.Reference{Kind: kind, ID: docID})
}
