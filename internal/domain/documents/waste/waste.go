// Package waste records spoiled or discarded ingredients.
package waste

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trailerpos/internal/core/apperror"
	appctx "trailerpos/internal/core/context"
	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/core/numerator"
	"trailerpos/internal/core/tx"
	"trailerpos/internal/core/types"
	"trailerpos/internal/domain/catalog"
	"trailerpos/pkg/logger"
)

// NumberPrefix is the document number prefix of waste events.
const NumberPrefix = "W"

// Event is a write-once waste record. It produces exactly one ADJUSTMENT entry.
type Event struct {
	entity.Document

	ProductID  id.ID          `json:"productId"`
	Qty        types.Quantity `json:"qty"`
	Reason     string         `json:"reason"`
	HappenedAt time.Time      `json:"happenedAt"`
}

// Validate implements entity.Validatable.
func (e *Event) Validate(ctx context.Context) error {
	if err := e.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(e.ProductID) {
		return apperror.NewValidation("ingredient is required").
			WithDetail("field", "productId")
	}
	if !e.Qty.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "qty")
	}
	if e.Reason == "" {
		return apperror.NewValidation("reason is required").
			WithDetail("field", "reason")
	}
	return nil
}

// Repository persists waste events.
type Repository interface {
	Create(ctx context.Context, e *Event) error
	List(ctx context.Context, storeID *id.ID) ([]*Event, error)
}

// Ledger appends stock movements.
type Ledger interface {
	Append(ctx context.Context, e entity.LedgerEntry) (entity.LedgerEntry, error)
}

// Catalog resolves the wasted ingredient.
type Catalog interface {
	GetProduct(ctx context.Context, productID id.ID) (*catalog.Product, error)
}

// Service records waste.
type Service struct {
	repo      Repository
	ledger    Ledger
	catalog   Catalog
	numerator numerator.Generator
	txManager tx.Manager
	now       func() time.Time
}

// NewService creates a new waste service.
func NewService(repo Repository, ledger Ledger, catalog Catalog, numerator numerator.Generator, txManager tx.Manager, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:      repo,
		ledger:    ledger,
		catalog:   catalog,
		numerator: numerator,
		txManager: txManager,
		now:       now,
	}
}

// Record stores a waste event and appends ADJUSTMENT -qty without a cost.
func (s *Service) Record(ctx context.Context, storeID, productID id.ID, qty types.Quantity, reason string) (*Event, error) {
	now := s.now()
	ev := &Event{
		Document:   entity.NewDocument(storeID, now, appctx.GetActorName(ctx)),
		ProductID:  productID,
		Qty:        qty,
		Reason:     strings.TrimSpace(reason),
		HappenedAt: now.UTC(),
	}
	if err := ev.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
			return err
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(NumberPrefix), ev.CreatedAt)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		ev.Number = number

		if err := s.repo.Create(ctx, ev); err != nil {
			return fmt.Errorf("create waste event: %w", err)
		}

		_, err = s.ledger.Append(ctx, entity.LedgerEntry{
			StoreID:   ev.StoreID,
			ProductID: ev.ProductID,
			Qty:       ev.Qty.Neg(),
			Reason:    entity.ReasonAdjustment,
			Reference: &entity.Reference{Kind: entity.RefWaste, ID: ev.ID},
			Timestamp: ev.HappenedAt,
			Actor:     ev.CreatedBy,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "waste recorded",
		"id", ev.ID,
		"product_id", productID,
		"qty", qty.String(),
		"reason", ev.Reason)

	return ev, nil
}

// List returns waste events, optionally of one store, in creation order.
func (s *Service) List(ctx context.Context, storeID *id.ID) ([]*Event, error) {
	return s.repo.List(ctx, storeID)
}
