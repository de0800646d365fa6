package purchase

import (
	"context"
	"fmt"
	"time"

	appctx "trailerpos/internal/core/context"
	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/core/numerator"
	"trailerpos/internal/core/tx"
	"trailerpos/internal/core/types"
	"trailerpos/internal/domain"
	"trailerpos/internal/domain/catalog"
	"trailerpos/pkg/logger"
)

// NumberPrefix is the document number prefix of purchases.
const NumberPrefix = "P"

// Ledger appends stock movements.
type Ledger interface {
	Append(ctx context.Context, e entity.LedgerEntry) (entity.LedgerEntry, error)
}

// Catalog resolves the reference data a purchase needs.
type Catalog interface {
	GetStore(ctx context.Context, storeID id.ID) (*catalog.Store, error)
	GetSupplier(ctx context.Context, supplierID id.ID) (*catalog.Supplier, error)
	GetProduct(ctx context.Context, productID id.ID) (*catalog.Product, error)
}

// Service provides the purchase state machine.
type Service struct {
	repo      Repository
	ledger    Ledger
	catalog   Catalog
	numerator numerator.Generator
	txManager tx.Manager
	hooks     *domain.HookRegistry[*Purchase]
	now       func() time.Time
}

// NewService creates a new purchase service.
func NewService(
	repo Repository,
	ledger Ledger,
	catalog Catalog,
	numerator numerator.Generator,
	txManager tx.Manager,
	now func() time.Time,
) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:      repo,
		ledger:    ledger,
		catalog:   catalog,
		numerator: numerator,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Purchase](),
		now:       now,
	}
}

// Hooks returns the hook registry for registering callbacks.
// Update hooks run on every status change inside its transaction.
func (s *Service) Hooks() *domain.HookRegistry[*Purchase] {
	return s.hooks
}

// LineInput is one line of a new purchase.
type LineInput struct {
	ProductID id.ID
	Qty       types.Quantity
	UnitCost  types.NullMoney
}

// CreateInput describes a new draft purchase.
type CreateInput struct {
	StoreID    id.ID
	SupplierID id.ID
	Notes      string
	Lines      []LineInput
}

// Create stores a draft purchase. Drafts have no inventory effect.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Purchase, error) {
	p := NewPurchase(in.StoreID, in.SupplierID, s.now(), appctx.GetActorName(ctx))
	p.Notes = in.Notes
	for _, l := range in.Lines {
		if _, err := p.AddLine(l.ProductID, l.Qty, l.UnitCost); err != nil {
			return nil, err
		}
	}
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.catalog.GetStore(ctx, p.StoreID); err != nil {
			return err
		}
		if _, err := s.catalog.GetSupplier(ctx, p.SupplierID); err != nil {
			return err
		}
		for _, l := range p.Lines {
			if _, err := s.catalog.GetProduct(ctx, l.ProductID); err != nil {
				return err
			}
		}

		if err := s.hooks.RunBeforeCreate(ctx, p); err != nil {
			return err
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(NumberPrefix), p.CreatedAt)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		p.Number = number

		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create purchase: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase created",
		"id", p.ID,
		"number", p.Number,
		"lines", len(p.Lines))

	return p, nil
}

// AddLine appends a line to a draft purchase.
func (s *Service) AddLine(ctx context.Context, purchaseID id.ID, in LineInput) (*Purchase, error) {
	var p *Purchase
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.repo.Get(ctx, purchaseID)
		if err != nil {
			return err
		}
		if _, err := p.AddLine(in.ProductID, in.Qty, in.UnitCost); err != nil {
			return err
		}
		if _, err := s.catalog.GetProduct(ctx, in.ProductID); err != nil {
			return err
		}
		p.TouchAt(s.now())
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Receive moves a draft to RECEIVED and writes one PURCHASE entry per line,
// stamped with the purchase's creation time and author. This is the only
// path by which purchase data enters the ledger.
func (s *Service) Receive(ctx context.Context, purchaseID id.ID) (*Purchase, error) {
	p, err := s.transition(ctx, purchaseID, StatusReceived, func(ctx context.Context, p *Purchase) error {
		for _, l := range p.Lines {
			_, err := s.ledger.Append(ctx, entity.LedgerEntry{
				StoreID:   p.StoreID,
				ProductID: l.ProductID,
				Qty:       l.Qty,
				UnitCost:  l.UnitCost,
				Reason:    entity.ReasonPurchase,
				Reference: &entity.Reference{Kind: entity.RefPurchase, ID: p.ID},
				Timestamp: p.CreatedAt,
				Actor:     p.CreatedBy,
			})
			if err != nil {
				return fmt.Errorf("line %d: %w", l.LineNo, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase received",
		"id", p.ID,
		"number", p.Number,
		"total", p.Total().String())

	return p, nil
}

// Cancel moves a draft to CANCELLED. No ledger effect.
func (s *Service) Cancel(ctx context.Context, purchaseID id.ID) (*Purchase, error) {
	p, err := s.transition(ctx, purchaseID, StatusCancelled, nil)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase cancelled",
		"id", p.ID,
		"number", p.Number)

	return p, nil
}

func (s *Service) transition(ctx context.Context, purchaseID id.ID, to Status, effect func(ctx context.Context, p *Purchase) error) (*Purchase, error) {
	var p *Purchase
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.repo.Get(ctx, purchaseID)
		if err != nil {
			return err
		}
		if err := p.TransitionTo(to, s.now()); err != nil {
			return err
		}
		if err := s.hooks.RunBeforeUpdate(ctx, p); err != nil {
			return err
		}
		if effect != nil {
			if err := effect(ctx, p); err != nil {
				return err
			}
		}
		if err := s.repo.Update(ctx, p); err != nil {
			return fmt.Errorf("update purchase: %w", err)
		}
		return s.hooks.RunAfterUpdate(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a purchase with its lines.
func (s *Service) Get(ctx context.Context, purchaseID id.ID) (*Purchase, error) {
	return s.repo.Get(ctx, purchaseID)
}

// List returns purchases, optionally of one store, in creation order.
func (s *Service) List(ctx context.Context, storeID *id.ID) ([]*Purchase, error) {
	return s.repo.List(ctx, storeID)
}
