// Package engine is the in-process facade over the POS core. It owns one
// in-memory store and runs every mutating operation as a single atomic
// unit of work.
package engine

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/core/security"
	"trailerpos/internal/domain/catalog"
	"trailerpos/internal/domain/documents/order"
	"trailerpos/internal/domain/documents/purchase"
	"trailerpos/internal/domain/documents/waste"
	"trailerpos/internal/domain/registers/cost"
	"trailerpos/internal/domain/registers/stock"
	"trailerpos/internal/domain/reports"
	"trailerpos/internal/infrastructure/storage/memory"
	"trailerpos/pkg/logger"
	"trailerpos/pkg/numerator"
)

var tracer = otel.Tracer("trailerpos/engine")

// DefaultTaxCode is the tax rate code AddMenuItem falls back to.
const DefaultTaxCode = "STD21"

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	// Clock defaults to time.Now
	Clock func() time.Time

	// LockPolicy defaults to security.NeverLock
	LockPolicy security.OrderLockPolicy

	// Location is used to bucket daily reports, defaults to UTC
	Location *time.Location

	// DefaultTaxCode defaults to DefaultTaxCode
	DefaultTaxCode string
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.LockPolicy == nil {
		o.LockPolicy = security.NeverLock{}
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.DefaultTaxCode == "" {
		o.DefaultTaxCode = DefaultTaxCode
	}
	return o
}

// services is the object graph over one store.
type services struct {
	db        *memory.DB
	tx        *memory.TxManager
	catalog   *catalog.Service
	ledger    *stock.Service
	costs     *memory.CostRepo
	orders    *order.Service
	purchases *purchase.Service
	waste     *waste.Service
	reports   *reports.Service
}

func wire(db *memory.DB, opts Options) *services {
	txManager := memory.NewTxManager(db)
	numbers := numerator.New(db)

	catalogService := catalog.NewService(memory.NewCatalogRepo(db), txManager, opts.DefaultTaxCode)

	ledgerRepo := memory.NewLedgerRepo(db)
	costRepo := memory.NewCostRepo(db)
	orderRepo := memory.NewOrderRepo(db)
	aggregator := cost.NewAggregator(costRepo, ledgerRepo, orderRepo)
	ledger := stock.NewService(ledgerRepo, aggregator, catalogService, txManager, opts.Clock)

	return &services{
		db:      db,
		tx:      txManager,
		catalog: catalogService,
		ledger:  ledger,
		costs:   costRepo,
		orders: order.NewService(order.Config{
			Repo:       orderRepo,
			Ledger:     ledger,
			Catalog:    catalogService,
			Numerator:  numbers,
			TxManager:  txManager,
			LockPolicy: opts.LockPolicy,
			Now:        opts.Clock,
		}),
		purchases: purchase.NewService(memory.NewPurchaseRepo(db), ledger, catalogService, numbers, txManager, opts.Clock),
		waste:     waste.NewService(memory.NewWasteRepo(db), ledger, catalogService, numbers, txManager, opts.Clock),
		reports:   reports.NewService(memory.NewReportRepo(db), txManager, opts.Location),
	}
}

// Engine is the POS core.
type Engine struct {
	opts Options
	*services

	revision atomic.Uint64
}

// New creates an engine with empty state.
func New(opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{opts: opts, services: wire(memory.NewDB(), opts)}
}

// Catalog returns the catalog service for administrative operations not
// mirrored on the engine.
func (e *Engine) Catalog() *catalog.Service {
	return e.services.catalog
}

// LockPolicy returns the configured order lock policy.
func (e *Engine) LockPolicy() security.OrderLockPolicy {
	return e.opts.LockPolicy
}

// atomically runs fn as one unit of work under a span named op.
// A failure leaves no trace of fn's writes.
func (e *Engine) atomically(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "engine."+op)
	defer span.End()

	err := e.tx.RunInTransaction(ctx, fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logFailure(ctx, op, err)
		return err
	}
	e.revision.Add(1)
	return nil
}

// Revision counts committed changes since the engine was created.
// Equal revisions mean the state has not changed in between.
func (e *Engine) Revision() uint64 {
	return e.revision.Load()
}

func logFailure(ctx context.Context, op string, err error) {
	if apperror.IsConsistency(err) {
		logger.Error(ctx, "consistency check failed", "op", op, "error", err)
		return
	}
	logger.Warn(ctx, "operation rolled back", "op", op, "error", err)
}
