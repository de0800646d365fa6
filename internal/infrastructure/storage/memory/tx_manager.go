package memory

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/core/tx"
	"trailerpos/pkg/logger"
)

var tracer = otel.Tracer("trailerpos/tx")

// Compile-time check that TxManager implements tx.ReadOnlyManager interface.
var _ tx.ReadOnlyManager = (*TxManager)(nil)

var errUpgrade = errors.New("write transaction requested inside a read-only transaction")

// TxManager runs units of work against one DB with support for:
// - Nested transactions (each nesting level acts as a savepoint)
// - Rollback on error or panic
// - Shared read-only access
// - Distributed tracing integration
type TxManager struct {
	db *DB
}

// NewTxManager creates a new transaction manager.
func NewTxManager(db *DB) *TxManager {
	return &TxManager{db: db}
}

// RunInTransaction executes fn with exclusive access to the DB.
// If a transaction already exists in ctx, it will be reused and only the
// writes made by fn are undone when fn fails.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(attribute.String("tx.mode", "read_write")))
	defer span.End()

	if existing := m.db.txFrom(ctx); existing != nil {
		if existing.readOnly {
			return apperror.NewInternal(errUpgrade)
		}
		return m.handleNestedTransaction(ctx, existing, fn)
	}

	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	t := &Tx{db: m.db}
	defer func() { t.done = true }()
	return m.executeWithRollbackProtection(context.WithValue(ctx, txKey{}, t), t, fn)
}

// handleNestedTransaction runs fn inside existing, undoing only fn's writes on failure.
func (m *TxManager) handleNestedTransaction(ctx context.Context, existing *Tx, fn func(ctx context.Context) error) error {
	mark := len(existing.undo)
	if err := fn(ctx); err != nil {
		existing.rollbackTo(mark)
		return err
	}
	return nil
}

// executeWithRollbackProtection runs fn and undoes its writes on error or panic.
func (m *TxManager) executeWithRollbackProtection(ctx context.Context, t *Tx, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			n := t.rollbackTo(0)
			logger.Error(ctx, "transaction panicked, rolled back", "undone", n, "panic", fmt.Sprint(r))
			panic(r)
		}
	}()

	if err = fn(ctx); err != nil {
		n := t.rollbackTo(0)
		logger.Debug(ctx, "transaction rolled back", "undone", n, "error", err)
		return err
	}
	return nil
}

// ReadOnly executes fn with shared access. Writes attempted inside fn fail.
// Inside an existing transaction fn simply reuses it.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(attribute.String("tx.mode", "read_only")))
	defer span.End()

	if m.db.txFrom(ctx) != nil {
		return fn(ctx)
	}

	m.db.mu.RLock()
	defer m.db.mu.RUnlock()

	t := &Tx{db: m.db, readOnly: true}
	defer func() { t.done = true }()
	return fn(context.WithValue(ctx, txKey{}, t))
}
