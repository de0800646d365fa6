package memory

import (
	"context"
	"iter"

	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/core/types"
	"trailerpos/internal/domain/registers/cost"
	"trailerpos/internal/domain/registers/stock"
)

// Compile-time checks for the ledger and cost repositories.
var (
	_ stock.Repository = (*LedgerRepo)(nil)
	_ cost.EntryStore  = (*LedgerRepo)(nil)
	_ cost.Repository  = (*CostRepo)(nil)
)

// LedgerRepo stores stock ledger entries.
type LedgerRepo struct {
	db *DB
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(db *DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// Append stores e and writes the assigned Seq back into it.
func (r *LedgerRepo) Append(ctx context.Context, e *entity.LedgerEntry) error {
	tx, err := r.db.writeTx(ctx)
	if err != nil {
		return err
	}
	stored := r.db.st.ledger.append(tx, *e)
	e.Seq = stored.Seq
	return nil
}

func (r *LedgerRepo) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := r.db.view(ctx, func(st *state) error {
		seq = st.ledger.lastSeq()
		return nil
	})
	return seq, err
}

func (r *LedgerRepo) Get(ctx context.Context, seq int64) (entity.LedgerEntry, error) {
	var e entity.LedgerEntry
	err := r.db.view(ctx, func(st *state) error {
		var err error
		e, err = st.ledger.get(seq)
		return err
	})
	return e, err
}

func (r *LedgerRepo) Backfill(ctx context.Context, seq int64, unitCost types.Money) error {
	tx, err := r.db.writeTx(ctx)
	if err != nil {
		return err
	}
	return r.db.st.ledger.backfill(tx, seq, unitCost)
}

func (r *LedgerRepo) ByReference(ctx context.Context, ref entity.Reference) ([]entity.LedgerEntry, error) {
	var out []entity.LedgerEntry
	err := r.db.view(ctx, func(st *state) error {
		out = st.ledger.pick(st.ledger.byRef[ref])
		return nil
	})
	return out, err
}

// Query captures the ledger and the number of entries of key at call time.
// Each range over the result copies that prefix under the lock and yields
// outside it, so the loop body may call back into the store. A state swapped
// in by Replace afterwards is not observed.
func (r *LedgerRepo) Query(ctx context.Context, key entity.CostKey) iter.Seq[entity.LedgerEntry] {
	var (
		l *ledger
		n int
	)
	_ = r.db.view(ctx, func(st *state) error {
		l = st.ledger
		n = len(l.byKey[key])
		return nil
	})
	return r.lazy(ctx, l, func() []int {
		positions := l.byKey[key]
		return positions[:min(n, len(positions))]
	})
}

// All returns every entry that exists at call time in insertion order.
func (r *LedgerRepo) All(ctx context.Context) iter.Seq[entity.LedgerEntry] {
	var (
		l *ledger
		n int
	)
	_ = r.db.view(ctx, func(st *state) error {
		l = st.ledger
		n = len(l.entries)
		return nil
	})
	return r.lazy(ctx, l, func() []int {
		positions := make([]int, min(n, len(l.entries)))
		for i := range positions {
			positions[i] = i
		}
		return positions
	})
}

func (r *LedgerRepo) lazy(ctx context.Context, l *ledger, positions func() []int) iter.Seq[entity.LedgerEntry] {
	return func(yield func(entity.LedgerEntry) bool) {
		var batch []entity.LedgerEntry
		_ = r.db.view(ctx, func(*state) error {
			batch = l.pick(positions())
			return nil
		})
		for _, e := range batch {
			if !yield(e) {
				return
			}
		}
	}
}

// CostRepo stores the cost aggregates.
type CostRepo struct {
	db *DB
}

// NewCostRepo creates a new cost state repository.
func NewCostRepo(db *DB) *CostRepo {
	return &CostRepo{db: db}
}

func (r *CostRepo) Get(ctx context.Context, key entity.CostKey) (entity.CostState, bool, error) {
	var (
		s  entity.CostState
		ok bool
	)
	err := r.db.view(ctx, func(st *state) error {
		s, ok = st.costs.states[key]
		return nil
	})
	return s, ok, err
}

func (r *CostRepo) Put(ctx context.Context, s entity.CostState) error {
	tx, err := r.db.writeTx(ctx)
	if err != nil {
		return err
	}
	r.db.st.costs.put(tx, s)
	return nil
}

// List returns the aggregates of one store, or of every store when storeID is nil.
func (r *CostRepo) List(ctx context.Context, storeID id.ID) ([]entity.CostState, error) {
	var out []entity.CostState
	err := r.db.view(ctx, func(st *state) error {
		for _, s := range st.costs.all() {
			if id.IsNil(storeID) || s.StoreID == storeID {
				out = append(out, s)
			}
		}
		return nil
	})
	return out, err
}
