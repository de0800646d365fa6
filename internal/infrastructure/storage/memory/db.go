// Package memory provides the in-process store that owns all engine state.
//
// All state lives in one DB guarded by a single RWMutex. Writes are only
// possible inside a transaction opened by TxManager; every write registers
// an undo step so a failed transaction leaves the state untouched.
package memory

import (
	"context"
	"errors"

	"sync"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/domain/catalog"
	"trailerpos/internal/domain/documents/order"
	"trailerpos/internal/domain/documents/purchase"
	"trailerpos/internal/domain/documents/waste"
)

var (
	errNoTransaction = errors.New("write outside of a transaction")
	errReadOnly      = errors.New("write inside a read-only transaction")
)

// DB owns the engine state.
type DB struct {
	mu sync.RWMutex
	st *state
}

// NewDB creates an empty store.
func NewDB() *DB {
	return &DB{st: newState()}
}

// state is every table of the engine.
type state struct {
	stores     *table[catalog.Store]
	cashiers   *table[catalog.Cashier]
	taxRates   *table[catalog.TaxRate]
	units      *table[catalog.Unit]
	categories *table[catalog.Category]
	products   *table[catalog.Product]
	menuItems  *table[catalog.MenuItem]
	recipes    *table[catalog.Recipe]
	groups     *table[catalog.ModifierGroup]
	options    *table[catalog.ModifierOption]
	suppliers  *table[catalog.Supplier]

	orders         *table[order.Order]
	lines          *table[order.Line]
	modifiers      *table[order.LineModifier]
	payments       *table[order.Payment]
	linesByOrder   index
	modsByLine     index
	paymentsByOrdr index

	purchases *table[purchase.Purchase]
	waste     *table[waste.Event]

	ledger *ledger
	costs  *costTable

	sequences map[string]int64
}

func newState() *state {
	return &state{
		stores:     newTable[catalog.Store]("store"),
		cashiers:   newTable[catalog.Cashier]("cashier", withClone(cloneCashier)),
		taxRates:   newTable[catalog.TaxRate]("tax rate"),
		units:      newTable[catalog.Unit]("unit"),
		categories: newTable[catalog.Category]("category"),
		products:   newTable[catalog.Product]("product", withClone(cloneProduct)),
		menuItems:  newTable[catalog.MenuItem]("menu item", withClone(cloneMenuItem)),
		recipes:    newTable[catalog.Recipe]("recipe", withClone(cloneRecipe)),
		groups:     newTable[catalog.ModifierGroup]("modifier group"),
		options:    newTable[catalog.ModifierOption]("modifier option", withClone(cloneOption)),
		suppliers:  newTable[catalog.Supplier]("supplier"),

		orders:         newTable[order.Order]("order"),
		lines:          newTable[order.Line]("order line"),
		modifiers:      newTable[order.LineModifier]("order line modifier"),
		payments:       newTable[order.Payment]("payment"),
		linesByOrder:   make(index),
		modsByLine:     make(index),
		paymentsByOrdr: make(index),

		purchases: newTable[purchase.Purchase]("purchase", withClone(clonePurchase)),
		waste:     newTable[waste.Event]("waste event"),

		ledger: newLedger(),
		costs:  newCostTable(),

		sequences: make(map[string]int64),
	}
}

// Tx is an open unit of work on one DB.
type Tx struct {
	db       *DB
	readOnly bool
	done     bool
	undo     []func()
}

func (t *Tx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

// rollbackTo undoes every step registered after mark, newest first.
func (t *Tx) rollbackTo(mark int) int {
	n := len(t.undo) - mark
	for i := len(t.undo) - 1; i >= mark; i-- {
		t.undo[i]()
	}
	t.undo = t.undo[:mark]
	return n
}

// txKey is the context key for active transaction.
type txKey struct{}

// txFrom returns the transaction of this DB carried by ctx, or nil.
// A transaction of another DB (a scratch import store) is ignored.
func (db *DB) txFrom(ctx context.Context) *Tx {
	if t, ok := ctx.Value(txKey{}).(*Tx); ok && t.db == db && !t.done {
		return t
	}
	return nil
}

// InTransaction reports whether ctx carries a transaction of this DB.
func (db *DB) InTransaction(ctx context.Context) bool {
	return db.txFrom(ctx) != nil
}

// writeTx returns the write transaction of ctx.
func (db *DB) writeTx(ctx context.Context) (*Tx, error) {
	t := db.txFrom(ctx)
	if t == nil {
		return nil, apperror.NewInternal(errNoTransaction)
	}
	if t.readOnly {
		return nil, apperror.NewInternal(errReadOnly)
	}
	return t, nil
}

// view runs fn with read access. Inside a transaction the lock is already
// held; outside one a shared lock is taken for the duration of fn.
func (db *DB) view(ctx context.Context, fn func(st *state) error) error {
	if db.txFrom(ctx) != nil {
		return fn(db.st)
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	return fn(db.st)
}

// Replace swaps in the state of src, which must not be used afterwards.
func (db *DB) Replace(ctx context.Context, src *DB) error {
	if db.txFrom(ctx) != nil {
		return apperror.NewInternal(errors.New("replace inside a transaction"))
	}
	src.mu.Lock()
	st := src.st
	src.st = newState()
	src.mu.Unlock()

	db.mu.Lock()
	db.st = st
	db.mu.Unlock()
	return nil
}

// index maps a parent row to its children in insertion order.
type index map[id.ID][]id.ID

func (ix index) add(tx *Tx, parent, child id.ID) {
	ix[parent] = append(ix[parent], child)
	tx.onRollback(func() {
		kids := ix[parent]
		if len(kids) <= 1 {
			delete(ix, parent)
			return
		}
		ix[parent] = kids[:len(kids)-1]
	})
}

func (ix index) children(parent id.ID) []id.ID {
	return ix[parent]
}

// --- Sequences ---

// NextSequence increments a named counter inside the caller's transaction.
func (db *DB) NextSequence(ctx context.Context, key string) (int64, error) {
	tx, err := db.writeTx(ctx)
	if err != nil {
		return 0, err
	}
	seqs := db.st.sequences
	prev, existed := seqs[key]
	seqs[key] = prev + 1
	tx.onRollback(func() {
		if existed {
			seqs[key] = prev
		} else {
			delete(seqs, key)
		}
	})
	return prev + 1, nil
}

// entityCostKey is a small helper for repositories.
func entityCostKey(storeID, productID id.ID) entity.CostKey {
	return entity.CostKey{StoreID: storeID, ProductID: productID}
}
