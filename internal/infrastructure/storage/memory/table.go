package memory

import (
	"slices"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/core/types"
	"trailerpos/internal/domain/catalog"
	"trailerpos/internal/domain/documents/purchase"
)

// table stores rows by ID in insertion order with an optional unique key.
type table[T any] struct {
	entity string
	rows   map[id.ID]T
	order  []id.ID
	keys   map[string]id.ID
	clone  func(T) T
}

type tableOption[T any] func(*table[T])

// withClone copies the reference fields of a row on the way in and out.
func withClone[T any](fn func(T) T) tableOption[T] {
	return func(t *table[T]) { t.clone = fn }
}

func newTable[T any](entity string, opts ...tableOption[T]) *table[T] {
	t := &table[T]{
		entity: entity,
		rows:   make(map[id.ID]T),
		keys:   make(map[string]id.ID),
		clone:  func(v T) T { return v },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// insert adds a row. key may be empty when the row has no unique key.
func (t *table[T]) insert(tx *Tx, rowID id.ID, key string, v T) error {
	if _, ok := t.rows[rowID]; ok {
		return apperror.NewDuplicate(t.entity, "id", rowID.String())
	}
	if key != "" {
		if _, ok := t.keys[key]; ok {
			return apperror.NewDuplicate(t.entity, "code", key)
		}
		t.keys[key] = rowID
	}
	t.rows[rowID] = t.clone(v)
	t.order = append(t.order, rowID)

	tx.onRollback(func() {
		delete(t.rows, rowID)
		if key != "" {
			delete(t.keys, key)
		}
		t.order = t.order[:len(t.order)-1]
	})
	return nil
}

// update replaces an existing row. Unique keys are immutable.
func (t *table[T]) update(tx *Tx, rowID id.ID, v T) error {
	prev, ok := t.rows[rowID]
	if !ok {
		return apperror.NewNotFound(t.entity, rowID.String())
	}
	t.rows[rowID] = t.clone(v)
	tx.onRollback(func() { t.rows[rowID] = prev })
	return nil
}

// upsert inserts or replaces a row that has no unique key.
func (t *table[T]) upsert(tx *Tx, rowID id.ID, v T) error {
	if _, ok := t.rows[rowID]; ok {
		return t.update(tx, rowID, v)
	}
	return t.insert(tx, rowID, "", v)
}

func (t *table[T]) get(rowID id.ID) (T, error) {
	v, ok := t.rows[rowID]
	if !ok {
		var zero T
		return zero, apperror.NewNotFound(t.entity, rowID.String())
	}
	return t.clone(v), nil
}

func (t *table[T]) has(rowID id.ID) bool {
	_, ok := t.rows[rowID]
	return ok
}

func (t *table[T]) byKey(key string) (T, error) {
	rowID, ok := t.keys[key]
	if !ok {
		var zero T
		return zero, apperror.NewNotFound(t.entity, key)
	}
	return t.get(rowID)
}

// all returns copies of every row in insertion order.
func (t *table[T]) all() []T {
	out := make([]T, 0, len(t.order))
	for _, rowID := range t.order {
		out = append(out, t.clone(t.rows[rowID]))
	}
	return out
}

// pick returns copies of the given rows, skipping IDs that are gone.
func (t *table[T]) pick(ids []id.ID) []T {
	out := make([]T, 0, len(ids))
	for _, rowID := range ids {
		if v, ok := t.rows[rowID]; ok {
			out = append(out, t.clone(v))
		}
	}
	return out
}

// --- Ledger ---

// ledger is the append-only entry log with its lookup indexes.
type ledger struct {
	entries []entity.LedgerEntry
	byKey   map[entity.CostKey][]int
	byRef   map[entity.Reference][]int
}

func newLedger() *ledger {
	return &ledger{
		byKey: make(map[entity.CostKey][]int),
		byRef: make(map[entity.Reference][]int),
	}
}

func (l *ledger) lastSeq() int64 {
	return int64(len(l.entries))
}

func (l *ledger) append(tx *Tx, e entity.LedgerEntry) entity.LedgerEntry {
	e = cloneEntry(e)
	e.Seq = l.lastSeq() + 1
	pos := len(l.entries)
	key := entityCostKey(e.StoreID, e.ProductID)

	l.entries = append(l.entries, e)
	l.byKey[key] = append(l.byKey[key], pos)
	if e.Reference != nil {
		l.byRef[*e.Reference] = append(l.byRef[*e.Reference], pos)
	}

	ref := e.Reference
	tx.onRollback(func() {
		l.entries = l.entries[:pos]
		l.byKey[key] = popIndex(l.byKey[key])
		if len(l.byKey[key]) == 0 {
			delete(l.byKey, key)
		}
		if ref != nil {
			l.byRef[*ref] = popIndex(l.byRef[*ref])
			if len(l.byRef[*ref]) == 0 {
				delete(l.byRef, *ref)
			}
		}
	})
	return cloneEntry(e)
}

func popIndex(ix []int) []int {
	if len(ix) == 0 {
		return ix
	}
	return ix[:len(ix)-1]
}

func (l *ledger) get(seq int64) (entity.LedgerEntry, error) {
	if seq < 1 || seq > l.lastSeq() {
		return entity.LedgerEntry{}, apperror.NewNotFound("ledger entry", seq)
	}
	return cloneEntry(l.entries[seq-1]), nil
}

func (l *ledger) backfill(tx *Tx, seq int64, cost types.Money) error {
	if seq < 1 || seq > l.lastSeq() {
		return apperror.NewNotFound("ledger entry", seq)
	}
	e := &l.entries[seq-1]
	if e.Reason != entity.ReasonSale {
		return apperror.NewConsistency("only sale entries may be backfilled").
			WithDetail("seq", seq).
			WithDetail("reason", string(e.Reason))
	}
	if e.UnitCost.Valid {
		return apperror.NewConsistency("ledger entry already has a unit cost").
			WithDetail("seq", seq)
	}
	prevCost, prevFlag := e.UnitCost, e.CostBackfilled
	e.UnitCost = types.Known(cost)
	e.CostBackfilled = true
	tx.onRollback(func() {
		l.entries[seq-1].UnitCost = prevCost
		l.entries[seq-1].CostBackfilled = prevFlag
	})
	return nil
}

func (l *ledger) pick(positions []int) []entity.LedgerEntry {
	out := make([]entity.LedgerEntry, 0, len(positions))
	for _, pos := range positions {
		if pos < len(l.entries) {
			out = append(out, cloneEntry(l.entries[pos]))
		}
	}
	return out
}

// --- Cost states ---

type costTable struct {
	states map[entity.CostKey]entity.CostState
	order  []entity.CostKey
}

func newCostTable() *costTable {
	return &costTable{states: make(map[entity.CostKey]entity.CostState)}
}

func (c *costTable) put(tx *Tx, s entity.CostState) {
	key := s.Key()
	prev, existed := c.states[key]
	c.states[key] = s
	if !existed {
		c.order = append(c.order, key)
	}
	tx.onRollback(func() {
		if existed {
			c.states[key] = prev
			return
		}
		delete(c.states, key)
		c.order = c.order[:len(c.order)-1]
	})
}

func (c *costTable) all() []entity.CostState {
	out := make([]entity.CostState, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.states[key])
	}
	return out
}

// --- Clones ---

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneEntry(e entity.LedgerEntry) entity.LedgerEntry {
	e.Reference = clonePtr(e.Reference)
	return e
}

func cloneCashier(c catalog.Cashier) catalog.Cashier {
	c.Roles = slices.Clone(c.Roles)
	return c
}

func cloneProduct(p catalog.Product) catalog.Product {
	p.CategoryID = clonePtr(p.CategoryID)
	p.TaxRateID = clonePtr(p.TaxRateID)
	return p
}

func cloneMenuItem(m catalog.MenuItem) catalog.MenuItem {
	m.CategoryID = clonePtr(m.CategoryID)
	m.ModifierGroupIDs = slices.Clone(m.ModifierGroupIDs)
	return m
}

func cloneRecipe(r catalog.Recipe) catalog.Recipe {
	r.Components = slices.Clone(r.Components)
	return r
}

func cloneOption(o catalog.ModifierOption) catalog.ModifierOption {
	o.IngredientID = clonePtr(o.IngredientID)
	return o
}

func clonePurchase(p purchase.Purchase) purchase.Purchase {
	p.ReceivedAt = clonePtr(p.ReceivedAt)
	p.Lines = slices.Clone(p.Lines)
	return p
}
