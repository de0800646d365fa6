package entity

import (
	"time"

	"trailerpos/internal/core/id"
	"trailerpos/internal/core/types"
)

// Reason classifies a stock movement.
type Reason string

const (
	ReasonPurchase     Reason = "PURCHASE"
	ReasonSale         Reason = "SALE"
	ReasonAdjustment   Reason = "ADJUSTMENT"
	ReasonReturnSale   Reason = "RETURN_SALE"
	ReasonReturnVendor Reason = "RETURN_VENDOR"
)

// IsValid reports whether r is one of the known reasons.
func (r Reason) IsValid() bool {
	switch r {
	case ReasonPurchase, ReasonSale, ReasonAdjustment, ReasonReturnSale, ReasonReturnVendor:
		return true
	}
	return false
}

// RefKind names the document kind a ledger entry was produced by.
type RefKind string

const (
	RefSale     RefKind = "sale"
	RefPurchase RefKind = "purchase"
	RefWaste    RefKind = "waste"
)

// Reference links a ledger entry to its source document.
type Reference struct {
	Kind RefKind `json:"kind"`
	ID   id.ID   `json:"id"`
}

// LedgerEntry is one signed quantity change for a product at a store.
//
// Entries are immutable once written. The only permitted mutation is the
// one-time unit cost backfill of a SALE entry written without a cost;
// CostBackfilled records that it happened so replays can verify it.
type LedgerEntry struct {
	ID id.ID `json:"id"`

	// Seq is the insertion order, strictly increasing from 1
	Seq int64 `json:"seq"`

	// Dimensions
	StoreID   id.ID `json:"storeId"`
	ProductID id.ID `json:"productId"`

	// Resources
	Qty      types.Quantity  `json:"qty"`
	UnitCost types.NullMoney `json:"unitCost"`

	Reason         Reason     `json:"reason"`
	Reference      *Reference `json:"reference,omitempty"`
	CostBackfilled bool       `json:"costBackfilled,omitempty"`

	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor,omitempty"`
}

// RefersTo reports whether the entry was produced by the given document.
func (e *LedgerEntry) RefersTo(kind RefKind, docID id.ID) bool {
	return e.Reference != nil && e.Reference.Kind == kind && e.Reference.ID == docID
}

// CostedValue returns -qty * unit_cost, the cost consumed by this entry.
// An entry without a known cost contributes zero.
func (e *LedgerEntry) CostedValue() types.Money {
	if !e.UnitCost.Valid {
		return types.Zero()
	}
	return e.Qty.Neg().Mul(e.UnitCost.Decimal)
}

// CostKey identifies one cost aggregate.
type CostKey struct {
	StoreID   id.ID
	ProductID id.ID
}

// CostState is the running aggregate for one (store, product).
// It is derived from the ledger and written only by the cost aggregator.
type CostState struct {
	StoreID     id.ID          `json:"storeId"`
	ProductID   id.ID          `json:"productId"`
	QtyOnHand   types.Quantity `json:"qtyOnHand"`
	AvgUnitCost types.Money    `json:"avgUnitCost"`

	// LastSeq is the sequence of the last entry folded into this state
	LastSeq   int64     `json:"lastSeq"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Key returns the aggregate key.
func (s CostState) Key() CostKey {
	return CostKey{StoreID: s.StoreID, ProductID: s.ProductID}
}
