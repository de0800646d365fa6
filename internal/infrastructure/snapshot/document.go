// Package snapshot defines the full-state export of the engine and its
// binary encoding.
package snapshot

import (
	"time"

	"trailerpos/internal/core/entity"
	"trailerpos/internal/domain/catalog"
	"trailerpos/internal/domain/documents/order"
	"trailerpos/internal/domain/documents/purchase"
	"trailerpos/internal/domain/documents/waste"
)

// FormatVersion is the document layout version written by Encode.
const FormatVersion = 1

// Document is the complete engine state. Slices are in insertion order;
// Ledger is ordered by Seq.
type Document struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`

	Catalog Catalog `json:"catalog"`

	Orders    []order.Order        `json:"orders"`
	Lines     []order.Line         `json:"lines"`
	Modifiers []order.LineModifier `json:"modifiers"`
	Payments  []order.Payment      `json:"payments"`

	Purchases []purchase.Purchase `json:"purchases"`
	Waste     []waste.Event       `json:"waste"`

	Ledger     []entity.LedgerEntry `json:"ledger"`
	CostStates []entity.CostState   `json:"costStates"`

	// Sequences holds the document number counters
	Sequences map[string]int64 `json:"sequences"`
}

// Catalog is the reference data part of a snapshot.
type Catalog struct {
	Stores          []catalog.Store          `json:"stores"`
	Cashiers        []catalog.Cashier        `json:"cashiers"`
	TaxRates        []catalog.TaxRate        `json:"taxRates"`
	Units           []catalog.Unit           `json:"units"`
	Categories      []catalog.Category       `json:"categories"`
	Products        []catalog.Product        `json:"products"`
	MenuItems       []catalog.MenuItem       `json:"menuItems"`
	Recipes         []catalog.Recipe         `json:"recipes"`
	ModifierGroups  []catalog.ModifierGroup  `json:"modifierGroups"`
	ModifierOptions []catalog.ModifierOption `json:"modifierOptions"`
	Suppliers       []catalog.Supplier       `json:"suppliers"`
}
