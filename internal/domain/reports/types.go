// Package reports provides read-only views derived from the ledger,
// the cost aggregates and the orders.
package reports

import (
	"time"

	"trailerpos/internal/core/id"
	"trailerpos/internal/core/types"
)

// --- Current Inventory ---

// InventoryFilter defines filter for inventory reports.
type InventoryFilter struct {
	StoreID id.ID

	// Limit caps the rows (0 means all)
	Limit int
}

// InventoryRow is the on-hand quantity of one ingredient.
type InventoryRow struct {
	ProductID id.ID          `json:"productId"`
	SKU       string         `json:"sku"`
	Name      string         `json:"name"`
	Unit      string         `json:"unit"`
	QtyOnHand types.Quantity `json:"qtyOnHand"`
}

// --- Inventory Valuation ---

// ValuationRow is the stock value of one product at its moving average.
type ValuationRow struct {
	ProductID   id.ID          `json:"productId"`
	SKU         string         `json:"sku"`
	Name        string         `json:"name"`
	QtyOnHand   types.Quantity `json:"qtyOnHand"`
	AvgUnitCost types.Money    `json:"avgUnitCost"`
	Value       types.Money    `json:"value"`
}

// Valuation is the full valuation report.
type Valuation struct {
	Items      []ValuationRow `json:"items"`
	TotalValue types.Money    `json:"totalValue"`
}

// --- Profit ---

// ProfitFilter defines filter for profit reports.
type ProfitFilter struct {
	StoreID id.ID
	From    *time.Time
	To      *time.Time

	// Limit caps the rows (0 means all)
	Limit int
}

// OrderProfitRow is the profitability of one order.
type OrderProfitRow struct {
	OrderID        id.ID       `json:"orderId"`
	Number         string      `json:"number"`
	CreatedAt      time.Time   `json:"createdAt"`
	Subtotal       types.Money `json:"subtotal"`
	TaxTotal       types.Money `json:"taxTotal"`
	TipAmount      types.Money `json:"tipAmount"`
	DiscountAmount types.Money `json:"discountAmount"`
	Revenue        types.Money `json:"revenue"`
	Cogs           types.Money `json:"cogs"`
	GrossProfit    types.Money `json:"grossProfit"`
}

// DailyProfitRow aggregates the orders of one calendar day.
type DailyProfitRow struct {
	Day         string      `json:"day"`
	Orders      int         `json:"orders"`
	Revenue     types.Money `json:"revenue"`
	Cogs        types.Money `json:"cogs"`
	GrossProfit types.Money `json:"grossProfit"`

	// Margin is gross profit over revenue; null when there is no revenue
	Margin types.NullMoney `json:"margin"`
}

// --- Theoretical Food Cost ---

// FoodCostRow is the recipe cost of one menu item at current averages.
type FoodCostRow struct {
	MenuItemID id.ID       `json:"menuItemId"`
	SKU        string      `json:"sku"`
	Name       string      `json:"name"`
	FoodCost   types.Money `json:"foodCost"`
	Price      types.Money `json:"price"`

	// CostPct is food cost over price; null for free items
	CostPct types.NullMoney `json:"costPct"`
}
