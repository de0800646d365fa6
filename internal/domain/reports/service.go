package reports

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/core/tx"
	"trailerpos/internal/core/types"
	"trailerpos/internal/domain/documents/order"
)

// Service provides report generation operations.
// Every report is computed inside one read-only transaction.
type Service struct {
	repo      Repository
	txManager tx.ReadOnlyManager

	// loc decides which calendar day an order falls on
	loc *time.Location
}

// NewService creates a new reports service.
func NewService(repo Repository, txManager tx.ReadOnlyManager, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, txManager: txManager, loc: loc}
}

func requireStore(storeID id.ID) error {
	if id.IsNil(storeID) {
		return apperror.NewValidation("store is required").
			WithDetail("field", "storeId")
	}
	return nil
}

func (s *Service) costIndex(ctx context.Context, storeID id.ID) (map[id.ID]entity.CostState, error) {
	states, err := s.repo.CostStates(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("get cost states: %w", err)
	}
	idx := make(map[id.ID]entity.CostState, len(states))
	for _, st := range states {
		idx[st.ProductID] = st
	}
	return idx, nil
}

func limit[T any](rows []T, n int) []T {
	if n > 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}

// Inventory returns the on-hand quantity of every ingredient, lowest first.
func (s *Service) Inventory(ctx context.Context, filter InventoryFilter) ([]InventoryRow, error) {
	if err := requireStore(filter.StoreID); err != nil {
		return nil, err
	}

	var rows []InventoryRow
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		costs, err := s.costIndex(ctx, filter.StoreID)
		if err != nil {
			return err
		}
		products, err := s.repo.ListProducts(ctx)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		for _, p := range products {
			if !p.IsIngredient {
				continue
			}
			rows = append(rows, InventoryRow{
				ProductID: p.ID,
				SKU:       p.Code,
				Name:      p.Name,
				Unit:      p.Unit,
				QtyOnHand: costs[p.ID].QtyOnHand,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(rows, func(a, b InventoryRow) int {
		return a.QtyOnHand.Cmp(b.QtyOnHand)
	})
	return limit(rows, filter.Limit), nil
}

// Valuation values every product at qty_on_hand * avg_unit_cost, highest first.
func (s *Service) Valuation(ctx context.Context, filter InventoryFilter) (*Valuation, error) {
	if err := requireStore(filter.StoreID); err != nil {
		return nil, err
	}

	report := &Valuation{TotalValue: types.Zero()}
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		costs, err := s.costIndex(ctx, filter.StoreID)
		if err != nil {
			return err
		}
		products, err := s.repo.ListProducts(ctx)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		for _, p := range products {
			st := costs[p.ID]
			row := ValuationRow{
				ProductID:   p.ID,
				SKU:         p.Code,
				Name:        p.Name,
				QtyOnHand:   st.QtyOnHand,
				AvgUnitCost: st.AvgUnitCost,
				Value:       types.Round2(st.QtyOnHand.Mul(st.AvgUnitCost)),
			}
			report.Items = append(report.Items, row)
			report.TotalValue = report.TotalValue.Add(row.Value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(report.Items, func(a, b ValuationRow) int {
		return b.Value.Cmp(a.Value)
	})
	report.Items = limit(report.Items, filter.Limit)
	return report, nil
}

func (s *Service) orders(ctx context.Context, filter ProfitFilter) ([]*order.Order, error) {
	storeID := filter.StoreID
	orders, err := s.repo.Orders(ctx, order.ListFilter{StoreID: &storeID, From: filter.From, To: filter.To})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// OrderProfit returns revenue, COGS and gross profit per order, newest first.
func (s *Service) OrderProfit(ctx context.Context, filter ProfitFilter) ([]OrderProfitRow, error) {
	if err := requireStore(filter.StoreID); err != nil {
		return nil, err
	}

	var rows []OrderProfitRow
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		orders, err := s.orders(ctx, filter)
		if err != nil {
			return err
		}
		for _, o := range orders {
			rows = append(rows, OrderProfitRow{
				OrderID:        o.ID,
				Number:         o.Number,
				CreatedAt:      o.CreatedAt,
				Subtotal:       o.Subtotal,
				TaxTotal:       o.TaxTotal,
				TipAmount:      o.TipAmount,
				DiscountAmount: o.DiscountAmount,
				Revenue:        o.GrandTotal,
				Cogs:           o.CogsTotal,
				GrossProfit:    o.GrossProfit(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(rows, func(a, b OrderProfitRow) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return limit(rows, filter.Limit), nil
}

// DailyProfit groups orders by calendar day, newest first.
// Margin is round4(gross_profit / revenue) and null when revenue is not positive.
func (s *Service) DailyProfit(ctx context.Context, filter ProfitFilter) ([]DailyProfitRow, error) {
	if err := requireStore(filter.StoreID); err != nil {
		return nil, err
	}

	type sums struct {
		orders        int
		revenue, cogs types.Money
	}
	byDay := make(map[string]*sums)

	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		orders, err := s.orders(ctx, filter)
		if err != nil {
			return err
		}
		for _, o := range orders {
			day := o.CreatedAt.In(s.loc).Format(time.DateOnly)
			acc, ok := byDay[day]
			if !ok {
				acc = &sums{revenue: types.Zero(), cogs: types.Zero()}
				byDay[day] = acc
			}
			acc.orders++
			acc.revenue = acc.revenue.Add(o.GrandTotal)
			acc.cogs = acc.cogs.Add(o.CogsTotal)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rows := make([]DailyProfitRow, 0, len(byDay))
	for day, acc := range byDay {
		gp := acc.revenue.Sub(acc.cogs)
		row := DailyProfitRow{
			Day:         day,
			Orders:      acc.orders,
			Revenue:     types.Round2(acc.revenue),
			Cogs:        types.Round2(acc.cogs),
			GrossProfit: types.Round2(gp),
		}
		if acc.revenue.IsPositive() {
			row.Margin = types.Known(types.Round4(gp.Div(acc.revenue)))
		}
		rows = append(rows, row)
	}

	slices.SortFunc(rows, func(a, b DailyProfitRow) int {
		return cmp.Compare(b.Day, a.Day)
	})
	return limit(rows, filter.Limit), nil
}

// FoodCost returns the theoretical recipe cost of every menu item that has
// a non-empty recipe, highest cost share first. Items without a price sort last.
func (s *Service) FoodCost(ctx context.Context, storeID id.ID) ([]FoodCostRow, error) {
	if err := requireStore(storeID); err != nil {
		return nil, err
	}

	var rows []FoodCostRow
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		costs, err := s.costIndex(ctx, storeID)
		if err != nil {
			return err
		}
		items, err := s.repo.ListMenuItems(ctx)
		if err != nil {
			return fmt.Errorf("list menu items: %w", err)
		}

		for _, mi := range items {
			recipe, err := s.repo.GetRecipe(ctx, mi.ID)
			if apperror.IsNotFound(err) {
				continue
			}
			if err != nil {
				return fmt.Errorf("get recipe of %s: %w", mi.Code, err)
			}
			if len(recipe.Components) == 0 {
				continue
			}

			cost := types.Zero()
			for _, c := range recipe.Components {
				cost = cost.Add(c.QtyPerYield.Mul(costs[c.ProductID].AvgUnitCost))
			}

			row := FoodCostRow{
				MenuItemID: mi.ID,
				SKU:        mi.Code,
				Name:       mi.Name,
				FoodCost:   types.Round4(cost),
				Price:      mi.Price,
			}
			if mi.Price.IsPositive() {
				row.CostPct = types.Known(types.Round4(cost.Div(mi.Price)))
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(rows, func(a, b FoodCostRow) int {
		switch {
		case !a.CostPct.Valid && !b.CostPct.Valid:
			return 0
		case !a.CostPct.Valid:
			return 1
		case !b.CostPct.Valid:
			return -1
		}
		return b.CostPct.Decimal.Cmp(a.CostPct.Decimal)
	})
	return rows, nil
}
