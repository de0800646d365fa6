package order

import (
	"context"
	"fmt"
	"time"

	"trailerpos/internal/core/apperror"
	appctx "trailerpos/internal/core/context"
	"trailerpos/internal/core/entity"
	"trailerpos/internal/core/id"
	"trailerpos/internal/core/numerator"
	"trailerpos/internal/core/security"
	"trailerpos/internal/core/tx"
	"trailerpos/internal/core/types"
	"trailerpos/internal/domain"
	"trailerpos/internal/domain/catalog"
	"trailerpos/pkg/logger"
)

// NumberPrefix is the document number prefix of orders.
const NumberPrefix = "S"

// Ledger appends stock movements.
type Ledger interface {
	Append(ctx context.Context, e entity.LedgerEntry) (entity.LedgerEntry, error)
}

// Catalog resolves the reference data an order needs.
type Catalog interface {
	GetStore(ctx context.Context, storeID id.ID) (*catalog.Store, error)
	GetCashier(ctx context.Context, cashierID id.ID) (*catalog.Cashier, error)
	GetMenuItem(ctx context.Context, menuItemID id.ID) (*catalog.MenuItem, error)
	GetRecipe(ctx context.Context, menuItemID id.ID) (*catalog.Recipe, error)
	GetTaxRate(ctx context.Context, taxRateID id.ID) (*catalog.TaxRate, error)
	GetModifierOption(ctx context.Context, optionID id.ID) (*catalog.ModifierOption, error)
	GetModifierGroup(ctx context.Context, groupID id.ID) (*catalog.ModifierGroup, error)
}

// Service is the order engine.
type Service struct {
	repo      Repository
	ledger    Ledger
	catalog   Catalog
	numerator numerator.Generator
	txManager tx.Manager
	lock      security.OrderLockPolicy
	hooks     *domain.HookRegistry[*Order]
	now       func() time.Time
}

// Config wires a Service.
type Config struct {
	Repo      Repository
	Ledger    Ledger
	Catalog   Catalog
	Numerator numerator.Generator
	TxManager tx.Manager

	// LockPolicy defaults to security.NeverLock
	LockPolicy security.OrderLockPolicy
	Now        func() time.Time
}

// NewService creates the order engine. The lock policy is enforced as a
// before-update hook on every mutation except payments.
func NewService(cfg Config) *Service {
	s := &Service{
		repo:      cfg.Repo,
		ledger:    cfg.Ledger,
		catalog:   cfg.Catalog,
		numerator: cfg.Numerator,
		txManager: cfg.TxManager,
		lock:      cfg.LockPolicy,
		hooks:     domain.NewHookRegistry[*Order](),
		now:       cfg.Now,
	}
	if s.lock == nil {
		s.lock = security.NeverLock{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.hooks.OnBeforeUpdate(s.ensureOpen)
	return s
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Order] {
	return s.hooks
}

// ensureOpen rejects mutation of an order the lock policy considers closed.
func (s *Service) ensureOpen(ctx context.Context, o *Order) error {
	payments, err := s.repo.Payments(ctx, o.ID)
	if err != nil {
		return fmt.Errorf("get payments: %w", err)
	}
	lines, err := s.repo.Lines(ctx, o.ID)
	if err != nil {
		return fmt.Errorf("get lines: %w", err)
	}

	locked, err := s.lock.IsLocked(ctx, o.Facts(paidTotal(payments), len(lines)))
	if err != nil {
		return apperror.NewInternal(err).WithDetail("policy", s.lock.String())
	}
	if locked {
		return apperror.NewInvalidTransition("order", "locked", "modified").
			WithDetail("orderId", o.ID.String()).
			WithDetail("policy", s.lock.String())
	}
	return nil
}

func paidTotal(payments []Payment) types.Money {
	total := types.Zero()
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

// OpenInput describes a new order header.
type OpenInput struct {
	StoreID   id.ID
	CashierID id.ID
	OrderType Type
}

// OpenOrder creates an order with all amounts at zero.
func (s *Service) OpenOrder(ctx context.Context, in OpenInput) (*Order, error) {
	o := NewOrder(in.StoreID, in.CashierID, in.OrderType, s.now(), appctx.GetActorName(ctx))
	if err := o.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.catalog.GetStore(ctx, in.StoreID); err != nil {
			return err
		}
		if _, err := s.catalog.GetCashier(ctx, in.CashierID); err != nil {
			return err
		}

		if err := s.hooks.RunBeforeCreate(ctx, o); err != nil {
			return err
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(NumberPrefix), o.CreatedAt)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		o.Number = number

		if err := s.repo.Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.RunAfterCreate(ctx, o); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "order opened",
		"id", o.ID,
		"number", o.Number,
		"store_id", o.StoreID)

	return o, nil
}

// Get returns an order header.
func (s *Service) Get(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.repo.Get(ctx, orderID)
}

// List returns order headers matching filter in creation order.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Order, error) {
	return s.repo.List(ctx, filter)
}

// LineInput describes a line to add.
type LineInput struct {
	OrderID    id.ID
	MenuItemID id.ID
	Qty        types.Quantity

	// UnitPrice defaults to the menu item price
	UnitPrice *types.Money
}

// AddLine sells a menu item on an order. Each recipe component produces one
// SALE ledger entry of -(qty_per_yield * qty) before the totals move.
// The whole operation is atomic: an unknown ingredient leaves no entries behind.
func (s *Service) AddLine(ctx context.Context, in LineInput) (*Line, error) {
	if !in.Qty.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "qty")
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return nil, apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unitPrice")
	}

	var line *Line
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.Get(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if err := s.hooks.RunBeforeUpdate(ctx, o); err != nil {
			return err
		}

		item, err := s.catalog.GetMenuItem(ctx, in.MenuItemID)
		if err != nil {
			return err
		}
		recipe, err := s.catalog.GetRecipe(ctx, item.ID)
		if err != nil {
			return err
		}
		rate, err := s.catalog.GetTaxRate(ctx, item.TaxRateID)
		if err != nil {
			return err
		}

		existing, err := s.repo.Lines(ctx, o.ID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}

		line = &Line{
			ID:         id.New(),
			OrderID:    o.ID,
			LineNo:     len(existing) + 1,
			MenuItemID: item.ID,
			Qty:        in.Qty,
			UnitPrice:  item.Price,
			TaxRate:    rate.Rate,
			CreatedAt:  s.now().UTC(),
		}
		if in.UnitPrice != nil {
			line.UnitPrice = *in.UnitPrice
		}

		for _, c := range recipe.Components {
			if err := s.consume(ctx, o, c.ProductID, c.QtyPerYield.Mul(line.Qty)); err != nil {
				return err
			}
		}

		if err := s.repo.AddLine(ctx, line); err != nil {
			return fmt.Errorf("add line: %w", err)
		}
		subtotal, tax := line.Amounts()
		return s.addAmounts(ctx, o.ID, subtotal, tax)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order line added",
		"order_id", line.OrderID,
		"menu_item_id", line.MenuItemID,
		"qty", line.Qty.String())

	return line, nil
}

// consume appends a SALE entry without a cost; the aggregator backfills it.
func (s *Service) consume(ctx context.Context, o *Order, productID id.ID, qty types.Quantity) error {
	_, err := s.ledger.Append(ctx, entity.LedgerEntry{
		StoreID:   o.StoreID,
		ProductID: productID,
		Qty:       qty.Neg(),
		Reason:    entity.ReasonSale,
		Reference: &entity.Reference{Kind: entity.RefSale, ID: o.ID},
	})
	if err != nil {
		return fmt.Errorf("consume %s: %w", productID, err)
	}
	return nil
}

// addAmounts re-reads the order so the COGS written by the aggregator is
// kept, then adds the amounts.
func (s *Service) addAmounts(ctx context.Context, orderID id.ID, subtotal, tax types.Money) error {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	o.AddAmounts(subtotal, tax)
	o.TouchAt(s.now())
	if err := s.repo.Update(ctx, o); err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}

// AddModifier applies a modifier option to a line. The option's group must
// be offered with the line's menu item, and a group accepts at most
// MaxSelect options per line (0 means unlimited). Price and tax change by
// round2(delta) and round2(delta*rate), once per line.
func (s *Service) AddModifier(ctx context.Context, lineID, optionID id.ID) (*LineModifier, error) {
	var mod *LineModifier
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		line, err := s.repo.GetLine(ctx, lineID)
		if err != nil {
			return err
		}
		o, err := s.repo.Get(ctx, line.OrderID)
		if err != nil {
			return err
		}
		if err := s.hooks.RunBeforeUpdate(ctx, o); err != nil {
			return err
		}

		opt, err := s.catalog.GetModifierOption(ctx, optionID)
		if err != nil {
			return err
		}
		group, err := s.catalog.GetModifierGroup(ctx, opt.GroupID)
		if err != nil {
			return err
		}
		item, err := s.catalog.GetMenuItem(ctx, line.MenuItemID)
		if err != nil {
			return err
		}
		if !item.OffersGroup(group.ID) {
			return apperror.NewValidation("modifier group is not offered with this menu item").
				WithDetail("group", group.Name).
				WithDetail("menuItem", item.Code)
		}

		applied, err := s.repo.Modifiers(ctx, line.ID)
		if err != nil {
			return fmt.Errorf("get modifiers: %w", err)
		}
		if group.MaxSelect > 0 && countGroup(applied, group.ID) >= group.MaxSelect {
			return apperror.NewValidation("too many options selected").
				WithDetail("group", group.Name).
				WithDetail("maxSelect", group.MaxSelect)
		}

		if opt.Consumes() {
			if err := s.consume(ctx, o, *opt.IngredientID, opt.QtyDelta.Mul(line.Qty)); err != nil {
				return err
			}
		}

		mod = &LineModifier{
			ID:         id.New(),
			OrderID:    o.ID,
			LineID:     line.ID,
			OptionID:   opt.ID,
			GroupID:    group.ID,
			PriceDelta: opt.PriceDelta,
			CreatedAt:  s.now().UTC(),
		}
		if err := s.repo.AddModifier(ctx, mod); err != nil {
			return fmt.Errorf("add modifier: %w", err)
		}
		subtotal, tax := mod.Amounts(line.TaxRate)
		return s.addAmounts(ctx, o.ID, subtotal, tax)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order modifier added",
		"order_id", mod.OrderID,
		"line_id", mod.LineID,
		"option_id", mod.OptionID)

	return mod, nil
}

func countGroup(mods []LineModifier, groupID id.ID) int {
	n := 0
	for _, m := range mods {
		if m.GroupID == groupID {
			n++
		}
	}
	return n
}

// SetDiscount replaces the discount; only the grand total is recomputed.
func (s *Service) SetDiscount(ctx context.Context, orderID id.ID, amount types.Money) (*Order, error) {
	return s.adjust(ctx, orderID, "discount", amount, (*Order).SetDiscount)
}

// SetTip replaces the tip; only the grand total is recomputed.
func (s *Service) SetTip(ctx context.Context, orderID id.ID, amount types.Money) (*Order, error) {
	return s.adjust(ctx, orderID, "tip", amount, (*Order).SetTip)
}

func (s *Service) adjust(ctx context.Context, orderID id.ID, field string, amount types.Money, apply func(*Order, types.Money)) (*Order, error) {
	if amount.IsNegative() {
		return nil, apperror.NewValidation(field+" cannot be negative").
			WithDetail("field", field)
	}

	var o *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.repo.Get(ctx, orderID)
		if err != nil {
			return err
		}
		if err := s.hooks.RunBeforeUpdate(ctx, o); err != nil {
			return err
		}
		apply(o, amount)
		o.TouchAt(s.now())
		return s.repo.Update(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order "+field+" set",
		"order_id", o.ID,
		"amount", amount.String(),
		"grand_total", o.GrandTotal.String())

	return o, nil
}

// RecordPayment appends an informational payment. Totals and the ledger are untouched.
func (s *Service) RecordPayment(ctx context.Context, orderID id.ID, method PaymentMethod, amount types.Money) (*Payment, error) {
	if !method.IsValid() {
		return nil, apperror.NewValidation("invalid payment method").
			WithDetail("field", "method").
			WithDetail("value", string(method))
	}
	if !amount.IsPositive() {
		return nil, apperror.NewValidation("payment amount must be positive").
			WithDetail("field", "amount")
	}

	p := &Payment{
		ID:      id.New(),
		OrderID: orderID,
		Method:  method,
		Amount:  amount,
		PaidAt:  s.now().UTC(),
		Actor:   appctx.GetActorName(ctx),
	}
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.Get(ctx, orderID); err != nil {
			return err
		}
		return s.repo.AddPayment(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment recorded",
		"order_id", orderID,
		"method", method,
		"amount", amount.String())

	return p, nil
}

// LineDetails is a line with its modifiers.
type LineDetails struct {
	Line
	Modifiers []LineModifier `json:"modifiers"`
}

// Details is an order with everything attached to it.
type Details struct {
	Order     *Order        `json:"order"`
	Lines     []LineDetails `json:"lines"`
	Payments  []Payment     `json:"payments"`
	PaidTotal types.Money   `json:"paidTotal"`
}

// GetDetails returns an order with lines, modifiers and payments.
func (s *Service) GetDetails(ctx context.Context, orderID id.ID) (*Details, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.Lines(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	payments, err := s.repo.Payments(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get payments: %w", err)
	}

	d := &Details{Order: o, Payments: payments, PaidTotal: paidTotal(payments)}
	for _, l := range lines {
		mods, err := s.repo.Modifiers(ctx, l.ID)
		if err != nil {
			return nil, fmt.Errorf("get modifiers: %w", err)
		}
		d.Lines = append(d.Lines, LineDetails{Line: l, Modifiers: mods})
	}
	return d, nil
}
