// Package security provides configurable rules that guard document mutation.
package security

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"trailerpos/internal/core/types"
)

// OrderFacts is the view of an order a lock rule evaluates.
type OrderFacts struct {
	Subtotal       types.Money
	TaxTotal       types.Money
	DiscountAmount types.Money
	TipAmount      types.Money
	GrandTotal     types.Money
	PaidTotal      types.Money
	LineCount      int
}

// OrderLockPolicy decides whether an order still accepts lines, modifiers,
// discount and tip edits. Payments are always accepted.
type OrderLockPolicy interface {
	IsLocked(ctx context.Context, facts OrderFacts) (bool, error)
	String() string
}

// NeverLock keeps orders open forever (historical behavior).
type NeverLock struct{}

func (NeverLock) IsLocked(ctx context.Context, facts OrderFacts) (bool, error) { return false, nil }
func (NeverLock) String() string                                                { return "never" }

// PaidInFullLock closes an order once its payments cover the grand total.
// An order without lines is never considered paid.
type PaidInFullLock struct{}

func (PaidInFullLock) IsLocked(ctx context.Context, facts OrderFacts) (bool, error) {
	if facts.LineCount == 0 || !facts.PaidTotal.IsPositive() {
		return false, nil
	}
	return facts.PaidTotal.GreaterThanOrEqual(facts.GrandTotal), nil
}

func (PaidInFullLock) String() string { return "paid" }

// ExpressionLock evaluates a CEL boolean expression over the order facts.
// Variables: subtotal, tax_total, discount_amount, tip_amount, grand_total,
// paid_total (double) and line_count (int).
type ExpressionLock struct {
	source  string
	program cel.Program
}

// NewExpressionLock compiles expr; it must produce a bool.
func NewExpressionLock(expr string) (*ExpressionLock, error) {
	env, err := cel.NewEnv(
		cel.Variable("subtotal", cel.DoubleType),
		cel.Variable("tax_total", cel.DoubleType),
		cel.Variable("discount_amount", cel.DoubleType),
		cel.Variable("tip_amount", cel.DoubleType),
		cel.Variable("grand_total", cel.DoubleType),
		cel.Variable("paid_total", cel.DoubleType),
		cel.Variable("line_count", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile lock rule %q: %w", expr, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("lock rule %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build lock rule program: %w", err)
	}

	return &ExpressionLock{source: expr, program: prg}, nil
}

func (p *ExpressionLock) IsLocked(ctx context.Context, facts OrderFacts) (bool, error) {
	out, _, err := p.program.ContextEval(ctx, map[string]any{
		"subtotal":        facts.Subtotal.InexactFloat64(),
		"tax_total":       facts.TaxTotal.InexactFloat64(),
		"discount_amount": facts.DiscountAmount.InexactFloat64(),
		"tip_amount":      facts.TipAmount.InexactFloat64(),
		"grand_total":     facts.GrandTotal.InexactFloat64(),
		"paid_total":      facts.PaidTotal.InexactFloat64(),
		"line_count":      int64(facts.LineCount),
	})
	if err != nil {
		return false, fmt.Errorf("evaluate lock rule: %w", err)
	}
	locked, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("lock rule returned %T", out.Value())
	}
	return locked, nil
}

func (p *ExpressionLock) String() string { return p.source }

// ParseOrderLockPolicy maps a config value to a policy:
// "" or "never", "paid", or anything else as a CEL expression.
func ParseOrderLockPolicy(value string) (OrderLockPolicy, error) {
	switch v := strings.TrimSpace(value); strings.ToLower(v) {
	case "", "never":
		return NeverLock{}, nil
	case "paid":
		return PaidInFullLock{}, nil
	default:
		return NewExpressionLock(v)
	}
}
