package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailerpos/internal/core/types"
)

func facts(grand, paid string, lines int) OrderFacts {
	return OrderFacts{
		Subtotal:       types.MustMoney(grand),
		TaxTotal:       types.Zero(),
		DiscountAmount: types.Zero(),
		TipAmount:      types.Zero(),
		GrandTotal:     types.MustMoney(grand),
		PaidTotal:      types.MustMoney(paid),
		LineCount:      lines,
	}
}

func TestParseOrderLockPolicy(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{value: "", want: "never"},
		{value: "NEVER", want: "never"},
		{value: " paid ", want: "paid"},
		{value: "line_count > 3", want: "line_count > 3"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			p, err := ParseOrderLockPolicy(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestParseOrderLockPolicy_RejectsBadRules(t *testing.T) {
	for _, expr := range []string{"grand_total +", "grand_total * 2", "unknown_var > 1"} {
		_, err := ParseOrderLockPolicy(expr)
		assert.Error(t, err, expr)
	}
}

func TestPaidInFullLock(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		facts OrderFacts
		want  bool
	}{
		{name: "unpaid", facts: facts("9.68", "0", 1), want: false},
		{name: "partly paid", facts: facts("9.68", "5.00", 1), want: false},
		{name: "paid in full", facts: facts("9.68", "9.68", 1), want: true},
		{name: "overpaid", facts: facts("9.68", "20", 1), want: true},
		{name: "no lines", facts: facts("0", "1.00", 0), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locked, err := PaidInFullLock{}.IsLocked(ctx, tt.facts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, locked)
		})
	}
}

func TestExpressionLock(t *testing.T) {
	p, err := NewExpressionLock("paid_total >= grand_total && line_count > 0")
	require.NoError(t, err)

	locked, err := p.IsLocked(context.Background(), facts("10", "10", 2))
	require.NoError(t, err)
	assert.True(t, locked)

	locked, err = p.IsLocked(context.Background(), facts("10", "3", 2))
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestNeverLock(t *testing.T) {
	locked, err := NeverLock{}.IsLocked(context.Background(), facts("1", "1", 1))
	require.NoError(t, err)
	assert.False(t, locked)
}
