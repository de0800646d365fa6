package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "trailerpos/internal/core/numerator"
)

type mockStore struct {
	mu     sync.Mutex
	values map[string]int64
	err    error
}

func (m *mockStore) NextSequence(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if m.values == nil {
		m.values = make(map[string]int64)
	}
	m.values[key]++
	return m.values[key], nil
}

func TestGetNextNumber_Sequential(t *testing.T) {
	store := &mockStore{}
	svc := New(store)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("S")
	period := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	num, err := svc.GetNextNumber(ctx, cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "S-2026-00001", num)

	num, err = svc.GetNextNumber(ctx, cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "S-2026-00002", num)
}

func TestGetNextNumber_ResetsPerYear(t *testing.T) {
	store := &mockStore{}
	svc := New(store)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("P")

	_, err := svc.GetNextNumber(ctx, cfg, time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	num, err := svc.GetNextNumber(ctx, cfg, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "P-2026-00001", num)
}

func TestGetNextNumber_StoreError(t *testing.T) {
	svc := New(&mockStore{err: errors.New("boom")})

	_, err := svc.GetNextNumber(context.Background(), corenumerator.DefaultConfig("W"), time.Now())
	assert.Error(t, err)
}

func TestFormatAndParseNumber(t *testing.T) {
	period := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	cfg := corenumerator.Config{Prefix: "W", PadWidth: 3}
	assert.Equal(t, "W-042", FormatNumber(cfg, period, 42))
	assert.Equal(t, "W", BuildKey(cfg, period))

	cfg = corenumerator.DefaultConfig("S")
	assert.Equal(t, "S_2026", BuildKey(cfg, period))
	assert.Equal(t, int64(17), ParseNumber(FormatNumber(cfg, period, 17)))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
}
