// Package numerator provides document auto-numbering on top of a sequence store.
package numerator

import (
	"context"
	"fmt"
	"time"

	corenumerator "trailerpos/internal/core/numerator"
)

// SequenceStore persists named counters.
// Next must run inside the caller's transaction.
type SequenceStore interface {
	// NextSequence increments key and returns the new value (first call returns 1).
	NextSequence(ctx context.Context, key string) (int64, error)
}

// Service provides document numbering functionality.
type Service struct {
	store SequenceStore
}

// Compile-time check that Service implements corenumerator.Generator.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator service over store.
func New(store SequenceStore) *Service {
	return &Service{store: store}
}

// GetNextNumber generates the next document number.
// Pattern: PREFIX-YEAR-XXXXX (e.g., S-2026-00001)
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time) (string, error) {
	if s == nil || s.store == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	num, err := s.store.NextSequence(ctx, BuildKey(cfg, period))
	if err != nil {
		return "", fmt.Errorf("next sequence: %w", err)
	}

	return FormatNumber(cfg, period, num), nil
}

// BuildKey creates the sequence key based on config and period.
func BuildKey(cfg corenumerator.Config, period time.Time) string {
	switch cfg.ResetPeriod {
	case "month":
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006_01"))
	case "year":
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006"))
	default:
		return cfg.Prefix
	}
}

// FormatNumber creates the final number string.
func FormatNumber(cfg corenumerator.Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}

	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}

// ParseNumber extracts numeric part from formatted number.
// Returns -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	var num int64
	patterns := []string{
		"%*[^-]-%*d-%d",
		"%*[^-]-%d",
	}

	for _, pattern := range patterns {
		if _, err := fmt.Sscanf(formatted, pattern, &num); err == nil {
			return num
		}
	}

	return -1
}
