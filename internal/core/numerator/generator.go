package numerator

import (
	"context"
	"time"
)

// Generator generates sequential document numbers.
// Implementations keep their counters inside the transactional state, so a
// rolled back operation does not burn a number.
type Generator interface {
	// GetNextNumber generates the next document number.
	// Pattern: PREFIX-YEAR-XXXXX (e.g., S-2026-00001)
	GetNextNumber(ctx context.Context, cfg Config, period time.Time) (string, error)
}
