package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"trailerpos/internal/core/id"
)

// DefaultRetain is how many snapshots a store keeps by default.
const DefaultRetain = 20

// Info describes a persisted snapshot.
type Info struct {
	ID        id.ID     `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	SizeBytes int       `db:"size_bytes" json:"sizeBytes"`
	Checksum  string    `db:"checksum" json:"checksum"`
}

// Store persists encoded snapshots. Latest fails with a NotFound error
// when nothing was saved yet.
type Store interface {
	Save(ctx context.Context, blob []byte) (Info, error)
	Latest(ctx context.Context) ([]byte, Info, error)
	List(ctx context.Context, limit int) ([]Info, error)
}

// NewInfo describes blob as saved at now.
func NewInfo(blob []byte, now time.Time) Info {
	return Info{
		ID:        id.New(),
		CreatedAt: now.UTC(),
		SizeBytes: len(blob),
		Checksum:  Checksum(blob),
	}
}

// Checksum is the hex SHA-256 of blob.
func Checksum(blob []byte) string {
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:])
}
