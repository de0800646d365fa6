package snapshot

import (
	"context"
	"sync"
	"time"

	"trailerpos/pkg/logger"
)

// Source produces the encoded state and a counter of committed changes.
type Source interface {
	ExportSnapshot(ctx context.Context) ([]byte, error)
	Revision() uint64
}

// Autosaver periodically writes the exported state to a Store.
// Saves are skipped while the revision is unchanged since the last save.
type Autosaver struct {
	source   Source
	store    Store
	interval time.Duration

	mu       sync.Mutex
	saved    bool
	revision uint64
}

// NewAutosaver creates an autosaver. interval <= 0 disables the ticker;
// SaveNow still works.
func NewAutosaver(source Source, store Store, interval time.Duration) *Autosaver {
	return &Autosaver{source: source, store: store, interval: interval}
}

// MarkSaved records the current revision as persisted, e.g. after a restore.
func (a *Autosaver) MarkSaved() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved, a.revision = true, a.source.Revision()
}

// SaveNow exports and saves the state unless it is unchanged since the
// last save. It reports whether a snapshot was written.
func (a *Autosaver) SaveNow(ctx context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rev := a.source.Revision()
	if a.saved && rev == a.revision {
		logger.Debug(ctx, "state unchanged, autosave skipped", "revision", rev)
		return false, nil
	}

	blob, err := a.source.ExportSnapshot(ctx)
	if err != nil {
		return false, err
	}
	info, err := a.store.Save(ctx, blob)
	if err != nil {
		return false, err
	}
	a.saved, a.revision = true, rev

	logger.Debug(ctx, "autosave written", "revision", rev, "id", info.ID)
	return true, nil
}

// Run saves on every tick until ctx is done.
func (a *Autosaver) Run(ctx context.Context) {
	if a.interval <= 0 {
		return
	}
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.SaveNow(ctx); err != nil {
				logger.Error(ctx, "autosave failed", "error", err)
			}
		}
	}
}
