// Package file provides a snapshot store on the local filesystem for
// deployments without PostgreSQL.
package file

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/afero"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/core/id"
	"trailerpos/internal/infrastructure/snapshot"
	"trailerpos/pkg/logger"
)

const (
	ext        = ".tps"
	timeLayout = "20060102T150405.000000000Z"
)

// SnapshotStore keeps one file per snapshot in a directory:
//
//	<dir>/20260314T123000.000000000Z_<uuid>.tps
//
// Names sort by creation time. Each file is written to a temporary name,
// synced and renamed, so a crash never leaves a partial snapshot visible.
type SnapshotStore struct {
	fs     afero.Fs
	dir    string
	retain int
	now    func() time.Time
}

var _ snapshot.Store = (*SnapshotStore)(nil)

// NewSnapshotStore creates a store in dir on the OS filesystem.
func NewSnapshotStore(dir string, retain int) *SnapshotStore {
	return NewSnapshotStoreFs(afero.NewOsFs(), dir, retain)
}

// NewSnapshotStoreFs creates a store on fs. retain <= 0 uses snapshot.DefaultRetain.
func NewSnapshotStoreFs(fs afero.Fs, dir string, retain int) *SnapshotStore {
	if retain <= 0 {
		retain = snapshot.DefaultRetain
	}
	return &SnapshotStore{fs: fs, dir: dir, retain: retain, now: time.Now}
}

func fileName(info snapshot.Info) string {
	return info.CreatedAt.UTC().Format(timeLayout) + "_" + info.ID.String() + ext
}

func parseName(name string) (snapshot.Info, bool) {
	stem, ok := strings.CutSuffix(name, ext)
	if !ok {
		return snapshot.Info{}, false
	}
	stamp, rawID, ok := strings.Cut(stem, "_")
	if !ok {
		return snapshot.Info{}, false
	}
	at, err := time.Parse(timeLayout, stamp)
	if err != nil {
		return snapshot.Info{}, false
	}
	sid, err := id.Parse(rawID)
	if err != nil {
		return snapshot.Info{}, false
	}
	return snapshot.Info{ID: sid, CreatedAt: at}, true
}

// Save writes blob atomically and removes snapshots beyond the retention.
func (s *SnapshotStore) Save(ctx context.Context, blob []byte) (snapshot.Info, error) {
	info := snapshot.NewInfo(blob, s.now())

	if err := s.fs.MkdirAll(s.dir, 0o750); err != nil {
		return snapshot.Info{}, apperror.NewStorage(fmt.Errorf("create snapshot dir: %w", err))
	}

	final := filepath.Join(s.dir, fileName(info))
	if err := s.writeAtomic(final, blob); err != nil {
		return snapshot.Info{}, apperror.NewStorage(err)
	}

	if err := s.prune(ctx); err != nil {
		logger.Warn(ctx, "snapshot pruning failed", "dir", s.dir, "error", err)
	}

	logger.Info(ctx, "snapshot saved",
		"store", "file",
		"path", final,
		"bytes", info.SizeBytes)

	return info, nil
}

func (s *SnapshotStore) writeAtomic(path string, blob []byte) error {
	tmp, err := afero.TempFile(s.fs, s.dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func(cause error) error {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return cause
	}

	if _, err := tmp.Write(blob); err != nil {
		return cleanup(fmt.Errorf("write snapshot: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("sync snapshot: %w", err))
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// entries returns the snapshot files, newest first.
func (s *SnapshotStore) entries() ([]snapshot.Info, error) {
	files, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		exists, _ := afero.DirExists(s.fs, s.dir)
		if !exists {
			return nil, nil
		}
		return nil, apperror.NewStorage(fmt.Errorf("read snapshot dir: %w", err))
	}

	infos := make([]snapshot.Info, 0, len(files))
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		info, ok := parseName(f.Name())
		if !ok {
			continue
		}
		info.SizeBytes = int(f.Size())
		infos = append(infos, info)
	}

	slices.SortFunc(infos, func(a, b snapshot.Info) int {
		return strings.Compare(fileName(b), fileName(a))
	})
	return infos, nil
}

func (s *SnapshotStore) prune(ctx context.Context) error {
	infos, err := s.entries()
	if err != nil {
		return err
	}
	for _, old := range infos[min(len(infos), s.retain):] {
		if err := s.fs.Remove(filepath.Join(s.dir, fileName(old))); err != nil {
			return err
		}
		logger.Debug(ctx, "old snapshot removed", "id", old.ID)
	}
	return nil
}

// Latest returns the newest snapshot.
func (s *SnapshotStore) Latest(ctx context.Context) ([]byte, snapshot.Info, error) {
	infos, err := s.entries()
	if err != nil {
		return nil, snapshot.Info{}, err
	}
	if len(infos) == 0 {
		return nil, snapshot.Info{}, apperror.NewNotFound("snapshot", "latest")
	}

	info := infos[0]
	blob, err := afero.ReadFile(s.fs, filepath.Join(s.dir, fileName(info)))
	if err != nil {
		return nil, snapshot.Info{}, apperror.NewStorage(fmt.Errorf("read snapshot: %w", err))
	}
	info.SizeBytes = len(blob)
	info.Checksum = snapshot.Checksum(blob)
	return blob, info, nil
}

// List returns up to limit snapshots, newest first. Checksums are not computed.
func (s *SnapshotStore) List(ctx context.Context, limit int) ([]snapshot.Info, error) {
	infos, err := s.entries()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(infos) > limit {
		infos = infos[:limit]
	}
	return infos, nil
}
