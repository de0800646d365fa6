package file

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/infrastructure/snapshot"
)

func newTestStore(retain int) (*SnapshotStore, afero.Fs, *time.Time) {
	fs := afero.NewMemMapFs()
	clock := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	s := NewSnapshotStoreFs(fs, "/data/snapshots", retain)
	s.now = func() time.Time { return clock }
	return s, fs, &clock
}

func TestSnapshotStore_LatestOnEmptyStore(t *testing.T) {
	s, _, _ := newTestStore(0)

	_, _, err := s.Latest(context.Background())
	assert.True(t, apperror.IsNotFound(err))

	infos, err := s.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestSnapshotStore_SaveAndLatest(t *testing.T) {
	s, fs, clock := newTestStore(0)
	ctx := context.Background()

	_, err := s.Save(ctx, []byte("first"))
	require.NoError(t, err)
	*clock = clock.Add(time.Minute)
	saved, err := s.Save(ctx, []byte("second"))
	require.NoError(t, err)

	blob, info, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), blob)
	assert.Equal(t, saved.ID, info.ID)
	assert.Equal(t, snapshot.Checksum(blob), info.Checksum)

	files, err := afero.ReadDir(fs, "/data/snapshots")
	require.NoError(t, err)
	for _, f := range files {
		assert.NotContains(t, f.Name(), ".tmp", "no temporary file is left behind")
	}
}

func TestSnapshotStore_PrunesBeyondRetention(t *testing.T) {
	s, _, clock := newTestStore(2)
	ctx := context.Background()

	var ids []string
	for _, body := range []string{"a", "b", "c"} {
		info, err := s.Save(ctx, []byte(body))
		require.NoError(t, err)
		ids = append(ids, info.ID.String())
		*clock = clock.Add(time.Second)
	}

	infos, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, ids[2], infos[0].ID.String())
	assert.Equal(t, ids[1], infos[1].ID.String())

	limited, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSnapshotStore_IgnoresForeignFiles(t *testing.T) {
	s, fs, _ := newTestStore(0)
	require.NoError(t, fs.MkdirAll("/data/snapshots", 0o750))
	require.NoError(t, afero.WriteFile(fs, "/data/snapshots/README.txt", []byte("x"), 0o640))
	require.NoError(t, afero.WriteFile(fs, "/data/snapshots/garbage_name.tps", []byte("x"), 0o640))

	_, _, err := s.Latest(context.Background())
	assert.True(t, apperror.IsNotFound(err))
}
