package main

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailerpos/internal/domain/catalog"
	"trailerpos/internal/engine"
	"trailerpos/internal/infrastructure/storage/file"
	"trailerpos/pkg/logger"
)

func newVerifier(t *testing.T) (*Verifier, *file.SnapshotStore) {
	t.Helper()
	store := file.NewSnapshotStoreFs(afero.NewMemMapFs(), "/snapshots", 5)
	return NewVerifier(store, engine.Options{}, time.Minute, logger.Default()), store
}

func exportWithStore(t *testing.T) []byte {
	t.Helper()
	ctx := context.Background()
	eng := engine.New(engine.Options{})
	require.NoError(t, eng.Define(ctx, func(ctx context.Context, c *catalog.Service) error {
		return c.CreateStore(ctx, catalog.NewStore("T1", "Trailer-1"))
	}))
	blob, err := eng.ExportSnapshot(ctx)
	require.NoError(t, err)
	return blob
}

func TestVerifier_EmptyStore(t *testing.T) {
	v, _ := newVerifier(t)

	r := v.VerifyLatest(context.Background())
	assert.NoError(t, r.Err)
	assert.False(t, r.Checked)
}

func TestVerifier_ChecksEachSnapshotOnce(t *testing.T) {
	v, store := newVerifier(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, exportWithStore(t))
	require.NoError(t, err)

	r := v.VerifyLatest(ctx)
	require.NoError(t, r.Err)
	assert.True(t, r.Checked)
	assert.Equal(t, saved.ID, r.Snapshot.ID)

	again := v.VerifyLatest(ctx)
	require.NoError(t, again.Err)
	assert.False(t, again.Checked)
}

func TestVerifier_ReportsBrokenSnapshot(t *testing.T) {
	v, store := newVerifier(t)
	ctx := context.Background()

	_, err := store.Save(ctx, []byte("not a snapshot"))
	require.NoError(t, err)

	r := v.VerifyLatest(ctx)
	assert.True(t, r.Checked)
	assert.Error(t, r.Err)

	// a failed snapshot is retried on the next pass
	assert.True(t, v.VerifyLatest(ctx).Checked)
}
