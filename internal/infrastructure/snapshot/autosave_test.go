package snapshot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailerpos/internal/core/apperror"
)

type stubSource struct {
	blob []byte
	rev  uint64
	err  error
}

func (s *stubSource) ExportSnapshot(context.Context) ([]byte, error) {
	return s.blob, s.err
}

func (s *stubSource) Revision() uint64 { return s.rev }

type memStore struct {
	saved [][]byte
}

func (m *memStore) Save(_ context.Context, blob []byte) (Info, error) {
	m.saved = append(m.saved, blob)
	return Info{SizeBytes: len(blob), Checksum: Checksum(blob)}, nil
}

func (m *memStore) Latest(context.Context) ([]byte, Info, error) {
	if len(m.saved) == 0 {
		return nil, Info{}, apperror.NewNotFound("snapshot", "latest")
	}
	blob := m.saved[len(m.saved)-1]
	return blob, Info{SizeBytes: len(blob), Checksum: Checksum(blob)}, nil
}

func (m *memStore) List(context.Context, int) ([]Info, error) { return nil, nil }

func TestAutosaver_SkipsUnchangedState(t *testing.T) {
	src := &stubSource{blob: []byte("one"), rev: 1}
	store := &memStore{}
	a := NewAutosaver(src, store, 0)
	ctx := context.Background()

	saved, err := a.SaveNow(ctx)
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = a.SaveNow(ctx)
	require.NoError(t, err)
	assert.False(t, saved)

	src.blob, src.rev = []byte("two"), 2
	saved, err = a.SaveNow(ctx)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Len(t, store.saved, 2)
}

func TestAutosaver_MarkSavedSkipsRestoredState(t *testing.T) {
	src := &stubSource{blob: []byte("restored"), rev: 7}
	store := &memStore{}
	a := NewAutosaver(src, store, 0)
	a.MarkSaved()

	saved, err := a.SaveNow(context.Background())
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Empty(t, store.saved)
}

func TestAutosaver_ExportFailure(t *testing.T) {
	src := &stubSource{err: errors.New("boom")}
	a := NewAutosaver(src, &memStore{}, 0)

	_, err := a.SaveNow(context.Background())
	assert.Error(t, err)
}

func TestAutosaver_RunReturnsWhenDisabled(t *testing.T) {
	a := NewAutosaver(&stubSource{}, &memStore{}, 0)
	a.Run(context.Background())
}
