package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/capsync/internal/common"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadCorruptJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schemaVersion": 1, "folders": {`), 0o600))

	s := NewStore(path, time.Second, testLogger())
	_, err := s.Load(context.Background())
	require.ErrorIs(t, err, common.ErrStateCorrupt)
}

func TestStore_LoadSchemaViolation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schemaVersion": 99, "folders": {}}`), 0o600))

	s := NewStore(path, time.Second, testLogger())
	_, err := s.Load(context.Background())
	require.ErrorIs(t, err, common.ErrStateCorrupt)
}

func TestStore_RecoverRebuildsFromStorageRoot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	corrupt := []byte(`not json at all`)
	require.NoError(t, os.WriteFile(path, corrupt, 0o600))

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "abc123"), 0o700))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "def456"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o600))

	s := NewStore(path, time.Second, testLogger())
	ctx := context.Background()

	st, err := s.Recover(ctx, root)
	require.NoError(t, err)

	require.Len(t, st.Folders, 2)
	for _, id := range []string{"abc123", "def456"} {
		require.Contains(t, st.Folders, id)
		assert.False(t, st.Folders[id].IsUploaded)
		assert.False(t, st.Folders[id].UploadingInProgress)
	}

	// the corrupt original was archived and decompresses back byte for byte
	matches, err := filepath.Glob(path + ".corrupt-*.zst")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	archived, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	restored, err := dec.DecodeAll(archived, nil)
	require.NoError(t, err)
	assert.Equal(t, corrupt, restored)

	// recovery is not applied until the caller confirms
	_, err = s.Load(ctx)
	require.ErrorIs(t, err, common.ErrStateCorrupt)

	require.NoError(t, s.ResetTo(ctx, st))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Folders, 2)
}

func TestStore_RecoverMissingRootYieldsEmptyState(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "state.json"), time.Second, testLogger())

	st, err := s.Recover(context.Background(), filepath.Join(dir, "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, st.Folders)
}
