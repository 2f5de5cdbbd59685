package state

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/capsync/internal/common"
	"github.com/dmitrijs2005/capsync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	return NewStore(path, 2*time.Second, testLogger())
}

func TestStore_LoadMissingFileReturnsEmptyState(t *testing.T) {
	s := newTestStore(t)

	st, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, st.SchemaVersion)
	assert.Empty(t, st.Folders)
}

func TestStore_SaveLoadRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	st := NewAppState()
	st.Folders["abc123"] = &RecordingFolder{
		ID:         "abc123",
		IsUploaded: true,
		UploadedAt: &now,
		UploadInfo: &UploadInfo{
			SessionURIs:               map[string]string{"video.mp4": "https://example.com/put"},
			SessionURIsExpirationTime: now.Add(time.Hour).UnixMilli(),
		},
	}
	require.NoError(t, s.Save(ctx, st))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, got.Folders, "abc123")
	f := got.Folders["abc123"]
	assert.True(t, f.IsUploaded)
	require.NotNil(t, f.UploadedAt)
	assert.Equal(t, now, f.UploadedAt.UTC())
	require.NotNil(t, f.UploadInfo)
	assert.Equal(t, "https://example.com/put", f.UploadInfo.SessionURIs["video.mp4"])
}

func TestStore_SaveRejectsInvariantViolation(t *testing.T) {
	s := newTestStore(t)

	st := NewAppState()
	// uploaded without uploadedAt breaks the document invariant
	st.Folders["bad"] = &RecordingFolder{ID: "bad", IsUploaded: true}

	err := s.Save(context.Background(), st)
	require.ErrorIs(t, err, common.ErrStateCorrupt)
}

func TestStore_GetFolderNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetFolder(context.Background(), "nope")
	require.ErrorIs(t, err, common.ErrFolderNotFound)
}

func TestStore_UpdateFolder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutFolder(ctx, &RecordingFolder{ID: "f1"}))

	err := s.UpdateFolder(ctx, "f1", func(f *RecordingFolder) error {
		f.UploadError = "boom"
		return nil
	})
	require.NoError(t, err)

	f, err := s.GetFolder(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "boom", f.UploadError)

	err = s.UpdateFolder(ctx, "missing", func(f *RecordingFolder) error { return nil })
	require.ErrorIs(t, err, common.ErrFolderNotFound)
}

func TestStore_NormalizeInterrupted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutFolder(ctx, &RecordingFolder{ID: "crashed", UploadingInProgress: true}))
	require.NoError(t, s.PutFolder(ctx, &RecordingFolder{ID: "idle"}))

	n, err := s.NormalizeInterrupted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	f, err := s.GetFolder(ctx, "crashed")
	require.NoError(t, err)
	assert.False(t, f.UploadingInProgress, "interrupted folder must be retryable, not active")

	// second pass is a no-op
	n, err = s.NormalizeInterrupted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStore_SaveGlobal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveGlobal(ctx, "lastRun", "2026-01-02"))

	st, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-02", st.Globals["lastRun"])
}

func TestStore_LockTimeoutWhenHeldElsewhere(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	s := NewStore(path, 200*time.Millisecond, testLogger())

	// Hold the lock through an independent file description, as a second
	// process would.
	f, err := os.OpenFile(path+".lock", os.O_RDWR|os.O_CREATE, 0o600)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	require.NoError(t, unix.Flock(int(f.Fd()), unix.LOCK_EX))

	_, err = s.Load(context.Background())
	require.ErrorIs(t, err, common.ErrLockTimeout)
}

func TestUploadInfo_Valid(t *testing.T) {
	now := time.Now()
	required := []string{"video.mp4", "metadata.json"}

	full := map[string]string{"video.mp4": "u1", "metadata.json": "u2"}

	tests := []struct {
		name string
		info *UploadInfo
		want bool
	}{
		{name: "nil info", info: nil, want: false},
		{
			name: "fresh and complete",
			info: &UploadInfo{SessionURIs: full, SessionURIsExpirationTime: now.Add(time.Hour).UnixMilli()},
			want: true,
		},
		{
			name: "expired",
			info: &UploadInfo{SessionURIs: full, SessionURIsExpirationTime: now.Add(-time.Minute).UnixMilli()},
			want: false,
		},
		{
			name: "missing required key",
			info: &UploadInfo{SessionURIs: map[string]string{"video.mp4": "u1"}, SessionURIsExpirationTime: now.Add(time.Hour).UnixMilli()},
			want: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.info.Valid(required, now))
		})
	}
}
