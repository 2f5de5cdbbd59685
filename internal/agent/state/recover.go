package state

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Recover rebuilds a minimal state document by scanning the recording
// storage root: every directory becomes a folder record with
// isUploaded=false, so nothing on disk is silently forgotten. The corrupt
// document, if readable, is archived next to the state file first.
//
// Recover never writes the rebuilt state itself. The caller must confirm
// reset explicitly (ResetTo) or abort, keeping the corrupt original and
// its archive around for inspection.
func (s *Store) Recover(ctx context.Context, videoStorageRoot string) (*AppState, error) {
	if err := s.archiveCorrupt(ctx); err != nil {
		s.logger.Warn(ctx, "could not archive corrupt state file", "error", err.Error())
	}

	entries, err := os.ReadDir(videoStorageRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return NewAppState(), nil
		}
		return nil, fmt.Errorf("scan storage root: %w", err)
	}

	st := NewAppState()
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id := e.Name()
		st.Folders[id] = &RecordingFolder{ID: id}
	}

	s.logger.Info(ctx, "rebuilt minimal state from storage root",
		"root", videoStorageRoot, "folders", len(st.Folders))
	return st, nil
}

// ResetTo replaces the persisted document with st. Used after the caller
// confirmed recovery.
func (s *Store) ResetTo(ctx context.Context, st *AppState) error {
	return s.Save(ctx, st)
}

// archiveCorrupt copies the current state file to a zstd-compressed
// sibling named state.json.corrupt-<unix>.zst.
func (s *Store) archiveCorrupt(ctx context.Context) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return err
	}
	compressed := enc.EncodeAll(data, nil)
	enc.Close()

	archive := fmt.Sprintf("%s.corrupt-%d.zst", s.path, time.Now().Unix())
	if err := os.WriteFile(archive, compressed, 0o600); err != nil {
		return err
	}
	s.logger.Info(ctx, "archived corrupt state file", "archive", archive)
	return nil
}
