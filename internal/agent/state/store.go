package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/capsync/internal/common"
	"github.com/dmitrijs2005/capsync/internal/logging"
	"github.com/google/uuid"
)

// Store is the single writer for the persisted state file. In-process
// callers serialize through mu; cross-process exclusion comes from flock
// on the sibling lock file, held for each full read-modify-write cycle.
type Store struct {
	path       string
	lockPath   string
	lockBudget time.Duration
	logger     logging.Logger

	mu sync.Mutex
}

// NewStore returns a Store backed by the JSON document at path. lockBudget
// bounds how long each operation retries the advisory lock.
func NewStore(path string, lockBudget time.Duration, logger logging.Logger) *Store {
	return &Store{
		path:       path,
		lockPath:   path + ".lock",
		lockBudget: lockBudget,
		logger:     logger.With("component", "state"),
	}
}

// Load reads and validates the state document. A missing file yields a
// fresh empty state. Unreadable or invalid content yields
// common.ErrStateCorrupt; the caller decides between recovery and abort.
func (s *Store) Load(ctx context.Context) (*AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := acquireLock(ctx, s.lockPath, s.lockBudget)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	return s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) (*AppState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewAppState(), nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	st := &AppState{}
	if err := json.Unmarshal(data, st); err != nil {
		s.logger.Error(ctx, "state file is not valid json", "path", s.path, "error", err.Error())
		return nil, fmt.Errorf("%s: %w", s.path, common.ErrStateCorrupt)
	}
	if err := st.Validate(); err != nil {
		s.logger.Error(ctx, "state document failed validation", "path", s.path, "error", err.Error())
		return nil, err
	}

	return st, nil
}

// NormalizeInterrupted clears stale uploadingInProgress flags left behind
// by a crash. A true value found at process start is ambiguous: the attempt
// is gone, so the folder must become retryable rather than look active.
// Call once from the composition root before any uploads start. Returns
// the number of folders normalized.
func (s *Store) NormalizeInterrupted(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := acquireLock(ctx, s.lockPath, s.lockBudget)
	if err != nil {
		return 0, err
	}
	defer lock.release()

	st, err := s.loadLocked(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	for id, f := range st.Folders {
		if f.UploadingInProgress {
			s.logger.Warn(ctx, "folder has interrupted upload, marking retryable", "folder", id)
			f.UploadingInProgress = false
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return n, s.saveLocked(st)
}

// Save validates and atomically writes the whole document while holding
// the advisory lock.
func (s *Store) Save(ctx context.Context, st *AppState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := acquireLock(ctx, s.lockPath, s.lockBudget)
	if err != nil {
		return err
	}
	defer lock.release()

	return s.saveLocked(st)
}

func (s *Store) saveLocked(st *AppState) error {
	if err := st.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("mkdir state dir: %w", err)
	}

	// Write-then-rename so a crash mid-write never truncates the document.
	tmp := s.path + "." + uuid.NewString() + ".partial"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp state file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// GetFolder returns one folder record, or common.ErrFolderNotFound.
func (s *Store) GetFolder(ctx context.Context, id string) (*RecordingFolder, error) {
	st, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	f, ok := st.Folders[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, common.ErrFolderNotFound)
	}
	return f, nil
}

// PutFolder upserts one folder record under a single lock cycle.
func (s *Store) PutFolder(ctx context.Context, f *RecordingFolder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := acquireLock(ctx, s.lockPath, s.lockBudget)
	if err != nil {
		return err
	}
	defer lock.release()

	st, err := s.loadLocked(ctx)
	if err != nil {
		return err
	}
	st.Folders[f.ID] = f
	return s.saveLocked(st)
}

// UpdateFolder applies fn to one folder inside a single lock-guarded
// read-modify-write cycle. fn mutates the record in place; returning an
// error aborts the update without writing.
func (s *Store) UpdateFolder(ctx context.Context, id string, fn func(*RecordingFolder) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := acquireLock(ctx, s.lockPath, s.lockBudget)
	if err != nil {
		return err
	}
	defer lock.release()

	st, err := s.loadLocked(ctx)
	if err != nil {
		return err
	}
	f, ok := st.Folders[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, common.ErrFolderNotFound)
	}
	if err := fn(f); err != nil {
		return err
	}
	return s.saveLocked(st)
}

// SaveGlobal performs a partial update of one global key.
func (s *Store) SaveGlobal(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := acquireLock(ctx, s.lockPath, s.lockBudget)
	if err != nil {
		return err
	}
	defer lock.release()

	st, err := s.loadLocked(ctx)
	if err != nil {
		return err
	}
	if st.Globals == nil {
		st.Globals = make(map[string]string)
	}
	st.Globals[key] = value
	return s.saveLocked(st)
}
