// Package state implements the persisted application state of the capsync
// agent: a single JSON document holding every recording folder's upload
// bookkeeping, guarded by an advisory file lock so only one writer mutates
// it at a time.
package state

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/capsync/internal/common"
)

// SchemaVersion is the document version the store reads and writes.
const SchemaVersion = 1

// UploadInfo caches the session-URI set fetched for a folder. The expiry is
// one timestamp for the whole set, in unix milliseconds.
type UploadInfo struct {
	SessionURIs               map[string]string `json:"sessionUris"`
	SessionURIsExpirationTime int64             `json:"sessionUrisExpirationTime"`
}

// Valid reports whether the cached set can be reused: every required
// logical name must be present and the set must not be expired.
func (u *UploadInfo) Valid(required []string, now time.Time) bool {
	if u == nil || len(u.SessionURIs) == 0 {
		return false
	}
	if now.UnixMilli() >= u.SessionURIsExpirationTime {
		return false
	}
	for _, name := range required {
		if u.SessionURIs[name] == "" {
			return false
		}
	}
	return true
}

// RecordingFolder is one completed recording unit.
//
// IsUploaded is true only when all required artifact files uploaded
// successfully; it implies UploadedAt is set and UploadError is empty.
// UploadingInProgress is reset on both success and failure; a true value
// found at load time means the previous attempt was interrupted and the
// folder is retryable.
type RecordingFolder struct {
	ID                  string      `json:"id"`
	IsUploaded          bool        `json:"isUploaded"`
	UploadingInProgress bool        `json:"uploadingInProgress"`
	UploadError         string      `json:"uploadError,omitempty"`
	UploadedAt          *time.Time  `json:"uploadedAt,omitempty"`
	UploadInfo          *UploadInfo `json:"uploadInfo,omitempty"`
}

// AppState is the whole persisted document.
type AppState struct {
	SchemaVersion int                         `json:"schemaVersion"`
	Folders       map[string]*RecordingFolder `json:"folders"`
	Globals       map[string]string           `json:"globals,omitempty"`
}

// NewAppState returns an empty document at the current schema version.
func NewAppState() *AppState {
	return &AppState{
		SchemaVersion: SchemaVersion,
		Folders:       make(map[string]*RecordingFolder),
	}
}

// Validate checks the document against the schema. Violations are wrapped
// around common.ErrStateCorrupt so callers can trigger the recovery path
// with errors.Is.
func (s *AppState) Validate() error {
	if s.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%w: unsupported schema version %d", common.ErrStateCorrupt, s.SchemaVersion)
	}
	if s.Folders == nil {
		return fmt.Errorf("%w: missing folders map", common.ErrStateCorrupt)
	}
	for key, f := range s.Folders {
		if f == nil {
			return fmt.Errorf("%w: folder %q is null", common.ErrStateCorrupt, key)
		}
		if f.ID == "" || f.ID != key {
			return fmt.Errorf("%w: folder key %q does not match id %q", common.ErrStateCorrupt, key, f.ID)
		}
		if f.IsUploaded {
			if f.UploadedAt == nil {
				return fmt.Errorf("%w: folder %q uploaded without uploadedAt", common.ErrStateCorrupt, key)
			}
			if f.UploadError != "" {
				return fmt.Errorf("%w: folder %q uploaded with uploadError set", common.ErrStateCorrupt, key)
			}
		}
	}
	return nil
}
