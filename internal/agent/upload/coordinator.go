// Package upload contains the coordinator that drives concurrent,
// resumable, multi-file uploads of recording folders.
package upload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/capsync/internal/agent/api"
	"github.com/dmitrijs2005/capsync/internal/agent/state"
	"github.com/dmitrijs2005/capsync/internal/agent/transfer"
	"github.com/dmitrijs2005/capsync/internal/artifacts"
	"github.com/dmitrijs2005/capsync/internal/common"
	"github.com/dmitrijs2005/capsync/internal/logging"
)

var errAttemptInProgress = errors.New("upload already in progress")

// Coordinator manages the set of in-flight folder uploads. It owns the
// in-memory status report exclusively; all mutation goes through its
// methods. One instance lives for the whole process, constructed by the
// composition root and passed to every consumer.
type Coordinator struct {
	store       *state.Store
	client      api.Client
	transferrer transfer.Transferrer
	sink        ProgressSink
	logger      logging.Logger

	videoStorageRoot string
	uriValidity      time.Duration

	now func() time.Time

	mu    sync.Mutex
	items map[string]ItemStatus
}

// NewCoordinator wires the coordinator. sink may be nil when no
// presentation layer is attached. uriValidity is how long a freshly
// fetched session-URI set stays reusable.
func NewCoordinator(
	store *state.Store,
	client api.Client,
	transferrer transfer.Transferrer,
	sink ProgressSink,
	logger logging.Logger,
	videoStorageRoot string,
	uriValidity time.Duration,
) *Coordinator {
	return &Coordinator{
		store:            store,
		client:           client,
		transferrer:      transferrer,
		sink:             sink,
		logger:           logger.With("component", "upload"),
		videoStorageRoot: videoStorageRoot,
		uriValidity:      uriValidity,
		now:              time.Now,
		items:            make(map[string]ItemStatus),
	}
}

// StartUpload begins an upload attempt for the folder and returns
// immediately. Errors surface through the status report and the persisted
// folder record, never from this call. A folder already Pending, fetching
// URLs, or Uploading is left alone: at most one attempt per folder runs
// at a time. Failed and Uploaded folders may be retried.
func (c *Coordinator) StartUpload(folderID string) {
	c.mu.Lock()
	if st, ok := c.items[folderID]; ok && st.State.active() {
		c.mu.Unlock()
		c.logger.Debug(context.Background(), "upload attempt already active, ignoring", "folder", folderID)
		return
	}
	c.items[folderID] = ItemStatus{State: StatePending}
	c.mu.Unlock()
	c.notify()

	go c.runUpload(context.Background(), folderID)
}

// GetStatusReport returns a snapshot of every tracked folder's status.
func (c *Coordinator) GetStatusReport() Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	report := make(Report, len(c.items))
	for id, st := range c.items {
		report[id] = st
	}
	return report
}

// UpdateOnDiscardComplete drops a folder from the transient report after
// an external collaborator deleted it. Any transfer still in flight for it
// is allowed to finish or fail naturally; there is no cancellation.
func (c *Coordinator) UpdateOnDiscardComplete(folderID string) {
	c.mu.Lock()
	delete(c.items, folderID)
	c.mu.Unlock()
	c.notify()
}

func (c *Coordinator) setStatus(folderID string, st ItemStatus) {
	c.mu.Lock()
	c.items[folderID] = st
	c.mu.Unlock()
	c.notify()
}

func (c *Coordinator) notify() {
	if c.sink == nil {
		return
	}
	c.sink.Publish(c.GetStatusReport())
}

// runUpload executes the whole upload sequence for one folder. Every
// failure is converted into Failed status plus a persisted uploadError;
// nothing escapes this boundary.
func (c *Coordinator) runUpload(ctx context.Context, folderID string) {
	log := c.logger.With("folder", folderID)

	c.setStatus(folderID, ItemStatus{State: StateFetchingUploadURLs})

	folder, err := c.store.GetFolder(ctx, folderID)
	if err != nil {
		// Precondition failure: no record to persist an error into.
		log.Error(ctx, "cannot start upload", "error", err.Error())
		c.setStatus(folderID, ItemStatus{State: StateFailed})
		return
	}

	if err := c.markUploading(ctx, folderID); err != nil {
		log.Error(ctx, "cannot enter uploading state", "error", err.Error())
		c.failFolder(ctx, folderID, err, false)
		return
	}

	uris, err := c.resolveSessionURIs(ctx, folder)
	if err != nil {
		log.Error(ctx, "session uri resolution failed", "error", err.Error())
		c.failFolder(ctx, folderID, err, true)
		return
	}

	files, err := artifacts.Resolve(filepath.Join(c.videoStorageRoot, folderID))
	if err != nil {
		log.Error(ctx, "artifact resolution failed", "error", err.Error())
		c.failFolder(ctx, folderID, err, true)
		return
	}

	c.setStatus(folderID, ItemStatus{State: StateUploading})

	if err := c.transferAll(ctx, folderID, files, uris); err != nil {
		log.Error(ctx, "upload failed", "error", err.Error())
		c.failFolder(ctx, folderID, err, true)
		return
	}

	now := c.now()
	err = c.store.UpdateFolder(ctx, folderID, func(f *state.RecordingFolder) error {
		f.IsUploaded = true
		f.UploadingInProgress = false
		f.UploadError = ""
		f.UploadedAt = &now
		return nil
	})
	if err != nil {
		log.Error(ctx, "could not persist upload success", "error", err.Error())
		c.failFolder(ctx, folderID, err, false)
		return
	}

	log.Info(ctx, "folder uploaded", "files", len(files))
	c.setStatus(folderID, ItemStatus{State: StateUploaded, Progress: 100})
}

// markUploading flips the persisted uploadingInProgress flag. Finding it
// already set means another writer is mid-attempt on this folder, so this
// attempt backs off.
func (c *Coordinator) markUploading(ctx context.Context, folderID string) error {
	return c.store.UpdateFolder(ctx, folderID, func(f *state.RecordingFolder) error {
		if f.UploadingInProgress {
			return fmt.Errorf("%s: %w", folderID, errAttemptInProgress)
		}
		f.UploadingInProgress = true
		return nil
	})
}

// resolveSessionURIs reuses the cached set when complete and unexpired,
// otherwise fetches a fresh one and persists it immediately so a crash
// right after the fetch does not force a refetch.
func (c *Coordinator) resolveSessionURIs(ctx context.Context, folder *state.RecordingFolder) (map[string]string, error) {
	now := c.now()
	if folder.UploadInfo.Valid(artifacts.Names(), now) {
		c.logger.Debug(ctx, "reusing cached session uris", "folder", folder.ID)
		return folder.UploadInfo.SessionURIs, nil
	}

	uris, err := c.client.FetchSessionURIs(ctx, folder.ID)
	if err != nil {
		return nil, err
	}

	info := &state.UploadInfo{
		SessionURIs:               uris,
		SessionURIsExpirationTime: now.Add(c.uriValidity).UnixMilli(),
	}
	err = c.store.UpdateFolder(ctx, folder.ID, func(f *state.RecordingFolder) error {
		f.UploadInfo = info
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persist session uris: %w", err)
	}

	return uris, nil
}

// transferAll fans out one transfer per file and waits for every one to
// settle. A single failure never aborts sibling transfers. When several
// files fail, the reported error is the one for the lexicographically
// smallest file name, so the persisted message does not depend on
// completion order.
func (c *Coordinator) transferAll(ctx context.Context, folderID string, files []artifacts.File, uris map[string]string) error {
	results := make([]error, len(files))
	var done int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(i int, f artifacts.File) {
			defer wg.Done()

			endpoint := uris[f.Name]
			if endpoint == "" {
				results[i] = &transfer.TransferError{File: f.Name, Err: fmt.Errorf("no session uri: %w", common.ErrorNotFound)}
				return
			}

			err := c.transferrer.Transfer(ctx, f.Path, endpoint, f.Name)
			results[i] = err
			if err != nil {
				return
			}

			mu.Lock()
			done++
			progress := done * 100 / len(files)
			mu.Unlock()
			c.setStatus(folderID, ItemStatus{State: StateUploading, Progress: progress})
		}(i, f)
	}
	wg.Wait()

	// files arrive sorted by name, so the first error is the tie-break winner
	for _, err := range results {
		if err != nil {
			return err
		}
	}
	return nil
}

// failFolder records a failed attempt: Failed in the report and, when
// persist is true, uploadError plus cleared flags in the durable record.
func (c *Coordinator) failFolder(ctx context.Context, folderID string, cause error, persist bool) {
	if persist {
		err := c.store.UpdateFolder(ctx, folderID, func(f *state.RecordingFolder) error {
			f.IsUploaded = false
			f.UploadingInProgress = false
			f.UploadError = cause.Error()
			return nil
		})
		if err != nil {
			c.logger.Error(ctx, "could not persist upload failure", "folder", folderID, "error", err.Error())
		}
	}
	c.setStatus(folderID, ItemStatus{State: StateFailed})
}
