// Package transfer streams one local artifact file to one pre-authorized
// resumable upload endpoint.
package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/capsync/internal/logging"
)

// TransferError is the per-file failure: an HTTP status outside 200/201,
// or a transport-level error.
type TransferError struct {
	File       string
	StatusCode int
	Err        error
}

func (e *TransferError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transfer %s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("transfer %s: unexpected status %d", e.File, e.StatusCode)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Transferrer uploads one local file to one remote endpoint.
type Transferrer interface {
	Transfer(ctx context.Context, localPath, endpoint, logicalName string) error
}

// HTTPTransferrer PUTs the raw file bytes to the session URI. The endpoint
// is pre-signed, so no Authorization header is sent. The body streams
// straight from disk; Content-Length comes from stat because resumable
// backends require an accurate length.
type HTTPTransferrer struct {
	client *http.Client
	logger logging.Logger
}

func NewHTTPTransferrer(logger logging.Logger) *HTTPTransferrer {
	// No client timeout: a multi-gigabyte video on a slow link can
	// legitimately take a long time. Cancellation rides on ctx.
	return &HTTPTransferrer{
		client: &http.Client{},
		logger: logger.With("component", "transfer"),
	}
}

func (t *HTTPTransferrer) Transfer(ctx context.Context, localPath, endpoint, logicalName string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return &TransferError{File: logicalName, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return &TransferError{File: logicalName, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, f)
	if err != nil {
		return &TransferError{File: logicalName, Err: err}
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", contentTypeFor(logicalName))

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Error(ctx, "upload transport failure", "file", logicalName, "error", err.Error())
		return &TransferError{File: logicalName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		t.logger.Error(ctx, "upload rejected",
			"file", logicalName, "status", resp.StatusCode, "body", string(b))
		return &TransferError{File: logicalName, StatusCode: resp.StatusCode}
	}

	t.logger.Debug(ctx, "upload complete", "file", logicalName, "bytes", info.Size())
	return nil
}

// contentTypeFor maps an artifact file extension to its MIME type.
func contentTypeFor(name string) string {
	switch filepath.Ext(name) {
	case ".txt":
		return "text/plain"
	case ".json":
		return "application/json"
	case ".webm":
		return "video/webm"
	case ".mp4":
		return "video/mp4"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
