package upload

// State is the transient per-folder upload state shown to the
// presentation layer. Expected transition order:
// Pending -> FetchingUploadURLs -> Uploading -> Uploaded, with Failed
// reachable from FetchingUploadURLs or Uploading.
type State string

const (
	StatePending            State = "pending"
	StateFetchingUploadURLs State = "fetching_upload_urls"
	StateUploading          State = "uploading"
	StateUploaded           State = "uploaded"
	StateFailed             State = "failed"
)

// active reports whether a new attempt for the folder must be refused.
func (s State) active() bool {
	switch s {
	case StatePending, StateFetchingUploadURLs, StateUploading:
		return true
	default:
		return false
	}
}

// ItemStatus is one folder's entry in the report.
type ItemStatus struct {
	State    State `json:"status"`
	Progress int   `json:"progress"`
}

// Report maps folder id to upload status. It is an in-memory snapshot
// only: lost on restart, with the persisted folder records as the durable
// fallback.
type Report map[string]ItemStatus
