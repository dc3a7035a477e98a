package entities

// DeletionPlanEntry previews what happens to one group
type DeletionPlanEntry struct {
	GroupID  int      `json:"groupId"`
	FileSize int64    `json:"fileSize"`
	Survivor string   `json:"survivor"`
	Removals []string `json:"removals"`
}

// DeletionResult collects the per-path outcome of a deletion batch
type DeletionResult struct {
	DeletedPaths []string `json:"deletedPaths"`
	FailedPaths  []string `json:"failedPaths"`
	Errors       []error  `json:"-"`

	// DuplicatesSize counts every planned removal, BytesFreed only successful ones
	DuplicatesSize int64 `json:"duplicatesSize"`
	BytesFreed     int64 `json:"bytesFreed"`
}

// NewDeletionResult creates an empty result
func NewDeletionResult() *DeletionResult {
	return &DeletionResult{
		DeletedPaths: make([]string, 0),
		FailedPaths:  make([]string, 0),
		Errors:       make([]error, 0),
	}
}

// RecordDeleted notes a successful removal of size bytes
func (r *DeletionResult) RecordDeleted(path string, size int64) {
	r.DeletedPaths = append(r.DeletedPaths, path)
	r.BytesFreed += size
}

// RecordFailed notes a failed removal
func (r *DeletionResult) RecordFailed(path string, err error) {
	r.FailedPaths = append(r.FailedPaths, path)
	r.Errors = append(r.Errors, &DeletionError{Path: path, Err: err})
}

// HasFailures reports whether any path could not be removed
func (r *DeletionResult) HasFailures() bool {
	return len(r.FailedPaths) > 0
}

// FolderCleanResult lists the empty folders removed below Root and the ones
// that could not be listed or removed. Root itself is never removed.
type FolderCleanResult struct {
	Root           string   `json:"root"`
	DeletedFolders []string `json:"deletedFolders"`
	FailedFolders  []string `json:"failedFolders"`
	Errors         []error  `json:"-"`
}

// NewFolderCleanResult creates an empty result for root
func NewFolderCleanResult(root string) *FolderCleanResult {
	return &FolderCleanResult{
		Root:           root,
		DeletedFolders: make([]string, 0),
		FailedFolders:  make([]string, 0),
		Errors:         make([]error, 0),
	}
}

func (r *FolderCleanResult) RecordDeleted(path string) {
	r.DeletedFolders = append(r.DeletedFolders, path)
}

func (r *FolderCleanResult) RecordFailed(path string, err error) {
	r.FailedFolders = append(r.FailedFolders, path)
	r.Errors = append(r.Errors, &DeletionError{Path: path, Err: err})
}
