package entities

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Error kinds recorded for an operation
const (
	ErrorKindEnumeration = "enumeration"
	ErrorKindComparison  = "comparison"
	ErrorKindDeletion    = "deletion"
	ErrorKindFatal       = "fatal"
	ErrorKindOther       = "other"
)

// EnumerationError is a per-entry failure while walking the tree; the scan continues
type EnumerationError struct {
	Path string
	Err  error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("enumerate %s: %v", e.Path, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// ComparisonError is an I/O failure while comparing two candidates; treated as a non-match
type ComparisonError struct {
	PathA string
	PathB string
	Err   error
}

func (e *ComparisonError) Error() string {
	return fmt.Sprintf("compare %s with %s: %v", e.PathA, e.PathB, e.Err)
}

func (e *ComparisonError) Unwrap() error { return e.Err }

// DeletionError is a per-path failure while removing duplicates; the batch continues
type DeletionError struct {
	Path string
	Err  error
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("delete %s: %v", e.Path, e.Err)
}

func (e *DeletionError) Unwrap() error { return e.Err }

// FatalConfigError aborts an operation before any scanning happens
type FatalConfigError struct {
	Path   string
	Reason string
	Err    error
}

func (e *FatalConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid root %q: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid root %q: %s", e.Path, e.Reason)
}

func (e *FatalConfigError) Unwrap() error { return e.Err }

// ValidateRoot fails with a FatalConfigError when root does not exist or is
// not a directory
func ValidateRoot(root string) error {
	if root == "" {
		return &FatalConfigError{Path: root, Reason: "root path is empty"}
	}
	info, err := os.Stat(root)
	if err != nil {
		return &FatalConfigError{Path: root, Reason: "cannot access root", Err: err}
	}
	if !info.IsDir() {
		return &FatalConfigError{Path: root, Reason: "root is not a directory"}
	}
	return nil
}

// ErrTrashFailed is wrapped by a DeletionError when the trash collaborator refuses a path
var ErrTrashFailed = errors.New("move to trash failed")

// ErrStopDeletion returned from a DeleteMatches callback ends the batch;
// paths not yet handed out stay in their groups
var ErrStopDeletion = errors.New("deletion stopped")

// ErrorKind classifies an error for persistence
func ErrorKind(err error) string {
	var (
		enumErr  *EnumerationError
		cmpErr   *ComparisonError
		delErr   *DeletionError
		fatalErr *FatalConfigError
	)
	switch {
	case errors.As(err, &enumErr):
		return ErrorKindEnumeration
	case errors.As(err, &cmpErr):
		return ErrorKindComparison
	case errors.As(err, &delErr):
		return ErrorKindDeletion
	case errors.As(err, &fatalErr):
		return ErrorKindFatal
	default:
		return ErrorKindOther
	}
}

// ErrorPath extracts the primary path of a classified error
func ErrorPath(err error) string {
	var (
		enumErr  *EnumerationError
		cmpErr   *ComparisonError
		delErr   *DeletionError
		fatalErr *FatalConfigError
	)
	switch {
	case errors.As(err, &enumErr):
		return enumErr.Path
	case errors.As(err, &cmpErr):
		return cmpErr.PathA
	case errors.As(err, &delErr):
		return delErr.Path
	case errors.As(err, &fatalErr):
		return fatalErr.Path
	default:
		return ""
	}
}

// OperationError is a recorded non-fatal error of an operation
type OperationError struct {
	ID          int       `json:"id"`
	OperationID string    `json:"operationId"`
	Kind        string    `json:"kind"`
	Path        string    `json:"path"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewOperationError converts an error into a persistable record
func NewOperationError(operationID string, err error) *OperationError {
	return &OperationError{
		OperationID: operationID,
		Kind:        ErrorKind(err),
		Path:        ErrorPath(err),
		Message:     err.Error(),
		CreatedAt:   time.Now(),
	}
}

// ErrorStrings flattens errors for JSON responses
func ErrorStrings(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}
