package importer

import (
	"errors"
	"fmt"
)

// Import errors
var (
	// ErrStore is returned when the backing store rejects a write.
	ErrStore = errors.New("menu store error")

	// ErrMissingMerchant is returned when an import has no merchant id.
	ErrMissingMerchant = errors.New("merchant id is required")

	// ErrDuplicateID is returned when a record id is already taken.
	ErrDuplicateID = errors.New("duplicate record id")
)

// Error wraps import failures with the operation and batch that failed.
type Error struct {
	Op      string
	BatchID string
	Err     error
	Details string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("import %s: %s failed: %s: %v", e.BatchID, e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("import %s: %s failed: %v", e.BatchID, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error matching.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapError wraps err for the batch unless it is nil.
func WrapError(batchID, op string, err error, details string) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, BatchID: batchID, Err: err, Details: details}
}
