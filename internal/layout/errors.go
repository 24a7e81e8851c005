package layout

import (
	"errors"
	"fmt"
)

// Common layout analysis errors
var (
	// ErrServiceUnavailable is returned when the layout provider fails to answer.
	// Every provider failure that has no more specific cause wraps this error.
	ErrServiceUnavailable = errors.New("layout service unavailable")

	// ErrMissingCredentials is returned when Google Cloud credentials are not configured.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")

	// ErrInvalidCredentials is returned when credentials lack the necessary permissions.
	ErrInvalidCredentials = errors.New("invalid Google Cloud credentials")

	// ErrInvalidConfiguration is returned when provider configuration is incomplete.
	ErrInvalidConfiguration = errors.New("invalid layout provider configuration")

	// ErrDocumentTooLarge is returned when the document exceeds MaxDocumentSizeBytes.
	ErrDocumentTooLarge = errors.New("document exceeds maximum size limit (20MB)")

	// ErrUnsupportedFormat is returned when the provider cannot handle the document type.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmptyDocument is returned when the document is empty.
	ErrEmptyDocument = errors.New("document is empty")

	// ErrQuotaExceeded is returned when provider quota limits are exceeded.
	ErrQuotaExceeded = errors.New("layout service quota exceeded")

	// ErrProcessorNotFound is returned when the Document AI processor does not exist.
	ErrProcessorNotFound = errors.New("Document AI processor not found")
)

// Error wraps errors with additional context about a layout analysis failure.
type Error struct {
	// Op is the operation that failed (e.g., "Analyze", "NewDocumentAIAnalyzer").
	Op string

	// Provider is the layout provider name (if available).
	Provider string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *Error) Error() string {
	prefix := "layout"
	if e.Provider != "" {
		prefix = "layout(" + e.Provider + ")"
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %s failed: %s: %v", prefix, e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s failed: %v", prefix, e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error for the provider and operation.
func NewError(provider, op string, err error, details string) *Error {
	return &Error{
		Op:       op,
		Provider: provider,
		Err:      err,
		Details:  details,
	}
}

// WrapError wraps an error as a layout Error if it isn't already one.
func WrapError(provider, op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var layoutErr *Error
	if errors.As(err, &layoutErr) {
		return err // Already wrapped
	}

	return NewError(provider, op, err, details)
}
