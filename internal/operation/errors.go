package operation

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the categories of failure a panel can report
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeValidation
	ErrorTypeTransport
	ErrorTypeTimeout
	ErrorTypeServer
	ErrorTypePartialResult
)

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeValidation:
		return "VALIDATION"
	case ErrorTypeTransport:
		return "TRANSPORT"
	case ErrorTypeTimeout:
		return "TIMEOUT"
	case ErrorTypeServer:
		return "SERVER"
	case ErrorTypePartialResult:
		return "PARTIAL_RESULT"
	default:
		return "UNKNOWN"
	}
}

// Retryable reports whether resubmitting the same request may succeed
func (et ErrorType) Retryable() bool {
	switch et {
	case ErrorTypeTransport, ErrorTypeTimeout, ErrorTypeServer:
		return true
	default:
		return false
	}
}

// OperationError is a failed submission or retrieval, carrying the
// message to show to the user.
type OperationError struct {
	Type       ErrorType
	Kind       Kind
	Message    string
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *OperationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", e.Type)
	if e.Kind != "" {
		fmt.Fprintf(&b, " %s:", e.Kind)
	}
	b.WriteString(" ")
	b.WriteString(e.UserMessage())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *OperationError) Unwrap() error {
	return e.Err
}

// UserMessage returns the human-readable notice for this failure. It is
// never empty.
func (e *OperationError) UserMessage() string {
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	if cfg, ok := Lookup(e.Kind); ok {
		return cfg.FailureMessage
	}
	return "Operation failed"
}

// ItemFailure records one artifact that could not be retrieved or saved
type ItemFailure struct {
	Index    int
	FileName string
	Err      error
}

// PartialResultError is returned when the operation itself succeeded but
// some of its artifacts could not be downloaded.
type PartialResultError struct {
	Total    int
	Failures []ItemFailure
}

// Error implements the error interface
func (e *PartialResultError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.FileName)
	}
	return fmt.Sprintf("[%s] downloaded %d of %d files; failed: %s",
		ErrorTypePartialResult, e.Succeeded(), e.Total, strings.Join(names, ", "))
}

// Succeeded returns how many artifacts were downloaded
func (e *PartialResultError) Succeeded() int {
	return e.Total - len(e.Failures)
}

// Unwrap exposes every per-item cause to errors.Is and errors.As
func (e *PartialResultError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}

// NewValidationError builds a client-side validation failure
func NewValidationError(kind Kind, format string, args ...any) *OperationError {
	return &OperationError{
		Type:    ErrorTypeValidation,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// TypeOf classifies any error returned by this package
func TypeOf(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	var partial *PartialResultError
	if errors.As(err, &partial) {
		return ErrorTypePartialResult
	}

	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Type
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}

	return ErrorTypeUnknown
}

// IsValidation reports whether err is a client-side validation failure
func IsValidation(err error) bool {
	return TypeOf(err) == ErrorTypeValidation
}

// IsTimeout reports whether err is a timeout
func IsTimeout(err error) bool {
	return TypeOf(err) == ErrorTypeTimeout
}

// UserMessage extracts a displayable notice from any error
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	// checked first: a partial result unwraps to its per-item causes
	var partial *PartialResultError
	if errors.As(err, &partial) {
		return fmt.Sprintf("Downloaded %d of %d files", partial.Succeeded(), partial.Total)
	}

	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.UserMessage()
	}

	return err.Error()
}
