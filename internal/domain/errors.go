package domain

import "fmt"

// ErrorKind classifies a CoreError per the propagation policy: every tool
// action returns {success:false, error:"<kind>: <message>"}, never a raw
// stack trace.
type ErrorKind string

const (
	ErrNotFound            ErrorKind = "NotFound"
	ErrValidation          ErrorKind = "Validation"
	ErrDependencyCycle     ErrorKind = "DependencyCycle"
	ErrDuplicateID         ErrorKind = "DuplicateId"
	ErrIntegrityViolation  ErrorKind = "IntegrityViolation"
	ErrFormatError         ErrorKind = "FormatError"
	ErrCompositionConflict ErrorKind = "CompositionConflict"
	ErrAuthFailure         ErrorKind = "AuthFailure"
	ErrRateLimited         ErrorKind = "RateLimited"
	ErrTimeout             ErrorKind = "Timeout"
	ErrIOFailure           ErrorKind = "IOFailure"
	ErrCancelled           ErrorKind = "Cancelled"
	ErrConfigError         ErrorKind = "ConfigError"
	ErrPathNotFound        ErrorKind = "PathNotFound"
)

// CoreError is the typed error every component returns. ToolFacade renders
// it as "<kind>: <message>" and never leaks a native stack trace.
type CoreError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *CoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoreError) Unwrap() error { return e.Err }

// NewError builds a CoreError with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *CoreError {
	return &CoreError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds a CoreError wrapping an underlying error.
func WrapError(kind ErrorKind, err error, format string, args ...any) *CoreError {
	return &CoreError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the ErrorKind of err if it (or something it wraps) is a
// *CoreError, and ok=false otherwise.
func KindOf(err error) (ErrorKind, bool) {
	var ce *CoreError
	if ok := asCoreError(err, &ce); ok {
		return ce.Kind, true
	}
	return "", false
}

func asCoreError(err error, target **CoreError) bool {
	for err != nil {
		if ce, ok := err.(*CoreError); ok {
			*target = ce
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}


