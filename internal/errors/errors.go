package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is the bridge error type with structured metadata.
type Error struct {
	Kind    Kind   // Machine-readable kind
	Message string // Human-readable message relayed to the caller
	Field   string // Offending argument, set for ArgumentTypeMismatch
	Cause   error  // Wrapped underlying error
}

// Kinded is implemented by handler errors that want to choose the
// error_kind reported to the caller.
type Kinded interface {
	error
	Kind() string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target matches this error by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error that wraps an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithField creates an ArgumentTypeMismatch naming the offending field.
func WithField(field, message string, cause error) *Error {
	return &Error{
		Kind:    KindArgumentTypeMismatch,
		Message: message,
		Field:   field,
		Cause:   cause,
	}
}

// Sentinels for errors.Is comparisons by kind.
var (
	ErrDuplicateCommand     = &Error{Kind: KindDuplicateCommand}
	ErrInvalidCommandName   = &Error{Kind: KindInvalidCommandName}
	ErrRegistrySealed       = &Error{Kind: KindRegistrySealed}
	ErrCommandNotFound      = &Error{Kind: KindCommandNotFound}
	ErrMalformedRequest     = &Error{Kind: KindMalformedRequest}
	ErrArgumentTypeMismatch = &Error{Kind: KindArgumentTypeMismatch}
)

// KindOf classifies err. Bridge errors keep their kind, handler errors
// implementing Kinded report their own kind, and anything else is a
// HandlerError.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var be *Error
	if stderrors.As(err, &be) {
		return be.Kind
	}
	var ke Kinded
	if stderrors.As(err, &ke) {
		if k := ke.Kind(); k != "" {
			return Kind(k)
		}
	}
	return KindHandlerError
}

// FieldOf returns the offending field of an ArgumentTypeMismatch, if any.
func FieldOf(err error) string {
	var be *Error
	if stderrors.As(err, &be) {
		return be.Field
	}
	return ""
}
