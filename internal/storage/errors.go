package storage

import (
	"errors"
	"fmt"
)

// Kind classifies repository and media failures so handlers can map them to
// transport status codes in one place.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindUploadFailed
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindUploadFailed:
		return "upload_failed"
	default:
		return "internal"
	}
}

// Error is the typed failure every repository operation returns. Callers
// branch on Kind, never on message text.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func InvalidArgumentf(format string, args ...any) *Error {
	return newError(KindInvalidArgument, format, args...)
}

func NotFoundf(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func Conflictf(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

func Unauthorizedf(format string, args ...any) *Error {
	return newError(KindUnauthorized, format, args...)
}

func Forbiddenf(format string, args ...any) *Error {
	return newError(KindForbidden, format, args...)
}

func UploadFailedf(format string, args ...any) *Error {
	return newError(KindUploadFailed, format, args...)
}

func Internalf(format string, args ...any) *Error {
	return newError(KindInternal, format, args...)
}

// Internal wraps an unexpected failure while preserving the cause for
// errors.Is/errors.As callers.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf extracts the Kind from err, defaulting to KindInternal for errors
// that did not originate in this package.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindInternal
}

func isKind(err error, kind Kind) bool {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind == kind
	}
	return false
}

func IsInvalidArgument(err error) bool { return isKind(err, KindInvalidArgument) }
func IsNotFound(err error) bool        { return isKind(err, KindNotFound) }
func IsConflict(err error) bool        { return isKind(err, KindConflict) }
func IsUnauthorized(err error) bool    { return isKind(err, KindUnauthorized) }
func IsForbidden(err error) bool       { return isKind(err, KindForbidden) }
func IsUploadFailed(err error) bool    { return isKind(err, KindUploadFailed) }
