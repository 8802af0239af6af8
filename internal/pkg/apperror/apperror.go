package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error so transports can map it without knowing every
// domain sentinel.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuthorization
	KindUnauthenticated
	KindNotFound
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthorization:
		return "authorization"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindNotFound:
		return "not_found"
	case KindInvariant:
		return "invariant_violation"
	case KindInternal:
		return "internal"
	}
	return "unknown"
}

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

// Is reports a match for the kind sentinels below (ErrConflict, ErrNotFound...),
// so errors.Is(err, apperror.ErrConflict) holds for every conflict error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" {
		return t.Kind == e.Kind
	}
	return t == e
}

// Kind sentinels. They carry no message and match any error of their kind.
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrAuthorization   = &Error{Kind: KindAuthorization}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrInvariant       = &Error{Kind: KindInvariant}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) *Error    { return New(KindValidation, message) }
func Conflict(message string) *Error      { return New(KindConflict, message) }
func Authorization(message string) *Error { return New(KindAuthorization, message) }
func NotFound(message string) *Error      { return New(KindNotFound, message) }
func Invariant(message string) *Error     { return New(KindInvariant, message) }

func Validationf(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func Conflictf(format string, args ...any) *Error {
	return New(KindConflict, fmt.Sprintf(format, args...))
}

func Invariantf(format string, args ...any) *Error {
	return New(KindInvariant, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of the first *Error in err's chain, KindValidation
// for anything matching ErrValidation, and KindInternal otherwise.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, ErrValidation) {
		return KindValidation
	}
	return KindInternal
}

// MessageOf returns the human readable message of the first *Error in err's
// chain, falling back to err.Error().
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Error()
	}
	return err.Error()
}
