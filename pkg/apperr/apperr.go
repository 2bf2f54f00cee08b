// Package apperr carries the typed error taxonomy shared by all services.
// Handlers map kinds to HTTP status codes; services attach context with E
// and callers branch with IsKind/KindOf.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for boundary mapping.
type Kind int

const (
	Other        Kind = iota // unclassified, maps to 500
	NotFound                 // referenced entity absent
	Unauthorized             // caller is not an authorized party to the entity
	Invalid                  // malformed or out-of-range input
	Conflict                 // invalid state transition or duplicate unique key
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Unauthorized:
		return "unauthorized"
	case Invalid:
		return "invalid"
	case Conflict:
		return "conflict"
	}
	return "internal"
}

// Error is a kinded error with an operator-facing message and optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds an error of the given kind from a message and optional cause.
func E(kind Kind, msg string, cause ...error) error {
	err := &Error{Kind: kind, Msg: msg}
	if len(cause) > 0 {
		err.Err = cause[0]
	}
	return err
}

// Ef builds an error of the given kind with a formatted message.
func Ef(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, walking the wrap chain. Unclassified
// errors report Other.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// NotFoundErr is a shorthand for a NotFound error about a named entity.
func NotFoundErr(entity string) error {
	return &Error{Kind: NotFound, Msg: entity + " not found"}
}

// UnauthorizedErr is a shorthand for an Unauthorized error.
func UnauthorizedErr(msg string) error {
	return &Error{Kind: Unauthorized, Msg: msg}
}
