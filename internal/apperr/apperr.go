// Package apperr classifies domain errors into the four kinds callers act on.
package apperr

import "errors"

var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrState      = errors.New("invalid state")
	ErrNotFound   = errors.New("not found")
)

// Error is a domain error tagged with its kind. Package-level sentinels are
// declared as *Error values so both errors.Is(err, pkg.ErrX) and
// errors.Is(err, apperr.ErrConflict) hold.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Unwrap exposes the kind so errors.Is matches it.
func (e *Error) Unwrap() error { return e.kind }

func Validation(msg string) *Error { return &Error{kind: ErrValidation, msg: msg} }
func Conflict(msg string) *Error   { return &Error{kind: ErrConflict, msg: msg} }
func State(msg string) *Error      { return &Error{kind: ErrState, msg: msg} }
func NotFound(msg string) *Error   { return &Error{kind: ErrNotFound, msg: msg} }

// Kind returns the kind sentinel of err, or nil for unclassified errors.
func Kind(err error) error {
	for _, k := range []error{ErrValidation, ErrConflict, ErrState, ErrNotFound} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
