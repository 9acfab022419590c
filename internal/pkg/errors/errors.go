package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrAuthFailed   = errors.New("authentication failed")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// WithMessage attaches a caller visible message to one of the sentinels above
// without hiding it from errors.Is.
func WithMessage(base error, msg string) error {
	return &detailErr{base: base, msg: msg}
}

// Message returns the message attached by WithMessage, if any.
func Message(err error) (string, bool) {
	var d *detailErr
	if errors.As(err, &d) {
		return d.msg, true
	}
	return "", false
}

type detailErr struct {
	base error
	msg  string
}

func (e *detailErr) Error() string {
	return e.base.Error() + ": " + e.msg
}

func (e *detailErr) Unwrap() error {
	return e.base
}
