package domain

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid day phase transition")
	ErrNotFound          = errors.New("record not found")
	ErrAlreadyResolved   = errors.New("ccp failure already resolved")
	ErrInvalidInput      = errors.New("invalid input")
)

// ErrorKind is a short label for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyResolved):
		return "already_resolved"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}
