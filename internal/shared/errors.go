package shared

import "errors"

var (
	// ErrInvalidArgument indicates a bad value supplied to a setter or movement.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound indicates an operation referenced an unknown id.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateKey indicates an add with an id already in use.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrIOFailure indicates the persisted resource could not be read or written.
	ErrIOFailure = errors.New("io failure")
)

// ErrorKind names the taxonomy bucket an error belongs to.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicateKey):
		return "duplicate_key"
	case errors.Is(err, ErrIOFailure):
		return "io_failure"
	default:
		return "internal"
	}
}
