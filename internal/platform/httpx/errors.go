package httpx

import (
	"errors"
	"net/http"

	"github.com/logistock/logistock/internal/shared"
)

// ErrUnauthorized is returned by guards that reject a request credential.
var ErrUnauthorized = errors.New("unauthorized")

// StatusFor maps a domain error onto an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps domain errors to HTTP responses using RFC7807.
// Internal errors are reported without detail.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		detail = ""
	}
	kind := shared.ErrorKind(err)
	if status == http.StatusUnauthorized {
		kind = "unauthorized"
	}
	Problem(w, status, http.StatusText(status), detail, kind)
}
