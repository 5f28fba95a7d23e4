package errors

import (
	"errors"
	"net/http"
)

// MapToHTTPStatus translates domain sentinels into HTTP status codes at the
// transport boundary. Unknown errors are treated as internal failures.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidIdentity),
		errors.Is(err, ErrSelfReference),
		errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrUserAlreadyExists):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrBlocked):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
