// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// ErrUnavailable marks a dependency that cannot serve the request yet.
var ErrUnavailable = errors.New("service unavailable")

// RespondError maps errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Unavailable", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
