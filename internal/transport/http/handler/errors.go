package handler

import (
	"errors"
	"net/http"

	"github.com/sms-confirm-api/internal/domain"
)

// httpError maps domain sentinel errors to HTTP status codes. Anything
// unrecognized is treated as a storage/transport outage the caller may retry.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnsupportedAddress),
		errors.Is(err, domain.ErrInvalidTemplate),
		errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrCodeGeneration):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeError(w, http.StatusServiceUnavailable, "storage or delivery unavailable")
	}
}
