package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// InternalErrorMessage is the only text ever written for unexpected failures.
const InternalErrorMessage = "Internal server error"

// RespondError maps domain errors to HTTP responses.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Message(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicate):
		Message(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrValidation):
		Message(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrForbidden):
		Forbidden(w, "")
	case errors.Is(err, ErrUnauthorized):
		Unauthenticated(w, "")
	default:
		Message(w, http.StatusInternalServerError, InternalErrorMessage)
	}
}
