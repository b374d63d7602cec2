package api

import (
	"errors"
	"net/http"

	"clipstream/internal/storage"
)

// APIError carries an HTTP status alongside the client-facing message.
// Anything that is not an APIError surfaces as a 500 with a generic message
// so internal details never leak into responses.
type APIError struct {
	Status  int
	Message string
	Details []string
	cause   error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

func badRequest(message string, details ...string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: message, Details: details}
}

func unauthorized(message string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Message: message}
}

func forbidden(message string) *APIError {
	return &APIError{Status: http.StatusForbidden, Message: message}
}

func notFound(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Message: message}
}

func conflict(message string) *APIError {
	return &APIError{Status: http.StatusConflict, Message: message}
}

func internalError(message string, cause error) *APIError {
	return &APIError{Status: http.StatusInternalServerError, Message: message, cause: cause}
}

func asAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &APIError{Status: http.StatusInternalServerError, Message: "internal server error", cause: err}
}

// storeError maps repository sentinels onto the API taxonomy.
func storeError(err error, notFoundMessage string) *APIError {
	switch {
	case errors.Is(err, storage.ErrUserNotFound), errors.Is(err, storage.ErrNotFound):
		return notFound(notFoundMessage)
	case errors.Is(err, storage.ErrConflict):
		return conflict("username or email already in use")
	case errors.Is(err, storage.ErrInvalidCredentials):
		return unauthorized("invalid credentials")
	case errors.Is(err, storage.ErrSelfSubscription):
		return badRequest("cannot subscribe to own channel")
	case errors.Is(err, storage.ErrPostgresUnavailable):
		return &APIError{Status: http.StatusNotImplemented, Message: "operation not available on this datastore"}
	default:
		return badRequest(err.Error())
	}
}
