package server

import (
	"net/http"

	"clipstream/internal/api"
)

// writeMiddlewareError normalises middleware error responses to the API JSON shape.
func writeMiddlewareError(w http.ResponseWriter, status int, message string) {
	api.WriteError(w, &api.APIError{Status: status, Message: message})
}
