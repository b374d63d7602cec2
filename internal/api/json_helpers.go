package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

type successEnvelope struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
}

type errorEnvelope struct {
	Success    bool     `json:"success"`
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// writeData wraps payloads in the success envelope every endpoint returns.
func writeData(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, successEnvelope{
		Success:    status < http.StatusBadRequest,
		StatusCode: status,
		Message:    message,
		Data:       data,
	})
}

func writeError(w http.ResponseWriter, err error) {
	apiErr := asAPIError(err)
	envelope := errorEnvelope{
		Success:    false,
		StatusCode: apiErr.Status,
		Message:    apiErr.Message,
		Errors:     apiErr.Details,
	}
	if envelope.Errors == nil {
		envelope.Errors = []string{}
	}
	writeJSON(w, apiErr.Status, envelope)
}

// WriteError is an exported helper for returning JSON API errors.
func WriteError(w http.ResponseWriter, err error) {
	writeError(w, err)
}

func decodeJSON(r *http.Request, dest interface{}) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, &APIError{Status: http.StatusMethodNotAllowed, Message: "method not allowed"})
}
