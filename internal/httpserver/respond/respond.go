// Package respond writes the JSON bodies shared by the API handlers. Errors
// use the envelope {"error":{"code","message"}}.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes carried in APIError.Code.
const (
	CodeBadRequest  = "bad_request"
	CodeNotFound    = "not_found"
	CodeConflict    = "conflict"
	CodeUnavailable = "unavailable"
	CodeUpstream    = "upstream_error"
	CodeInternal    = "internal_error"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorBody struct {
	Error APIError `json:"error"`
}

var internalErrorBody = []byte(`{"error":{"code":"internal_error","message":"internal error"}}` + "\n")

// JSON encodes v before touching the response so an encoding failure can
// still become a 500. Cache-Control defaults to no-store unless the handler
// already set one.
func JSON(w http.ResponseWriter, status int, v any) {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	if h.Get("Cache-Control") == "" {
		h.Set("Cache-Control", "no-store")
	}

	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to encode JSON response", "status", status, "error", err)
		status, body = http.StatusInternalServerError, internalErrorBody
	} else {
		body = append(body, '\n')
	}

	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Debug("Failed to write response", "error", err)
	}
}

func Error(w http.ResponseWriter, status int, code, msg string) {
	JSON(w, status, ErrorBody{Error: APIError{Code: code, Message: msg}})
}

func BadRequest(w http.ResponseWriter, msg string) {
	Error(w, http.StatusBadRequest, CodeBadRequest, msg)
}

func NotFound(w http.ResponseWriter, msg string) {
	Error(w, http.StatusNotFound, CodeNotFound, msg)
}

// InternalError hides the cause; callers log it.
func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, CodeInternal, "internal error")
}
