package web

// errors.go provides unified error response handling for the web layer.
//
// Every error path logs the technical detail server-side with the request
// ID for correlation, and returns a JSON body with a stable message.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/fieldops/ingest/internal/ingest"
)

// ErrorResponse is the JSON structure for API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError logs the technical error and writes a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"request_id", middleware.GetReqID(r.Context()),
	)

	writeJSON(w, statusCode, ErrorResponse{Error: err.Error()})
}

// statusFor maps job-level pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var cfgErr *ingest.ConfigError
	switch {
	case errors.Is(err, ingest.ErrUnknownKind):
		return http.StatusNotFound
	case errors.Is(err, ingest.ErrTooManyJobs):
		return http.StatusTooManyRequests
	case errors.Is(err, ingest.ErrEmptyInput), errors.As(err, &cfgErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
