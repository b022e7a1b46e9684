package web

// errors.go maps pipeline errors onto HTTP status codes and a uniform JSON
// error envelope. Technical detail is logged server-side with the request ID;
// clients receive the user-facing message and a quotable code.

import (
	"errors"
	"net/http"

	"github.com/fin2md/fin2md/internal/ingest"
	"github.com/fin2md/fin2md/internal/logging"
)

// ErrorResponse is the JSON error envelope returned by all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusForError resolves the taxonomy: unsupported format is a media-type
// problem, malformed payloads and unreadable containers are client errors,
// limiter saturation asks the client to back off, everything else is a 500.
func statusForError(err error) int {
	var unsupported *ingest.UnsupportedFormatError
	if errors.As(err, &unsupported) {
		return http.StatusUnsupportedMediaType
	}

	var parse *ingest.ParseError
	if errors.As(err, &parse) {
		return http.StatusBadRequest
	}

	if errors.Is(err, ingest.ErrTooManyConversions) {
		return http.StatusTooManyRequests
	}

	// Container-open failures carry the ZIP001 mapping.
	if ingest.MapError(err).Code == "ZIP001" {
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped JSON error envelope.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	userMsg := ingest.MapError(err)

	logging.FromContext(r.Context()).Error("request failed",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	writeJSON(w, status, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// respondBadRequest writes a plain 400 envelope for request-shape problems
// that never reach the pipeline (missing file field, oversized body).
func respondBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   message,
		Message: message,
		Code:    "REQ001",
	})
}
