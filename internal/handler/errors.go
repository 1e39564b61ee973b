package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/tripvote/internal/domain"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a short message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.ErrorContext(r.Context(), "write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	s.writeJSON(w, r, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// writeServiceError maps an error returned by the service layer onto an HTTP
// status. notFound is the message used for domain.ErrNotFound because the
// handler is the layer that knows what was being looked up; operations that
// look nothing up by ID pass "".
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	if notFound == "" {
		notFound = "not found"
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.writeError(w, r, http.StatusNotFound, "not_found", notFound)
	case errors.Is(err, domain.ErrMalformed):
		s.writeError(w, r, http.StatusBadRequest, "malformed_payload", unwrapMessage(err, domain.ErrMalformed))
	case errors.Is(err, domain.ErrValidation):
		s.writeError(w, r, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err, domain.ErrValidation))
	case errors.Is(err, domain.ErrUnavailable):
		s.log.ErrorContext(r.Context(), "storage unavailable", "error", err)
		w.Header().Set("Retry-After", "1")
		s.writeError(w, r, http.StatusServiceUnavailable, "unavailable", "storage unavailable, try again")
	default:
		s.log.ErrorContext(r.Context(), "unhandled error", "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// unwrapMessage extracts the human-readable part that follows the sentinel.
// e.g. "service.TripService.Create: validation error: title is required" → "title is required"
func unwrapMessage(err, sentinel error) string {
	msg := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.Index(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return sentinel.Error()
}
