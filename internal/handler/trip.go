package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/tripvote/internal/domain"
)

// payloadField is the form field carrying the submitted trip JSON.
const payloadField = "json"

// maxMultipartMemory is how much of a multipart body is held in memory.
// The request body itself is capped by middleware.NewMaxBodySizeHandler.
const maxMultipartMemory = 1 << 20

var errMissingPayload = errors.New(payloadField + " field is required")

type createTripResponse struct {
	ID int64 `json:"id"`
}

// ListTrips handles GET /trips/.
// Every trip is returned as a summary; there is no pagination.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.trips.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}

	out := make([]domain.Summary, len(trips))
	for i, t := range trips {
		out[i] = t.Summary()
	}
	s.writeJSON(w, r, http.StatusOK, out)
}

// CreateTrip handles POST /trips/.
// The payload comes from the "json" form field, or from the raw body when the
// request is sent as application/json.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	payload, err := readPayload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, "too_large", "request body too large")
			return
		}
		s.writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	created, err := s.trips.Create(r.Context(), payload)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}

	s.writeJSON(w, r, http.StatusCreated, createTripResponse{ID: created.ID})
}

// GetTrip handles GET /trips/{id}/.
// The stored payload is written back byte for byte.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, "trip not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, trip.JSON)
}

// VoteTrip handles POST /vote/{id}.
// The response body is the new rating as plain text.
func (s *Server) VoteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	rating, err := s.trips.Vote(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, "trip not found")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, strconv.Itoa(rating))
}

// pathID binds the {id} path parameter. On failure it writes a 400 and
// returns false.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_id", "id must be an integer")
		return 0, false
	}
	return id, true
}

// readPayload extracts the submitted trip JSON from the request.
func readPayload(r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/json":
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return "", err
		}
	default:
		if err := r.ParseForm(); err != nil {
			return "", err
		}
	}

	values, ok := r.Form[payloadField]
	if !ok || len(values) == 0 {
		return "", errMissingPayload
	}
	return values[0], nil
}
