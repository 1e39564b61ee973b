// Package service contains the business logic for the Trip Vote API.
// Services parse and validate submissions and orchestrate repo calls.
// No SQL lives here — services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkordes/tripvote/internal/domain"
	"github.com/pkordes/tripvote/internal/repo"
)

// MaxFieldRunes caps title, username and name, counted in characters. The
// payload itself is only bounded by the request body limit.
const MaxFieldRunes = 500

// TripService implements business logic for Trip operations.
type TripService struct {
	repo repo.TripRepo
}

// NewTripService constructs a TripService backed by the provided TripRepo.
func NewTripService(r repo.TripRepo) *TripService {
	return &TripService{repo: r}
}

// Create parses a submitted payload and persists it as a new trip with a
// rating of 1. The payload is stored verbatim.
func (s *TripService) Create(ctx context.Context, payload string) (domain.Trip, error) {
	trip, err := parseSubmission(payload)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	created, err := s.repo.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return created, nil
}

// GetByID returns a single trip by ID.
func (s *TripService) GetByID(ctx context.Context, id int64) (domain.Trip, error) {
	if id <= 0 {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", domain.ErrNotFound)
	}
	trip, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return trip, nil
}

// List returns all trips. The result is never nil.
func (s *TripService) List(ctx context.Context) ([]domain.Trip, error) {
	trips, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.List: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, nil
}

// Vote adds one to the trip's rating and returns the new value.
// Repeated calls keep counting; there is no per-client deduplication.
func (s *TripService) Vote(ctx context.Context, id int64) (int, error) {
	if id <= 0 {
		return 0, fmt.Errorf("service.TripService.Vote: %w", domain.ErrNotFound)
	}
	rating, err := s.repo.IncrementRating(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("service.TripService.Vote: %w", err)
	}
	return rating, nil
}

// parseSubmission builds an unsaved Trip from a raw payload.
// The payload must be a JSON object with a non-empty string "title";
// "username" and "name" are copied when present and not null.
func parseSubmission(payload string) (domain.Trip, error) {
	if !utf8.ValidString(payload) {
		return domain.Trip{}, fmt.Errorf("%w: payload must be valid UTF-8", domain.ErrMalformed)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return domain.Trip{}, fmt.Errorf("%w: %s", domain.ErrMalformed, describeJSONError(err))
	}
	if fields == nil {
		return domain.Trip{}, fmt.Errorf("%w: payload must be a JSON object", domain.ErrMalformed)
	}

	title, err := optionalString(fields, "title")
	if err != nil {
		return domain.Trip{}, err
	}
	if title == nil || *title == "" {
		return domain.Trip{}, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}

	trip := domain.Trip{
		Title:  *title,
		JSON:   payload,
		Rating: domain.InitialRating,
	}
	if trip.Username, err = optionalString(fields, "username"); err != nil {
		return domain.Trip{}, err
	}
	if trip.Author, err = optionalString(fields, "name"); err != nil {
		return domain.Trip{}, err
	}
	return trip, nil
}

// optionalString looks up key in fields. A missing key or a JSON null yields
// nil; any other non-string value is a validation error. Postgres TEXT cannot
// hold NUL, so strings containing one are rejected here for every store.
func optionalString(fields map[string]json.RawMessage, key string) (*string, error) {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return nil, nil
	}

	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %s must be a string", domain.ErrValidation, key)
	}
	if strings.ContainsRune(v, 0) {
		return nil, fmt.Errorf("%w: %s must not contain NUL characters", domain.ErrValidation, key)
	}
	if utf8.RuneCountInString(v) > MaxFieldRunes {
		return nil, fmt.Errorf("%w: %s must be at most %d characters", domain.ErrValidation, key, MaxFieldRunes)
	}
	return &v, nil
}

func describeJSONError(err error) string {
	switch e := err.(type) {
	case *json.SyntaxError:
		return fmt.Sprintf("invalid JSON at offset %d", e.Offset)
	case *json.UnmarshalTypeError:
		return "payload must be a JSON object, got " + e.Value
	default:
		return "invalid JSON"
	}
}
