package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkordes/tripvote/internal/domain"
)

// memTripRepo is an in-memory implementation of TripRepo.
// IDs come from a counter that only moves forward, so an ID is never reused.
type memTripRepo struct {
	mu     sync.RWMutex
	trips  map[int64]domain.Trip
	lastID int64
	now    func() time.Time
}

// NewMemTripRepo returns an empty in-memory TripRepo. Data lives only as long
// as the process; use it for local development and tests.
func NewMemTripRepo() TripRepo {
	return &memTripRepo{
		trips: make(map[int64]domain.Trip),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *memTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	if err := ctx.Err(); err != nil {
		return domain.Trip{}, wrapErr("repo.memTripRepo.Create", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	trip.ID = r.lastID
	trip.Date = r.now()
	// Copy the optional fields so later changes by the caller don't leak in.
	trip.Username = cloneString(trip.Username)
	trip.Author = cloneString(trip.Author)
	r.trips[trip.ID] = trip

	return copyTrip(trip), nil
}

func (r *memTripRepo) GetByID(ctx context.Context, id int64) (domain.Trip, error) {
	if err := ctx.Err(); err != nil {
		return domain.Trip{}, wrapErr("repo.memTripRepo.GetByID", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.trips[id]
	if !ok {
		return domain.Trip{}, fmt.Errorf("repo.memTripRepo.GetByID: %w", domain.ErrNotFound)
	}
	return copyTrip(t), nil
}

func (r *memTripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapErr("repo.memTripRepo.List", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	trips := make([]domain.Trip, 0, len(r.trips))
	for _, t := range r.trips {
		trips = append(trips, copyTrip(t))
	}
	sort.Slice(trips, func(i, j int) bool { return trips[i].ID < trips[j].ID })
	return trips, nil
}

func (r *memTripRepo) IncrementRating(ctx context.Context, id int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, wrapErr("repo.memTripRepo.IncrementRating", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trips[id]
	if !ok {
		return 0, fmt.Errorf("repo.memTripRepo.IncrementRating: %w", domain.ErrNotFound)
	}
	t.Rating++
	r.trips[id] = t
	return t.Rating, nil
}

func copyTrip(t domain.Trip) domain.Trip {
	t.Username = cloneString(t.Username)
	t.Author = cloneString(t.Author)
	return t
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
