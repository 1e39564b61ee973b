// Package repo contains all storage access logic for the Trip Vote API.
// TripRepo has a Postgres implementation (this file) and an in-memory one
// (memory.go). No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/tripvote/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not a concrete implementation,
// which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record with the
	// storage-assigned ID and Date populated. Rating is stored as given.
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id int64) (domain.Trip, error)

	// List returns every trip in ascending ID order.
	List(ctx context.Context) ([]domain.Trip, error)

	// IncrementRating atomically adds one to the trip's rating and returns
	// the new value. Returns domain.ErrNotFound if the trip does not exist.
	IncrementRating(ctx context.Context, id int64) (int, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, title, username, author, json, rating, date`

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (title, username, author, json, rating)
		VALUES (@title, @username, @author, @json, @rating)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"title":    trip.Title,
		"username": trip.Username, // nil becomes NULL
		"author":   trip.Author,
		"json":     trip.JSON,
		"rating":   trip.Rating,
	}

	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, wrapErr("repo.TripRepo.Create", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id int64) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, wrapErr("repo.TripRepo.GetByID", err)
	}
	return result, nil
}

// List returns all trips in insertion order.
func (r *pgTripRepo) List(ctx context.Context) ([]domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips ORDER BY id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, wrapErr("repo.TripRepo.List", err)
	}
	defer rows.Close()

	var trips []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, wrapErr("repo.TripRepo.List: scan", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("repo.TripRepo.List: rows", err)
	}

	return trips, nil
}

// IncrementRating bumps the rating in a single statement, so concurrent votes
// on the same trip are serialised by the row lock and none are lost.
func (r *pgTripRepo) IncrementRating(ctx context.Context, id int64) (int, error) {
	const q = `
		UPDATE trips
		SET rating = rating + 1
		WHERE id = @id
		RETURNING rating`

	var rating int
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}).Scan(&rating)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = domain.ErrNotFound
		}
		return 0, wrapErr("repo.TripRepo.IncrementRating", err)
	}
	return rating, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanTrip to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the nullable username and author columns.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t        domain.Trip
		username pgtype.Text
		author   pgtype.Text
	)

	err := s.Scan(&t.ID, &t.Title, &username, &author, &t.JSON, &t.Rating, &t.Date)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	if username.Valid {
		t.Username = &username.String
	}
	if author.Valid {
		t.Author = &author.String
	}
	return t, nil
}

// wrapErr prefixes err with op. Anything other than domain.ErrNotFound is a
// failure of the store itself and is tagged with domain.ErrUnavailable.
func wrapErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, err)
}
