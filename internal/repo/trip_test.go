package repo_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripvote/internal/domain"
	"github.com/pkordes/tripvote/internal/repo"
	"github.com/pkordes/tripvote/testutil"
)

// newPgRepo opens a transaction against the test database and returns a
// TripRepo backed by that transaction. The transaction is automatically rolled
// back when the test finishes, giving free per-test isolation.
//
// Requires TEST_DATABASE_URL to be set; TestMain applies the migrations.
func newPgRepo(t *testing.T) repo.TripRepo {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	return repo.NewTripRepo(tx)
}

func newMemRepo(t *testing.T) repo.TripRepo {
	t.Helper()
	return repo.NewMemTripRepo()
}

// stores lists every TripRepo implementation; each test runs against all of them.
var stores = map[string]func(t *testing.T) repo.TripRepo{
	"postgres": newPgRepo,
	"memory":   newMemRepo,
}

func forEachStore(t *testing.T, fn func(t *testing.T, r repo.TripRepo)) {
	t.Helper()
	for name, newRepo := range stores {
		t.Run(name, func(t *testing.T) {
			fn(t, newRepo(t))
		})
	}
}

// tripFixture returns a domain.Trip with sensible defaults for use in tests.
// Callers can override individual fields after calling this function.
func tripFixture() domain.Trip {
	username := "ada"
	author := "Ada Lovelace"
	return domain.Trip{
		Title:    "Summer Tour",
		Username: &username,
		Author:   &author,
		JSON:     `{"title":"Summer Tour","username":"ada","name":"Ada Lovelace"}`,
		Rating:   domain.InitialRating,
	}
}

func TestTripRepo_Create(t *testing.T) {
	forEachStore(t, func(t *testing.T, r repo.TripRepo) {
		input := tripFixture()
		got, err := r.Create(context.Background(), input)

		require.NoError(t, err)
		assert.Positive(t, got.ID, "ID should be storage-generated")
		assert.Equal(t, input.Title, got.Title)
		assert.Equal(t, input.Username, got.Username)
		assert.Equal(t, input.Author, got.Author)
		assert.Equal(t, input.JSON, got.JSON)
		assert.Equal(t, 1, got.Rating)
		assert.False(t, got.Date.IsZero(), "Date should be set by storage")
	})
}

func TestTripRepo_Create_NilOptionalFields(t *testing.T) {
	forEachStore(t, func(t *testing.T, r repo.TripRepo) {
		input := tripFixture()
		input.Username = nil
		input.Author = nil

		created, err := r.Create(context.Background(), input)
		require.NoError(t, err)

		got, err := r.GetByID(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Username)
		assert.Nil(t, got.Author)
	})
}

func TestTripRepo_Create_IDsAreDistinct(t *testing.T) {
	forEachStore(t, func(t *testing.T, r repo.TripRepo) {
		ctx := context.Background()

		a, err := r.Create(ctx, tripFixture())
		require.NoError(t, err)
		b, err := r.Create(ctx, tripFixture())
		require.NoError(t, err)

		assert.NotEqual(t, a.ID, b.ID)
		assert.Greater(t, b.ID, a.ID)
	})
}

func TestTripRepo_GetByID(t *testing.T) {
	forEachStore(t, func(t *testing.T, r repo.TripRepo) {
		ctx := context.Background()

		created, err := r.Create(ctx, tripFixture())
		require.NoError(t, err)

		got, err := r.GetByID(ctx, created.ID)

		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, created.JSON, got.JSON)
		assert.True(t, created.Date.Equal(got.Date), "Date mismatch")
	})
}

func TestTripRepo_GetByID_NotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, r repo.TripRepo) {
		_, err := r.GetByID(context.Background(), 9_999_999)

		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NotErrorIs(t, err, domain.ErrUnavailable)
	})
}

func TestTripRepo_List(t *testing.T) {
	forEachStore(t, func(t *testing.T, r repo.TripRepo) {
		ctx := context.Background()

		t1 := tripFixture()
		t1.Title = "First Trip"
		t2 := tripFixture()
		t2.Title = "Second Trip"
		t2.Author = nil

		c1, err := r.Create(ctx, t1)
		require.NoError(t, err)
		c2, err := r.Create(ctx, t2)
		require.NoError(t, err)

		trips, err := r.List(ctx)

		require.NoError(t, err)
		require.GreaterOrEqual(t, len(trips), 2, "should return at least the two created trips")

		byID := map[int64]domain.Trip{}
		var ids []int64
		for _, tr := range trips {
			byID[tr.ID] = tr
			ids = append(ids, tr.ID)
		}
		assert.IsIncreasing(t, ids, "List should be in ascending ID order")
		assert.Equal(t, "First Trip", byID[c1.ID].Title)
		assert.Equal(t, "Second Trip", byID[c2.ID].Title)
		assert.Nil(t, byID[c2.ID].Author)
	})
}

func TestTripRepo_IncrementRating(t *testing.T) {
	forEachStore(t, func(t *testing.T, r repo.TripRepo) {
		ctx := context.Background()

		created, err := r.Create(ctx, tripFixture())
		require.NoError(t, err)

		for want := 2; want <= 4; want++ {
			got, err := r.IncrementRating(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}

		stored, err := r.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, stored.Rating)
		assert.Equal(t, created.JSON, stored.JSON, "votes must not touch the stored payload")
	})
}

func TestTripRepo_IncrementRating_NotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, r repo.TripRepo) {
		_, err := r.IncrementRating(context.Background(), 9_999_999)

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

// TestMemTripRepo_IncrementRating_Concurrent verifies that simultaneous votes
// on one trip are all counted.
func TestMemTripRepo_IncrementRating_Concurrent(t *testing.T) {
	r := repo.NewMemTripRepo()
	ctx := context.Background()

	created, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)

	const voters = 50
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.IncrementRating(ctx, created.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := r.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1+voters, got.Rating)
}

// TestPgTripRepo_IncrementRating_Concurrent runs the same check against
// Postgres through the pool (not a transaction) so the votes really race.
func TestPgTripRepo_IncrementRating_Concurrent(t *testing.T) {
	pool := testutil.NewPool(t)
	r := repo.NewTripRepo(pool)
	ctx := context.Background()

	created, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM trips WHERE id = $1`, created.ID)
	})

	const voters = 20
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.IncrementRating(ctx, created.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := r.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1+voters, got.Rating)
}

func TestMemTripRepo_CanceledContext(t *testing.T) {
	r := repo.NewMemTripRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.List(ctx)

	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}
