package trips

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripmap/internal/app/models"
)

func newMockRepo(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRepository(mock, zap.NewNop()), mock
}

func TestRepository_CreateTrip(t *testing.T) {
	repo, mock := newMockRepo(t)
	lat, lon := 38.72, -9.14

	mock.ExpectExec("INSERT INTO trips").
		WithArgs(pgxmock.AnyArg(), "user-1", "Porto", "Lisbon", 3, 2, 500, &lat, &lon, models.TripStatusPlanned, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	trip := &models.Trip{UserID: "user-1", Source: "Porto", Destination: "Lisbon", Days: 3, People: 2, Budget: 500, Lat: &lat, Lon: &lon}
	require.NoError(t, repo.CreateTrip(context.Background(), trip))

	assert.NotEqual(t, uuid.Nil, trip.ID)
	assert.Equal(t, models.TripStatusPlanned, trip.Status)
	assert.False(t, trip.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetTrip(t *testing.T) {
	tripID := uuid.New()
	columns := []string{"id", "user_id", "source", "destination", "days", "people", "budget", "lat", "lon", "status", "created_at"}

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		lat, lon := 41.15, -8.61
		created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

		mock.ExpectQuery("SELECT (.+) FROM trips WHERE").
			WithArgs(tripID, "user-1").
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(tripID, "user-1", "Lisbon", "Porto", 4, 1, 0, &lat, &lon, "planned", created))

		trip, err := repo.GetTrip(context.Background(), tripID, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "Porto", trip.Destination)
		center, ok := trip.Center()
		require.True(t, ok)
		assert.InDelta(t, 41.15, center.Lat, 1e-9)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no coordinates", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		var none *float64

		mock.ExpectQuery("SELECT (.+) FROM trips WHERE").
			WithArgs(tripID, "user-1").
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(tripID, "user-1", "", "Nowhere", 2, 1, 0, none, none, "planned", time.Now()))

		trip, err := repo.GetTrip(context.Background(), tripID, "user-1")
		require.NoError(t, err)
		_, ok := trip.Center()
		assert.False(t, ok)
	})

	t.Run("not found or foreign", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("SELECT (.+) FROM trips WHERE").
			WithArgs(tripID, "intruder").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetTrip(context.Background(), tripID, "intruder")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestRepository_SavePlace(t *testing.T) {
	tripID := uuid.New()
	place := models.Place{Name: "Café A Brasileira", Lat: 38.71, Lon: -9.14, Type: "cafe", DistanceKm: 0.4}

	t.Run("created", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("INSERT INTO trip_saved_places (.+) ON CONFLICT \\(trip_id, name\\) DO NOTHING").
			WithArgs(pgxmock.AnyArg(), tripID, place.Name, place.Lat, place.Lon, place.Type, place.DistanceKm, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		created, err := repo.SavePlace(context.Background(), tripID, place)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate name is a no-op", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("INSERT INTO trip_saved_places").
			WithArgs(pgxmock.AnyArg(), tripID, place.Name, place.Lat, place.Lon, place.Type, place.DistanceKm, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		created, err := repo.SavePlace(context.Background(), tripID, place)
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("INSERT INTO trip_saved_places").
			WithArgs(pgxmock.AnyArg(), tripID, place.Name, place.Lat, place.Lon, place.Type, place.DistanceKm, pgxmock.AnyArg()).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.SavePlace(context.Background(), tripID, place)
		assert.Error(t, err)
	})
}

func TestRepository_RemovePlace(t *testing.T) {
	repo, mock := newMockRepo(t)
	tripID := uuid.New()

	mock.ExpectExec("DELETE FROM trip_saved_places WHERE").
		WithArgs("Jerónimos", tripID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM trip_saved_places WHERE").
		WithArgs("Jerónimos", tripID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	removed, err := repo.RemovePlace(context.Background(), tripID, "Jerónimos")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.RemovePlace(context.Background(), tripID, "Jerónimos")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListSavedPlaces(t *testing.T) {
	repo, mock := newMockRepo(t)
	tripID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM trip_saved_places WHERE trip_id = \\$1 ORDER BY created_at ASC").
		WithArgs(tripID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "trip_id", "name", "lat", "lon", "type", "distance_km", "created_at"}).
			AddRow(uuid.New(), tripID, "Torre de Belém", 38.69, -9.21, "attraction", 1.2, now).
			AddRow(uuid.New(), tripID, "Pastéis de Belém", 38.69, -9.20, "cafe", 1.1, now.Add(time.Minute)))

	places, err := repo.ListSavedPlaces(context.Background(), tripID)
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "Torre de Belém", places[0].Name)
	assert.Equal(t, "cafe", places[1].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Itinerary(t *testing.T) {
	repo, mock := newMockRepo(t)
	tripID := uuid.New()

	mock.ExpectExec("INSERT INTO trip_itinerary_places").
		WithArgs(pgxmock.AnyArg(), tripID, 2, "Sé", 38.71, -9.13, "historic", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	item := &models.ItineraryPlace{TripID: tripID, Day: 2, Name: "Sé", Lat: 38.71, Lon: -9.13, Type: "historic"}
	require.NoError(t, repo.AddItineraryPlace(context.Background(), item))
	assert.NotEqual(t, uuid.Nil, item.ID)

	mock.ExpectQuery("SELECT (.+) FROM trip_itinerary_places WHERE trip_id = \\$1 ORDER BY day ASC, created_at ASC").
		WithArgs(tripID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "trip_id", "day", "name", "lat", "lon", "type", "created_at"}).
			AddRow(item.ID, tripID, 2, "Sé", 38.71, -9.13, "historic", time.Now()))

	items, err := repo.ListItinerary(context.Background(), tripID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Day)
	assert.NoError(t, mock.ExpectationsWereMet())
}
