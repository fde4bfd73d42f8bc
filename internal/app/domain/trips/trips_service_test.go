package trips

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripmap/internal/app/models"
	"github.com/FACorreiaa/go-tripmap/pkg/geo"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateTrip(ctx context.Context, trip *models.Trip) error {
	args := m.Called(ctx, trip)
	return args.Error(0)
}

func (m *MockRepository) GetTrip(ctx context.Context, tripID uuid.UUID, userID string) (*models.Trip, error) {
	args := m.Called(ctx, tripID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockRepository) ListSavedPlaces(ctx context.Context, tripID uuid.UUID) ([]models.SavedPlace, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SavedPlace), args.Error(1)
}

func (m *MockRepository) SavePlace(ctx context.Context, tripID uuid.UUID, place models.Place) (bool, error) {
	args := m.Called(ctx, tripID, place)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) RemovePlace(ctx context.Context, tripID uuid.UUID, name string) (bool, error) {
	args := m.Called(ctx, tripID, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) AddItineraryPlace(ctx context.Context, item *models.ItineraryPlace) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockRepository) ListItinerary(ctx context.Context, tripID uuid.UUID) ([]models.ItineraryPlace, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ItineraryPlace), args.Error(1)
}

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Geocode(ctx context.Context, city string) (geo.Coordinates, error) {
	args := m.Called(ctx, city)
	return args.Get(0).(geo.Coordinates), args.Error(1)
}

func floatPtr(v float64) *float64 { return &v }

func TestService_CreateTrip(t *testing.T) {
	ctx := context.Background()

	t.Run("geocodes a destination without coordinates", func(t *testing.T) {
		repo, gc := new(MockRepository), new(MockGeocoder)
		svc := NewService(repo, gc, zap.NewNop())

		gc.On("Geocode", mock.Anything, "Lisbon").Return(geo.Coordinates{Lat: 38.72, Lon: -9.14}, nil)
		repo.On("CreateTrip", mock.Anything, mock.AnythingOfType("*models.Trip")).Return(nil)

		trip, err := svc.CreateTrip(ctx, "user-1", models.CreateTripRequest{Destination: " Lisbon "})
		require.NoError(t, err)

		center, ok := trip.Center()
		require.True(t, ok)
		assert.Equal(t, 38.72, center.Lat)
		assert.Equal(t, models.DefaultTripDays, trip.Days)
		assert.Equal(t, 1, trip.People)
		gc.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("keeps supplied coordinates", func(t *testing.T) {
		repo, gc := new(MockRepository), new(MockGeocoder)
		svc := NewService(repo, gc, zap.NewNop())
		repo.On("CreateTrip", mock.Anything, mock.AnythingOfType("*models.Trip")).Return(nil)

		trip, err := svc.CreateTrip(ctx, "user-1", models.CreateTripRequest{
			Destination: "Porto", Days: 2, Lat: floatPtr(41.15), Lon: floatPtr(-8.61),
		})
		require.NoError(t, err)
		assert.Equal(t, 2, trip.Days)
		gc.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything)
	})

	t.Run("geocode failure still creates the trip", func(t *testing.T) {
		repo, gc := new(MockRepository), new(MockGeocoder)
		svc := NewService(repo, gc, zap.NewNop())
		gc.On("Geocode", mock.Anything, "Atlantis").Return(geo.Coordinates{}, errors.New("city not found"))
		repo.On("CreateTrip", mock.Anything, mock.AnythingOfType("*models.Trip")).Return(nil)

		trip, err := svc.CreateTrip(ctx, "user-1", models.CreateTripRequest{Destination: "Atlantis"})
		require.NoError(t, err)
		_, ok := trip.Center()
		assert.False(t, ok)
	})

	t.Run("rejects a blank destination", func(t *testing.T) {
		svc := NewService(new(MockRepository), nil, zap.NewNop())
		_, err := svc.CreateTrip(ctx, "user-1", models.CreateTripRequest{Destination: "  "})
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("rejects out of range coordinates", func(t *testing.T) {
		svc := NewService(new(MockRepository), nil, zap.NewNop())
		_, err := svc.CreateTrip(ctx, "user-1", models.CreateTripRequest{
			Destination: "X", Lat: floatPtr(95), Lon: floatPtr(0),
		})
		assert.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestService_TripCenter(t *testing.T) {
	ctx := context.Background()
	tripID := uuid.New()

	t.Run("no coordinates", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, nil, zap.NewNop())
		repo.On("GetTrip", mock.Anything, tripID, "user-1").Return(&models.Trip{ID: tripID}, nil)

		_, err := svc.TripCenter(ctx, tripID, "user-1")
		assert.ErrorIs(t, err, models.ErrNoCoordinates)
	})

	t.Run("foreign trip", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, nil, zap.NewNop())
		repo.On("GetTrip", mock.Anything, tripID, "user-2").Return(nil, models.ErrNotFound)

		_, err := svc.TripCenter(ctx, tripID, "user-2")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestService_SaveAndRemovePlace(t *testing.T) {
	ctx := context.Background()
	tripID := uuid.New()
	trip := &models.Trip{ID: tripID, UserID: "user-1", Days: 3}
	place := models.Place{Name: "Sé", Lat: 38.71, Lon: -9.13, Type: "historic"}

	repo := new(MockRepository)
	svc := NewService(repo, nil, zap.NewNop())
	repo.On("GetTrip", mock.Anything, tripID, "user-1").Return(trip, nil)
	repo.On("GetTrip", mock.Anything, tripID, "user-2").Return(nil, models.ErrNotFound)
	repo.On("SavePlace", mock.Anything, tripID, place).Return(true, nil).Once()
	repo.On("SavePlace", mock.Anything, tripID, place).Return(false, nil).Once()
	repo.On("RemovePlace", mock.Anything, tripID, "Sé").Return(true, nil).Once()
	repo.On("RemovePlace", mock.Anything, tripID, "Sé").Return(false, nil).Once()

	created, err := svc.SavePlace(ctx, tripID, "user-1", place)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.SavePlace(ctx, tripID, "user-1", place)
	require.NoError(t, err)
	assert.False(t, created, "second save of the same name is a no-op")

	_, err = svc.SavePlace(ctx, tripID, "user-2", place)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.SavePlace(ctx, tripID, "user-1", models.Place{Name: "Bad", Lat: 120})
	assert.ErrorIs(t, err, models.ErrValidation)

	require.NoError(t, svc.RemovePlace(ctx, tripID, "user-1", "Sé"))
	require.NoError(t, svc.RemovePlace(ctx, tripID, "user-1", "Sé"), "removing a place that is not saved is a no-op")
	assert.ErrorIs(t, svc.RemovePlace(ctx, tripID, "user-2", "Sé"), models.ErrNotFound)

	repo.AssertExpectations(t)
}

func TestService_AddItineraryPlace(t *testing.T) {
	ctx := context.Background()
	tripID := uuid.New()

	repo := new(MockRepository)
	svc := NewService(repo, nil, zap.NewNop())
	repo.On("GetTrip", mock.Anything, tripID, "user-1").Return(&models.Trip{ID: tripID, Days: 3}, nil)
	repo.On("AddItineraryPlace", mock.Anything, mock.AnythingOfType("*models.ItineraryPlace")).Return(nil)

	for _, day := range []int{0, 4, -1} {
		_, err := svc.AddItineraryPlace(ctx, tripID, "user-1", models.AddItineraryPlaceRequest{Day: day, Place: models.Place{Name: "Sé"}})
		assert.ErrorIs(t, err, models.ErrValidation, "day %d", day)
	}

	item, err := svc.AddItineraryPlace(ctx, tripID, "user-1", models.AddItineraryPlaceRequest{Day: 3, Place: models.Place{Name: "Sé", Type: "historic"}})
	require.NoError(t, err)
	assert.Equal(t, 3, item.Day)
	assert.Equal(t, tripID, item.TripID)
	repo.AssertNumberOfCalls(t, "AddItineraryPlace", 1)
}

func TestService_Summary(t *testing.T) {
	ctx := context.Background()
	tripID := uuid.New()

	repo := new(MockRepository)
	svc := NewService(repo, nil, zap.NewNop())
	repo.On("GetTrip", mock.Anything, tripID, "user-1").Return(&models.Trip{
		ID: tripID, Destination: "Lisbon", Days: 2, Lat: floatPtr(38.72), Lon: floatPtr(-9.14),
	}, nil)
	repo.On("ListSavedPlaces", mock.Anything, tripID).Return([]models.SavedPlace{{}, {}}, nil)
	repo.On("ListItinerary", mock.Anything, tripID).Return([]models.ItineraryPlace{
		{Day: 1, Name: "A"}, {Day: 1, Name: "B"}, {Day: 2, Name: "C"},
	}, nil)

	summary, err := svc.Summary(ctx, tripID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.SavedCount)
	require.NotNil(t, summary.Center)
	assert.Len(t, summary.Itinerary[1], 2)
	assert.Len(t, summary.Itinerary[2], 1)
}
