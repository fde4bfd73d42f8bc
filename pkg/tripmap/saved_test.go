package tripmap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavedPlacesReadAfterWrite(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	s := NewSavedPlaces(api, nil)
	require.NoError(t, s.UseTrip(ctx, "trip-1"))
	assert.Equal(t, 3, s.TripDays())

	msg, err := s.Save(ctx, Place{Name: "Cafe Azul", Type: "cafe"})
	require.NoError(t, err)
	assert.Equal(t, "Place saved successfully", msg)
	assert.True(t, s.IsSaved("Cafe Azul"))

	msg, err = s.Save(ctx, Place{Name: "Cafe Azul", Type: "cafe"})
	require.NoError(t, err)
	assert.Equal(t, "Place already saved", msg)
	assert.Len(t, s.Places(), 1)

	require.NoError(t, s.Remove(ctx, "Cafe Azul"))
	assert.False(t, s.IsSaved("Cafe Azul"))
	assert.Empty(t, s.Names())
}

func TestSavedPlacesFailureKeepsList(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.saved["trip-1"] = []Place{{Name: "Torre"}}
	s := NewSavedPlaces(api, nil)
	require.NoError(t, s.UseTrip(ctx, "trip-1"))

	api.failSave = errors.New("boom")
	_, err := s.Save(ctx, Place{Name: "Museu"})
	require.Error(t, err)

	api.failRemove = &APIError{StatusCode: 404, Detail: "Trip not found"}
	err = s.Remove(ctx, "Torre")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Trip not found", apiErr.Detail)

	assert.Equal(t, []Place{{Name: "Torre"}}, s.Places())
}

func TestSavedPlacesDiscoveryMode(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	s := NewSavedPlaces(api, nil)
	require.NoError(t, s.UseTrip(ctx, ""))

	_, err := s.Save(ctx, Place{Name: "Miradouro"})
	require.NoError(t, err)
	assert.Len(t, api.explore, 1)
	assert.Empty(t, s.Places())
	assert.Equal(t, 0, api.summaryCalls)

	assert.Error(t, s.Remove(ctx, "Miradouro"))
	assert.Error(t, s.AssignToDay(ctx, 1, Place{Name: "Miradouro"}))
	assert.Equal(t, DefaultTripDays, s.TripDays())
}

func TestSavedPlacesAssignToDay(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	s := NewSavedPlaces(api, nil)
	require.NoError(t, s.UseTrip(ctx, "trip-1"))

	require.NoError(t, s.AssignToDay(ctx, 3, Place{Name: "Torre"}))
	assert.Len(t, api.itinerary[3], 1)

	for _, day := range []int{0, 4} {
		assert.EqualError(t, s.AssignToDay(ctx, day, Place{Name: "Torre"}), "day must be between 1 and 3")
	}
}
