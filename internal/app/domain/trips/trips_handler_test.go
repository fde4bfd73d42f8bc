package trips

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripmap/internal/app/models"
)

func newTestRouter(repo Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "user-1")
		c.Next()
	})
	h := NewHandler(NewService(repo, nil, zap.NewNop()), zap.NewNop())
	h.RegisterRoutes(&r.RouterGroup)
	return r
}

func doRequest(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_SavePlace(t *testing.T) {
	tripID := uuid.New()
	repo := new(MockRepository)
	repo.On("GetTrip", mock.Anything, tripID, "user-1").Return(&models.Trip{ID: tripID, Days: 3}, nil)
	repo.On("SavePlace", mock.Anything, tripID, mock.AnythingOfType("models.Place")).Return(true, nil).Once()
	repo.On("SavePlace", mock.Anything, tripID, mock.AnythingOfType("models.Place")).Return(false, nil).Once()
	r := newTestRouter(repo)

	body := `{"name":"Sé","lat":38.71,"lon":-9.13,"type":"historic","distance_km":0.3}`

	w := doRequest(r, http.MethodPost, "/trips/"+tripID.String()+"/places", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Place saved successfully"}`, w.Body.String())

	w = doRequest(r, http.MethodPost, "/trips/"+tripID.String()+"/places", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Place already saved"}`, w.Body.String())

	w = doRequest(r, http.MethodPost, "/trips/"+tripID.String()+"/places", `{"lat":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, "/trips/not-a-uuid/places", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_RemovePlaceForeignTrip(t *testing.T) {
	tripID := uuid.New()
	repo := new(MockRepository)
	repo.On("GetTrip", mock.Anything, tripID, "user-1").Return(nil, models.ErrNotFound)
	r := newTestRouter(repo)

	w := doRequest(r, http.MethodDelete, "/trips/"+tripID.String()+"/places?name=S%C3%A9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["detail"])
	repo.AssertNotCalled(t, "RemovePlace", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_RemovePlaceNotSaved(t *testing.T) {
	tripID := uuid.New()
	repo := new(MockRepository)
	repo.On("GetTrip", mock.Anything, tripID, "user-1").Return(&models.Trip{ID: tripID, Days: 3}, nil)
	repo.On("RemovePlace", mock.Anything, tripID, "Torre").Return(false, nil).Once()
	r := newTestRouter(repo)

	w := doRequest(r, http.MethodDelete, "/trips/"+tripID.String()+"/places?name=Torre", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Place removed"}`, w.Body.String())
	repo.AssertExpectations(t)
}

func TestHandler_AddItineraryPlace(t *testing.T) {
	tripID := uuid.New()
	repo := new(MockRepository)
	repo.On("GetTrip", mock.Anything, tripID, "user-1").Return(&models.Trip{ID: tripID, Days: 2}, nil)
	repo.On("AddItineraryPlace", mock.Anything, mock.AnythingOfType("*models.ItineraryPlace")).Return(nil)
	r := newTestRouter(repo)

	target := "/trips/" + tripID.String() + "/itinerary/add-place"

	w := doRequest(r, http.MethodPost, target, `{"day":2,"place":{"name":"Sé","lat":38.71,"lon":-9.13}}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodPost, target, `{"day":3,"place":{"name":"Sé"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Summary(t *testing.T) {
	tripID := uuid.New()
	repo := new(MockRepository)
	repo.On("GetTrip", mock.Anything, tripID, "user-1").Return(&models.Trip{ID: tripID, Destination: "Lisbon", Days: 1}, nil)
	repo.On("ListSavedPlaces", mock.Anything, tripID).Return([]models.SavedPlace{}, nil)
	repo.On("ListItinerary", mock.Anything, tripID).Return([]models.ItineraryPlace{{Day: 1, Name: "Sé"}}, nil)
	r := newTestRouter(repo)

	w := doRequest(r, http.MethodGet, "/trips/summary/"+tripID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)

	var summary models.TripSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "Lisbon", summary.Destination)
	assert.Len(t, summary.Itinerary[1], 1)
	assert.Nil(t, summary.Center)
}

func TestHandler_CreateTrip(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CreateTrip", mock.Anything, mock.AnythingOfType("*models.Trip")).Return(nil)
	r := newTestRouter(repo)

	w := doRequest(r, http.MethodPost, "/trips", `{"destination":"Porto","days":3,"lat":41.15,"lon":-8.61}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var trip models.Trip
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trip))
	assert.Equal(t, "Porto", trip.Destination)
	assert.Equal(t, 3, trip.Days)

	w = doRequest(r, http.MethodPost, "/trips", `{"days":3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
