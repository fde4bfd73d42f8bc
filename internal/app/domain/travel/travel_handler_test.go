package travel

import (
	"context"
	"errors"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripmap/internal/app/models"
	"github.com/FACorreiaa/go-tripmap/pkg/geo"
)

type MockNearbyFinder struct {
	mock.Mock
}

func (m *MockNearbyFinder) Nearby(ctx context.Context, userID string, q models.NearbyQuery) (*models.NearbyResponse, error) {
	args := m.Called(ctx, userID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NearbyResponse), args.Error(1)
}

type MockSavedLister struct {
	mock.Mock
}

func (m *MockSavedLister) ListSavedPlaces(ctx context.Context, tripID uuid.UUID, userID string) ([]models.SavedPlace, error) {
	args := m.Called(ctx, tripID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SavedPlace), args.Error(1)
}

// Lisbon, with places due north; 0.009 degrees of latitude is about 1 km.
var origin = geo.Coordinates{Lat: 38.7000, Lon: -9.1400}

func placeNorth(name, typ string, km float64) models.Place {
	return models.Place{Name: name, Type: typ, Lat: origin.Lat + km*0.009, Lon: origin.Lon, DistanceKm: km}
}

func setupTestServer(t *testing.T, finder NearbyFinder, saved SavedLister) (*httptest.Server, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewHandler(finder, saved, 0.5, zap.NewNop())
	router := gin.New()
	rg := router.Group("/", func(c *gin.Context) {
		c.Set("user_id", "user-1")
		c.Next()
	})
	handler.RegisterRoutes(rg)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, handler
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + server.URL[len("http"):] + "/ws/travel"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func exchange(t *testing.T, ws *websocket.Conn, msg ClientMessage) ServerMessage {
	t.Helper()
	require.NoError(t, ws.WriteJSON(msg))
	return read(t, ws)
}

func read(t *testing.T, ws *websocket.Conn) ServerMessage {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var out ServerMessage
	require.NoError(t, ws.ReadJSON(&out))
	return out
}

func TestTravelAlertsOncePerPlace(t *testing.T) {
	finder := new(MockNearbyFinder)
	finder.On("Nearby", mock.Anything, "user-1", mock.MatchedBy(func(q models.NearbyQuery) bool {
		return q.TripID == nil && q.Center != nil && q.Center.Lat == 38.7 && q.RadiusKm == 3
	})).Return(&models.NearbyResponse{
		Center: origin,
		Count:  2,
		Places: []models.Place{placeNorth("P2", "cafe", 2), placeNorth("P1", "restaurant", 0.4)},
	}, nil).Once()

	server, handler := setupTestServer(t, finder, nil)
	ws := dial(t, server)

	far := origin.Lat - 0.05
	ready := exchange(t, ws, ClientMessage{Type: "init", Lat: 38.7, Lon: origin.Lon, RadiusKm: 3})
	assert.Equal(t, "ready", ready.Type)
	assert.Equal(t, 2, ready.Count)
	require.NotNil(t, ready.Center)
	assert.Equal(t, 1, handler.Connections())

	alert := read(t, ws)
	require.Equal(t, "alert", alert.Type, "the init position is already within range of P1")
	require.NotNil(t, alert.Alert)
	assert.Equal(t, "P1", alert.Alert.Place.Name)
	assert.Equal(t, geo.CategoryRestaurant, alert.Alert.Category)
	assert.InDelta(t, 0.4, alert.Alert.DistanceKm, 0.01)

	u, err := url.Parse(alert.DirectionsURL)
	require.NoError(t, err)
	assert.Equal(t, "38.7,-9.14", u.Query().Get("origin"))

	require.NoError(t, ws.WriteJSON(ClientMessage{Type: "location", Lat: far, Lon: origin.Lon}))
	require.NoError(t, ws.WriteJSON(ClientMessage{Type: "location", Lat: 38.7, Lon: origin.Lon}))
	reply := exchange(t, ws, ClientMessage{Type: "ping"})
	assert.Equal(t, "error", reply.Type, "no alert was queued before this reply")
	assert.Equal(t, "Unknown message type", reply.Message)

	finder.AssertExpectations(t)
}

func TestTravelTripModeSkipsSavedPlaces(t *testing.T) {
	tripID := uuid.New()
	finder := new(MockNearbyFinder)
	finder.On("Nearby", mock.Anything, "user-1", mock.MatchedBy(func(q models.NearbyQuery) bool {
		return q.TripID != nil && *q.TripID == tripID && q.Center == nil
	})).Return(&models.NearbyResponse{
		TripID: tripID.String(),
		Center: origin,
		Places: []models.Place{placeNorth("Saved Cafe", "cafe", 0.1), placeNorth("Museu", "attraction", 0.2)},
	}, nil)
	saved := new(MockSavedLister)
	saved.On("ListSavedPlaces", mock.Anything, tripID, "user-1").
		Return([]models.SavedPlace{{Place: models.Place{Name: "Saved Cafe"}}}, nil)

	server, _ := setupTestServer(t, finder, saved)
	ws := dial(t, server)

	ready := exchange(t, ws, ClientMessage{Type: "init", TripID: tripID.String()})
	assert.Equal(t, "ready", ready.Type)

	alert := exchange(t, ws, ClientMessage{Type: "location", Lat: origin.Lat, Lon: origin.Lon})
	require.Equal(t, "alert", alert.Type)
	assert.Equal(t, "Museu", alert.Alert.Place.Name, "saved places never alert")

	saved.AssertExpectations(t)
}

func TestTravelNotifyCategories(t *testing.T) {
	finder := new(MockNearbyFinder)
	finder.On("Nearby", mock.Anything, "user-1", mock.Anything).Return(&models.NearbyResponse{
		Center: origin,
		Places: []models.Place{placeNorth("Torre", "historic", 0.1), placeNorth("Cafe", "cafe", 0.2)},
	}, nil)

	server, _ := setupTestServer(t, finder, nil)
	ws := dial(t, server)

	require.Equal(t, "ready", exchange(t, ws, ClientMessage{Type: "init", Lat: 10, Lon: 10, Notify: []string{"historic"}}).Type)
	alert := exchange(t, ws, ClientMessage{Type: "location", Lat: origin.Lat, Lon: origin.Lon})
	require.Equal(t, "alert", alert.Type)
	assert.Equal(t, "Torre", alert.Alert.Place.Name)

	require.NoError(t, ws.WriteJSON(ClientMessage{Type: "location", Lat: origin.Lat, Lon: origin.Lon}))
	reply := exchange(t, ws, ClientMessage{Type: "bogus"})
	assert.Equal(t, "error", reply.Type, "the cafe is not in the notify set")
}

func TestTravelErrors(t *testing.T) {
	finder := new(MockNearbyFinder)
	finder.On("Nearby", mock.Anything, "user-1", mock.Anything).Return(nil, errors.New("overpass down"))

	server, _ := setupTestServer(t, finder, nil)
	ws := dial(t, server)

	reply := exchange(t, ws, ClientMessage{Type: "location", Lat: 1, Lon: 1})
	assert.Equal(t, "Send init first", reply.Message)

	reply = exchange(t, ws, ClientMessage{Type: "init", TripID: "not-a-uuid"})
	assert.Equal(t, "Invalid trip_id", reply.Message)

	reply = exchange(t, ws, ClientMessage{Type: "init", Lat: 95, Lon: 0})
	assert.Equal(t, "Invalid coordinates", reply.Message)

	reply = exchange(t, ws, ClientMessage{Type: "init", Lat: 1, Lon: 1})
	assert.Equal(t, "error", reply.Type)
	assert.Equal(t, "Failed to fetch nearby places", reply.Message)
}
