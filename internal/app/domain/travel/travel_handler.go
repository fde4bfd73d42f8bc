// Package travel serves live travel mode: clients stream their location over a
// websocket and get proximity alerts for nearby places.
package travel

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripmap/internal/app/domain"
	"github.com/FACorreiaa/go-tripmap/internal/app/models"
	"github.com/FACorreiaa/go-tripmap/internal/app/observability/metrics"
	"github.com/FACorreiaa/go-tripmap/pkg/geo"
	"github.com/FACorreiaa/go-tripmap/pkg/tripmap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const writeWait = 10 * time.Second

// NearbyFinder loads the places to watch.
type NearbyFinder interface {
	Nearby(ctx context.Context, userID string, q models.NearbyQuery) (*models.NearbyResponse, error)
}

// SavedLister lists a trip's saved places, which never raise alerts.
type SavedLister interface {
	ListSavedPlaces(ctx context.Context, tripID uuid.UUID, userID string) ([]models.SavedPlace, error)
}

// ClientMessage is sent by the client. The first message must be "init";
// "location" messages follow as the user moves.
type ClientMessage struct {
	Type     string   `json:"type"`
	TripID   string   `json:"trip_id,omitempty"`
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	RadiusKm float64  `json:"radius,omitempty"`
	Notify   []string `json:"notify,omitempty"`
}

// ServerMessage is pushed to the client.
type ServerMessage struct {
	Type          string           `json:"type"`
	Count         int              `json:"count,omitempty"`
	Center        *geo.Coordinates `json:"center,omitempty"`
	Alert         *tripmap.Alert   `json:"alert,omitempty"`
	DirectionsURL string           `json:"directions_url,omitempty"`
	Message       string           `json:"message,omitempty"`
}

type Handler struct {
	*domain.BaseHandler
	nearby      NearbyFinder
	saved       SavedLister
	thresholdKm float64

	connections   map[*websocket.Conn]string
	connectionsMu sync.RWMutex
}

func NewHandler(nearby NearbyFinder, saved SavedLister, thresholdKm float64, logger *zap.Logger) *Handler {
	return &Handler{
		BaseHandler: domain.NewBaseHandler(logger),
		nearby:      nearby,
		saved:       saved,
		thresholdKm: thresholdKm,
		connections: make(map[*websocket.Conn]string),
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws/travel", h.HandleWebSocket)
}

// Connections is the number of open travel sockets.
func (h *Handler) Connections() int {
	h.connectionsMu.RLock()
	defer h.connectionsMu.RUnlock()
	return len(h.connections)
}

// session is the per-connection travel state.
type session struct {
	userID  string
	alerter *tripmap.Alerter
	notify  tripmap.CategorySet
	places  []tripmap.Place
	saved   tripmap.NameSet
	ready   bool
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID := h.UserID(c)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Error("Failed to upgrade to WebSocket", zap.Error(err))
		return
	}
	defer ws.Close()

	ctx := c.Request.Context()
	m := metrics.Get()
	m.TravelConnectionsActive.Add(ctx, 1)
	defer m.TravelConnectionsActive.Add(context.WithoutCancel(ctx), -1)

	h.connectionsMu.Lock()
	h.connections[ws] = userID
	h.connectionsMu.Unlock()
	defer func() {
		h.connectionsMu.Lock()
		delete(h.connections, ws)
		h.connectionsMu.Unlock()
	}()

	h.Logger.Info("Travel session started", zap.String("user_id", userID))
	s := &session{userID: userID, alerter: tripmap.NewAlerter(h.thresholdKm)}
	limiter := newMessageLimiter(defaultMaxMessages, defaultWindow)

	for {
		var msg ClientMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.Logger.Warn("Travel socket closed unexpectedly", zap.String("user_id", userID), zap.Error(err))
			}
			break
		}

		var out []*ServerMessage
		switch {
		case !limiter.allow():
			h.Logger.Warn("Travel message rate limit exceeded", zap.String("user_id", userID))
			out = append(out, &ServerMessage{Type: "error", Message: "Too many requests. Please slow down."})
		case msg.Type == "init":
			out = h.init(ctx, s, msg)
		case msg.Type == "location":
			if m := h.locate(ctx, s, msg); m != nil {
				out = append(out, m)
			}
		default:
			out = append(out, &ServerMessage{Type: "error", Message: "Unknown message type"})
		}
		if err := write(ws, out); err != nil {
			h.Logger.Error("Failed to write travel message", zap.String("user_id", userID), zap.Error(err))
			break
		}
	}
	h.Logger.Info("Travel session ended", zap.String("user_id", userID))
}

func write(ws *websocket.Conn, msgs []*ServerMessage) error {
	for _, m := range msgs {
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteJSON(m); err != nil {
			return err
		}
	}
	return nil
}

// init loads the places to watch around the trip or the given position and
// resets the alert history. The "ready" reply may be followed by an alert for
// the initial position.
func (h *Handler) init(ctx context.Context, s *session, msg ClientMessage) []*ServerMessage {
	q := models.NearbyQuery{RadiusKm: msg.RadiusKm}
	var tripID *uuid.UUID
	if msg.TripID != "" {
		id, err := uuid.Parse(msg.TripID)
		if err != nil {
			return []*ServerMessage{{Type: "error", Message: "Invalid trip_id"}}
		}
		tripID = &id
		q.TripID = &id
	} else {
		if !geo.ValidCoordinates(msg.Lat, msg.Lon) {
			return []*ServerMessage{{Type: "error", Message: "Invalid coordinates"}}
		}
		q.Center = &geo.Coordinates{Lat: msg.Lat, Lon: msg.Lon}
	}

	resp, err := h.nearby.Nearby(ctx, s.userID, q)
	if err != nil {
		h.Logger.Error("Failed to load travel places", zap.String("user_id", s.userID), zap.Error(err))
		return []*ServerMessage{{Type: "error", Message: "Failed to fetch nearby places"}}
	}

	saved := make(tripmap.NameSet)
	if tripID != nil && h.saved != nil {
		list, err := h.saved.ListSavedPlaces(ctx, *tripID, s.userID)
		if err != nil {
			h.Logger.Warn("Could not load saved places for travel session", zap.String("trip_id", tripID.String()), zap.Error(err))
		}
		for _, p := range list {
			saved[p.Name] = true
		}
	}

	s.places = toTripmapPlaces(resp.Places)
	s.saved = saved
	s.notify = notifySet(msg.Notify)
	s.alerter.Reset()
	s.ready = true

	center := resp.Center
	out := []*ServerMessage{{Type: "ready", Count: len(s.places), Center: &center}}
	if msg.Lat != 0 || msg.Lon != 0 {
		if alert := h.locate(ctx, s, msg); alert != nil {
			out = append(out, alert)
		}
	}
	return out
}

func (h *Handler) locate(ctx context.Context, s *session, msg ClientMessage) *ServerMessage {
	if !s.ready {
		return &ServerMessage{Type: "error", Message: "Send init first"}
	}
	if !geo.ValidCoordinates(msg.Lat, msg.Lon) {
		return nil
	}
	here := geo.Coordinates{Lat: msg.Lat, Lon: msg.Lon}
	alert := s.alerter.Evaluate(here, s.places, s.notify, s.saved)
	if alert == nil {
		return nil
	}

	metrics.Get().ProximityAlertsTotal.Add(ctx, 1)
	h.Logger.Info("Proximity alert",
		zap.String("user_id", s.userID),
		zap.String("place", alert.Place.Name),
		zap.Float64("distance_km", alert.DistanceKm))
	return &ServerMessage{Type: "alert", Alert: alert, DirectionsURL: alert.DirectionsURL(&here)}
}

func notifySet(raw []string) tripmap.CategorySet {
	if len(raw) == 0 {
		return tripmap.DefaultNotifyCategories()
	}
	set := make(tripmap.CategorySet, len(raw))
	for _, r := range raw {
		if c := geo.NormalizeCategory(r); c.Valid() {
			set[c] = true
		}
	}
	if len(set) == 0 {
		return tripmap.DefaultNotifyCategories()
	}
	return set
}

func toTripmapPlaces(in []models.Place) []tripmap.Place {
	out := make([]tripmap.Place, len(in))
	for i, p := range in {
		out[i] = tripmap.Place{Name: p.Name, Lat: p.Lat, Lon: p.Lon, Type: p.Type, DistanceKm: p.DistanceKm, Kind: p.Kind}
	}
	return out
}
