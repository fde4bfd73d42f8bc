package tripmap

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripmap/pkg/geo"
)

type Mode int

const (
	ModeDiscovery Mode = iota
	ModeTrip
)

func (m Mode) String() string {
	if m == ModeTrip {
		return "trip"
	}
	return "discovery"
}

// Radius limits per mode, in kilometres.
const (
	MinRadiusKm          = 1.0
	MaxTripRadiusKm      = 20.0
	MaxDiscoveryRadiusKm = 50.0
	DefaultRadiusKm      = 5.0
)

// DefaultDiscoveryCenter is used in discovery mode before any center is known.
var DefaultDiscoveryCenter = geo.Coordinates{Lat: 22.9734, Lon: 78.6569}

// ClampRadius keeps r within the bounds of mode.
func ClampRadius(mode Mode, r float64) float64 {
	limit := MaxDiscoveryRadiusKm
	if mode == ModeTrip {
		limit = MaxTripRadiusKm
	}
	switch {
	case r < MinRadiusKm:
		return MinRadiusKm
	case r > limit:
		return limit
	}
	return r
}

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// NearbyAPI is the part of the backend the controller needs.
type NearbyAPI interface {
	Nearby(ctx context.Context, p NearbyParams) (*NearbyResult, error)
}

// FetchRequest optionally overrides the center for one fetch.
type FetchRequest struct {
	Override *geo.Coordinates
}

// FetchResult reports what a Load call did. Dispatched is false when another
// fetch was already in flight. Applied is false when the response was
// superseded before it arrived.
type FetchResult struct {
	Dispatched bool
	Applied    bool
	Generation uint64
	Err        error
}

// Controller fetches nearby places for one view. Only the most recently
// dispatched fetch may change its state.
type Controller struct {
	mu     sync.Mutex
	api    NearbyAPI
	store  CenterStore
	logger *zap.Logger

	mode       Mode
	tripID     string
	center     *geo.Coordinates
	hasStored  bool
	radiusKm   float64
	categories []geo.Category

	places     []Place
	status     Status
	errMsg     string
	inFlight   bool
	generation uint64
}

func NewController(api NearbyAPI, store CenterStore, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = NewMemoryCenterStore()
	}
	return &Controller{
		api:        api,
		store:      store,
		logger:     logger,
		radiusKm:   DefaultRadiusKm,
		categories: append([]geo.Category(nil), geo.AllCategories...),
		status:     StatusIdle,
	}
}

// centerKey must be called with mu held.
func (c *Controller) centerKey() string {
	if c.mode == ModeTrip {
		return TripCenterKey(c.tripID)
	}
	return DiscoveryCenterKey
}

// UseTrip switches to trip mode and restores the trip's stored center.
func (c *Controller) UseTrip(ctx context.Context, tripID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = ModeTrip
	c.tripID = tripID
	c.radiusKm = ClampRadius(ModeTrip, c.radiusKm)
	c.places = nil
	c.invalidateLocked()
	c.restoreCenterLocked(ctx, nil)
}

// UseDiscovery switches to discovery mode, falling back to the default center.
func (c *Controller) UseDiscovery(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = ModeDiscovery
	c.tripID = ""
	c.places = nil
	c.invalidateLocked()
	fallback := DefaultDiscoveryCenter
	c.restoreCenterLocked(ctx, &fallback)
}

func (c *Controller) restoreCenterLocked(ctx context.Context, fallback *geo.Coordinates) {
	c.center, c.hasStored = nil, false
	stored, ok, err := c.store.Load(ctx, c.centerKey())
	if err != nil {
		c.logger.Warn("Could not read stored map center", zap.String("key", c.centerKey()), zap.Error(err))
	}
	if ok {
		c.center, c.hasStored = &stored, true
		return
	}
	if fallback != nil {
		f := *fallback
		c.center = &f
	}
}

// SetCenter records a settled viewport center and persists it.
func (c *Controller) SetCenter(ctx context.Context, center geo.Coordinates) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.center = &center
	c.persistCenterLocked(ctx, center)
}

func (c *Controller) persistCenterLocked(ctx context.Context, center geo.Coordinates) {
	if err := c.store.Store(ctx, c.centerKey(), center); err != nil {
		c.logger.Warn("Could not persist map center", zap.String("key", c.centerKey()), zap.Error(err))
		return
	}
	c.hasStored = true
}

// SetRadius clamps r to the current mode and returns the value kept.
func (c *Controller) SetRadius(r float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.radiusKm = ClampRadius(c.mode, r)
	return c.radiusKm
}

func (c *Controller) SetCategories(cats []geo.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(cats) == 0 {
		cats = geo.AllCategories
	}
	c.categories = append([]geo.Category(nil), cats...)
}

// params must be called with mu held.
func (c *Controller) paramsLocked(req FetchRequest) (NearbyParams, error) {
	p := NearbyParams{RadiusKm: c.radiusKm, Categories: c.categories}
	switch {
	case req.Override != nil:
		o := *req.Override
		p.Center = &o
	case c.mode == ModeDiscovery && c.center != nil:
		cc := *c.center
		p.Center = &cc
	case c.mode == ModeTrip && c.tripID != "":
		p.TripID = c.tripID
	default:
		return p, errors.New("no center or trip to search around")
	}
	return p, nil
}

// Load dispatches one nearby fetch and waits for it. It returns at once, with
// Dispatched=false, if a fetch is already in flight.
func (c *Controller) Load(ctx context.Context, req FetchRequest) FetchResult {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return FetchResult{}
	}
	params, err := c.paramsLocked(req)
	if err != nil {
		c.status, c.errMsg = StatusError, err.Error()
		c.mu.Unlock()
		return FetchResult{Err: err}
	}
	c.inFlight = true
	c.generation++
	gen := c.generation
	c.status, c.errMsg = StatusLoading, ""
	c.mu.Unlock()

	res, err := c.api.Nearby(ctx, params)

	c.mu.Lock()
	defer c.mu.Unlock()
	out := FetchResult{Dispatched: true, Generation: gen, Err: err}
	if gen != c.generation {
		c.logger.Debug("Discarding superseded nearby response", zap.Uint64("generation", gen), zap.Uint64("current", c.generation))
		return out
	}
	c.inFlight = false
	out.Applied = true

	if err != nil {
		c.status, c.errMsg = StatusError, ErrorMessage(err, "Failed to load nearby places")
		return out
	}
	if len(res.Places) > 0 {
		c.places = res.Places
	}
	if !c.hasStored && res.Center != nil && geo.ValidCoordinates(res.Center.Lat, res.Center.Lon) {
		adopted := *res.Center
		c.center = &adopted
		c.persistCenterLocked(ctx, adopted)
	}
	c.status = StatusSuccess
	return out
}

// Invalidate supersedes any pending fetch. Its response will be discarded and
// a new fetch may start immediately.
func (c *Controller) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked()
}

func (c *Controller) invalidateLocked() {
	c.generation++
	c.inFlight = false
	if c.status == StatusLoading {
		c.status = StatusIdle
	}
}

// Close invalidates pending fetches; nothing dispatched before Close can
// change state afterwards.
func (c *Controller) Close() {
	c.Invalidate()
}

func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errMsg = ""
	if c.status == StatusError {
		c.status = StatusIdle
	}
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	Mode       Mode
	TripID     string
	Center     *geo.Coordinates
	RadiusKm   float64
	Categories []geo.Category
	Places     []Place
	Status     Status
	Error      string
	InFlight   bool
	Generation uint64
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		Mode:       c.mode,
		TripID:     c.tripID,
		RadiusKm:   c.radiusKm,
		Categories: append([]geo.Category(nil), c.categories...),
		Places:     append([]Place(nil), c.places...),
		Status:     c.status,
		Error:      c.errMsg,
		InFlight:   c.inFlight,
		Generation: c.generation,
	}
	if c.center != nil {
		cc := *c.center
		s.Center = &cc
	}
	return s
}

// ErrorMessage is the text shown to the user for err: the server's detail
// when there is one, fallback otherwise.
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The request timed out"
	}
	return fallback
}
