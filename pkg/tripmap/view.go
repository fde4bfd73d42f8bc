package tripmap

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripmap/pkg/geo"
	"github.com/FACorreiaa/go-tripmap/pkg/geocode"
)

// API is everything the view needs from the backend. *Client implements it.
type API interface {
	NearbyAPI
	SavedAPI
}

type ViewConfig struct {
	API      API
	Geocoder geocode.Geocoder
	Store    CenterStore
	Notifier Notifier
	Logger   *zap.Logger

	// AlertThresholdKm defaults to DefaultAlertThresholdKm.
	AlertThresholdKm float64
	// NotifyCategories defaults to DefaultNotifyCategories.
	NotifyCategories CategorySet
	// OnAlert, when set, is called for every alert raised.
	OnAlert func(Alert)
}

// View is the state of one trip map screen.
type View struct {
	ctrl     *Controller
	alerter  *Alerter
	saved    *SavedPlaces
	geocoder geocode.Geocoder
	notifier *sessionNotifier
	onAlert  func(Alert)
	logger   *zap.Logger

	mu       sync.Mutex
	filter   *Filter
	selected *Place
	travel   bool
	location *geo.Coordinates
	notify   CategorySet
	alert    *Alert
	errMsg   string
}

func NewView(cfg ViewConfig) *View {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notify := cfg.NotifyCategories
	if len(notify) == 0 {
		notify = DefaultNotifyCategories()
	}
	return &View{
		ctrl:     NewController(cfg.API, cfg.Store, logger),
		alerter:  NewAlerter(cfg.AlertThresholdKm),
		saved:    NewSavedPlaces(cfg.API, logger),
		geocoder: cfg.Geocoder,
		notifier: newSessionNotifier(cfg.Notifier),
		onAlert:  cfg.OnAlert,
		logger:   logger,
		filter:   NewFilter(),
		notify:   notify,
	}
}

// OpenTrip binds the view to a trip and loads its saved places and nearby
// places.
func (v *View) OpenTrip(ctx context.Context, tripID string) FetchResult {
	v.ctrl.UseTrip(ctx, tripID)
	v.ClearSelection()
	if err := v.saved.UseTrip(ctx, tripID); err != nil {
		v.setError(ErrorMessage(err, "Failed to load saved places"))
	}
	return v.Refresh(ctx)
}

// OpenDiscovery unbinds the view from any trip.
func (v *View) OpenDiscovery(ctx context.Context) FetchResult {
	v.ctrl.UseDiscovery(ctx)
	v.ClearSelection()
	_ = v.saved.UseTrip(ctx, "")
	return v.Refresh(ctx)
}

// Refresh fetches nearby places with the current settings.
func (v *View) Refresh(ctx context.Context) FetchResult {
	return v.load(ctx, FetchRequest{})
}

func (v *View) load(ctx context.Context, req FetchRequest) FetchResult {
	v.mu.Lock()
	cats := v.filter.Categories()
	v.mu.Unlock()

	v.ctrl.SetCategories(cats)
	res := v.ctrl.Load(ctx, req)
	if res.Applied && res.Err == nil {
		v.evaluate(ctx)
	}
	return res
}

func (v *View) SetRadius(ctx context.Context, km float64) FetchResult {
	v.ctrl.SetRadius(km)
	return v.Refresh(ctx)
}

func (v *View) ToggleCategory(ctx context.Context, c geo.Category) FetchResult {
	v.mu.Lock()
	v.filter.Toggle(c)
	v.mu.Unlock()
	return v.Refresh(ctx)
}

func (v *View) SelectAllCategories(ctx context.Context) FetchResult {
	v.mu.Lock()
	v.filter.All()
	v.mu.Unlock()
	return v.Refresh(ctx)
}

// CategoryQuery is the category parameter the next fetch will send.
func (v *View) CategoryQuery() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter.Query()
}

// ViewportSettled records where the map came to rest.
func (v *View) ViewportSettled(ctx context.Context, center geo.Coordinates) {
	if !geo.ValidCoordinates(center.Lat, center.Lon) {
		return
	}
	v.ctrl.SetCenter(ctx, center)
}

// SearchArea fetches around the settled viewport center.
func (v *View) SearchArea(ctx context.Context) FetchResult {
	snap := v.ctrl.Snapshot()
	if snap.Center == nil {
		return v.Refresh(ctx)
	}
	return v.load(ctx, FetchRequest{Override: snap.Center})
}

// SearchCity geocodes city, moves the map there and fetches around it. A
// blank city is rejected without touching any state.
func (v *View) SearchCity(ctx context.Context, city string) (FetchResult, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return FetchResult{}, geocode.ErrEmptyQuery
	}
	if v.geocoder == nil {
		return FetchResult{}, geocode.ErrLookupFailed
	}

	center, err := v.geocoder.Geocode(ctx, city)
	if err != nil {
		msg := "City lookup failed"
		if errors.Is(err, geocode.ErrNotFound) {
			msg = "City not found"
		}
		v.setError(msg)
		return FetchResult{}, err
	}

	v.ctrl.SetCenter(ctx, center)
	return v.load(ctx, FetchRequest{Override: &center}), nil
}

// ZoomLevel is the map zoom that fits the current radius.
func (v *View) ZoomLevel() int {
	return ZoomForRadius(v.ctrl.Snapshot().RadiusKm)
}

func ZoomForRadius(km float64) int {
	switch {
	case km <= 3:
		return 15
	case km <= 6:
		return 14
	case km <= 10:
		return 13
	case km <= 20:
		return 12
	case km <= 35:
		return 11
	}
	return 10
}

// NearbyPlaces are the fetched places that are not saved.
func (v *View) NearbyPlaces() []Place {
	places := v.ctrl.Snapshot().Places
	saved := v.saved.Names()
	out := make([]Place, 0, len(places))
	for _, p := range places {
		if !saved[p.Name] {
			out = append(out, p)
		}
	}
	return out
}

func (v *View) SavedPlaces() []Place {
	return v.saved.Places()
}

func (v *View) TripDays() int {
	return v.saved.TripDays()
}

func (v *View) SelectPlace(p Place) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected = &p
}

func (v *View) ClearSelection() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected = nil
}

func (v *View) Selected() *Place {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.selected == nil {
		return nil
	}
	p := *v.selected
	return &p
}

// SavePlace saves p and refreshes the saved list. On failure the error is
// shown and nothing else changes.
func (v *View) SavePlace(ctx context.Context, p Place) (string, error) {
	msg, err := v.saved.Save(ctx, p)
	if err != nil {
		v.setError(ErrorMessage(err, "Failed to save place"))
		return "", err
	}
	return msg, nil
}

func (v *View) RemovePlace(ctx context.Context, name string) error {
	if err := v.saved.Remove(ctx, name); err != nil {
		v.setError(ErrorMessage(err, "Failed to remove place"))
		return err
	}
	return nil
}

func (v *View) AssignToDay(ctx context.Context, day int, p Place) error {
	if err := v.saved.AssignToDay(ctx, day, p); err != nil {
		v.setError(ErrorMessage(err, err.Error()))
		return err
	}
	return nil
}

// SetTravelMode turns proximity alerting on or off.
func (v *View) SetTravelMode(ctx context.Context, on bool) *Alert {
	v.mu.Lock()
	v.travel = on
	v.mu.Unlock()
	return v.evaluate(ctx)
}

func (v *View) SetNotifyCategories(ctx context.Context, set CategorySet) *Alert {
	v.mu.Lock()
	v.notify = set
	v.mu.Unlock()
	return v.evaluate(ctx)
}

// UpdateLocation records the live location and evaluates proximity.
func (v *View) UpdateLocation(ctx context.Context, c geo.Coordinates) *Alert {
	if !geo.ValidCoordinates(c.Lat, c.Lon) {
		return nil
	}
	v.mu.Lock()
	v.location = &c
	v.mu.Unlock()
	return v.evaluate(ctx)
}

// WatchLocation consumes live locations until ctx ends or feed closes.
func (v *View) WatchLocation(ctx context.Context, feed <-chan geo.Coordinates) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-feed:
			if !ok {
				return nil
			}
			v.UpdateLocation(ctx, c)
		}
	}
}

func (v *View) Location() *geo.Coordinates {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.location == nil {
		return nil
	}
	c := *v.location
	return &c
}

func (v *View) evaluate(ctx context.Context) *Alert {
	v.mu.Lock()
	if !v.travel || v.location == nil {
		v.mu.Unlock()
		return nil
	}
	loc, notify := *v.location, v.notify
	v.mu.Unlock()

	alert := v.alerter.Evaluate(loc, v.ctrl.Snapshot().Places, notify, v.saved.Names())
	if alert == nil {
		return nil
	}

	v.mu.Lock()
	v.alert = alert
	v.mu.Unlock()

	v.logger.Info("Proximity alert",
		zap.String("place", alert.Place.Name),
		zap.String("category", string(alert.Category)),
		zap.Float64("distance_km", alert.DistanceKm))
	v.notifier.notify(ctx, alert)
	if v.onAlert != nil {
		v.onAlert(*alert)
	}
	return alert
}

// CurrentAlert is the last alert that has not been dismissed.
func (v *View) CurrentAlert() *Alert {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.alert == nil {
		return nil
	}
	a := *v.alert
	return &a
}

func (v *View) DismissAlert() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.alert = nil
}

func (v *View) Status() Status {
	return v.ctrl.Snapshot().Status
}

// Error is the message to show, if any.
func (v *View) Error() string {
	v.mu.Lock()
	msg := v.errMsg
	v.mu.Unlock()
	if msg != "" {
		return msg
	}
	return v.ctrl.Snapshot().Error
}

func (v *View) DismissError() {
	v.mu.Lock()
	v.errMsg = ""
	v.mu.Unlock()
	v.ctrl.DismissError()
}

func (v *View) setError(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errMsg = msg
}

// Snapshot exposes the fetch state.
func (v *View) Snapshot() Snapshot {
	return v.ctrl.Snapshot()
}

// Remount starts a fresh session on the same view: alerts may fire again and
// pending fetches are discarded.
func (v *View) Remount() {
	v.alerter.Reset()
	v.ctrl.Invalidate()
	v.mu.Lock()
	v.alert = nil
	v.mu.Unlock()
}

// Close discards pending fetches for good.
func (v *View) Close() {
	v.ctrl.Close()
}
