package tripmap

import (
	"context"
	"net/url"
	"strconv"
	"sync"

	"github.com/FACorreiaa/go-tripmap/pkg/geo"
)

// DefaultAlertThresholdKm is how close a place must be to raise an alert.
const DefaultAlertThresholdKm = 0.5

// Alert is raised when the user comes within the threshold of a place.
type Alert struct {
	Place      Place        `json:"place"`
	Category   geo.Category `json:"category"`
	DistanceKm float64      `json:"distance_km"`
}

// DirectionsURL links to map directions to the place, starting at origin
// when it is known.
func (a Alert) DirectionsURL(origin *geo.Coordinates) string {
	q := url.Values{}
	q.Set("api", "1")
	if origin != nil {
		q.Set("origin", formatPair(*origin))
	}
	q.Set("destination", formatPair(a.Place.Coordinates()))
	return "https://www.google.com/maps/dir/?" + q.Encode()
}

func formatPair(c geo.Coordinates) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// Alerter decides which place, if any, to alert about. Each place is alerted
// at most once until Reset.
type Alerter struct {
	Threshold float64

	mu      sync.Mutex
	alerted NameSet
}

func NewAlerter(thresholdKm float64) *Alerter {
	if thresholdKm <= 0 {
		thresholdKm = DefaultAlertThresholdKm
	}
	return &Alerter{Threshold: thresholdKm, alerted: make(NameSet)}
}

// Evaluate scans places in order and returns the first one within the
// threshold whose category is in notify and which is neither saved nor
// already alerted. At most one alert is returned per call.
func (a *Alerter) Evaluate(location geo.Coordinates, places []Place, notify CategorySet, saved NameSet) *Alert {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.alerted == nil {
		a.alerted = make(NameSet)
	}

	for _, p := range places {
		cat := p.Category()
		if !notify[cat] || saved[p.Name] || a.alerted[p.Name] {
			continue
		}
		d := geo.HaversineKm(location, p.Coordinates())
		if d <= a.Threshold {
			a.alerted[p.Name] = true
			return &Alert{Place: p, Category: cat, DistanceKm: geo.RoundKm(d)}
		}
	}
	return nil
}

func (a *Alerter) Alerted(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.alerted[name]
}

// Reset forgets every alerted place.
func (a *Alerter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerted = make(NameSet)
}

// Notifier shows platform notifications. Implementations may fail freely;
// errors are ignored.
type Notifier interface {
	RequestPermission(ctx context.Context) (bool, error)
	Notify(ctx context.Context, title, body string) error
}

// sessionNotifier asks for permission once and remembers the answer.
type sessionNotifier struct {
	next Notifier

	once    sync.Once
	granted bool
}

func newSessionNotifier(n Notifier) *sessionNotifier {
	return &sessionNotifier{next: n}
}

func (s *sessionNotifier) notify(ctx context.Context, alert *Alert) {
	if s == nil || s.next == nil || alert == nil {
		return
	}
	s.once.Do(func() {
		ok, err := s.next.RequestPermission(ctx)
		s.granted = ok && err == nil
	})
	if !s.granted {
		return
	}
	body := string(alert.Category) + " · " + strconv.FormatFloat(alert.DistanceKm, 'f', 2, 64) + " km away"
	_ = s.next.Notify(ctx, alert.Place.Name+" is nearby", body)
}
