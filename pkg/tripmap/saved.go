package tripmap

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// DefaultTripDays is assumed until the trip summary says otherwise.
const DefaultTripDays = 5

// SavedAPI is the part of the backend that manages saved places.
type SavedAPI interface {
	SavedPlaces(ctx context.Context, tripID string) ([]Place, error)
	SavePlace(ctx context.Context, tripID string, p Place) (string, error)
	RemovePlace(ctx context.Context, tripID, name string) error
	SaveExplorePlace(ctx context.Context, p Place) (string, error)
	AddToItinerary(ctx context.Context, tripID string, day int, p Place) error
	TripSummary(ctx context.Context, tripID string) (*TripSummary, error)
}

// SavedPlaces mirrors the server's saved list for the current trip. The list
// is only ever replaced by a fresh read from the server.
type SavedPlaces struct {
	mu     sync.Mutex
	api    SavedAPI
	logger *zap.Logger

	tripID   string
	places   []Place
	names    NameSet
	tripDays int
}

func NewSavedPlaces(api SavedAPI, logger *zap.Logger) *SavedPlaces {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SavedPlaces{api: api, logger: logger, names: make(NameSet), tripDays: DefaultTripDays}
}

// UseTrip binds to tripID and loads its saved list and day count. An empty
// tripID means discovery mode.
func (s *SavedPlaces) UseTrip(ctx context.Context, tripID string) error {
	s.mu.Lock()
	s.tripID = tripID
	s.places, s.names, s.tripDays = nil, make(NameSet), DefaultTripDays
	s.mu.Unlock()

	if tripID == "" {
		return nil
	}
	if summary, err := s.api.TripSummary(ctx, tripID); err != nil {
		s.logger.Warn("Could not load trip summary, assuming default days", zap.String("trip_id", tripID), zap.Error(err))
	} else if summary.Days > 0 {
		s.mu.Lock()
		if s.tripID == tripID {
			s.tripDays = summary.Days
		}
		s.mu.Unlock()
	}
	return s.Refresh(ctx)
}

// Refresh re-reads the saved list from the server. On failure the current
// list is kept.
func (s *SavedPlaces) Refresh(ctx context.Context) error {
	s.mu.Lock()
	tripID := s.tripID
	s.mu.Unlock()
	if tripID == "" {
		return nil
	}

	places, err := s.api.SavedPlaces(ctx, tripID)
	if err != nil {
		return err
	}
	names := make(NameSet, len(places))
	for _, p := range places {
		names[p.Name] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tripID != tripID {
		return nil
	}
	s.places, s.names = places, names
	return nil
}

// Save stores p on the server and then reloads the saved list. In discovery
// mode it goes to the user's explore collection and nothing is reloaded.
func (s *SavedPlaces) Save(ctx context.Context, p Place) (string, error) {
	s.mu.Lock()
	tripID := s.tripID
	s.mu.Unlock()

	if tripID == "" {
		return s.api.SaveExplorePlace(ctx, p)
	}
	msg, err := s.api.SavePlace(ctx, tripID, p)
	if err != nil {
		return "", err
	}
	if err := s.Refresh(ctx); err != nil {
		return "", err
	}
	return msg, nil
}

// Remove deletes the named place on the server and then reloads the list.
func (s *SavedPlaces) Remove(ctx context.Context, name string) error {
	s.mu.Lock()
	tripID := s.tripID
	s.mu.Unlock()

	if tripID == "" {
		return fmt.Errorf("no trip selected")
	}
	if err := s.api.RemovePlace(ctx, tripID, name); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// AssignToDay adds p to day of the trip itinerary. day must be within
// 1..TripDays().
func (s *SavedPlaces) AssignToDay(ctx context.Context, day int, p Place) error {
	s.mu.Lock()
	tripID, days := s.tripID, s.tripDays
	s.mu.Unlock()

	if tripID == "" {
		return fmt.Errorf("no trip selected")
	}
	if day < 1 || day > days {
		return fmt.Errorf("day must be between 1 and %d", days)
	}
	return s.api.AddToItinerary(ctx, tripID, day, p)
}

func (s *SavedPlaces) Places() []Place {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Place(nil), s.places...)
}

func (s *SavedPlaces) Names() NameSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(NameSet, len(s.names))
	for n := range s.names {
		out[n] = true
	}
	return out
}

func (s *SavedPlaces) IsSaved(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.names[name]
}

func (s *SavedPlaces) TripDays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tripDays
}
