package tripmap

import (
	"context"
	"errors"
	"sync"
)

// fakeAPI is an in-memory backend. nearby, when set, answers nearby queries.
type fakeAPI struct {
	mu sync.Mutex

	nearby      func(ctx context.Context, p NearbyParams) (*NearbyResult, error)
	nearbyCalls []NearbyParams

	saved        map[string][]Place
	explore      []Place
	itinerary    map[int][]Place
	days         int
	failSave     error
	failList     error
	failRemove   error
	summaryCalls int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{saved: make(map[string][]Place), itinerary: make(map[int][]Place), days: 3}
}

func (f *fakeAPI) Nearby(ctx context.Context, p NearbyParams) (*NearbyResult, error) {
	f.mu.Lock()
	f.nearbyCalls = append(f.nearbyCalls, p)
	fn := f.nearby
	f.mu.Unlock()
	if fn == nil {
		return &NearbyResult{}, nil
	}
	return fn(ctx, p)
}

func (f *fakeAPI) calls() []NearbyParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]NearbyParams(nil), f.nearbyCalls...)
}

func (f *fakeAPI) SavedPlaces(_ context.Context, tripID string) ([]Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList != nil {
		return nil, f.failList
	}
	return append([]Place(nil), f.saved[tripID]...), nil
}

func (f *fakeAPI) SavePlace(_ context.Context, tripID string, p Place) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave != nil {
		return "", f.failSave
	}
	for _, s := range f.saved[tripID] {
		if s.Name == p.Name {
			return "Place already saved", nil
		}
	}
	f.saved[tripID] = append(f.saved[tripID], p)
	return "Place saved successfully", nil
}

func (f *fakeAPI) RemovePlace(_ context.Context, tripID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRemove != nil {
		return f.failRemove
	}
	list := f.saved[tripID]
	for i, s := range list {
		if s.Name == name {
			f.saved[tripID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeAPI) SaveExplorePlace(_ context.Context, p Place) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.explore = append(f.explore, p)
	return "Place saved successfully", nil
}

func (f *fakeAPI) AddToItinerary(_ context.Context, _ string, day int, p Place) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if day < 1 || day > f.days {
		return errors.New("day out of range")
	}
	f.itinerary[day] = append(f.itinerary[day], p)
	return nil
}

func (f *fakeAPI) TripSummary(_ context.Context, tripID string) (*TripSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaryCalls++
	return &TripSummary{ID: tripID, Days: f.days}, nil
}
