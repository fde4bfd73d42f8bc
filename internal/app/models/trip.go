package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-tripmap/pkg/geo"
)

const (
	TripStatusPlanned = "planned"

	// DefaultTripDays is used when a trip carries no day count.
	DefaultTripDays = 5
)

// Trip is a planned trip owned by a user. Lat/Lon hold the destination
// center used by trip-mode nearby queries and may be absent.
type Trip struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      string    `json:"-" db:"user_id"`
	Source      string    `json:"source" db:"source"`
	Destination string    `json:"destination" db:"destination"`
	Days        int       `json:"days" db:"days"`
	People      int       `json:"people" db:"people"`
	Budget      int       `json:"budget" db:"budget"`
	Lat         *float64  `json:"lat,omitempty" db:"lat"`
	Lon         *float64  `json:"lon,omitempty" db:"lon"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Center returns the trip coordinates when both are present.
func (t Trip) Center() (geo.Coordinates, bool) {
	if t.Lat == nil || t.Lon == nil {
		return geo.Coordinates{}, false
	}
	return geo.Coordinates{Lat: *t.Lat, Lon: *t.Lon}, true
}

// CreateTripRequest is the body of POST /trips.
type CreateTripRequest struct {
	Source      string   `json:"source"`
	Destination string   `json:"destination" binding:"required"`
	Days        int      `json:"days"`
	People      int      `json:"people"`
	Budget      int      `json:"budget"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
}

// ItineraryPlace is a place assigned to one day of a trip.
type ItineraryPlace struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TripID    uuid.UUID `json:"trip_id" db:"trip_id"`
	Day       int       `json:"day" db:"day"`
	Name      string    `json:"name" db:"name"`
	Lat       float64   `json:"lat" db:"lat"`
	Lon       float64   `json:"lon" db:"lon"`
	Type      string    `json:"type" db:"type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AddItineraryPlaceRequest is the body of POST /trips/{id}/itinerary/add-place.
type AddItineraryPlaceRequest struct {
	Day   int   `json:"day" binding:"required"`
	Place Place `json:"place" binding:"required"`
}

// TripSummary is the payload of GET /trips/summary/{id}.
type TripSummary struct {
	ID          uuid.UUID                `json:"id"`
	Source      string                   `json:"source"`
	Destination string                   `json:"destination"`
	Days        int                      `json:"days"`
	People      int                      `json:"people"`
	Budget      int                      `json:"budget"`
	Status      string                   `json:"status"`
	Center      *geo.Coordinates         `json:"center,omitempty"`
	SavedCount  int                      `json:"saved_count"`
	Itinerary   map[int][]ItineraryPlace `json:"itinerary"`
}
