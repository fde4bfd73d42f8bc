package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-tripmap/pkg/geo"
)

// Place is a point of interest returned by a nearby query. Name is the key
// within one result set.
type Place struct {
	Name       string  `json:"name" binding:"required"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Type       string  `json:"type"`
	DistanceKm float64 `json:"distance_km"`

	// Kind is set by the places provider from the OSM tag key. It is not
	// persisted with saved places.
	Kind geo.Category `json:"category,omitempty"`
}

// Coordinates returns the place position.
func (p Place) Coordinates() geo.Coordinates {
	return geo.Coordinates{Lat: p.Lat, Lon: p.Lon}
}

// Category returns Kind when the provider classified the place, and the
// normalized Type otherwise.
func (p Place) Category() geo.Category {
	if p.Kind != "" {
		return p.Kind
	}
	return geo.NormalizeCategory(p.Type)
}

// SavedPlace is a Place persisted against a trip.
type SavedPlace struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TripID    uuid.UUID `json:"trip_id" db:"trip_id"`
	Place
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ExplorePlace is a Place saved in discovery mode against a user.
type ExplorePlace struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    string    `json:"-" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Lat       float64   `json:"lat" db:"lat"`
	Lon       float64   `json:"lon" db:"lon"`
	Type      string    `json:"type" db:"type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ExploreSaveRequest is the body of POST /explore/save.
type ExploreSaveRequest struct {
	Name string  `json:"name" binding:"required"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Type string  `json:"type"`
}

// NearbyQuery is the parsed form of GET /discover/nearby.
type NearbyQuery struct {
	Center     *geo.Coordinates
	TripID     *uuid.UUID
	RadiusKm   float64
	Categories []geo.Category
}

// NearbyResponse is the payload of GET /discover/nearby.
type NearbyResponse struct {
	TripID string          `json:"trip_id,omitempty"`
	Center geo.Coordinates `json:"center"`
	Count  int             `json:"count"`
	Places []Place         `json:"places"`
}

// MessageResponse is the generic acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}
