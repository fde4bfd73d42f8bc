package trips

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripmap/internal/app/models"
	"github.com/FACorreiaa/go-tripmap/pkg/geo"
	"github.com/FACorreiaa/go-tripmap/pkg/geocode"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	CreateTrip(ctx context.Context, userID string, req models.CreateTripRequest) (*models.Trip, error)
	// GetTrip returns the trip only when it belongs to userID.
	GetTrip(ctx context.Context, tripID uuid.UUID, userID string) (*models.Trip, error)
	TripCenter(ctx context.Context, tripID uuid.UUID, userID string) (geo.Coordinates, error)

	ListSavedPlaces(ctx context.Context, tripID uuid.UUID, userID string) ([]models.SavedPlace, error)
	SavePlace(ctx context.Context, tripID uuid.UUID, userID string, place models.Place) (bool, error)
	RemovePlace(ctx context.Context, tripID uuid.UUID, userID, name string) error

	AddItineraryPlace(ctx context.Context, tripID uuid.UUID, userID string, req models.AddItineraryPlaceRequest) (*models.ItineraryPlace, error)
	Summary(ctx context.Context, tripID uuid.UUID, userID string) (*models.TripSummary, error)
}

type ServiceImpl struct {
	logger   *zap.Logger
	repo     Repository
	geocoder geocode.Geocoder
}

func NewService(repo Repository, geocoder geocode.Geocoder, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger,
		repo:     repo,
		geocoder: geocoder,
	}
}

func (s *ServiceImpl) CreateTrip(ctx context.Context, userID string, req models.CreateTripRequest) (*models.Trip, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "CreateTrip", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("trip.destination", req.Destination),
	))
	defer span.End()

	l := s.logger.With(zap.String("method", "CreateTrip"), zap.String("userID", userID))

	destination := strings.TrimSpace(req.Destination)
	if destination == "" {
		return nil, fmt.Errorf("%w: destination is required", models.ErrValidation)
	}
	if req.Days < 0 || req.People < 0 || req.Budget < 0 {
		return nil, fmt.Errorf("%w: days, people and budget must not be negative", models.ErrValidation)
	}

	trip := &models.Trip{
		UserID:      userID,
		Source:      strings.TrimSpace(req.Source),
		Destination: destination,
		Days:        req.Days,
		People:      req.People,
		Budget:      req.Budget,
		Lat:         req.Lat,
		Lon:         req.Lon,
		Status:      models.TripStatusPlanned,
	}
	if trip.Days == 0 {
		trip.Days = models.DefaultTripDays
	}
	if trip.People == 0 {
		trip.People = 1
	}

	if center, ok := trip.Center(); ok {
		if !geo.ValidCoordinates(center.Lat, center.Lon) {
			return nil, fmt.Errorf("%w: coordinates out of range", models.ErrValidation)
		}
	} else if s.geocoder != nil {
		center, err := s.geocoder.Geocode(ctx, destination)
		if err != nil {
			// The trip is still created; trip-mode discovery reports the missing center.
			l.Warn("Could not geocode trip destination", zap.String("destination", destination), zap.Error(err))
			span.AddEvent("geocode failed")
		} else {
			trip.Lat, trip.Lon = &center.Lat, &center.Lon
		}
	}

	if err := s.repo.CreateTrip(ctx, trip); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create trip failed")
		return nil, err
	}

	span.SetAttributes(attribute.String("trip.id", trip.ID.String()))
	l.Info("Trip created", zap.String("tripID", trip.ID.String()))
	return trip, nil
}

func (s *ServiceImpl) GetTrip(ctx context.Context, tripID uuid.UUID, userID string) (*models.Trip, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "GetTrip", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	trip, err := s.repo.GetTrip(ctx, tripID, userID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "get trip failed")
		}
		return nil, err
	}
	return trip, nil
}

func (s *ServiceImpl) TripCenter(ctx context.Context, tripID uuid.UUID, userID string) (geo.Coordinates, error) {
	trip, err := s.GetTrip(ctx, tripID, userID)
	if err != nil {
		return geo.Coordinates{}, err
	}
	center, ok := trip.Center()
	if !ok {
		return geo.Coordinates{}, models.ErrNoCoordinates
	}
	return center, nil
}

func (s *ServiceImpl) ListSavedPlaces(ctx context.Context, tripID uuid.UUID, userID string) ([]models.SavedPlace, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "ListSavedPlaces", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	if _, err := s.GetTrip(ctx, tripID, userID); err != nil {
		return nil, err
	}
	places, err := s.repo.ListSavedPlaces(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list saved places failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("places.count", len(places)))
	return places, nil
}

func (s *ServiceImpl) SavePlace(ctx context.Context, tripID uuid.UUID, userID string, place models.Place) (bool, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "SavePlace", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
		attribute.String("place.name", place.Name),
	))
	defer span.End()

	place.Name = strings.TrimSpace(place.Name)
	if place.Name == "" {
		return false, fmt.Errorf("%w: place name is required", models.ErrValidation)
	}
	if !geo.ValidCoordinates(place.Lat, place.Lon) {
		return false, fmt.Errorf("%w: coordinates out of range", models.ErrValidation)
	}
	if _, err := s.GetTrip(ctx, tripID, userID); err != nil {
		return false, err
	}

	created, err := s.repo.SavePlace(ctx, tripID, place)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save place failed")
		return false, err
	}
	span.SetAttributes(attribute.Bool("place.created", created))
	return created, nil
}

func (s *ServiceImpl) RemovePlace(ctx context.Context, tripID uuid.UUID, userID, name string) error {
	ctx, span := otel.Tracer("TripService").Start(ctx, "RemovePlace", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
		attribute.String("place.name", name),
	))
	defer span.End()

	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: place name is required", models.ErrValidation)
	}
	if _, err := s.GetTrip(ctx, tripID, userID); err != nil {
		return err
	}

	removed, err := s.repo.RemovePlace(ctx, tripID, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remove place failed")
		return err
	}
	if !removed {
		s.logger.Debug("Place was not saved, nothing removed",
			zap.String("trip_id", tripID.String()),
			zap.String("name", name))
	}
	return nil
}

func (s *ServiceImpl) AddItineraryPlace(ctx context.Context, tripID uuid.UUID, userID string, req models.AddItineraryPlaceRequest) (*models.ItineraryPlace, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "AddItineraryPlace", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
		attribute.Int("itinerary.day", req.Day),
	))
	defer span.End()

	trip, err := s.GetTrip(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}
	days := trip.Days
	if days <= 0 {
		days = models.DefaultTripDays
	}
	if req.Day < 1 || req.Day > days {
		return nil, fmt.Errorf("%w: day must be between 1 and %d", models.ErrValidation, days)
	}
	if strings.TrimSpace(req.Place.Name) == "" {
		return nil, fmt.Errorf("%w: place name is required", models.ErrValidation)
	}

	item := &models.ItineraryPlace{
		TripID: tripID,
		Day:    req.Day,
		Name:   strings.TrimSpace(req.Place.Name),
		Lat:    req.Place.Lat,
		Lon:    req.Place.Lon,
		Type:   req.Place.Type,
	}
	if err := s.repo.AddItineraryPlace(ctx, item); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "add itinerary place failed")
		return nil, err
	}
	return item, nil
}

func (s *ServiceImpl) Summary(ctx context.Context, tripID uuid.UUID, userID string) (*models.TripSummary, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "Summary", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	trip, err := s.GetTrip(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}
	saved, err := s.repo.ListSavedPlaces(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	items, err := s.repo.ListItinerary(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	summary := &models.TripSummary{
		ID:          trip.ID,
		Source:      trip.Source,
		Destination: trip.Destination,
		Days:        trip.Days,
		People:      trip.People,
		Budget:      trip.Budget,
		Status:      trip.Status,
		SavedCount:  len(saved),
		Itinerary:   make(map[int][]models.ItineraryPlace),
	}
	if center, ok := trip.Center(); ok {
		summary.Center = &center
	}
	for _, it := range items {
		summary.Itinerary[it.Day] = append(summary.Itinerary[it.Day], it)
	}
	return summary, nil
}
