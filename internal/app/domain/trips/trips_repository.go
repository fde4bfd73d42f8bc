package trips

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	database "github.com/FACorreiaa/go-tripmap/internal/db"
	"github.com/FACorreiaa/go-tripmap/internal/app/models"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository persists trips, their saved places and itinerary assignments.
type Repository interface {
	CreateTrip(ctx context.Context, trip *models.Trip) error
	GetTrip(ctx context.Context, tripID uuid.UUID, userID string) (*models.Trip, error)

	ListSavedPlaces(ctx context.Context, tripID uuid.UUID) ([]models.SavedPlace, error)
	// SavePlace inserts the place unless one with the same name exists for the
	// trip. It reports whether a row was created.
	SavePlace(ctx context.Context, tripID uuid.UUID, place models.Place) (bool, error)
	RemovePlace(ctx context.Context, tripID uuid.UUID, name string) (bool, error)

	AddItineraryPlace(ctx context.Context, item *models.ItineraryPlace) error
	ListItinerary(ctx context.Context, tripID uuid.UUID) ([]models.ItineraryPlace, error)
}

type RepositoryImpl struct {
	logger *zap.Logger
	db     database.DB
	psql   sq.StatementBuilderType
}

func NewRepository(db database.DB, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		db:     db,
		psql:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *RepositoryImpl) CreateTrip(ctx context.Context, trip *models.Trip) error {
	if trip.ID == uuid.Nil {
		trip.ID = uuid.New()
	}
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = time.Now().UTC()
	}
	if trip.Status == "" {
		trip.Status = models.TripStatusPlanned
	}

	query, args, err := r.psql.Insert("trips").
		Columns("id", "user_id", "source", "destination", "days", "people", "budget", "lat", "lon", "status", "created_at").
		Values(trip.ID, trip.UserID, trip.Source, trip.Destination, trip.Days, trip.People, trip.Budget, trip.Lat, trip.Lon, trip.Status, trip.CreatedAt).
		ToSql()
	if err != nil {
		return pkgerrors.Wrap(err, "build insert trip")
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		r.logger.Error("Failed to insert trip", zap.String("trip_id", trip.ID.String()), zap.Error(err))
		return pkgerrors.Wrap(err, "insert trip")
	}
	return nil
}

func (r *RepositoryImpl) GetTrip(ctx context.Context, tripID uuid.UUID, userID string) (*models.Trip, error) {
	query, args, err := r.psql.
		Select("id", "user_id", "source", "destination", "days", "people", "budget", "lat", "lon", "status", "created_at").
		From("trips").
		Where(sq.Eq{"id": tripID, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "build select trip")
	}

	var t models.Trip
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&t.ID, &t.UserID, &t.Source, &t.Destination, &t.Days, &t.People, &t.Budget,
		&t.Lat, &t.Lon, &t.Status, &t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pkgerrors.Wrapf(models.ErrNotFound, "trip %s", tripID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "select trip")
	}
	return &t, nil
}

func (r *RepositoryImpl) ListSavedPlaces(ctx context.Context, tripID uuid.UUID) ([]models.SavedPlace, error) {
	query, args, err := r.psql.
		Select("id", "trip_id", "name", "lat", "lon", "type", "distance_km", "created_at").
		From("trip_saved_places").
		Where(sq.Eq{"trip_id": tripID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "build select saved places")
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "select saved places")
	}
	defer rows.Close()

	places := make([]models.SavedPlace, 0)
	for rows.Next() {
		var p models.SavedPlace
		if err := rows.Scan(&p.ID, &p.TripID, &p.Name, &p.Lat, &p.Lon, &p.Type, &p.DistanceKm, &p.CreatedAt); err != nil {
			return nil, pkgerrors.Wrap(err, "scan saved place")
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

func (r *RepositoryImpl) SavePlace(ctx context.Context, tripID uuid.UUID, place models.Place) (bool, error) {
	query, args, err := r.psql.Insert("trip_saved_places").
		Columns("id", "trip_id", "name", "lat", "lon", "type", "distance_km", "created_at").
		Values(uuid.New(), tripID, place.Name, place.Lat, place.Lon, place.Type, place.DistanceKm, time.Now().UTC()).
		Suffix("ON CONFLICT (trip_id, name) DO NOTHING").
		ToSql()
	if err != nil {
		return false, pkgerrors.Wrap(err, "build insert saved place")
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, pkgerrors.Wrap(err, "insert saved place")
	}
	return tag.RowsAffected() == 1, nil
}

func (r *RepositoryImpl) RemovePlace(ctx context.Context, tripID uuid.UUID, name string) (bool, error) {
	query, args, err := r.psql.Delete("trip_saved_places").
		Where(sq.Eq{"trip_id": tripID, "name": name}).
		ToSql()
	if err != nil {
		return false, pkgerrors.Wrap(err, "build delete saved place")
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, pkgerrors.Wrap(err, "delete saved place")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RepositoryImpl) AddItineraryPlace(ctx context.Context, item *models.ItineraryPlace) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	query, args, err := r.psql.Insert("trip_itinerary_places").
		Columns("id", "trip_id", "day", "name", "lat", "lon", "type", "created_at").
		Values(item.ID, item.TripID, item.Day, item.Name, item.Lat, item.Lon, item.Type, item.CreatedAt).
		ToSql()
	if err != nil {
		return pkgerrors.Wrap(err, "build insert itinerary place")
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return pkgerrors.Wrap(err, "insert itinerary place")
	}
	return nil
}

func (r *RepositoryImpl) ListItinerary(ctx context.Context, tripID uuid.UUID) ([]models.ItineraryPlace, error) {
	query, args, err := r.psql.
		Select("id", "trip_id", "day", "name", "lat", "lon", "type", "created_at").
		From("trip_itinerary_places").
		Where(sq.Eq{"trip_id": tripID}).
		OrderBy("day ASC", "created_at ASC").
		ToSql()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "build select itinerary")
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "select itinerary")
	}
	defer rows.Close()

	items := make([]models.ItineraryPlace, 0)
	for rows.Next() {
		var it models.ItineraryPlace
		if err := rows.Scan(&it.ID, &it.TripID, &it.Day, &it.Name, &it.Lat, &it.Lon, &it.Type, &it.CreatedAt); err != nil {
			return nil, pkgerrors.Wrap(err, "scan itinerary place")
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
