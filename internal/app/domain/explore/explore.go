// Package explore stores places saved in discovery mode, where there is no
// trip and the owner is the user.
package explore

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripmap/internal/app/domain"
	"github.com/FACorreiaa/go-tripmap/internal/app/models"
	database "github.com/FACorreiaa/go-tripmap/internal/db"
	"github.com/FACorreiaa/go-tripmap/pkg/geo"
)

type Repository interface {
	Save(ctx context.Context, place *models.ExplorePlace) (bool, error)
	List(ctx context.Context, userID string) ([]models.ExplorePlace, error)
	Remove(ctx context.Context, userID, name string) (bool, error)
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

func (r *RepositoryImpl) Save(ctx context.Context, place *models.ExplorePlace) (bool, error) {
	if place.ID == uuid.Nil {
		place.ID = uuid.New()
	}
	if place.CreatedAt.IsZero() {
		place.CreatedAt = time.Now().UTC()
	}

	query, args, err := r.psql.Insert("explore_places").
		Columns("id", "user_id", "name", "lat", "lon", "type", "created_at").
		Values(place.ID, place.UserID, place.Name, place.Lat, place.Lon, place.Type, place.CreatedAt).
		Suffix("ON CONFLICT (user_id, name) DO NOTHING").
		ToSql()
	if err != nil {
		return false, pkgerrors.Wrap(err, "build insert explore place")
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, pkgerrors.Wrap(err, "insert explore place")
	}
	return tag.RowsAffected() == 1, nil
}

func (r *RepositoryImpl) List(ctx context.Context, userID string) ([]models.ExplorePlace, error) {
	query, args, err := r.psql.
		Select("id", "user_id", "name", "lat", "lon", "type", "created_at").
		From("explore_places").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "build select explore places")
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "select explore places")
	}
	defer rows.Close()

	places := make([]models.ExplorePlace, 0)
	for rows.Next() {
		var p models.ExplorePlace
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Lat, &p.Lon, &p.Type, &p.CreatedAt); err != nil {
			return nil, pkgerrors.Wrap(err, "scan explore place")
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

func (r *RepositoryImpl) Remove(ctx context.Context, userID, name string) (bool, error) {
	query, args, err := r.psql.Delete("explore_places").
		Where(sq.Eq{"user_id": userID, "name": name}).
		ToSql()
	if err != nil {
		return false, pkgerrors.Wrap(err, "build delete explore place")
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, pkgerrors.Wrap(err, "delete explore place")
	}
	return tag.RowsAffected() > 0, nil
}

type Service struct {
	logger *zap.Logger
	repo   Repository
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{logger: logger, repo: repo}
}

// Save stores the place for userID. A second save of the same name is a
// no-op and reports created=false.
func (s *Service) Save(ctx context.Context, userID string, req models.ExploreSaveRequest) (bool, error) {
	ctx, span := otel.Tracer("ExploreService").Start(ctx, "Save")
	defer span.End()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return false, fmt.Errorf("%w: place name is required", models.ErrValidation)
	}
	if !geo.ValidCoordinates(req.Lat, req.Lon) {
		return false, fmt.Errorf("%w: coordinates out of range", models.ErrValidation)
	}
	span.SetAttributes(attribute.String("place.name", name))

	created, err := s.repo.Save(ctx, &models.ExplorePlace{
		UserID: userID,
		Name:   name,
		Lat:    req.Lat,
		Lon:    req.Lon,
		Type:   req.Type,
	})
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	return created, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]models.ExplorePlace, error) {
	return s.repo.List(ctx, userID)
}

func (s *Service) Remove(ctx context.Context, userID, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: place name is required", models.ErrValidation)
	}
	removed, err := s.repo.Remove(ctx, userID, name)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: place %q is not saved", models.ErrNotFound, name)
	}
	return nil
}

type Handler struct {
	*domain.BaseHandler
	service *Service
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{BaseHandler: domain.NewBaseHandler(logger), service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/explore/save", h.Save)
	rg.GET("/explore/saved", h.List)
	rg.DELETE("/explore/saved", h.Remove)
}

func (h *Handler) Save(c *gin.Context) {
	var req models.ExploreSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})
		return
	}

	created, err := h.service.Save(c.Request.Context(), h.UserID(c), req)
	if err != nil {
		h.RespondError(c, err, "Failed to save place")
		return
	}
	if !created {
		c.JSON(http.StatusOK, models.MessageResponse{Message: "Place already saved"})
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Place saved successfully"})
}

func (h *Handler) List(c *gin.Context) {
	places, err := h.service.List(c.Request.Context(), h.UserID(c))
	if err != nil {
		h.RespondError(c, err, "Failed to load saved places")
		return
	}
	c.JSON(http.StatusOK, places)
}

func (h *Handler) Remove(c *gin.Context) {
	if err := h.service.Remove(c.Request.Context(), h.UserID(c), c.Query("name")); err != nil {
		h.RespondError(c, err, "Failed to remove place")
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Place removed"})
}
