package discover

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripmap/internal/app/domain"
	"github.com/FACorreiaa/go-tripmap/internal/app/models"
	"github.com/FACorreiaa/go-tripmap/pkg/geo"
)

type Handler struct {
	*domain.BaseHandler
	service *Service
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{BaseHandler: domain.NewBaseHandler(logger), service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/discover/nearby", h.Nearby)
}

// Nearby serves GET /discover/nearby?lat=&lon=|trip_id=&radius=&category=
func (h *Handler) Nearby(c *gin.Context) {
	q, msg := parseNearbyQuery(c)
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": msg})
		return
	}

	resp, err := h.service.Nearby(c.Request.Context(), h.UserID(c), q)
	if err != nil {
		h.RespondError(c, err, "Failed to fetch nearby places")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func parseNearbyQuery(c *gin.Context) (models.NearbyQuery, string) {
	var q models.NearbyQuery

	if raw := c.Query("trip_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return q, "Invalid trip_id"
		}
		q.TripID = &id
	} else {
		latRaw, lonRaw := c.Query("lat"), c.Query("lon")
		if latRaw == "" || lonRaw == "" {
			return q, "lat and lon or trip_id are required"
		}
		lat, errLat := strconv.ParseFloat(latRaw, 64)
		lon, errLon := strconv.ParseFloat(lonRaw, 64)
		if errLat != nil || errLon != nil || !geo.ValidCoordinates(lat, lon) {
			return q, "Invalid coordinates"
		}
		q.Center = &geo.Coordinates{Lat: lat, Lon: lon}
	}

	if raw := c.Query("radius"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
			return q, "Invalid radius"
		}
		q.RadiusKm = r
	}

	q.Categories = geo.ParseCategories(c.Query("category"))
	return q, ""
}
