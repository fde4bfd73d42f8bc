package trips

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripmap/internal/app/domain"
	"github.com/FACorreiaa/go-tripmap/internal/app/models"
)

type Handler struct {
	*domain.BaseHandler
	service Service
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		BaseHandler: domain.NewBaseHandler(logger),
		service:     service,
	}
}

// RegisterRoutes mounts the trip endpoints on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/trips", h.CreateTrip)
	rg.GET("/trips/summary/:id", h.Summary)
	rg.GET("/trips/:id/places", h.ListPlaces)
	rg.POST("/trips/:id/places", h.SavePlace)
	rg.DELETE("/trips/:id/places", h.RemovePlace)
	rg.POST("/trips/:id/itinerary/add-place", h.AddItineraryPlace)
}

func (h *Handler) CreateTrip(c *gin.Context) {
	var req models.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})
		return
	}

	trip, err := h.service.CreateTrip(c.Request.Context(), h.UserID(c), req)
	if err != nil {
		h.RespondError(c, err, "Failed to create trip")
		return
	}
	c.JSON(http.StatusCreated, trip)
}

func (h *Handler) ListPlaces(c *gin.Context) {
	tripID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	places, err := h.service.ListSavedPlaces(c.Request.Context(), tripID, h.UserID(c))
	if err != nil {
		h.RespondError(c, err, "Failed to load saved places")
		return
	}
	c.JSON(http.StatusOK, places)
}

func (h *Handler) SavePlace(c *gin.Context) {
	tripID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var place models.Place
	if err := c.ShouldBindJSON(&place); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})
		return
	}

	created, err := h.service.SavePlace(c.Request.Context(), tripID, h.UserID(c), place)
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

func (h *Handler) RemovePlace(c *gin.Context) {
	tripID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	name := c.Query("name")
	if err := h.service.RemovePlace(c.Request.Context(), tripID, h.UserID(c), name); err != nil {
		h.RespondError(c, err, "Failed to remove place")
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Place removed"})
}

func (h *Handler) AddItineraryPlace(c *gin.Context) {
	tripID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.AddItineraryPlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})
		return
	}

	item, err := h.service.AddItineraryPlace(c.Request.Context(), tripID, h.UserID(c), req)
	if err != nil {
		h.RespondError(c, err, "Failed to add place to itinerary")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Place added to itinerary", "item": item})
}

func (h *Handler) Summary(c *gin.Context) {
	tripID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), tripID, h.UserID(c))
	if err != nil {
		h.RespondError(c, err, "Failed to load trip summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}
