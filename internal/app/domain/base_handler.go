package domain

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripmap/internal/app/middleware"
	"github.com/FACorreiaa/go-tripmap/internal/app/models"
)

// BaseHandler carries what every JSON handler needs: a logger and the
// error-to-status mapping.
type BaseHandler struct {
	Logger *zap.Logger
}

func NewBaseHandler(logger *zap.Logger) *BaseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseHandler{Logger: logger}
}

// UserID returns the authenticated user id set by the JWT middleware.
func (h *BaseHandler) UserID(c *gin.Context) string {
	return middleware.GetUserIDFromContext(c)
}

// ParseUUIDParam parses a path parameter as a UUID, replying 400 on failure.
func (h *BaseHandler) ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		h.Logger.Debug("Invalid UUID parameter", zap.String("param", name), zap.String("value", raw))
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrBadRequest), errors.Is(err, models.ErrNoCoordinates):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as {"detail": msg}. Server-side failures are logged
// and their message hidden from the client.
func (h *BaseHandler) RespondError(c *gin.Context, err error, msg string) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error(msg,
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	} else {
		h.Logger.Debug(msg, zap.Error(err))
		msg = err.Error()
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"detail": msg})
}
