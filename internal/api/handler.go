package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"smart-parking-backend/config"
	"smart-parking-backend/internal/booking"
	"smart-parking-backend/internal/store"
)

// userIDHeader carries the authenticated user id set by the upstream
// identity gateway. The service trusts it and never verifies credentials.
const userIDHeader = "X-User-ID"

// Handler holds shared dependencies for API handlers.
type Handler struct {
	cfg     *config.Config
	store   store.Store
	manager *booking.Manager
	gate    *booking.Gate
	log     zerolog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(cfg *config.Config, s store.Store, manager *booking.Manager, gate *booking.Gate, log zerolog.Logger) *Handler {
	return &Handler{
		cfg:     cfg,
		store:   s,
		manager: manager,
		gate:    gate,
		log:     log.With().Str("component", "api").Logger(),
	}
}

// abortDomainError translates the engine's error taxonomy onto HTTP status
// codes. Anything unrecognized is an internal error and is never leaked.
func (h *Handler) abortDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrValidation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// requesterID returns the authenticated user id supplied by the gateway.
func requesterID(c *gin.Context) string {
	return c.GetHeader(userIDHeader)
}
