package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smart-parking-backend/internal/model"
)

// Reset handles POST /api/reset: wipes bookings and gate events and
// re-seeds the configured fleet. Administrative, sits outside the booking
// engine proper.
func (h *Handler) Reset(c *gin.Context) {
	fleet := model.NewFleet(h.cfg.Slots.Count, h.cfg.Slots.Prefix, h.cfg.Slots.Floor)
	if err := h.store.Reset(c.Request.Context(), fleet); err != nil {
		h.abortDomainError(c, err)
		return
	}

	h.log.Info().Int("slots", len(fleet)).Msg("all data reset")
	c.JSON(http.StatusOK, gin.H{
		"message": "All data reset successfully",
		"slots":   len(fleet),
	})
}
