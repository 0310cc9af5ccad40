package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smart-parking-backend/internal/store"
)

// Health handles GET /.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "Smart Car Parking API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetSlots handles GET /api/parking/slots: every slot's derived status plus
// the next-booking preview, all computed at one instant.
func (h *Handler) GetSlots(c *gin.Context) {
	views, err := h.manager.SlotViews(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.abortDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": views})
}

type patchSlotRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// PatchSlot handles PATCH /api/parking/slots/:slotId. Only the soft-disable
// flag is writable; displayed status is always derived from bookings.
func (h *Handler) PatchSlot(c *gin.Context) {
	var req patchSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "isActive is required"})
		return
	}

	slotID := c.Param("slotId")
	if err := h.store.SetSlotActive(c.Request.Context(), slotID, *req.IsActive); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Slot not found"})
			return
		}
		h.abortDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Slot updated successfully", "slotId": slotID, "isActive": *req.IsActive})
}
