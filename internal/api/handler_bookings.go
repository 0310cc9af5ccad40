package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smart-parking-backend/internal/metrics"
)

type createBookingRequest struct {
	UserID    string     `json:"userId"`
	SlotID    string     `json:"slotId" binding:"required"`
	Duration  int        `json:"duration" binding:"required"`
	StartTime *time.Time `json:"startTime"`
}

// CreateBooking handles POST /api/bookings. The gateway-supplied identity
// wins over the body userId when both are present.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	userID := requesterID(c)
	if userID == "" {
		userID = req.UserID
	}

	b, err := h.manager.Create(c.Request.Context(), userID, req.SlotID, req.Duration, req.StartTime)
	if err != nil {
		h.abortDomainError(c, err)
		return
	}

	metrics.IncBookingCreated()
	c.JSON(http.StatusCreated, gin.H{"message": "Booking created successfully", "booking": b})
}

// GetBooking handles GET /api/bookings/:bookingId.
func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.manager.Get(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		h.abortDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// GetUserBookings handles GET /api/bookings/user/:userId.
func (h *Handler) GetUserBookings(c *gin.Context) {
	bookings, err := h.manager.ListByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.abortDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(bookings), "bookings": bookings})
}

// CancelBooking handles DELETE /api/bookings/:bookingId. The requester must
// own the booking and must not have entered yet.
func (h *Handler) CancelBooking(c *gin.Context) {
	requester := requesterID(c)
	if requester == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing " + userIDHeader + " header"})
		return
	}

	if err := h.manager.Cancel(c.Request.Context(), c.Param("bookingId"), requester); err != nil {
		h.abortDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled successfully"})
}
