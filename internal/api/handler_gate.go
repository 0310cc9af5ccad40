package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smart-parking-backend/internal/booking"
	"smart-parking-backend/internal/metrics"
	"smart-parking-backend/internal/model"
)

type gateScanRequest struct {
	QRCode string `json:"qrCode" binding:"required"`
}

// denialStatus maps a gate denial reason onto an HTTP status code.
func denialStatus(reason string) int {
	switch reason {
	case booking.DenyNotFound:
		return http.StatusNotFound
	case booking.DenyAlreadyEntered, booking.DenyAlreadyExited:
		return http.StatusConflict
	case booking.DenyNotEntered:
		return http.StatusBadRequest
	case booking.DenyTooEarly, booking.DenyExpired:
		return http.StatusForbidden
	default:
		return http.StatusForbidden
	}
}

func (h *Handler) abortGateError(c *gin.Context, gate string, err error) {
	var d *booking.Denial
	if errors.As(err, &d) {
		metrics.IncGateScan(gate, d.Reason)
		c.AbortWithStatusJSON(denialStatus(d.Reason), gin.H{
			"valid":   false,
			"reason":  d.Reason,
			"message": d.Message,
			"action":  "deny",
		})
		return
	}
	// Storage failure: an internal error, never a gate denial.
	h.log.Error().Err(err).Str("gate", gate).Msg("gate verification failed")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// VerifyEntry handles POST /api/parking/entry: QR verification at the entry
// station.
func (h *Handler) VerifyEntry(c *gin.Context) {
	var req gateScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"valid": false, "message": "QR code is required"})
		return
	}

	res, err := h.gate.VerifyEntry(c.Request.Context(), req.QRCode, time.Now().UTC())
	if err != nil {
		h.abortGateError(c, model.GateEntry, err)
		return
	}

	metrics.IncGateScan(model.GateEntry, "granted")
	c.JSON(http.StatusOK, gin.H{
		"valid":     true,
		"message":   "Access granted - Welcome!",
		"action":    "open_gate",
		"slotId":    res.SlotID,
		"expiresAt": res.ExpiresAt,
		"duration":  res.Duration,
	})
}

// VerifyExit handles POST /api/parking/exit: QR verification at the exit
// station.
func (h *Handler) VerifyExit(c *gin.Context) {
	var req gateScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"valid": false, "message": "QR code is required"})
		return
	}

	res, err := h.gate.VerifyExit(c.Request.Context(), req.QRCode, time.Now().UTC())
	if err != nil {
		h.abortGateError(c, model.GateExit, err)
		return
	}

	metrics.IncGateScan(model.GateExit, "granted")
	c.JSON(http.StatusOK, gin.H{
		"valid":          true,
		"message":        "Exit granted - Thank you!",
		"action":         "open_gate",
		"slotId":         res.SlotID,
		"enteredAt":      res.EnteredAt,
		"exitedAt":       res.ExitedAt,
		"actualDuration": fmt.Sprintf("%d minutes", res.ActualDurationMinutes),
	})
}
