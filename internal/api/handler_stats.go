package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetStats handles GET /api/stats: a full re-derivation over the current
// booking set, usable as a consistency cross-check.
func (h *Handler) GetStats(c *gin.Context) {
	ov, err := h.manager.Stats(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.abortDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}
