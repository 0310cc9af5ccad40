package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"smart-parking-backend/internal/metrics"
	"smart-parking-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	metrics.Register()
	r.Use(func(c *gin.Context) {
		c.Next()
		if path := c.FullPath(); path != "" {
			metrics.IncHTTP(path)
		}
	})

	r.GET("/", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rateLimiter := mw.RateLimiter(rate.Limit(h.cfg.Server.RateLimitPerSec), h.cfg.Server.RateLimitBurst)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/parking/slots", h.GetSlots)
		api.PATCH("/parking/slots/:slotId", h.PatchSlot)

		api.POST("/bookings", h.CreateBooking)
		api.GET("/bookings/user/:userId", h.GetUserBookings)
		api.GET("/bookings/:bookingId", h.GetBooking)
		api.DELETE("/bookings/:bookingId", h.CancelBooking)

		api.POST("/parking/entry", h.VerifyEntry)
		api.POST("/parking/exit", h.VerifyExit)

		api.POST("/reset", h.Reset)

		// Stats are a rollup, not derived slot truth, so a short response
		// cache is safe here. Disabled when stats_cache_seconds is 0.
		if ttl := h.cfg.Server.StatsCacheSeconds; ttl > 0 {
			d := time.Duration(ttl) * time.Second
			api.GET("/stats", mw.Cache(cache.New(d, 2*d), d), h.GetStats)
		} else {
			api.GET("/stats", h.GetStats)
		}
	}

	return r
}
