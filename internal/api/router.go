package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"reservas-backend/internal/mw"
)

// RouterConfig tunes the middleware in front of the API.
type RouterConfig struct {
	RateLimitPerSec float64
	RateBurst       int
	CacheTTL        time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger(h.log))

	if cfg.RateLimitPerSec <= 0 {
		cfg.RateLimitPerSec = 10
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 20
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 2 * time.Second
	}
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateBurst)

	// Entries are keyed by cache version, so a change to the view is
	// never served stale; the TTL only bounds memory.
	cacheStore := cache.New(cfg.CacheTTL, 10*cfg.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.CacheTTL, func(c *gin.Context) string {
		return fmt.Sprintf("%s#%d", c.Request.RequestURI, h.ctrl.Cache().Version())
	})

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/date", h.GetDate)
		api.PUT("/date", h.PutDate)

		api.GET("/reservations", caching, h.ListReservations)
		api.GET("/reservations/:shift/:table", h.GetReservation)
		api.PUT("/reservations/:shift/:table", h.PutReservation)
		api.DELETE("/reservations/:shift/:table", h.DeleteReservation)
		api.POST("/reservations/:shift/:table/arrived", h.MarkArrived)
		api.GET("/reservations/:shift/:table/whatsapp", h.GetWhatsAppLink)
		api.POST("/refetch", h.Refetch)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
