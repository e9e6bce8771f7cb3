package api

import (
	"net/http"
	"time"

	sharedconfig "github.com/emberforge/guildbot/src/config"
	"github.com/emberforge/guildbot/src/suggestions"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// New builds the gin engine with every route attached.
func New(cfg *sharedconfig.APIConfig, engine *suggestions.Engine) *gin.Engine {
	g, _ := newRouter(cfg, engine)
	return g
}

// newRouter also returns the rate limiter, nil when disabled, so its sweep
// can run for the lifetime of the server.
func newRouter(cfg *sharedconfig.APIConfig, engine *suggestions.Engine) (*gin.Engine, *RateLimiter) {
	var limiter *RateLimiter
	if cfg.RateLimit > 0 {
		limiter = NewRateLimiter(cfg.RateLimit, time.Minute)
	}
	g := gin.New()
	g.Use(RequestLogger(), gin.Recovery())
	attachRoutes(g, cfg, engine, limiter)
	return g, limiter
}

func attachRoutes(r *gin.Engine, cfg *sharedconfig.APIConfig, engine *suggestions.Engine, limiter *RateLimiter) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowOrigins,
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	sugH := NewSuggestions(engine)

	v1 := r.Group("/v1")
	if cfg.JWTSecret != "" {
		v1.Use(JWTMiddleware([]byte(cfg.JWTSecret)))
	}
	if limiter != nil {
		v1.Use(RateLimitMiddleware(limiter))
	}
	{
		v1.GET("/suggestions/:id", sugH.Get)
		v1.GET("/guilds/:guildID/suggestions", sugH.List)
	}
}
