package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/handler"
	"github.com/stemsi/exstem-cbt/internal/middleware"
	"github.com/stemsi/exstem-cbt/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Session *handler.SessionHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background work owned by the middlewares.
func SetupRouter(ctx context.Context, handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	limiter := middleware.NewRateLimiter(ctx, cfg.RateLimit, time.Minute)

	// ─── Quiz API ──────────────────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(limiter.Middleware(), middleware.NoStore())
	{
		api.GET("/quiz", handlers.Session.GetQuiz)

		session := api.Group("/session")
		{
			session.GET("", handlers.Session.GetSession)
			session.POST("/answers", handlers.Session.RecordAnswer)
			session.POST("/advance", handlers.Session.Advance)
			session.POST("/next", handlers.Session.Next)
			session.POST("/retreat", handlers.Session.Retreat)
			session.POST("/submit", handlers.Session.Submit)
			session.POST("/reset", handlers.Session.Reset)
			session.GET("/result", handlers.Session.GetResult)
			session.GET("/export", middleware.Brotli(), handlers.Session.Export)
		}
	}

	// ─── WebSocket ─────────────────────────────────────────────────────
	wsGroup := router.Group("/ws/v1")
	wsGroup.Use(limiter.Middleware())
	{
		wsGroup.GET("/session/stream", handlers.WS.SessionStream)
	}

	// ─── 404 fallback ──────────────────────────────────────────────────
	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	return router
}
