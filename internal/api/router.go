package api

import (
	"github.com/gin-gonic/gin"
	"github.com/minho/pressroom/internal/api/handler"
	"github.com/minho/pressroom/internal/api/middleware"
	"github.com/minho/pressroom/internal/config"
	"github.com/minho/pressroom/internal/logger"
	"github.com/minho/pressroom/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	feedService *service.FeedService,
	cfg *config.Config,
	log *logger.Logger,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	feedHandler := handler.NewFeedHandler(feedService)
	contentHandler := handler.NewContentHandler(feedService)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Feed
		v1.GET("/feed", feedHandler.ListFeed)
		v1.GET("/feed/:slug", feedHandler.GetBySlug)

		// Per-content metrics and ranking
		v1.GET("/contents/:id/metrics", contentHandler.GetMetrics)
		v1.GET("/contents/:id/ranking", contentHandler.GetRanking)
	}

	return r
}
