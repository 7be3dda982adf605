package router

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/platedev/tastebite-api/internal/config"
	"github.com/platedev/tastebite-api/internal/handlers"
	"github.com/platedev/tastebite-api/internal/middleware"
	"github.com/platedev/tastebite-api/internal/services"
	"github.com/platedev/tastebite-api/internal/stats"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize Services
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		log.Printf("Warning: Failed to initialize storage service: %v", err)
	}

	searchService := services.NewSearchService(cfg)
	reviewService := services.NewReviewService(db)

	// The report cache lives in Redis so entries expire on their own; an
	// in-process cache takes over when Redis is unreachable.
	var reportCache stats.Cache
	redisCache, err := stats.NewRedisCache(cfg.RedisURL, cfg.StatsCacheTTL)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis report cache, using in-memory cache: %v", err)
		reportCache = stats.NewMemoryCache(cfg.StatsCacheTTL)
	} else {
		reportCache = redisCache
	}
	statsBuilder := stats.NewBuilder(db, reportCache)

	rateLimiter, err := middleware.NewRateLimiter(cfg.RedisURL)
	if err != nil {
		log.Printf("Warning: Failed to initialize rate limiter: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	r := gin.Default()

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	// Health check endpoint
	r.GET("/health", handlers.HealthCheck(db))

	// API v1 routes
	api := r.Group("/api/v1")
	{
		// Public routes
		auth := api.Group("/auth")
		if rateLimiter != nil {
			auth.Use(rateLimiter.RateLimitByIP(20, 3600))
		}
		{
			auth.POST("/register", handlers.Register(db, cfg))
			auth.POST("/login", handlers.Login(db, cfg))
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(cfg))
		{
			// Auth
			protected.GET("/auth/me", handlers.GetCurrentUser(db))
			protected.POST("/auth/logout", handlers.Logout())

			// Dishes
			protected.GET("/dishes", handlers.ListDishes(db, searchService))
			protected.GET("/dishes/:id", handlers.GetDish(db))
			protected.GET("/dishes/:id/image", handlers.GetDishImage(db, storageService))
			protected.GET("/tags", handlers.ListTags(db))

			// Reviews
			protected.GET("/dishes/:id/reviews", handlers.ListDishReviews(db))
			protected.POST("/dishes/:id/reviews", handlers.RateDish(reviewService))
			protected.DELETE("/dishes/:id/reviews", handlers.DeleteReview(reviewService))
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(cfg), middleware.AdminRequired())
		{
			// Dish management
			admin.POST("/dishes", handlers.CreateDish(db, searchService))
			admin.PUT("/dishes/:id", handlers.UpdateDish(db, searchService))
			admin.DELETE("/dishes/:id", handlers.DeleteDish(db, storageService, searchService))
			admin.POST("/dishes/:id/image", handlers.UploadDishImage(db, storageService))

			// Statistics
			admin.GET("/stats", handlers.GetStats(statsBuilder))
		}
	}

	return r
}
