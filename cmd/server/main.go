package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"carappx/internal/bus"
	"carappx/internal/config"
	"carappx/internal/handler"
	"carappx/internal/logging"
	"carappx/internal/middleware"
	"carappx/internal/repository"
	"carappx/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Print version info
	log.Printf("carappX Marketplace Backend")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Structured logger for the services
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	log.Println("✅ Connected to PostgreSQL database")

	// Initialize services
	locationBus := bus.NewLocationBus()
	engine := service.NewClusterEngine(logger)
	mapView := service.NewMapViewService(repo, engine, logger)
	bookings := service.NewBookingService(repo, logger)
	uploader := service.NewImageHost(cfg.Upload, logger)
	geocoder := service.NewGeocoder(cfg.Geocode, logger)
	catalog := service.StaticBrandCatalog{}

	log.Println("✅ Services initialized")

	// Initialize handlers
	listingsHandler := handler.NewListingsHandler(mapView, repo, cfg.Listings.DefaultLimit, cfg.Listings.MaxLimit)
	bookingsHandler := handler.NewBookingsHandler(bookings)
	itemsHandler := handler.NewItemsHandler(locationBus, uploader, repo, catalog, geocoder, repo, logger)

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))
	router.Use(middleware.ErrorHandler())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "carappx-backend",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		// Map + listings
		apiV1.GET("/services/map", listingsHandler.MapServices)
		apiV1.GET("/services/nearby", listingsHandler.Nearby)
		apiV1.GET("/listings", listingsHandler.List)
		apiV1.GET("/listings/:id", listingsHandler.Get)

		// Wizard + lookups
		apiV1.GET("/items/:type/schema", itemsHandler.Schema)
		apiV1.GET("/brands", itemsHandler.Brands)
		apiV1.GET("/brands/:brand/models", itemsHandler.Models)
		apiV1.GET("/geocode/reverse", itemsHandler.ReverseGeocode)

		// Authenticated surface
		authed := apiV1.Group("", middleware.RequireAuth(cfg.Auth.JWTSecret))
		{
			authed.GET("/my/listings", listingsHandler.Mine)
			authed.POST("/items/:type", itemsHandler.Create)
			authed.POST("/bookings", bookingsHandler.Create)
			authed.GET("/bookings", bookingsHandler.List)
			authed.GET("/bookings/:id", bookingsHandler.Get)
			authed.PATCH("/bookings/:id/status", bookingsHandler.Transition)
			authed.POST("/bookings/:id/cancel", bookingsHandler.Cancel)
		}
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("🚀 Starting server on %s", addr)

	go func() {
		if err := router.Run(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	log.Println("✅ Server stopped")
}
