package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/eventmart/commerce-backend/internal/cache"
	"github.com/eventmart/commerce-backend/internal/config"
	"github.com/eventmart/commerce-backend/internal/database"
	"github.com/eventmart/commerce-backend/internal/handlers"
	"github.com/eventmart/commerce-backend/internal/kafka"
	"github.com/eventmart/commerce-backend/internal/middleware"
	"github.com/eventmart/commerce-backend/internal/services"
	"github.com/eventmart/commerce-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting EventMart Commerce Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Repositories need *sqlx.DB, the interface is for the health check
	pgDB, ok := db.(*database.PostgresDB)
	if !ok {
		logger.Fatal("Failed to cast database connection to PostgresDB")
	}
	sqlxDB := pgDB.DB

	// Initialize repositories
	eventRepo := database.NewEventRepository(sqlxDB)
	bookingRepo := database.NewBookingRepository(sqlxDB)
	productRepo := database.NewProductRepository(sqlxDB)
	orderRepo := database.NewOrderRepository(sqlxDB)
	cartRepo := database.NewCartRepository(sqlxDB)
	categoryRepo := database.NewCategoryRepository(sqlxDB)
	reviewRepo := database.NewReviewRepository(sqlxDB)
	auditRepo := database.NewPaymentAuditRepository(sqlxDB)

	// Initialize infrastructure
	catalogCache := cache.NewCatalogCache(cfg.Redis)
	if catalogCache != nil {
		defer catalogCache.Close()
		logger.Info("Catalog cache enabled")
	}
	producer := kafka.NewProducer(cfg.Kafka, logger)
	if producer != nil {
		defer producer.Close()
		logger.Info("Purchase event producer enabled")
	}

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret)
	pricingService := services.NewPricingService()
	gateway := services.NewRazorpayService(&cfg.Payment, logger)

	eventService := services.NewEventService(eventRepo, catalogCache, logger)
	bookingService := services.NewEventBookingService(
		eventRepo, bookingRepo, auditRepo, pricingService, gateway, producer, catalogCache, logger)
	productService := services.NewProductService(productRepo, catalogCache, logger)
	orderService := services.NewOrderService(
		productRepo, orderRepo, cartRepo, auditRepo, pricingService, gateway, producer, catalogCache, logger)
	cartService := services.NewCartService(cartRepo, productRepo, logger)
	categoryService := services.NewCategoryService(categoryRepo, logger)
	reviewService := services.NewReviewService(reviewRepo, eventRepo, productRepo, logger)

	// Start the stale pending transaction sweep
	reconciliation := services.NewReconciliationService(bookingRepo, orderRepo, cfg.Reconciliation, logger)
	reconciliation.Start()

	logger.Info("Services initialized")

	// Initialize handlers
	eventHandler := handlers.NewEventHandler(eventService, logger)
	bookingHandler := handlers.NewEventBookingHandler(bookingService, logger)
	productHandler := handlers.NewProductHandler(productService, logger)
	orderHandler := handlers.NewOrderHandler(orderService, logger)
	cartHandler := handlers.NewCartHandler(cartService, logger)
	categoryHandler := handlers.NewCategoryHandler(categoryService, logger)
	reviewHandler := handlers.NewReviewHandler(reviewService, logger)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	auth := middleware.AuthMiddleware(jwtService)
	v1 := router.Group("/api/v1")
	{
		// Events
		events := v1.Group("/events")
		{
			events.GET("", eventHandler.ListEvents)
			events.GET("/mine", auth, eventHandler.ListMyEvents)
			events.POST("", auth, eventHandler.CreateEvent)
			events.POST("/book", auth, bookingHandler.BookEvent)
			events.POST("/verify", auth, bookingHandler.VerifyPayment)
			events.GET("/bookings", auth, bookingHandler.ListMyBookings)
			events.GET("/bookings/:orderId", auth, bookingHandler.GetBooking)
			events.GET("/:id", eventHandler.GetEvent)
			events.PUT("/:id", auth, eventHandler.UpdateEvent)
			events.PATCH("/:id/publish", auth, eventHandler.PublishEvent)
			events.DELETE("/:id", auth, eventHandler.DeleteEvent)
			events.GET("/:id/bookings", auth, bookingHandler.ListEventBookings)
		}

		// Products
		product := v1.Group("/product")
		{
			product.GET("", productHandler.ListProducts)
			product.GET("/mine", auth, productHandler.ListMyProducts)
			product.POST("", auth, productHandler.CreateProduct)
			product.POST("/order", auth, orderHandler.PlaceOrder)
			product.POST("/verify", auth, orderHandler.VerifyPayment)
			product.GET("/orders", auth, orderHandler.ListMyOrders)
			product.GET("/orders/:orderId", auth, orderHandler.GetOrder)
			product.GET("/:id", productHandler.GetProduct)
			product.PUT("/:id", auth, productHandler.UpdateProduct)
			product.DELETE("/:id", auth, productHandler.DeleteProduct)
			product.GET("/:id/orders", auth, orderHandler.ListProductOrders)
			product.POST("/:id/variants", auth, productHandler.AddVariant)
			product.PUT("/:id/variants/:variantId", auth, productHandler.UpdateVariant)
			product.POST("/:id/promoters", auth, productHandler.AddPromoter)
			product.GET("/:id/promoters", auth, productHandler.ListPromoters)
			product.DELETE("/:id/promoters/:promoterId", auth, productHandler.RemovePromoter)
		}

		// Cart
		cart := v1.Group("/cart", auth)
		{
			cart.GET("", cartHandler.GetCart)
			cart.POST("", cartHandler.AddItem)
			cart.PATCH("/:itemId", cartHandler.UpdateItem)
			cart.DELETE("/:itemId", cartHandler.RemoveItem)
			cart.DELETE("", cartHandler.ClearCart)
		}

		// Categories
		categories := v1.Group("/categories")
		{
			categories.GET("", categoryHandler.ListCategories)
			categories.POST("", auth, middleware.RequireRole("admin"), categoryHandler.CreateCategory)
			categories.PUT("/:id", auth, middleware.RequireRole("admin"), categoryHandler.UpdateCategory)
			categories.DELETE("/:id", auth, middleware.RequireRole("admin"), categoryHandler.DeleteCategory)
		}

		// Reviews
		reviews := v1.Group("/reviews")
		{
			reviews.GET("/:subjectId", reviewHandler.ListSubjectReviews)
			reviews.POST("", auth, reviewHandler.SubmitReview)
			reviews.POST("/:reviewId/replies", auth, reviewHandler.ReplyToReview)
			reviews.DELETE("/:reviewId/replies", auth, reviewHandler.DeleteReply)
			reviews.DELETE("/:reviewId", auth, reviewHandler.DeleteReview)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	reconciliation.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if user, ok := middleware.GetUser(c); ok {
			fields["user_id"] = user.UserID
		}

		entry := logger.WithFields(fields)
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("Request completed")
		case c.Writer.Status() >= 400:
			entry.Warn("Request completed")
		default:
			entry.Info("Request completed")
		}
	}
}

// healthCheckHandler reports service and database health
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": version,
		})
	}
}
