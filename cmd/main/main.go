package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"alerts-service/internal/config"
	"alerts-service/internal/events"
	"alerts-service/internal/handlers"
	"alerts-service/internal/middleware"
	"alerts-service/internal/models"
	"alerts-service/internal/repository"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/rbac"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate models
	if err := db.AutoMigrate(
		&models.BranchAlertSettings{},
		&models.InventoryRecord{},
		&models.StockBatch{},
		&models.AlertNotification{},
		&models.AuditLog{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize logrus logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client (optional - caching degrades gracefully)
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Warning: Redis unreachable at %s: %v", cfg.RedisAddr, err)
			log.Println("Continuing without caching...")
			redisClient = nil
		} else {
			log.Println("✓ Connected to Redis for settings/summary caching")
		}
		cancel()
	} else {
		log.Println("REDIS_ADDR not configured, caching disabled")
	}

	// Initialize NATS event publisher (optional - graceful degradation if NATS unavailable)
	var eventPublisher *events.AlertEventPublisher
	if cfg.NATSURL != "" {
		eventPublisher, err = events.NewAlertEventPublisher(cfg.NATSURL, logger)
		if err != nil {
			log.Printf("Warning: Failed to initialize NATS event publisher: %v", err)
			log.Println("Continuing without event publishing...")
		} else {
			log.Println("✓ Connected to NATS JetStream for event publishing")
			defer eventPublisher.Close()
		}
	} else {
		log.Println("NATS_URL not configured, event publishing disabled")
	}

	// Initialize repository
	alertRepo := repository.NewAlertRepository(db, redisClient)

	// Initialize handlers with event publisher
	alertHandler := handlers.NewAlertHandler(alertRepo, eventPublisher)
	exportHandler := handlers.NewExportHandler(alertRepo)

	// Initialize OpenTelemetry tracing
	var tracerProvider *tracing.TracerProvider
	if cfg.Environment == "production" {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("alerts-service"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("alerts-service"))
	}
	if err != nil {
		log.Printf("WARNING: Failed to initialize tracing: %v (continuing without tracing)", err)
	} else {
		log.Println("✓ OpenTelemetry tracing initialized")
	}

	// Initialize Prometheus metrics
	metrics := gosharedmw.InitGlobalMetrics("tesseract", "alerts_service")
	log.Println("✓ Prometheus metrics initialized")

	// Initialize RBAC middleware
	staffServiceURL := os.Getenv("STAFF_SERVICE_URL")
	if staffServiceURL == "" {
		staffServiceURL = "http://staff-service:8080"
	}
	rbacMiddleware := rbac.NewMiddlewareWithURL(staffServiceURL, nil)
	log.Println("✓ RBAC middleware initialized")

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Add observability middleware (metrics + tracing)
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("alerts-service"))

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/health/extended", alertHandler.ExtendedHealthCheck)
	router.GET("/ready", handlers.HealthCheck)
	router.GET("/metrics", gosharedmw.Handler())

	// Protected API routes
	api := router.Group("/api/v1")

	// Authentication middleware using Istio JWT claims
	// Istio validates JWT and injects x-jwt-claim-* headers
	api.Use(gosharedmw.IstioAuth(gosharedmw.IstioAuthConfig{
		RequireAuth:        true,
		AllowLegacyHeaders: false,
		SkipPaths:          []string{"/health", "/ready", "/metrics", "/swagger"},
	}))

	// Tenant and branch scoping for all API routes
	api.Use(middleware.TenantMiddleware())
	api.Use(middleware.BranchMiddleware())

	// Derived alert routes with RBAC
	alerts := api.Group("/alerts")
	{
		alerts.GET("", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), alertHandler.ListAlerts)
		alerts.GET("/summary", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), alertHandler.GetAlertSummary)
		alerts.GET("/export", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), exportHandler.ExportAlerts)
		alerts.POST("/check", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), alertHandler.CheckAlerts)
	}

	// Notification lifecycle routes with RBAC
	notifications := api.Group("/notifications")
	{
		notifications.GET("", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), alertHandler.ListNotifications)
		notifications.GET("/summary", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), alertHandler.GetNotificationSummary)
		notifications.GET("/:id", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), alertHandler.GetNotification)
		notifications.POST("/:id/read", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), alertHandler.MarkRead)
		notifications.POST("/:id/acknowledge", rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate), alertHandler.Acknowledge)
		notifications.POST("/:id/resolve", rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate), alertHandler.Resolve)
		notifications.PATCH("/bulk", rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate), alertHandler.BulkLifecycle)
	}

	// Threshold settings routes with RBAC
	settings := api.Group("/settings")
	{
		settings.GET("/alerts", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), alertHandler.GetSettings)
		settings.PUT("/alerts", rbacMiddleware.RequirePermission(rbac.PermissionInventoryUpdate), alertHandler.SaveSettings)
	}

	// Audit log routes with RBAC
	api.GET("/audit-logs", rbacMiddleware.RequirePermission(rbac.PermissionInventoryRead), alertHandler.ListAuditLogs)

	// Start server
	port := cfg.Port

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Alerts service starting on port %s", port)
		if err := router.Run(":" + port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	log.Println("Shutting down alerts-service...")

	// Shutdown tracer provider
	if tracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		} else {
			log.Println("✓ Tracer provider shut down")
		}
	}

	log.Println("Alerts service stopped")
}
