package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pettag-service/internal/handler"
	mid "pettag-service/internal/middleware"
	"pettag-service/internal/service"
	"pettag-service/pkg/config"
	"pettag-service/pkg/database"
	"pettag-service/pkg/jwtutil"
	"pettag-service/pkg/logger"
	"pettag-service/prometheus"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting pettag-service", appConfig.LogConfig()...)

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	err = database.InitDB(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Wire the tag lifecycle engine with its collaborators
	store := service.NewGormStore(database.GetDB())
	payments := service.NewGatewayProcessor(appConfig.Payment)
	notifier := service.NewPersistentDispatcher(database.GetDB(), appConfig.Notify, log)
	engine := service.NewLifecycle(store, payments, notifier, appConfig, log)
	handler.Init(engine, notifier, appConfig)

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public finder endpoints - what the printed QR URL resolves to
	e.GET("/scan/:code", handler.ScanTag)
	e.POST("/scan/:code/notify", handler.NotifyFinder)

	// Tag API routes
	tagAPI := e.Group("/api/tags", mid.AuthMiddleware)
	tagAPI.GET("", handler.ListTags)
	tagAPI.POST("/purchase", handler.PurchaseTag)
	tagAPI.POST("/:id/activate", handler.ActivateTag)
	tagAPI.POST("/:id/deactivate", handler.DeactivateTag)
	tagAPI.POST("/:id/assign", handler.AssignTag)
	tagAPI.POST("/:id/unassign", handler.UnassignTag)
	tagAPI.GET("/:id/qr", handler.RenderTagQR)

	// Pet API routes
	petAPI := e.Group("/api/pets", mid.AuthMiddleware)
	petAPI.GET("", handler.ListPets)
	petAPI.POST("", handler.CreatePet)
	petAPI.GET("/:id", handler.GetPet)
	petAPI.PUT("/:id", handler.UpdatePet)
	petAPI.DELETE("/:id", handler.DeletePet)

	// Profile API routes
	userAPI := e.Group("/api/users", mid.AuthMiddleware)
	userAPI.GET("/me", handler.GetProfile)
	userAPI.PUT("/me", handler.UpdateProfile)

	// Order API routes
	orderAPI := e.Group("/api/orders", mid.AuthMiddleware)
	orderAPI.GET("", handler.ListOrders)
	orderAPI.POST("/checkout", handler.Checkout)
	orderAPI.GET("/:id", handler.GetOrder)
	orderAPI.POST("/:id/cancel", handler.CancelOrder)
	orderAPI.PUT("/:id/status", handler.UpdateOrderStatus)

	// Product catalog routes
	productAPI := e.Group("/api/products", mid.AuthMiddleware)
	productAPI.GET("", handler.ListProducts)
	productAPI.GET("/:id", handler.GetProduct)

	// QR inventory routes
	qrAPI := e.Group("/api/qrcodes", mid.AuthMiddleware)
	qrAPI.POST("/import", handler.ImportQRCodes)
	qrAPI.GET("/stats", handler.QRCodeStats)

	// Notification routes
	notificationAPI := e.Group("/api/notifications", mid.AuthMiddleware)
	notificationAPI.GET("", handler.ListNotifications)
	notificationAPI.PUT("/:id/read", handler.MarkNotificationRead)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
