package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"widget-shop/internal/handler"
	"widget-shop/internal/infrastructure"
	"widget-shop/internal/middleware"
	"widget-shop/internal/service"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	// Initialize database connection
	db, err := infrastructure.ConnectDatabase(infrastructure.DefaultDatabaseConfig())
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Perform all database migrations
	if err := infrastructure.MigrateAllSchemas(db); err != nil {
		logger.Fatal("failed to migrate database schemas", zap.Error(err))
	}

	// Initialize services
	catalogService := service.NewCatalogService(db)
	stockLedger := service.NewStockLedger()
	orderService := service.NewOrderService(db, stockLedger, service.NewOrderNumberGenerator())

	// Populate sample catalog data for development
	seedManager := infrastructure.NewSeedDataManager(db)
	if err := seedManager.SeedCatalog(); err != nil {
		logger.Fatal("failed to seed sample data", zap.Error(err))
	}

	// Initialize handlers
	widgetHandler := handler.NewWidgetHandler(catalogService)
	orderHandler := handler.NewOrderHandler(orderService)
	catalogHandler := handler.NewCatalogHandler(catalogService)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))
	handler.RegisterRoutes(r, widgetHandler, orderHandler, catalogHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Info("starting server", zap.String("port", port))
	if err := r.Run(":" + port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger() *zap.Logger {
	if os.Getenv("APP_ENV") == "production" {
		logger, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return logger
}
