package infrastructure

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"widget-shop/internal/model"
)

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

// DefaultDatabaseConfig returns default database configuration for development
func DefaultDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		Database: getEnv("DB_NAME", "widgetshop"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

// ConnectDatabase establishes a connection to PostgreSQL database using GORM
func ConnectDatabase(config *DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.Host,
		config.Port,
		config.User,
		config.Password,
		config.Database,
		config.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logger.Silent, // Set to logger.Info for more verbose logging
				IgnoreRecordNotFoundError: true,
				Colorful:                  true,
			},
		),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// SetMaxIdleConns sets the maximum number of connections in the idle connection pool.
	sqlDB.SetMaxIdleConns(10)

	// SetMaxOpenConns sets the maximum number of open connections to the database.
	sqlDB.SetMaxOpenConns(100)

	// SetConnMaxLifetime sets the maximum amount of time a connection may be reused.
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// MigrateAllSchemas performs all database migrations in the correct order
func MigrateAllSchemas(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Category{}); err != nil {
		return fmt.Errorf("failed to migrate Category table: %w", err)
	}

	if err := db.AutoMigrate(&model.Feature{}); err != nil {
		return fmt.Errorf("failed to migrate Feature table: %w", err)
	}

	if err := db.AutoMigrate(&model.Widget{}); err != nil {
		return fmt.Errorf("failed to migrate Widget table: %w", err)
	}

	if err := db.AutoMigrate(&model.Order{}); err != nil {
		return fmt.Errorf("failed to migrate Order table: %w", err)
	}

	if err := db.AutoMigrate(&model.OrderItem{}); err != nil {
		return fmt.Errorf("failed to migrate OrderItem table: %w", err)
	}

	if err := createAdditionalIndexes(db); err != nil {
		return fmt.Errorf("failed to create additional indexes: %w", err)
	}

	return nil
}

// createAdditionalIndexes creates additional indexes for performance
func createAdditionalIndexes(db *gorm.DB) error {
	// Widget listings join and sort on the category name
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_categories_name
		ON categories(name)
	`).Error; err != nil {
		return err
	}

	// Feature filters substring-match on the label
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_features_label
		ON features(label)
	`).Error; err != nil {
		return err
	}

	return nil
}

// getEnv gets environment variable with fallback
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
