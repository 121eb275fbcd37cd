package database

import (
	"fmt"
	"os"

	"nazigi-sms/logger"
	"nazigi-sms/models/broadcast"
	"nazigi-sms/models/log"
	"nazigi-sms/models/passenger"
	"nazigi-sms/models/response"
	"nazigi-sms/models/smslog"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitDB initializes the database connection with auto migration and indexing
func InitDB() (*gorm.DB, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Warning("No .env file found, using environment variables")
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	database := os.Getenv("DB_DATABASE")
	user := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	sslmode := os.Getenv("DB_SSLMODE") // Optional: "disable", "require", etc.

	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, database, sslmode)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the database")

	if err := Migrate(DB); err != nil {
		logger.Error("Failed to run migrations", err)
		return nil, err
	}
	logger.Success("All migrations completed successfully")

	if err := createIndexes(); err != nil {
		logger.Error("Failed to create indexes", err)
		return nil, err
	}
	logger.Success("All indexes created successfully")

	return DB, nil
}

// Migrate runs auto migration for all models in dependency order.
func Migrate(db *gorm.DB) error {
	// Stage 1: tables without foreign keys
	stage1Models := []interface{}{
		&passenger.Passenger{},
		&broadcast.Broadcast{},
	}

	for _, model := range stage1Models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 2: tables referencing stage 1
	stage2Models := []interface{}{
		&response.PassengerResponse{},
	}

	for _, model := range stage2Models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Audit tables
	auditModels := []interface{}{
		&smslog.SMSLog{},
		&log.Log{},
	}

	for _, model := range auditModels {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	return nil
}

// createIndexes creates additional indexes for better performance
func createIndexes() error {
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_passengers_opted_in ON passengers(opted_in)").Error; err != nil {
		return fmt.Errorf("failed to create passenger opted_in index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_passenger_responses_responded_at ON passenger_responses(responded_at)").Error; err != nil {
		return fmt.Errorf("failed to create response responded_at index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_conductor_messages_sent_at ON conductor_messages(sent_at)").Error; err != nil {
		return fmt.Errorf("failed to create broadcast sent_at index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_sms_logs_direction ON sms_logs(direction)").Error; err != nil {
		return fmt.Errorf("failed to create sms_log direction index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_sms_logs_created_at ON sms_logs(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create sms_log created_at index: %w", err)
	}

	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
