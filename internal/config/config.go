package config

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/youredik/kubik/internal/hash"
	"github.com/youredik/kubik/internal/models"
)

type Config struct {
	LISTEN_ADDR              string
	DB_PATH                  string
	UPLOAD_DIR               string
	JWT_SECRET               string
	REFRESH_SECRET           string
	ADMIN_USERNAME           string
	ADMIN_PASSWORD           string
	KAFKA_ADDRESS            string
	ES_URL                   string
	ES_USER                  string
	ES_PASSWORD              string
	TELEGRAM_BOT_TOKEN       string
	TELEGRAM_CHAT_ID         string
	LOG_LEVEL                string
	REQUIRE_DELIVERY_ADDRESS bool
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		LISTEN_ADDR:              getEnvDefault("LISTEN_ADDR", ":8080"),
		DB_PATH:                  getEnvDefault("DB_PATH", "dev.db"),
		UPLOAD_DIR:               getEnvDefault("UPLOAD_DIR", "public/uploads"),
		JWT_SECRET:               os.Getenv("JWT_SECRET"),
		REFRESH_SECRET:           os.Getenv("REFRESH_SECRET"),
		ADMIN_USERNAME:           getEnvDefault("ADMIN_USERNAME", "admin"),
		ADMIN_PASSWORD:           os.Getenv("ADMIN_PASSWORD"),
		KAFKA_ADDRESS:            os.Getenv("KAFKA_ADDRESS"),
		ES_URL:                   os.Getenv("ES_URL"),
		ES_USER:                  os.Getenv("ES_USER"),
		ES_PASSWORD:              os.Getenv("ES_PASSWORD"),
		TELEGRAM_BOT_TOKEN:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TELEGRAM_CHAT_ID:         os.Getenv("TELEGRAM_CHAT_ID"),
		LOG_LEVEL:                getEnvDefault("LOG_LEVEL", "info"),
		REQUIRE_DELIVERY_ADDRESS: os.Getenv("REQUIRE_DELIVERY_ADDRESS") == "true",
	}

	return config, nil
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// InitDB opens the local database file, migrates the schema and seeds
// reference data. The store is fully ready when InitDB returns; nothing is
// lazily initialized per request.
func InitDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.DB_PATH), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.DB_PATH, err)
	}
	if err := db.AutoMigrate(
		&models.Product{},
		&models.Size{},
		&models.Order{},
		&models.OrderItem{},
		&models.User{},
		&models.RefreshToken{},
	); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	if err := SeedSizes(db); err != nil {
		return nil, err
	}
	if err := SeedAdmin(db, cfg.ADMIN_USERNAME, cfg.ADMIN_PASSWORD); err != nil {
		return nil, err
	}

	return db, nil
}

// SeedSizes inserts the fixed print-size catalog once. Existing rows keep
// their (admin-edited) prices.
func SeedSizes(db *gorm.DB) error {
	sizes := []models.Size{
		{ID: "10x15", Label: "10×15", Price: 100},
		{ID: "15x20", Label: "15×20", Price: 150},
		{ID: "20x30", Label: "20×30", Price: 250},
		{ID: "30x40", Label: "30×40", Price: 300},
	}

	for _, size := range sizes {
		var existing models.Size
		err := db.Where("id = ?", size.ID).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("seed sizes: %w", err)
		}
		if err := db.Create(&size).Error; err != nil {
			return fmt.Errorf("seed sizes: %w", err)
		}
	}
	return nil
}

// SeedAdmin creates the admin account when the users table is empty.
// Skipped without an ADMIN_PASSWORD so tests and dev setups can run
// without credentials.
func SeedAdmin(db *gorm.DB, username, password string) error {
	if password == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if count > 0 {
		return nil
	}

	passwordHash, err := hash.HashPassword(password)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	admin := models.User{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         "admin",
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}
