package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/titanaprilian/authguard/internal/models"
)

type Config struct {
	DB_HOST        string
	DB_PORT        string
	DB_USER        string
	DB_PASSWORD    string
	DB_NAME        string
	SERVER_ADDRESS string
	JWT_SECRET     string
	REFRESH_SECRET string
	ACCESS_TTL     time.Duration
	REFRESH_TTL    time.Duration
	DEFAULT_ROLE   string
	KAFKA_ADDRESS  string
	KAFKA_TOPIC    string
	ES_URL         string
	ES_USER        string
	ES_PASSWORD    string
	ES_INDEX       string
	LOG_LEVEL      string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		DB_HOST:        os.Getenv("DB_HOST"),
		DB_PORT:        os.Getenv("DB_PORT"),
		DB_USER:        os.Getenv("DB_USER"),
		DB_PASSWORD:    os.Getenv("DB_PASSWORD"),
		DB_NAME:        os.Getenv("DB_NAME"),
		SERVER_ADDRESS: getenv("SERVER_ADDRESS", ":8080"),
		JWT_SECRET:     os.Getenv("JWT_SECRET"),
		REFRESH_SECRET: os.Getenv("REFRESH_SECRET"),
		ACCESS_TTL:     minutes("ACCESS_TTL_MINUTES", 15),
		REFRESH_TTL:    hours("REFRESH_TTL_HOURS", 7*24),
		DEFAULT_ROLE:   getenv("DEFAULT_ROLE", "User"),
		KAFKA_ADDRESS:  os.Getenv("KAFKA_ADDRESS"),
		KAFKA_TOPIC:    getenv("KAFKA_TOPIC", "security_events"),
		ES_URL:         os.Getenv("ES_URL"),
		ES_USER:        os.Getenv("ES_USER"),
		ES_PASSWORD:    os.Getenv("ES_PASSWORD"),
		ES_INDEX:       getenv("ES_INDEX", "audit_events"),
		LOG_LEVEL:      os.Getenv("LOG_LEVEL"),
	}

	return config, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func minutes(key string, fallback int) time.Duration {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return time.Duration(v) * time.Minute
	}
	return time.Duration(fallback) * time.Minute
}

func hours(key string, fallback int) time.Duration {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return time.Duration(v) * time.Hour
	}
	return time.Duration(fallback) * time.Hour
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB_USER, cfg.DB_PASSWORD, cfg.DB_HOST, cfg.DB_PORT, cfg.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	if err := Seed(db, cfg.DEFAULT_ROLE); err != nil {
		return nil, fmt.Errorf("db seed: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Role{},
		&models.Feature{},
		&models.RoleFeature{},
	); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}
	return nil
}

// Seed creates the protected role and feature, the default role, and then
// fills in any missing (role, feature) permission rows so the coverage
// invariant holds from the first request.
func Seed(db *gorm.DB, defaultRole string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		super := models.Role{
			Name:         models.ProtectedRoleName,
			Description:  "Built-in role with full access",
			IsPrivileged: true,
		}
		if err := tx.Where("name = ?", super.Name).FirstOrCreate(&super).Error; err != nil {
			return err
		}

		def := models.Role{
			Name:        defaultRole,
			Description: "Default role for self-registered users",
		}
		if err := tx.Where("name = ?", def.Name).FirstOrCreate(&def).Error; err != nil {
			return err
		}

		seedFeatures := []models.Feature{
			{Name: models.ProtectedFeatureName, Description: "Manage roles, features and permissions"},
			{Name: "user_management", Description: "Manage user accounts"},
		}
		for i := range seedFeatures {
			if err := tx.Where("name = ?", seedFeatures[i].Name).FirstOrCreate(&seedFeatures[i]).Error; err != nil {
				return err
			}
		}

		var roles []models.Role
		if err := tx.Find(&roles).Error; err != nil {
			return err
		}
		var features []models.Feature
		if err := tx.Find(&features).Error; err != nil {
			return err
		}

		for _, role := range roles {
			for _, feature := range features {
				row := models.RoleFeature{RoleID: role.ID, FeatureID: feature.ID}
				if role.IsPrivileged {
					row.CanCreate = true
					row.CanRead = true
					row.CanUpdate = true
					row.CanDelete = true
					row.CanPrint = true
				}
				if err := tx.Where("role_id = ? AND feature_id = ?", role.ID, feature.ID).
					FirstOrCreate(&row).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
