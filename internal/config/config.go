package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Listings   ListingsConfig
	Upload     UploadConfig
	Geocode    GeocodeConfig
	Auth       AuthConfig
	Logging    LoggingConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, used when set
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
}

// ListingsConfig holds pagination limits for listing queries
type ListingsConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// UploadConfig holds the cloud image-hosting collaborator configuration
type UploadConfig struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// GeocodeConfig holds the reverse-geocoding collaborator configuration
type GeocodeConfig struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// AuthConfig holds JWT settings for owner-scoped endpoints
type AuthConfig struct {
	JWTSecret string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "carappx"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Listings: ListingsConfig{
			DefaultLimit: getEnvAsInt("LISTINGS_DEFAULT_LIMIT", 20),
			MaxLimit:     getEnvAsInt("LISTINGS_MAX_LIMIT", 100),
		},
		Upload: UploadConfig{
			BaseURL:        getEnv("UPLOAD_BASE_URL", "https://api.imgbb.com/1/upload"),
			APIKey:         getEnv("UPLOAD_API_KEY", ""),
			TimeoutSeconds: getEnvAsInt("UPLOAD_TIMEOUT", 30),
		},
		Geocode: GeocodeConfig{
			BaseURL:        getEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org/reverse"),
			APIKey:         getEnv("GEOCODE_API_KEY", ""),
			TimeoutSeconds: getEnvAsInt("GEOCODE_TIMEOUT", 10),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}
