package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Encryption EncryptionConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	MaxRetries        int
	RetryBaseDelay    time.Duration
}

type ServerConfig struct {
	Port       string
	Env        string
	LogLevel   string
	AppName    string
	AppVersion string
}

type AuthConfig struct {
	JWTSecret         string
	Algorithm         string
	AccessTokenExpiry time.Duration
	BcryptCost        int
}

type RateLimitConfig struct {
	CallsPerMinute  int
	CallsPerHour    int
	BurstLimit      int
	CleanupInterval time.Duration
}

type EncryptionConfig struct {
	// Key is the secret the field-encryption key is derived from. Empty means
	// a temporary key is generated at startup (development only).
	Key string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "carddemo"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
			MaxRetries:        getEnvAsInt("DB_MAX_RETRIES", 3),
			RetryBaseDelay:    getEnvAsDuration("DB_RETRY_BASE_DELAY", 1*time.Second),
		},
		Server: ServerConfig{
			Port:       getEnv("PORT", "8080"),
			Env:        env,
			LogLevel:   getEnv("LOG_LEVEL", "info"),
			AppName:    getEnv("APP_NAME", "CardDemo API"),
			AppVersion: getEnv("APP_VERSION", "1.0.0"),
		},
		Auth: AuthConfig{
			JWTSecret:         jwtSecret,
			Algorithm:         getEnv("JWT_ALGORITHM", "HS256"),
			AccessTokenExpiry: getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 30*time.Minute),
			BcryptCost:        getEnvAsInt("BCRYPT_COST", 12),
		},
		RateLimit: RateLimitConfig{
			CallsPerMinute:  getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
			CallsPerHour:    getEnvAsInt("RATE_LIMIT_PER_HOUR", 1000),
			BurstLimit:      getEnvAsInt("RATE_LIMIT_BURST", 10),
			CleanupInterval: getEnvAsDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		},
		Encryption: EncryptionConfig{
			Key: getEnv("ENCRYPTION_KEY", ""),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if cfg.Auth.Algorithm != "HS256" {
		return nil, fmt.Errorf("unsupported JWT_ALGORITHM %q, only HS256 is supported", cfg.Auth.Algorithm)
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for the JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
