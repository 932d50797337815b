package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-at-least-16-chars")
	t.Setenv("DB_PASSWORD", "postgres")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Auth.AccessTokenExpiry != 30*time.Minute {
		t.Errorf("token expiry default: got %v", cfg.Auth.AccessTokenExpiry)
	}
	if cfg.Auth.BcryptCost != 12 {
		t.Errorf("bcrypt cost default: got %d", cfg.Auth.BcryptCost)
	}
	if cfg.RateLimit.CallsPerMinute != 60 || cfg.RateLimit.CallsPerHour != 1000 || cfg.RateLimit.BurstLimit != 10 {
		t.Errorf("rate limit defaults: got %+v", cfg.RateLimit)
	}
	if cfg.Database.MaxRetries != 3 || cfg.Database.RetryBaseDelay != time.Second {
		t.Errorf("retry defaults: got max=%d base=%v", cfg.Database.MaxRetries, cfg.Database.RetryBaseDelay)
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "postgres")

	if _, err := Load(); err == nil {
		t.Error("expected error when JWT_SECRET is missing")
	}
}

func TestLoad_ShortJWTSecretRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("DB_PASSWORD", "postgres")

	if _, err := Load(); err == nil {
		t.Error("expected error for short JWT secret")
	}
}

func TestLoad_ProductionRequiresLongerSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "exactly-20-chars-abc")
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("ENV", "production")

	if _, err := Load(); err == nil {
		t.Error("expected error: production requires a 32+ char secret")
	}
}

func TestLoad_UnsupportedAlgorithm(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_ALGORITHM", "RS256")

	if _, err := Load(); err == nil {
		t.Error("expected error for unsupported algorithm")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RATE_LIMIT_PER_MINUTE", "3")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "15m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RateLimit.CallsPerMinute != 3 {
		t.Errorf("rate limit override: got %d", cfg.RateLimit.CallsPerMinute)
	}
	if cfg.Auth.AccessTokenExpiry != 15*time.Minute {
		t.Errorf("token expiry override: got %v", cfg.Auth.AccessTokenExpiry)
	}
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "postgres",
		Password: "pw", Name: "carddemo", SSLMode: "disable",
	}
	want := "host=localhost port=5432 user=postgres password=pw dbname=carddemo sslmode=disable"
	if got := db.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
