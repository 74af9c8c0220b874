package config

import (
	"strings"
	"testing"
	"time"
)

func validDevConfig() *Config {
	return &Config{
		Env:                          "development",
		HTTPPort:                     "5000",
		DatabaseType:                 DatabaseSQLite,
		SQLiteDSN:                    "file::memory:",
		HTTPBodyLimitBytes:           10 << 20,
		RateLimitMax:                 1000,
		RateLimitWindow:              15 * time.Minute,
		OTELTraceSamplingRatio:       1.0,
		OTELMetricsExportInterval:    10 * time.Second,
		OTELLogLevel:                 "info",
		ReadinessProbeTimeout:        time.Second,
		ShutdownTimeout:              20 * time.Second,
		ShutdownHTTPDrainTimeout:     10 * time.Second,
		ShutdownObservabilityTimeout: 8 * time.Second,
	}
}

func TestValidateDevelopmentProfileAllowsEmptyOrigins(t *testing.T) {
	if err := validDevConfig().Validate(); err != nil {
		t.Fatalf("expected development config to pass: %v", err)
	}
}

func TestValidateProductionRequiresOriginAllowList(t *testing.T) {
	cfg := validDevConfig()
	cfg.Env = "production"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "ALLOWED_ORIGINS") {
		t.Fatalf("expected ALLOWED_ORIGINS error, got %v", err)
	}

	cfg.CORSAllowedOrigins = []string{"*"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected wildcard origin to be rejected in production")
	}

	cfg.CORSAllowedOrigins = []string{"https://app.example.com"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected production config to pass: %v", err)
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := validDevConfig()
	cfg.RateLimitMax = 0
	cfg.RateLimitRedisEnabled = true
	cfg.OTELLogLevel = "loud"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"RATE_LIMIT_MAX", "REDIS_ADDR", "OTEL_LOG_LEVEL"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in %q", want, err.Error())
		}
	}
}

func TestValidateShutdownBudget(t *testing.T) {
	cfg := validDevConfig()
	cfg.ShutdownHTTPDrainTimeout = 15 * time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected shutdown budget error")
	}
}

func TestValidateLeavesUnknownDatabaseTypeToFactory(t *testing.T) {
	cfg := validDevConfig()
	cfg.DatabaseType = "cassandra"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unknown database type should not fail config validation: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NODE_ENV", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("RATE_LIMIT_MAX", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Env != "development" || cfg.HTTPPort != "5000" || cfg.DatabaseType != DatabaseMongoDB {
		t.Fatalf("unexpected defaults: env=%q port=%q db=%q", cfg.Env, cfg.HTTPPort, cfg.DatabaseType)
	}
	if cfg.RateLimitMax != 1000 || cfg.RateLimitWindow != 15*time.Minute {
		t.Fatalf("unexpected rate limit defaults: %d per %s", cfg.RateLimitMax, cfg.RateLimitWindow)
	}
	if cfg.MongoURI != "mongodb://localhost:27017" || cfg.MongoDBName != "myapp" {
		t.Fatalf("unexpected mongo defaults: %q %q", cfg.MongoURI, cfg.MongoDBName)
	}
}

func TestLoadProductionRateLimitDefault(t *testing.T) {
	t.Setenv("NODE_ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("RATE_LIMIT_MAX", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RateLimitMax != 100 {
		t.Fatalf("expected production rate limit 100, got %d", cfg.RateLimitMax)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("RATE_LIMIT_WINDOW", "fifteen")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "RATE_LIMIT_WINDOW") {
		t.Fatalf("expected RATE_LIMIT_WINDOW parse error, got %v", err)
	}
}
