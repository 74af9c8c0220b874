package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DatabaseMongoDB    = "mongodb"
	DatabasePostgreSQL = "postgresql"
	DatabaseSQLite     = "sqlite"
)

type Config struct {
	Env      string
	HTTPPort string

	DatabaseType string

	MongoURI            string
	MongoDBName         string
	MongoConnectTimeout time.Duration

	PGHost            string
	PGPort            int
	PGUser            string
	PGPassword        string
	PGDatabase        string
	PGSSL             bool
	PGMaxConns        int32
	PGMinConns        int32
	PGMaxConnLifetime time.Duration

	SQLiteDSN string

	CORSAllowedOrigins        []string
	InternalServiceNoExposure bool
	HTTPBodyLimitBytes        int64

	RateLimitMax          int
	RateLimitWindow       time.Duration
	RateLimitRedisEnabled bool
	RateLimitRedisPrefix  string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int

	StorageEnabled bool
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	ReadinessProbeTimeout        time.Duration
	ServerStartGracePeriod       time.Duration
	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string
}

func Load() (*Config, error) {
	env := strings.ToLower(getEnv("NODE_ENV", getEnv("APP_ENV", "development")))
	defaultRateLimit := 1000
	if env == "production" {
		defaultRateLimit = 100
	}

	cfg := &Config{
		Env:          env,
		HTTPPort:     getEnv("PORT", "5000"),
		DatabaseType: strings.ToLower(strings.TrimSpace(getEnv("DATABASE_TYPE", DatabaseMongoDB))),

		MongoURI:    getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGODB_DB_NAME", "myapp"),

		PGHost:     getEnv("PG_HOST", "localhost"),
		PGPort:     getEnvInt("PG_PORT", 5432),
		PGUser:     getEnv("PG_USERNAME", "postgres"),
		PGPassword: getEnv("PG_PASSWORD", "password"),
		PGDatabase: getEnv("PG_DATABASE", "myapp"),
		PGSSL:      getEnvBool("PG_SSL", false),
		PGMaxConns: int32(getEnvInt("PG_MAX_CONNS", 10)),
		PGMinConns: int32(getEnvInt("PG_MIN_CONNS", 1)),

		SQLiteDSN: getEnv("SQLITE_DSN", "file:pluggable-store.db?cache=shared"),

		CORSAllowedOrigins:        splitCSV(os.Getenv("ALLOWED_ORIGINS")),
		InternalServiceNoExposure: getEnvBool("INTERNAL_SERVICE_NO_EXPOSURE", false),
		HTTPBodyLimitBytes:        int64(getEnvInt("HTTP_BODY_LIMIT_BYTES", 10<<20)),

		RateLimitMax:          getEnvInt("RATE_LIMIT_MAX", defaultRateLimit),
		RateLimitRedisEnabled: getEnvBool("RATE_LIMIT_REDIS_ENABLED", false),
		RateLimitRedisPrefix:  getEnv("RATE_LIMIT_REDIS_PREFIX", "rl"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               getEnvInt("REDIS_DB", 0),

		StorageEnabled: getEnvBool("STORAGE_ENABLED", false),
		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:    getEnv("MINIO_BUCKET", "avatars"),
		MinIOUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "pluggable-store-backend-starter-kit"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", false),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", false),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", false),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"MONGODB_CONNECT_TIMEOUT", "10s", &cfg.MongoConnectTimeout},
		{"PG_MAX_CONN_LIFETIME", "30m", &cfg.PGMaxConnLifetime},
		{"RATE_LIMIT_WINDOW", "15m", &cfg.RateLimitWindow},
		{"READINESS_PROBE_TIMEOUT", "1s", &cfg.ReadinessProbeTimeout},
		{"SERVER_START_GRACE_PERIOD", "2s", &cfg.ServerStartGracePeriod},
		{"SHUTDOWN_TIMEOUT", "20s", &cfg.ShutdownTimeout},
		{"SHUTDOWN_HTTP_DRAIN_TIMEOUT", "10s", &cfg.ShutdownHTTPDrainTimeout},
		{"SHUTDOWN_OBSERVABILITY_TIMEOUT", "8s", &cfg.ShutdownObservabilityTimeout},
		{"OTEL_METRICS_EXPORT_INTERVAL", "10s", &cfg.OTELMetricsExportInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

// Validate reports every problem at once. The database type itself is only
// normalized here; the repository factory rejects unsupported values.
func (c *Config) Validate() error {
	var errs []string
	if strings.TrimSpace(c.HTTPPort) == "" {
		errs = append(errs, "PORT is required")
	}
	if c.DatabaseType == "" {
		errs = append(errs, "DATABASE_TYPE is required")
	}
	switch c.DatabaseType {
	case DatabaseMongoDB:
		if c.MongoURI == "" {
			errs = append(errs, "MONGODB_URI is required when DATABASE_TYPE=mongodb")
		}
		if c.MongoDBName == "" {
			errs = append(errs, "MONGODB_DB_NAME is required when DATABASE_TYPE=mongodb")
		}
		if c.MongoConnectTimeout <= 0 {
			errs = append(errs, "MONGODB_CONNECT_TIMEOUT must be > 0")
		}
	case DatabasePostgreSQL:
		if c.PGHost == "" || c.PGDatabase == "" || c.PGUser == "" {
			errs = append(errs, "PG_HOST, PG_USERNAME and PG_DATABASE are required when DATABASE_TYPE=postgresql")
		}
		if c.PGPort <= 0 || c.PGPort > 65535 {
			errs = append(errs, "PG_PORT must be between 1 and 65535")
		}
		if c.PGMaxConns <= 0 || c.PGMinConns < 0 || c.PGMinConns > c.PGMaxConns {
			errs = append(errs, "PG_MIN_CONNS must be between 0 and PG_MAX_CONNS, and PG_MAX_CONNS must be > 0")
		}
	case DatabaseSQLite:
		if c.SQLiteDSN == "" {
			errs = append(errs, "SQLITE_DSN is required when DATABASE_TYPE=sqlite")
		}
	}
	if c.IsProduction() {
		if len(c.CORSAllowedOrigins) == 0 {
			errs = append(errs, "ALLOWED_ORIGINS is required in production")
		}
		for _, origin := range c.CORSAllowedOrigins {
			if origin == "*" {
				errs = append(errs, "ALLOWED_ORIGINS must not contain * in production")
				break
			}
		}
	}
	if c.HTTPBodyLimitBytes <= 0 {
		errs = append(errs, "HTTP_BODY_LIMIT_BYTES must be > 0")
	}
	if c.RateLimitMax <= 0 {
		errs = append(errs, "RATE_LIMIT_MAX must be > 0")
	}
	if c.RateLimitWindow <= 0 {
		errs = append(errs, "RATE_LIMIT_WINDOW must be > 0")
	}
	if c.RateLimitRedisEnabled && c.RedisAddr == "" {
		errs = append(errs, "REDIS_ADDR is required when RATE_LIMIT_REDIS_ENABLED=true")
	}
	if c.StorageEnabled && (c.MinIOEndpoint == "" || c.MinIOAccessKey == "" || c.MinIOSecretKey == "" || c.MinIOBucket == "") {
		errs = append(errs, "MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_BUCKET are required when STORAGE_ENABLED=true")
	}
	if c.ReadinessProbeTimeout <= 0 {
		errs = append(errs, "READINESS_PROBE_TIMEOUT must be > 0")
	}
	if c.ServerStartGracePeriod < 0 {
		errs = append(errs, "SERVER_START_GRACE_PERIOD must be >= 0")
	}
	if c.ShutdownTimeout <= 0 || c.ShutdownHTTPDrainTimeout <= 0 || c.ShutdownObservabilityTimeout <= 0 {
		errs = append(errs, "shutdown timeouts must be > 0")
	} else if c.ShutdownHTTPDrainTimeout+c.ShutdownObservabilityTimeout > c.ShutdownTimeout {
		errs = append(errs, "SHUTDOWN_HTTP_DRAIN_TIMEOUT + SHUTDOWN_OBSERVABILITY_TIMEOUT must not exceed SHUTDOWN_TIMEOUT")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if c.OTELMetricsExportInterval <= 0 {
		errs = append(errs, "OTEL_METRICS_EXPORT_INTERVAL must be > 0")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func isValidLogLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
