package di

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/app"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/config"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/database"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/health"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/http/handler"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/http/middleware"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/http/router"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/observability"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/repository"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/repository/factory"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var StoreSet = wire.NewSet(
	provideMongoManager,
	provideSQLManager,
	provideStoreFactory,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(provideUserRepository)

var ServiceSet = wire.NewSet(
	provideStorageService,
	service.NewUserService,
	wire.Bind(new(service.UserServiceInterface), new(*service.UserService)),
)

var HTTPSet = wire.NewSet(
	handler.NewUserHandler,
	provideHealthHandler,
	provideRateLimiter,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(app.New)

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

// provideMongoManager returns nil unless the document backend is selected.
func provideMongoManager(cfg *config.Config, logger *slog.Logger) *database.MongoManager {
	if cfg.DatabaseType != factory.BackendMongoDB {
		return nil
	}
	return database.NewMongoManager(database.MongoConfig{
		URI:            cfg.MongoURI,
		Database:       cfg.MongoDBName,
		ConnectTimeout: cfg.MongoConnectTimeout,
	}, logger)
}

// provideSQLManager returns nil unless a relational backend is selected.
func provideSQLManager(cfg *config.Config, logger *slog.Logger) *database.SQLManager {
	switch cfg.DatabaseType {
	case factory.BackendPostgreSQL, factory.BackendSQLite:
	default:
		return nil
	}
	return database.NewSQLManager(database.SQLConfig{
		Dialect:         cfg.DatabaseType,
		Host:            cfg.PGHost,
		Port:            cfg.PGPort,
		User:            cfg.PGUser,
		Password:        cfg.PGPassword,
		Database:        cfg.PGDatabase,
		SSL:             cfg.PGSSL,
		MaxConns:        cfg.PGMaxConns,
		MinConns:        cfg.PGMinConns,
		MaxConnLifetime: cfg.PGMaxConnLifetime,
		SQLiteDSN:       cfg.SQLiteDSN,
	}, logger)
}

// provideStoreFactory selects the backend, connects it and brings the schema
// up to date before any repository is handed out.
func provideStoreFactory(cfg *config.Config, mongo *database.MongoManager, sql *database.SQLManager) (*factory.Factory, error) {
	f, err := factory.New(cfg.DatabaseType, mongo, sql)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	if err := f.Manager().Connect(ctx); err != nil {
		return nil, err
	}
	if err := f.EnsureSchema(ctx); err != nil {
		_ = f.Manager().Disconnect(ctx)
		return nil, err
	}
	return f, nil
}

// OpenStores builds and connects the configured backend outside the wire
// graph, for tools that only need repositories.
func OpenStores(cfg *config.Config, logger *slog.Logger) (*factory.Factory, error) {
	return provideStoreFactory(cfg, provideMongoManager(cfg, logger), provideSQLManager(cfg, logger))
}

func provideUserRepository(f *factory.Factory) (repository.UserRepository, error) {
	return f.UserRepository()
}

func provideRedisClient(cfg *config.Config, logger *slog.Logger) redis.UniversalClient {
	if !cfg.RateLimitRedisEnabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	observability.InstrumentRedisClient(client, logger)
	return client
}

// provideStorageService yields a nil StorageService when avatar storage is
// disabled; the user service then rejects avatar operations.
func provideStorageService(cfg *config.Config) (service.StorageService, error) {
	if !cfg.StorageEnabled {
		return nil, nil
	}
	storage, err := service.NewMinIOStorageService(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL)
	if err != nil {
		return nil, err
	}
	return storage, nil
}

func provideReadinessProbeRunner(cfg *config.Config, stores *factory.Factory, redisClient redis.UniversalClient) *health.ProbeRunner {
	checkers := []health.Checker{health.NewStoreChecker(stores.Manager())}
	if cfg.RateLimitRedisEnabled {
		checkers = append(checkers, health.NewRedisChecker(redisClient))
	}
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ServerStartGracePeriod, checkers...)
}

func provideHealthHandler(cfg *config.Config, readiness *health.ProbeRunner) *handler.HealthHandler {
	return handler.NewHealthHandler(cfg.Env, readiness)
}

// provideRateLimiter returns nil (no limiting) for services that are not
// exposed externally.
func provideRateLimiter(cfg *config.Config, redisClient redis.UniversalClient, logger *slog.Logger) router.RateLimiterFunc {
	if cfg.InternalServiceNoExposure {
		logger.Info("internal service mode: rate limiting disabled")
		return nil
	}
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		limiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix+":api")
		return middleware.NewDistributedRateLimiter(limiter, cfg.RateLimitMax, cfg.RateLimitWindow, middleware.FailOpen, "api").Middleware()
	}
	return middleware.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow).Middleware()
}

func provideRouterDependencies(
	userHandler *handler.UserHandler,
	healthHandler *handler.HealthHandler,
	rateLimiter router.RateLimiterFunc,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		UserHandler:   userHandler,
		HealthHandler: healthHandler,
		CORS: middleware.CORSConfig{
			AllowAnyOrigin: !cfg.IsProduction(),
			AllowedOrigins: cfg.CORSAllowedOrigins,
		},
		BodyLimit:      cfg.HTTPBodyLimitBytes,
		RateLimiter:    rateLimiter,
		EnableOTelHTTP: cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
