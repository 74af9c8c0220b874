package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/config"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/health"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/observability"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/repository/factory"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	Stores        *factory.Factory
	Redis         redis.UniversalClient
	Readiness     *health.ProbeRunner
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	stores *factory.Factory,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
) *App {
	return &App{
		Config:        cfg,
		Logger:        logger,
		Server:        server,
		Observability: runtime,
		Stores:        stores,
		Redis:         redisClient,
		Readiness:     readiness,
	}
}

// Shutdown drains HTTP first, then flushes telemetry, then closes redis and
// the store connection. Each stage gets its own budget inside the total.
func (a *App) Shutdown(ctx context.Context) error {
	totalCtx, cancel := context.WithTimeout(ctx, durationOr(a.Config.ShutdownTimeout, 20*time.Second))
	defer cancel()

	var errs []error
	httpCtx, httpCancel := context.WithTimeout(totalCtx, durationOr(a.Config.ShutdownHTTPDrainTimeout, 10*time.Second))
	if err := a.Server.Shutdown(httpCtx); err != nil {
		a.Logger.Error("failed to shutdown http server", "error", err)
		errs = append(errs, err)
	}
	httpCancel()

	if a.Observability != nil {
		obsCtx, obsCancel := context.WithTimeout(totalCtx, durationOr(a.Config.ShutdownObservabilityTimeout, 8*time.Second))
		if err := a.Observability.Shutdown(obsCtx); err != nil {
			a.Logger.Error("failed to shutdown observability", "error", err)
			errs = append(errs, err)
		}
		obsCancel()
	}

	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("failed to close redis client", "error", err)
			errs = append(errs, err)
		}
	}
	if a.Stores != nil {
		if err := a.Stores.Manager().Disconnect(totalCtx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func durationOr(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
