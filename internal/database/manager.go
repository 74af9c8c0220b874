package database

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/observability"
)

// ErrNotConnected is returned when a handle is requested before Connect.
var ErrNotConnected = errors.New("database not connected")

// Manager owns the connection to one store backend.
type Manager interface {
	Name() string
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	// HealthCheck never fails; any problem is reported as false.
	HealthCheck(ctx context.Context) bool
}

func recordStartup(ctx context.Context, logger *slog.Logger, backend, stage string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordDatabaseStartupEvent(ctx, backend, stage, outcome)
	observability.RecordDatabaseStartupDuration(ctx, backend, stage, time.Since(start))
	if err != nil {
		logger.ErrorContext(ctx, "database "+stage+" failed", "backend", backend, "error", err)
		return
	}
	logger.InfoContext(ctx, "database "+stage+" succeeded", "backend", backend, "duration_ms", time.Since(start).Milliseconds())
}
