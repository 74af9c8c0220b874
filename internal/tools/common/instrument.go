package common

import (
	"context"
	"time"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/observability"
)

// Instrument wraps a tool action so every run records its outcome and
// duration.
func Instrument(tool, command string, fn func(context.Context) ([]string, error)) func(context.Context) ([]string, error) {
	return func(ctx context.Context) ([]string, error) {
		start := time.Now()
		details, err := fn(ctx)
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		observability.RecordToolCommandRun(ctx, tool, command, outcome)
		observability.RecordToolCommandDuration(ctx, tool, command, outcome, time.Since(start))
		return details, err
	}
}
