package observability

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/config"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func recordEveryMetric(ctx context.Context) {
	RecordRepositoryOperation(ctx, "user", "find_by_id", "success")
	RecordUserOperation(ctx, "create_user", "success", 12*time.Millisecond)
	RecordAvatarStorageEvent(ctx, "upload", "success")
	RecordDatabaseStartupEvent(ctx, "mongodb", "connect", "success")
	RecordDatabaseStartupDuration(ctx, "mongodb", "connect", 30*time.Millisecond)
	RecordHealthCheckResult(ctx, "store", "ready")
	RecordHealthCheckDuration(ctx, "store", 5*time.Millisecond)
	RecordRateLimitDecision(ctx, "api", "allow", "local")
	RecordRateLimitRetryAfter(ctx, "api", time.Second)
	RecordMiddlewareValidationEvent(ctx, "cors", "pass")
	RecordToolCommandRun(ctx, "seed", "apply", "success")
	RecordToolCommandDuration(ctx, "seed", "apply", "success", 40*time.Millisecond)
	RecordLoadgenRequest(ctx, "2xx", "read")
}

func TestRecordMetricHelpersNoPanicWhenUninitialized(t *testing.T) {
	metricsMu.Lock()
	appMetrics = nil
	metricsMu.Unlock()

	recordEveryMetric(context.Background())
}

func TestRecordMetricHelpersEmitExpectedLabelCardinality(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(ctx) }()

	m, err := newAppMetrics(provider.Meter("observability-test"))
	if err != nil {
		t.Fatalf("new app metrics: %v", err)
	}
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()
	defer func() {
		metricsMu.Lock()
		appMetrics = nil
		metricsMu.Unlock()
	}()

	recordEveryMetric(ctx)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}

	expected := map[string]int{
		"repository.operations":             3,
		"user.operation.events":             2,
		"user.operation.duration":           2,
		"avatar.storage.events":             2,
		"database.startup.events":           3,
		"database.startup.duration":         2,
		"health.check.results":              2,
		"health.check.duration":             1,
		"http.rate_limit.decisions":         3,
		"http.rate_limit.retry_after":       1,
		"http.middleware.validation.events": 2,
		"tool.command.runs":                 3,
		"tool.command.duration":             3,
		"loadgen.requests":                  2,
	}

	observed := collectLabelCardinality(t, rm)
	for metricName, want := range expected {
		got, ok := observed[metricName]
		if !ok {
			t.Fatalf("missing metric datapoint for %s", metricName)
		}
		if got != want {
			t.Fatalf("metric %s label cardinality mismatch: got=%d want=%d", metricName, got, want)
		}
	}
}

func TestInitMetricsDisabledReturnsProvider(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{OTELMetricsEnabled: false}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mp, err := InitMetrics(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("init metrics disabled: %v", err)
	}
	if mp == nil {
		t.Fatal("expected non-nil meter provider")
	}
	_ = mp.Shutdown(ctx)
}

func collectLabelCardinality(t *testing.T, rm metricdata.ResourceMetrics) map[string]int {
	t.Helper()
	out := map[string]int{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if len(data.DataPoints) > 0 {
					out[m.Name] = data.DataPoints[0].Attributes.Len()
				}
			case metricdata.Sum[float64]:
				if len(data.DataPoints) > 0 {
					out[m.Name] = data.DataPoints[0].Attributes.Len()
				}
			case metricdata.Histogram[int64]:
				if len(data.DataPoints) > 0 {
					out[m.Name] = data.DataPoints[0].Attributes.Len()
				}
			case metricdata.Histogram[float64]:
				if len(data.DataPoints) > 0 {
					out[m.Name] = data.DataPoints[0].Attributes.Len()
				}
			}
		}
	}
	return out
}
