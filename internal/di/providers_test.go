package di

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/config"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/repository/factory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DatabaseType:          factory.BackendSQLite,
		SQLiteDSN:             fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
		ReadinessProbeTimeout: time.Second,
	}
}

func TestProvideHTTPServer(t *testing.T) {
	cfg := &config.Config{HTTPPort: "9999"}
	srv := provideHTTPServer(cfg, nil)
	if srv.Addr != ":9999" {
		t.Fatalf("unexpected addr: %s", srv.Addr)
	}
	if srv.ReadHeaderTimeout != 5*time.Second {
		t.Fatalf("unexpected read header timeout: %v", srv.ReadHeaderTimeout)
	}
}

func TestProvideRouterDependenciesCORS(t *testing.T) {
	dev := &config.Config{Env: "development", HTTPBodyLimitBytes: 1024, OTELTracingEnabled: true}
	dep := provideRouterDependencies(nil, nil, nil, dev)
	if !dep.CORS.AllowAnyOrigin {
		t.Fatal("expected any origin outside production")
	}
	if dep.BodyLimit != 1024 {
		t.Fatalf("unexpected body limit: %d", dep.BodyLimit)
	}
	if !dep.EnableOTelHTTP {
		t.Fatal("expected otel http enabled")
	}

	prod := &config.Config{Env: "production", CORSAllowedOrigins: []string{"https://app.example.com"}}
	dep = provideRouterDependencies(nil, nil, nil, prod)
	if dep.CORS.AllowAnyOrigin {
		t.Fatal("production must use the allow-list")
	}
	if len(dep.CORS.AllowedOrigins) != 1 || dep.CORS.AllowedOrigins[0] != "https://app.example.com" {
		t.Fatalf("unexpected origins: %+v", dep.CORS.AllowedOrigins)
	}
	if dep.EnableOTelHTTP {
		t.Fatal("expected otel http disabled")
	}
}

func TestProvideRateLimiterInternalServiceDisablesLimiting(t *testing.T) {
	cfg := &config.Config{InternalServiceNoExposure: true, RateLimitMax: 1, RateLimitWindow: time.Minute}
	if rl := provideRateLimiter(cfg, nil, discardLogger()); rl != nil {
		t.Fatal("expected no limiter for internal services")
	}
}

func TestProvideRateLimiterLocal(t *testing.T) {
	cfg := &config.Config{RateLimitMax: 1, RateLimitWindow: time.Minute}
	rl := provideRateLimiter(cfg, nil, discardLogger())
	if rl == nil {
		t.Fatal("expected limiter")
	}
	h := rl(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence: %v", codes)
	}
}

func TestProvideRateLimiterRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{RateLimitRedisEnabled: true, RateLimitRedisPrefix: "rl", RateLimitMax: 1, RateLimitWindow: time.Minute}
	h := provideRateLimiter(cfg, client, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i, want := range []int{http.StatusNoContent, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, rr.Code)
		}
	}
	if len(mr.Keys()) == 0 {
		t.Fatal("expected counters in redis")
	}
}

func TestProvideRedisClientDisabled(t *testing.T) {
	if c := provideRedisClient(&config.Config{}, discardLogger()); c != nil {
		t.Fatal("expected nil client when redis is disabled")
	}
}

func TestProvideManagersFollowDatabaseType(t *testing.T) {
	cfg := sqliteConfig(t)
	if m := provideMongoManager(cfg, discardLogger()); m != nil {
		t.Fatal("expected no mongo manager for sqlite")
	}
	sql := provideSQLManager(cfg, discardLogger())
	if sql == nil || sql.Name() != factory.BackendSQLite {
		t.Fatalf("unexpected sql manager: %+v", sql)
	}

	mongoCfg := &config.Config{DatabaseType: factory.BackendMongoDB, MongoURI: "mongodb://localhost:27017", MongoDBName: "test"}
	if m := provideMongoManager(mongoCfg, discardLogger()); m == nil {
		t.Fatal("expected mongo manager")
	}
	if m := provideSQLManager(mongoCfg, discardLogger()); m != nil {
		t.Fatal("expected no sql manager for mongodb")
	}
}

func TestProvideStoreFactorySQLite(t *testing.T) {
	cfg := sqliteConfig(t)
	f, err := provideStoreFactory(cfg, nil, provideSQLManager(cfg, discardLogger()))
	if err != nil {
		t.Fatalf("provide factory: %v", err)
	}
	t.Cleanup(func() { _ = f.Manager().Disconnect(context.Background()) })

	repo, err := provideUserRepository(f)
	if err != nil {
		t.Fatalf("user repository: %v", err)
	}
	n, err := repo.Count(context.Background(), nil)
	if err != nil {
		t.Fatalf("count on fresh schema: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected empty table, got %d", n)
	}

	probes := provideReadinessProbeRunner(cfg, f, nil)
	ready, results := probes.Ready(context.Background())
	if !ready || len(results) != 1 || results[0].Name != "store:sqlite" {
		t.Fatalf("unexpected readiness: ready=%v results=%+v", ready, results)
	}
}

func TestProvideStoreFactoryRejectsUnknownBackend(t *testing.T) {
	cfg := &config.Config{DatabaseType: "cassandra"}
	if _, err := provideStoreFactory(cfg, nil, nil); err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestProvideStorageServiceDisabled(t *testing.T) {
	svc, err := provideStorageService(&config.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc != nil {
		t.Fatal("expected nil storage when disabled")
	}
}
