package database

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type MongoManager struct {
	cfg    MongoConfig
	logger *slog.Logger

	mu     sync.RWMutex
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoManager(cfg MongoConfig, logger *slog.Logger) *MongoManager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	return &MongoManager{cfg: cfg, logger: logger}
}

func (m *MongoManager) Name() string { return "mongodb" }

// Connect dials and pings the primary. A second call on a live manager is
// a no-op.
func (m *MongoManager) Connect(ctx context.Context) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		return nil
	}

	start := time.Now()
	defer func() { recordStartup(ctx, m.logger, m.Name(), "connect", start, err) }()

	connectCtx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(m.cfg.URI).
		SetServerSelectionTimeout(m.cfg.ConnectTimeout))
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("ping mongodb: %w", err)
	}
	m.client = client
	m.db = client.Database(m.cfg.Database)
	return nil
}

func (m *MongoManager) Disconnect(ctx context.Context) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil
	}
	start := time.Now()
	defer func() { recordStartup(ctx, m.logger, m.Name(), "disconnect", start, err) }()

	err = m.client.Disconnect(ctx)
	m.client = nil
	m.db = nil
	if err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	return nil
}

func (m *MongoManager) Database() (*mongo.Database, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.db == nil {
		return nil, ErrNotConnected
	}
	return m.db, nil
}

func (m *MongoManager) HealthCheck(ctx context.Context) bool {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()
	if client == nil {
		return false
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		m.logger.WarnContext(ctx, "mongodb health check failed", "error", err)
		return false
	}
	return true
}
