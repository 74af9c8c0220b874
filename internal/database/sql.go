package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DialectPostgres = "postgresql"
	DialectSQLite   = "sqlite"
)

type SQLConfig struct {
	Dialect string

	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSL      bool

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration

	SQLiteDSN string
}

// PostgresDSN renders the connection URL; credentials are escaped.
func (c SQLConfig) PostgresDSN() string {
	sslMode := "disable"
	if c.SSL {
		sslMode = "require"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}
	return u.String()
}

type SQLManager struct {
	cfg    SQLConfig
	logger *slog.Logger

	mu    sync.RWMutex
	db    *gorm.DB
	sqlDB *sql.DB
	pool  *pgxpool.Pool
}

func NewSQLManager(cfg SQLConfig, logger *slog.Logger) *SQLManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLManager{cfg: cfg, logger: logger}
}

func (m *SQLManager) Name() string { return m.cfg.Dialect }

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}
}

// Connect opens the pool for the configured dialect. A second call on a
// live manager is a no-op.
func (m *SQLManager) Connect(ctx context.Context) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db != nil {
		return nil
	}

	start := time.Now()
	defer func() { recordStartup(ctx, m.logger, m.Name(), "connect", start, err) }()

	switch m.cfg.Dialect {
	case DialectPostgres:
		return m.connectPostgres(ctx)
	case DialectSQLite:
		return m.connectSQLite()
	default:
		return fmt.Errorf("unsupported sql dialect %q", m.cfg.Dialect)
	}
}

func (m *SQLManager) connectPostgres(ctx context.Context) error {
	poolCfg, err := pgxpool.ParseConfig(m.cfg.PostgresDSN())
	if err != nil {
		return fmt.Errorf("parse postgres config: %w", err)
	}
	if m.cfg.MaxConns > 0 {
		poolCfg.MaxConns = m.cfg.MaxConns
	}
	poolCfg.MinConns = m.cfg.MinConns
	if m.cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = m.cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("create postgres pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig())
	if err != nil {
		_ = sqlDB.Close()
		pool.Close()
		return fmt.Errorf("open gorm postgres: %w", err)
	}
	m.pool = pool
	m.sqlDB = sqlDB
	m.db = db
	return nil
}

func (m *SQLManager) connectSQLite() error {
	db, err := gorm.Open(sqlite.Open(m.cfg.SQLiteDSN), gormConfig())
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("sqlite handle: %w", err)
	}
	// sqlite allows a single writer
	sqlDB.SetMaxOpenConns(1)
	m.sqlDB = sqlDB
	m.db = db
	return nil
}

func (m *SQLManager) Disconnect(ctx context.Context) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil
	}
	start := time.Now()
	defer func() { recordStartup(ctx, m.logger, m.Name(), "disconnect", start, err) }()

	if m.sqlDB != nil {
		err = m.sqlDB.Close()
	}
	if m.pool != nil {
		m.pool.Close()
	}
	m.db, m.sqlDB, m.pool = nil, nil, nil
	if err != nil {
		return fmt.Errorf("close %s: %w", m.cfg.Dialect, err)
	}
	return nil
}

func (m *SQLManager) DB() (*gorm.DB, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.db == nil {
		return nil, ErrNotConnected
	}
	return m.db, nil
}

func (m *SQLManager) HealthCheck(ctx context.Context) bool {
	m.mu.RLock()
	db := m.db
	m.mu.RUnlock()
	if db == nil {
		return false
	}
	var one int
	if err := db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		m.logger.WarnContext(ctx, "sql health check failed", "backend", m.Name(), "error", err)
		return false
	}
	return one == 1
}
