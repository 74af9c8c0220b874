package factory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/database"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/repository"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/repository/mongorepo"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/repository/sqlrepo"
)

const (
	BackendMongoDB    = "mongodb"
	BackendPostgreSQL = database.DialectPostgres
	BackendSQLite     = database.DialectSQLite
)

// SupportedBackends lists the DATABASE_TYPE values the factory can serve.
func SupportedBackends() []string {
	return []string{BackendMongoDB, BackendPostgreSQL, BackendSQLite}
}

// ConfigurationError reports a backend the factory cannot build, or a
// backend whose connection manager was not provided.
type ConfigurationError struct {
	Backend   string
	Supported []string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("database backend %q: %s", e.Backend, e.Reason)
	}
	return fmt.Sprintf("unsupported database type %q (supported: %s)", e.Backend, strings.Join(e.Supported, ", "))
}

// Factory resolves the configured backend to its connection manager and a
// single cached UserRepository.
type Factory struct {
	backend string
	mongo   *database.MongoManager
	sql     *database.SQLManager

	once sync.Once
	repo repository.UserRepository
	err  error
}

func New(backend string, mongo *database.MongoManager, sql *database.SQLManager) (*Factory, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))
	f := &Factory{backend: backend, mongo: mongo, sql: sql}
	switch backend {
	case BackendMongoDB:
		if mongo == nil {
			return nil, &ConfigurationError{Backend: backend, Reason: "mongo manager not configured"}
		}
	case BackendPostgreSQL, BackendSQLite:
		if sql == nil {
			return nil, &ConfigurationError{Backend: backend, Reason: "sql manager not configured"}
		}
		if sql.Name() != backend {
			return nil, &ConfigurationError{Backend: backend, Reason: fmt.Sprintf("sql manager dialect is %q", sql.Name())}
		}
	default:
		return nil, &ConfigurationError{Backend: backend, Supported: SupportedBackends()}
	}
	return f, nil
}

func (f *Factory) Backend() string { return f.backend }

func (f *Factory) Manager() database.Manager {
	if f.backend == BackendMongoDB {
		return f.mongo
	}
	return f.sql
}

// EnsureSchema creates indexes (document backend) or migrates tables
// (relational backends). The manager must be connected.
func (f *Factory) EnsureSchema(ctx context.Context) error {
	if f.backend == BackendMongoDB {
		db, err := f.mongo.Database()
		if err != nil {
			return err
		}
		return mongorepo.EnsureIndexes(ctx, db)
	}
	db, err := f.sql.DB()
	if err != nil {
		return err
	}
	return sqlrepo.Migrate(ctx, db)
}

// UserRepository builds the repository on first use and returns the same
// instance afterwards. A failed build is not retried.
func (f *Factory) UserRepository() (repository.UserRepository, error) {
	f.once.Do(func() {
		if f.backend == BackendMongoDB {
			db, err := f.mongo.Database()
			if err != nil {
				f.err = err
				return
			}
			f.repo = mongorepo.NewUserRepository(db)
			return
		}
		db, err := f.sql.DB()
		if err != nil {
			f.err = err
			return
		}
		f.repo = sqlrepo.NewUserRepository(db)
	})
	return f.repo, f.err
}
