// Package providers selects a database provider from configuration.
package providers

import (
	"context"
	"database/sql"
	"strings"

	"github.com/satishbabariya/joinql/internal/adapters/database"
	"github.com/satishbabariya/joinql/internal/adapters/database/mysql"
	"github.com/satishbabariya/joinql/internal/adapters/database/oracle"
	"github.com/satishbabariya/joinql/internal/adapters/database/postgres"
	"github.com/satishbabariya/joinql/internal/adapters/database/sqlite"
	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/core/query/translator"
)

// Provider keys accepted in configuration.
const (
	KeyOracle   = "oracle"
	KeyPostgres = "postgres"
	KeyMySQL    = "mysql"
	KeySQLite   = "sqlite"
)

// Keys lists the supported provider keys.
func Keys() []string {
	return []string{KeyOracle, KeyPostgres, KeyMySQL, KeySQLite}
}

// Normalize maps provider aliases to their key.
func Normalize(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "oracle":
		return KeyOracle, nil
	case "postgres", "postgresql", "pg":
		return KeyPostgres, nil
	case "mysql", "mariadb":
		return KeyMySQL, nil
	case "sqlite", "sqlite3":
		return KeySQLite, nil
	}
	return "", domain.NewError(domain.ErrInvalidArgument, nil, "unknown provider %q", name)
}

// New creates the configured provider over a connection factory.
func New(cfg database.Config, factory database.ConnectionFactory) (database.Provider, error) {
	key, err := Normalize(cfg.Provider)
	if err != nil {
		return nil, err
	}
	switch key {
	case KeyOracle:
		return provider(oracle.New(factory, oracle.Options{
			ConvertToUppercase: cfg.ConvertToUppercase,
			ServerVersion:      cfg.ServerVersion,
		}))
	case KeyPostgres:
		return provider(postgres.New(factory, cfg.ServerVersion))
	case KeyMySQL:
		return provider(mysql.New(factory, cfg.ServerVersion))
	default:
		return provider(sqlite.New(factory, cfg.ServerVersion))
	}
}

// provider keeps a failed constructor's typed nil out of the interface.
func provider[P database.Provider](p P, err error) (database.Provider, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewForDB creates the configured provider over an open pool.
func NewForDB(cfg database.Config, db *sql.DB) (database.Provider, error) {
	return New(cfg, database.NewSQLConnFactory(db))
}

// Open opens a pool for the configured provider.
func Open(ctx context.Context, cfg database.Config) (*sql.DB, error) {
	key, err := Normalize(cfg.Provider)
	if err != nil {
		return nil, err
	}
	switch key {
	case KeyOracle:
		return oracle.Open(ctx, cfg)
	case KeyPostgres:
		return postgres.Open(ctx, cfg)
	case KeyMySQL:
		return mysql.Open(ctx, cfg)
	default:
		return sqlite.Open(ctx, cfg)
	}
}

// Translator returns the translator the configured provider would use,
// without a connection.
func Translator(cfg database.Config) (*translator.SQLTranslator, error) {
	key, err := Normalize(cfg.Provider)
	if err != nil {
		return nil, err
	}
	switch key {
	case KeyOracle:
		return oracle.Translator(oracle.Options{
			ConvertToUppercase: cfg.ConvertToUppercase,
			ServerVersion:      cfg.ServerVersion,
		})
	case KeyPostgres:
		return translator.New(translator.PostgreSQL, translator.WithServerVersion(cfg.ServerVersion))
	case KeyMySQL:
		return translator.New(translator.MySQL, translator.WithServerVersion(cfg.ServerVersion))
	default:
		return translator.New(translator.SQLite, translator.WithServerVersion(cfg.ServerVersion))
	}
}
