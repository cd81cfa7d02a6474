// Package mysql implements the MySQL database provider.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	driver "github.com/go-sql-driver/mysql"

	"github.com/satishbabariya/joinql/internal/adapters/database"
	"github.com/satishbabariya/joinql/internal/core/query/translator"
)

// Name is the provider identity.
const Name = "MySQL"

// DriverName is the database/sql driver registered by go-sql-driver/mysql.
const DriverName = "mysql"

// Provider implements database.Provider for MySQL.
type Provider struct {
	*database.BaseProvider
}

var _ database.Provider = (*Provider)(nil)

// New creates a MySQL provider over factory.
func New(factory database.ConnectionFactory, serverVersion string) (*Provider, error) {
	tr, err := translator.New(translator.MySQL, translator.WithServerVersion(serverVersion))
	if err != nil {
		return nil, err
	}
	base, err := database.NewBaseProvider(Name, factory, tr, shim)
	if err != nil {
		return nil, err
	}
	return &Provider{BaseProvider: base}, nil
}

// NormalizeDSN enables time parsing so DATETIME columns scan into time.Time.
func NormalizeDSN(dsn string) (string, error) {
	cfg, err := driver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}
	return cfg.FormatDSN(), nil
}

// Open opens a MySQL pool.
func Open(ctx context.Context, cfg database.Config) (*sql.DB, error) {
	dsn, err := NormalizeDSN(cfg.URL)
	if err != nil {
		return nil, err
	}
	return database.Open(ctx, DriverName, dsn, cfg)
}

// shim sends times in UTC.
func shim(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC()
	}
	return v
}
