// Package sqlite implements the SQLite database provider.
package sqlite

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/satishbabariya/joinql/internal/adapters/database"
	"github.com/satishbabariya/joinql/internal/core/query/translator"
)

// Name is the provider identity.
const Name = "SQLite"

// DriverName is the database/sql driver registered by go-sqlite3.
const DriverName = "sqlite3"

// Provider implements database.Provider for SQLite.
type Provider struct {
	*database.BaseProvider
}

var _ database.Provider = (*Provider)(nil)

// New creates a SQLite provider over factory.
func New(factory database.ConnectionFactory, serverVersion string) (*Provider, error) {
	tr, err := translator.New(translator.SQLite, translator.WithServerVersion(serverVersion))
	if err != nil {
		return nil, err
	}
	base, err := database.NewBaseProvider(Name, factory, tr, shim)
	if err != nil {
		return nil, err
	}
	return &Provider{BaseProvider: base}, nil
}

// Open opens a SQLite database.
func Open(ctx context.Context, cfg database.Config) (*sql.DB, error) {
	return database.Open(ctx, DriverName, cfg.URL, cfg)
}

// shim stores booleans as 1/0.
func shim(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}
