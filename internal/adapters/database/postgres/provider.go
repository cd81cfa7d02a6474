// Package postgres implements the PostgreSQL database provider.
package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq" // PostgreSQL driver

	"github.com/satishbabariya/joinql/internal/adapters/database"
	"github.com/satishbabariya/joinql/internal/core/query/translator"
)

// Name is the provider identity.
const Name = "PostgreSQL"

// DriverName is the database/sql driver registered by lib/pq.
const DriverName = "postgres"

// Provider implements database.Provider for PostgreSQL.
type Provider struct {
	*database.BaseProvider
}

var _ database.Provider = (*Provider)(nil)

// New creates a PostgreSQL provider over factory.
func New(factory database.ConnectionFactory, serverVersion string) (*Provider, error) {
	tr, err := translator.New(translator.PostgreSQL, translator.WithServerVersion(serverVersion))
	if err != nil {
		return nil, err
	}
	base, err := database.NewBaseProvider(Name, factory, tr, shim)
	if err != nil {
		return nil, err
	}
	return &Provider{BaseProvider: base}, nil
}

// Open opens a PostgreSQL pool.
func Open(ctx context.Context, cfg database.Config) (*sql.DB, error) {
	return database.Open(ctx, DriverName, cfg.URL, cfg)
}

// shim binds Go slices as PostgreSQL arrays.
func shim(v any) any {
	switch v.(type) {
	case []string, []int64, []int32, []float64, []float32, []bool, [][]byte:
		return pq.Array(v)
	}
	return v
}
