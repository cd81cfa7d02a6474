// Package database defines the database provider contracts: connections,
// connection factories and per-backend providers.
package database

import (
	"context"
	"database/sql"

	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/core/query/translator"
)

// Connection is a single database connection.
type Connection interface {
	// ExecContext executes a statement that returns no rows.
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)

	// QueryContext executes a query that returns rows.
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)

	// Close releases the connection.
	Close() error

	// Decoration names the provider whose behavior wraps the connection,
	// or is empty for a raw driver connection.
	Decoration() string
}

// ConnectionFactory produces raw connections.
type ConnectionFactory interface {
	Connect(ctx context.Context) (Connection, error)
}

// ConnectionFactoryFunc adapts a function to ConnectionFactory.
type ConnectionFactoryFunc func(ctx context.Context) (Connection, error)

// Connect implements ConnectionFactory.
func (f ConnectionFactoryFunc) Connect(ctx context.Context) (Connection, error) {
	return f(ctx)
}

// Provider bundles the backend specific behavior used by a session.
// Implementations are immutable after construction and safe for concurrent use.
type Provider interface {
	// Name returns the provider identity, for example "Oracle".
	Name() string

	// CreateConnection returns a connection decorated for this provider.
	CreateConnection(ctx context.Context) (Connection, error)

	// CreateTranslator returns the translator selected at construction.
	CreateTranslator() translator.Translator

	// FormatParameterName prefixes name with the provider's placeholder sigil.
	FormatParameterName(name string) (string, error)

	// BindStyle reports how the driver binds parameters.
	BindStyle() domain.BindStyle

	// Sigil is the placeholder prefix of parameter names.
	Sigil() byte
}

// Config holds database connection configuration.
type Config struct {
	Provider string
	URL      string
	// Driver is the database/sql driver name for providers without a bundled driver.
	Driver             string
	ConvertToUppercase bool
	ServerVersion      string
	MaxConnections     int
	MaxIdleTime        int // seconds
	ConnectTimeout     int // seconds
}
