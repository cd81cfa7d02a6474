package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Open opens a pool for driverName, applies the pool settings of cfg and
// verifies the connection.
func Open(ctx context.Context, driverName, dsn string, cfg Config) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
		db.SetMaxIdleConns(max(cfg.MaxConnections/2, 1))
	}
	if cfg.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(time.Duration(cfg.MaxIdleTime) * time.Second)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.ConnectTimeout)*time.Second)
		defer cancel()
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// SQLConnFactory hands out connections from a *sql.DB pool.
type SQLConnFactory struct {
	db *sql.DB
}

var _ ConnectionFactory = (*SQLConnFactory)(nil)

// NewSQLConnFactory creates a factory backed by db.
func NewSQLConnFactory(db *sql.DB) *SQLConnFactory {
	return &SQLConnFactory{db: db}
}

// Connect implements ConnectionFactory.
func (f *SQLConnFactory) Connect(ctx context.Context) (Connection, error) {
	if f.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &rawConn{conn: conn}, nil
}

type rawConn struct {
	conn *sql.Conn
}

func (c *rawConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.conn.ExecContext(ctx, query, args...)
}

func (c *rawConn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.conn.QueryContext(ctx, query, args...)
}

func (c *rawConn) Close() error { return c.conn.Close() }

func (c *rawConn) Decoration() string { return "" }

// ArgShim rewrites a single driver argument before it is bound.
type ArgShim func(v any) any

// Decorate wraps conn with the behavior of the named provider. A connection
// already decorated by that provider is returned unchanged.
func Decorate(conn Connection, name string, shim ArgShim) Connection {
	if conn == nil || conn.Decoration() == name {
		return conn
	}
	return &decoratedConn{inner: conn, name: name, shim: shim}
}

type decoratedConn struct {
	inner Connection
	name  string
	shim  ArgShim
}

func (c *decoratedConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.inner.ExecContext(ctx, query, c.rewrite(args)...)
}

func (c *decoratedConn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.inner.QueryContext(ctx, query, c.rewrite(args)...)
}

func (c *decoratedConn) Close() error { return c.inner.Close() }

func (c *decoratedConn) Decoration() string { return c.name }

func (c *decoratedConn) rewrite(args []any) []any {
	if c.shim == nil || len(args) == 0 {
		return args
	}
	out := make([]any, len(args))
	for i, a := range args {
		if named, ok := a.(sql.NamedArg); ok {
			named.Value = c.shim(named.Value)
			out[i] = named
			continue
		}
		out[i] = c.shim(a)
	}
	return out
}
