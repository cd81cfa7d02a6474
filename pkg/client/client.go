// Package client is the public entry point for multi-entity join queries and
// entity persistence.
//
//	ctx, err := client.Open(context.Background(), cfg, registry)
//	user, city := expr.NewSymbol("user", "User"), expr.NewSymbol("city", "City")
//	q, err := ctx.ParseJoinQuery([]*expr.Symbol{user, city},
//		[]string{"Left", "user.CityId == city.Id"}, nil)
//	rows, err := q.Where(...).Take(10).Rows(context.Background())
package client

import (
	"context"
	"database/sql"

	"github.com/satishbabariya/joinql/internal/adapters/database"
	"github.com/satishbabariya/joinql/internal/config"
	"github.com/satishbabariya/joinql/internal/adapters/database/providers"
	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/core/query/executor"
	"github.com/satishbabariya/joinql/internal/core/query/expr"
	"github.com/satishbabariya/joinql/internal/core/query/exprparse"
	"github.com/satishbabariya/joinql/internal/core/query/lowering"
	"github.com/satishbabariya/joinql/internal/core/schema"
	"github.com/satishbabariya/joinql/internal/core/session"
)

// Context binds a provider, a session and the entity registry.
type Context struct {
	provider database.Provider
	registry *schema.MetadataRegistry
	exec     *executor.Executor
	lowerer  *lowering.Lowerer
	db       *sql.DB
}

// Open opens a connection pool for cfg and creates a Context that owns it.
func Open(ctx context.Context, cfg database.Config, registry *schema.MetadataRegistry, opts ...session.Option) (*Context, error) {
	db, err := providers.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	p, err := providers.NewForDB(cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	c, err := New(p, registry, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	c.db = db
	return c, nil
}

// OpenConfig validates cfg and opens a Context with its database and session
// settings. opts are applied after the configured session options.
func OpenConfig(ctx context.Context, cfg *config.Config, registry *schema.MetadataRegistry, opts ...session.Option) (*Context, error) {
	if cfg == nil {
		return nil, domain.NewError(domain.ErrInvalidArgument, nil, "config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return Open(ctx, cfg.ToDatabase(), registry, append(cfg.SessionOptions(), opts...)...)
}

// New creates a Context over an existing provider.
func New(provider database.Provider, registry *schema.MetadataRegistry, opts ...session.Option) (*Context, error) {
	if registry == nil {
		return nil, domain.NewError(domain.ErrInvalidArgument, nil, "registry is nil")
	}
	if provider == nil {
		return nil, domain.NewError(domain.ErrInvalidArgument, nil, "provider is nil")
	}
	exec, err := executor.New(provider, session.New(provider, opts...))
	if err != nil {
		return nil, err
	}
	return &Context{
		provider: provider,
		registry: registry,
		exec:     exec,
		lowerer:  lowering.New(registry),
	}, nil
}

// Provider returns the database provider.
func (c *Context) Provider() database.Provider { return c.provider }

// Registry returns the entity registry.
func (c *Context) Registry() *schema.MetadataRegistry { return c.registry }

// Executor returns the execution façade.
func (c *Context) Executor() *executor.Executor { return c.exec }

// Close releases the connection pool when the Context opened it.
func (c *Context) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Scope returns a parse scope over symbols with field types from the registry.
func (c *Context) Scope(vars map[string]any, symbols ...*expr.Symbol) exprparse.Scope {
	return exprparse.Scope{Symbols: symbols, Vars: vars, Fields: c.registry}
}

// JoinQuery starts a query over the entities of an encoded join specification.
func (c *Context) JoinQuery(spec *expr.Lambda) (*JoinQuery, error) {
	q, err := lowering.FromSpec(spec)
	if err != nil {
		return nil, err
	}
	return &JoinQuery{c: c, q: *q}, nil
}

// ParseJoinQuery parses a flat join specification of alternating join type
// markers and conditions and starts a query over symbols.
func (c *Context) ParseJoinQuery(symbols []*expr.Symbol, elements []string, vars map[string]any) (*JoinQuery, error) {
	spec, err := exprparse.ParseJoinSpec(elements, c.Scope(vars, symbols...))
	if err != nil {
		return nil, err
	}
	return c.JoinQuery(spec)
}

// Save inserts a registered entity.
func (c *Context) Save(ctx context.Context, e schema.Entity) (int64, error) {
	cmd, err := c.registry.InsertCommand(e)
	if err != nil {
		return 0, err
	}
	return c.exec.ExecuteNonQuery(ctx, cmd)
}

// Update writes every non-key field of a registered entity, matched by key.
func (c *Context) Update(ctx context.Context, e schema.Entity) (int64, error) {
	cmd, err := c.registry.UpdateCommand(e)
	if err != nil {
		return 0, err
	}
	return c.exec.ExecuteNonQuery(ctx, cmd)
}

// Delete removes a registered entity by key.
func (c *Context) Delete(ctx context.Context, e schema.Entity) (int64, error) {
	cmd, err := c.registry.DeleteCommand(e)
	if err != nil {
		return 0, err
	}
	return c.exec.ExecuteNonQuery(ctx, cmd)
}

// Param creates a parameter for hand-written command text, formatted with
// the provider sigil.
func (c *Context) Param(name string, value any) (domain.Parameter, error) {
	formatted, err := c.provider.FormatParameterName(name)
	if err != nil {
		return domain.Parameter{}, err
	}
	return domain.Parameter{Name: formatted, Value: value, Type: expr.TypeOf(value)}, nil
}

// Exec runs hand-written command text.
func (c *Context) Exec(ctx context.Context, text string, params ...domain.Parameter) (int64, error) {
	return c.exec.ExecuteNonQueryText(ctx, text, params...)
}

// QueryScalar runs hand-written command text and returns a single value.
func (c *Context) QueryScalar(ctx context.Context, text string, params ...domain.Parameter) (any, error) {
	return c.exec.ExecuteScalarText(ctx, text, params...)
}

// Query runs hand-written command text and returns a row cursor.
func (c *Context) Query(ctx context.Context, text string, params ...domain.Parameter) (*session.Reader, error) {
	return c.exec.ExecuteReaderText(ctx, text, params...)
}
