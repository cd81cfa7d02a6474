// Package session executes translated commands over provider connections.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/satishbabariya/joinql/internal/adapters/database"
	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/debug"
)

// Session runs command text against a database.
type Session interface {
	// ExecuteNonQuery runs a statement and returns the number of affected rows.
	ExecuteNonQuery(ctx context.Context, text string, params []domain.Parameter) (int64, error)
	// ExecuteScalar returns the first column of the first row, or nil when
	// there are no rows.
	ExecuteScalar(ctx context.Context, text string, params []domain.Parameter) (any, error)
	// ExecuteReader returns a forward-only cursor. Closing it releases the connection.
	ExecuteReader(ctx context.Context, text string, params []domain.Parameter) (*Reader, error)

	ExecuteNonQueryAsync(ctx context.Context, text string, params []domain.Parameter) *Future[int64]
	ExecuteScalarAsync(ctx context.Context, text string, params []domain.Parameter) *Future[any]
	ExecuteReaderAsync(ctx context.Context, text string, params []domain.Parameter) *Future[*Reader]
}

// Reader is a row cursor that owns its connection.
type Reader struct {
	*sql.Rows
	conn database.Connection
}

// Close closes the rows and releases the connection.
func (r *Reader) Close() error {
	rowsErr := r.Rows.Close()
	connErr := r.conn.Close()
	if rowsErr != nil {
		return rowsErr
	}
	return connErr
}

// SQLSession acquires one provider connection per command.
type SQLSession struct {
	provider   database.Provider
	logger     *slog.Logger
	logQueries bool
	retry      RetryConfig
}

var _ Session = (*SQLSession)(nil)

// Option configures a SQLSession.
type Option func(*SQLSession)

// WithLogger sets the logger. The default is the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *SQLSession) {
		s.logger = l
	}
}

// WithQueryLogging logs every dispatched command at debug level.
func WithQueryLogging(enabled bool) Option {
	return func(s *SQLSession) {
		s.logQueries = enabled
	}
}

// WithRetry adjusts how connection acquisition is retried.
func WithRetry(opts ...RetryOption) Option {
	return func(s *SQLSession) {
		for _, opt := range opts {
			opt(&s.retry)
		}
	}
}

// New creates a session over provider.
func New(provider database.Provider, opts ...Option) *SQLSession {
	s := &SQLSession{
		provider: provider,
		retry:    DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = debug.Logger()
	}
	return s
}

// Provider returns the session's provider.
func (s *SQLSession) Provider() database.Provider {
	return s.provider
}

// ExecuteNonQuery implements Session.
func (s *SQLSession) ExecuteNonQuery(ctx context.Context, text string, params []domain.Parameter) (int64, error) {
	cmd := s.begin(text, params)

	conn, err := s.acquire(ctx)
	if err != nil {
		return 0, cmd.fail(err)
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx, text, domain.BindArgs(s.provider.BindStyle(), s.provider.Sigil(), params)...)
	if err != nil {
		return 0, cmd.fail(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, cmd.fail(err)
	}
	cmd.done("rows_affected", n)
	return n, nil
}

// ExecuteScalar implements Session.
func (s *SQLSession) ExecuteScalar(ctx context.Context, text string, params []domain.Parameter) (any, error) {
	cmd := s.begin(text, params)

	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, cmd.fail(err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, text, domain.BindArgs(s.provider.BindStyle(), s.provider.Sigil(), params)...)
	if err != nil {
		return nil, cmd.fail(err)
	}
	defer rows.Close()

	var value any
	if rows.Next() {
		if err := rows.Scan(&value); err != nil {
			return nil, cmd.fail(err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, cmd.fail(err)
	}
	cmd.done()
	return value, nil
}

// ExecuteReader implements Session.
func (s *SQLSession) ExecuteReader(ctx context.Context, text string, params []domain.Parameter) (*Reader, error) {
	cmd := s.begin(text, params)

	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, cmd.fail(err)
	}

	rows, err := conn.QueryContext(ctx, text, domain.BindArgs(s.provider.BindStyle(), s.provider.Sigil(), params)...)
	if err != nil {
		conn.Close()
		return nil, cmd.fail(err)
	}
	cmd.done()
	return &Reader{Rows: rows, conn: conn}, nil
}

// ExecuteNonQueryAsync implements Session.
func (s *SQLSession) ExecuteNonQueryAsync(ctx context.Context, text string, params []domain.Parameter) *Future[int64] {
	return Go(func() (int64, error) { return s.ExecuteNonQuery(ctx, text, params) })
}

// ExecuteScalarAsync implements Session.
func (s *SQLSession) ExecuteScalarAsync(ctx context.Context, text string, params []domain.Parameter) *Future[any] {
	return Go(func() (any, error) { return s.ExecuteScalar(ctx, text, params) })
}

// ExecuteReaderAsync implements Session. A reader that arrives after an
// abandoned Await is closed.
func (s *SQLSession) ExecuteReaderAsync(ctx context.Context, text string, params []domain.Parameter) *Future[*Reader] {
	return GoWithRelease(
		func() (*Reader, error) { return s.ExecuteReader(ctx, text, params) },
		func(r *Reader) {
			if err := r.Close(); err != nil {
				s.logger.Warn("close abandoned reader", "provider", s.provider.Name(), "error", err)
			}
		},
	)
}

func (s *SQLSession) acquire(ctx context.Context) (database.Connection, error) {
	return retryWithResult(ctx, s.retry, func() (database.Connection, error) {
		return s.provider.CreateConnection(ctx)
	})
}

// command tracks one dispatch for logging.
type command struct {
	s      *SQLSession
	id     string
	text   string
	params []domain.Parameter
	start  time.Time
}

func (s *SQLSession) begin(text string, params []domain.Parameter) *command {
	return &command{s: s, id: uuid.NewString(), text: text, params: params, start: time.Now()}
}

func (c *command) attrs(extra ...any) []any {
	attrs := []any{
		"command_id", c.id,
		"provider", c.s.provider.Name(),
		"query", c.text,
		"params", formatParams(c.params),
		"duration", time.Since(c.start),
	}
	return append(attrs, extra...)
}

func (c *command) done(extra ...any) {
	if c.s.logQueries {
		c.s.logger.Debug("command executed", c.attrs(extra...)...)
	}
}

// fail logs err and returns it unchanged.
func (c *command) fail(err error) error {
	c.s.logger.Warn("command failed", c.attrs("error", err)...)
	return err
}

func formatParams(params []domain.Parameter) string {
	if len(params) == 0 {
		return "[]"
	}
	out := "["
	for i, p := range params {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%v", p.Name, p.Value)
	}
	return out + "]"
}
