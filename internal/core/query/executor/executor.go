// Package executor runs commands by translating them with a provider's
// translator and dispatching the text to a session.
package executor

import (
	"context"

	"github.com/satishbabariya/joinql/internal/adapters/database"
	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/core/query/translator"
	"github.com/satishbabariya/joinql/internal/core/session"
)

// Executor is stateless apart from its collaborators. It performs no retries
// and returns session failures unchanged.
type Executor struct {
	translator translator.Translator
	session    session.Session
}

// New creates an executor that translates with provider's translator.
func New(provider database.Provider, s session.Session) (*Executor, error) {
	if provider == nil {
		return nil, domain.NewError(domain.ErrInvalidArgument, nil, "provider is nil")
	}
	if s == nil {
		return nil, domain.NewError(domain.ErrInvalidArgument, nil, "session is nil")
	}
	return &Executor{translator: provider.CreateTranslator(), session: s}, nil
}

// Translate renders cmd into command text and parameters.
func (e *Executor) Translate(cmd domain.Command) (*domain.CommandInfo, error) {
	return e.translator.Translate(cmd)
}

// ExecuteNonQuery translates and runs cmd, returning the affected row count.
func (e *Executor) ExecuteNonQuery(ctx context.Context, cmd domain.Command) (int64, error) {
	info, err := e.Translate(cmd)
	if err != nil {
		return 0, err
	}
	return e.ExecuteNonQueryInfo(ctx, info)
}

// ExecuteScalar translates and runs cmd, returning the first column of the
// first row or nil.
func (e *Executor) ExecuteScalar(ctx context.Context, cmd domain.Command) (any, error) {
	info, err := e.Translate(cmd)
	if err != nil {
		return nil, err
	}
	return e.ExecuteScalarInfo(ctx, info)
}

// ExecuteReader translates and runs cmd, returning a row cursor the caller
// must close.
func (e *Executor) ExecuteReader(ctx context.Context, cmd domain.Command) (*session.Reader, error) {
	info, err := e.Translate(cmd)
	if err != nil {
		return nil, err
	}
	return e.ExecuteReaderInfo(ctx, info)
}

func (e *Executor) ExecuteNonQueryAsync(ctx context.Context, cmd domain.Command) *session.Future[int64] {
	info, err := e.Translate(cmd)
	if err != nil {
		return session.Failed[int64](err)
	}
	return e.ExecuteNonQueryInfoAsync(ctx, info)
}

func (e *Executor) ExecuteScalarAsync(ctx context.Context, cmd domain.Command) *session.Future[any] {
	info, err := e.Translate(cmd)
	if err != nil {
		return session.Failed[any](err)
	}
	return e.ExecuteScalarInfoAsync(ctx, info)
}

func (e *Executor) ExecuteReaderAsync(ctx context.Context, cmd domain.Command) *session.Future[*session.Reader] {
	info, err := e.Translate(cmd)
	if err != nil {
		return session.Failed[*session.Reader](err)
	}
	return e.ExecuteReaderInfoAsync(ctx, info)
}

// ExecuteNonQueryInfo runs a pre-built command.
func (e *Executor) ExecuteNonQueryInfo(ctx context.Context, info *domain.CommandInfo) (int64, error) {
	if info == nil {
		return 0, errNilInfo()
	}
	return e.session.ExecuteNonQuery(ctx, info.Text, info.Parameters)
}

// ExecuteScalarInfo runs a pre-built command.
func (e *Executor) ExecuteScalarInfo(ctx context.Context, info *domain.CommandInfo) (any, error) {
	if info == nil {
		return nil, errNilInfo()
	}
	return e.session.ExecuteScalar(ctx, info.Text, info.Parameters)
}

// ExecuteReaderInfo runs a pre-built command.
func (e *Executor) ExecuteReaderInfo(ctx context.Context, info *domain.CommandInfo) (*session.Reader, error) {
	if info == nil {
		return nil, errNilInfo()
	}
	return e.session.ExecuteReader(ctx, info.Text, info.Parameters)
}

func (e *Executor) ExecuteNonQueryInfoAsync(ctx context.Context, info *domain.CommandInfo) *session.Future[int64] {
	if info == nil {
		return session.Failed[int64](errNilInfo())
	}
	return e.session.ExecuteNonQueryAsync(ctx, info.Text, info.Parameters)
}

func (e *Executor) ExecuteScalarInfoAsync(ctx context.Context, info *domain.CommandInfo) *session.Future[any] {
	if info == nil {
		return session.Failed[any](errNilInfo())
	}
	return e.session.ExecuteScalarAsync(ctx, info.Text, info.Parameters)
}

func (e *Executor) ExecuteReaderInfoAsync(ctx context.Context, info *domain.CommandInfo) *session.Future[*session.Reader] {
	if info == nil {
		return session.Failed[*session.Reader](errNilInfo())
	}
	return e.session.ExecuteReaderAsync(ctx, info.Text, info.Parameters)
}

// ExecuteNonQueryText runs hand-written command text. Parameter names must
// carry the provider sigil.
func (e *Executor) ExecuteNonQueryText(ctx context.Context, text string, params ...domain.Parameter) (int64, error) {
	return e.session.ExecuteNonQuery(ctx, text, params)
}

// ExecuteScalarText runs hand-written command text.
func (e *Executor) ExecuteScalarText(ctx context.Context, text string, params ...domain.Parameter) (any, error) {
	return e.session.ExecuteScalar(ctx, text, params)
}

// ExecuteReaderText runs hand-written command text.
func (e *Executor) ExecuteReaderText(ctx context.Context, text string, params ...domain.Parameter) (*session.Reader, error) {
	return e.session.ExecuteReader(ctx, text, params)
}

func (e *Executor) ExecuteNonQueryTextAsync(ctx context.Context, text string, params ...domain.Parameter) *session.Future[int64] {
	return e.session.ExecuteNonQueryAsync(ctx, text, params)
}

func (e *Executor) ExecuteScalarTextAsync(ctx context.Context, text string, params ...domain.Parameter) *session.Future[any] {
	return e.session.ExecuteScalarAsync(ctx, text, params)
}

func (e *Executor) ExecuteReaderTextAsync(ctx context.Context, text string, params ...domain.Parameter) *session.Future[*session.Reader] {
	return e.session.ExecuteReaderAsync(ctx, text, params)
}

func errNilInfo() error {
	return domain.NewError(domain.ErrInvalidArgument, nil, "command info is nil")
}
