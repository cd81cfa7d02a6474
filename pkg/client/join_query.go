package client

import (
	"context"
	"slices"

	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/core/query/expr"
	"github.com/satishbabariya/joinql/internal/core/query/exprparse"
	"github.com/satishbabariya/joinql/internal/core/query/lowering"
	"github.com/satishbabariya/joinql/internal/core/session"
)

// JoinQuery is an immutable query builder. Each method returns a new query;
// the first error is kept and reported when the query is run.
type JoinQuery struct {
	c   *Context
	q   lowering.JoinQuery
	err error
}

func (jq *JoinQuery) with(fn func(q *lowering.JoinQuery) error) *JoinQuery {
	next := &JoinQuery{c: jq.c, q: jq.q, err: jq.err}
	next.q.Where = slices.Clone(jq.q.Where)
	next.q.OrderBy = slices.Clone(jq.q.OrderBy)
	if next.err == nil {
		next.err = fn(&next.q)
	}
	return next
}

// Symbols returns the entity symbols of the query in join order.
func (jq *JoinQuery) Symbols() []*expr.Symbol {
	return slices.Clone(jq.q.Symbols)
}

// Joins returns the resolved join clauses.
func (jq *JoinQuery) Joins() domain.JoinClauses {
	return jq.q.Joins
}

// Where adds a filter. Its parameters bind to the query entities in order.
func (jq *JoinQuery) Where(pred *expr.Lambda) *JoinQuery {
	return jq.with(func(q *lowering.JoinQuery) error {
		if pred == nil {
			return domain.NewError(domain.ErrInvalidArgument, nil, "where predicate is nil")
		}
		q.Where = append(q.Where, pred)
		return nil
	})
}

// WhereText parses and adds a filter over the query entities.
func (jq *JoinQuery) WhereText(text string, vars map[string]any) *JoinQuery {
	return jq.with(func(q *lowering.JoinQuery) error {
		pred, err := exprparse.ParseLambda(text, jq.c.Scope(vars, q.Symbols...))
		if err != nil {
			return err
		}
		q.Where = append(q.Where, pred)
		return nil
	})
}

// OrderBy appends an ascending ordering.
func (jq *JoinQuery) OrderBy(key *expr.Lambda) *JoinQuery {
	return jq.order(key, false)
}

// OrderByDescending appends a descending ordering.
func (jq *JoinQuery) OrderByDescending(key *expr.Lambda) *JoinQuery {
	return jq.order(key, true)
}

// OrderByText parses and appends an ordering.
func (jq *JoinQuery) OrderByText(text string, desc bool) *JoinQuery {
	key, err := exprparse.ParseLambda(text, jq.c.Scope(nil, jq.q.Symbols...))
	if err != nil {
		return jq.with(func(*lowering.JoinQuery) error { return err })
	}
	return jq.order(key, desc)
}

func (jq *JoinQuery) order(key *expr.Lambda, desc bool) *JoinQuery {
	return jq.with(func(q *lowering.JoinQuery) error {
		if key == nil {
			return domain.NewError(domain.ErrInvalidArgument, nil, "order key is nil")
		}
		q.OrderBy = append(q.OrderBy, lowering.OrderKey{Key: key, Desc: desc})
		return nil
	})
}

// Skip bypasses the first n rows.
func (jq *JoinQuery) Skip(n int) *JoinQuery {
	return jq.with(func(q *lowering.JoinQuery) error {
		if n < 0 {
			return domain.NewError(domain.ErrInvalidArgument, nil, "skip %d is negative", n)
		}
		q.Skip = &n
		return nil
	})
}

// Take limits the result to n rows.
func (jq *JoinQuery) Take(n int) *JoinQuery {
	return jq.with(func(q *lowering.JoinQuery) error {
		if n < 0 {
			return domain.NewError(domain.ErrInvalidArgument, nil, "take %d is negative", n)
		}
		q.Take = &n
		return nil
	})
}

// Command lowers the query to a select command.
func (jq *JoinQuery) Command() (*domain.SelectCommand, error) {
	if jq.err != nil {
		return nil, jq.err
	}
	return jq.c.lowerer.Lower(&jq.q)
}

// CommandInfo translates the query for the context's provider.
func (jq *JoinQuery) CommandInfo() (*domain.CommandInfo, error) {
	cmd, err := jq.Command()
	if err != nil {
		return nil, err
	}
	return jq.c.exec.Translate(cmd)
}

// Rows runs the query. Columns are named <symbol>_<field>.
func (jq *JoinQuery) Rows(ctx context.Context) (*session.Reader, error) {
	cmd, err := jq.Command()
	if err != nil {
		return nil, err
	}
	return jq.c.exec.ExecuteReader(ctx, cmd)
}

// RowsAsync runs the query without blocking the caller.
func (jq *JoinQuery) RowsAsync(ctx context.Context) *session.Future[*session.Reader] {
	cmd, err := jq.Command()
	if err != nil {
		return session.Failed[*session.Reader](err)
	}
	return jq.c.exec.ExecuteReaderAsync(ctx, cmd)
}

// Count returns the number of joined rows matching the filters. Ordering is
// ignored; paged queries cannot be counted.
func (jq *JoinQuery) Count(ctx context.Context) (any, error) {
	cmd, err := jq.countCommand()
	if err != nil {
		return nil, err
	}
	return jq.c.exec.ExecuteScalar(ctx, cmd)
}

func (jq *JoinQuery) countCommand() (*domain.SelectCommand, error) {
	if jq.q.Skip != nil || jq.q.Take != nil {
		return nil, domain.NewError(domain.ErrInvalidArgument, nil, "count of a paged query")
	}
	cmd, err := jq.Command()
	if err != nil {
		return nil, err
	}
	cmd.Projections = []domain.Projection{{
		Expr: domain.DbFunction{Name: "COUNT", Args: []domain.DbExpr{domain.DbStar{}}},
	}}
	cmd.OrderBy = nil
	return cmd, nil
}
