// Package lowering turns a resolved join query description into a select
// command. Entity symbols become table aliases, member access on a symbol
// becomes a column reference and closed sub-expressions become parameters.
package lowering

import (
	"strconv"

	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/core/query/expr"
	"github.com/satishbabariya/joinql/internal/core/query/joins"
	"github.com/satishbabariya/joinql/internal/core/schema"
)

// OrderKey is one ordering of a join query.
type OrderKey struct {
	Key  *expr.Lambda
	Desc bool
}

// JoinQuery is a multi-entity query description with resolved joins.
type JoinQuery struct {
	Symbols []*expr.Symbol
	Joins   domain.JoinClauses
	Where   []*expr.Lambda
	OrderBy []OrderKey
	Skip    *int
	Take    *int
}

// FromSpec resolves spec and starts a query over its entities.
func FromSpec(spec *expr.Lambda) (*JoinQuery, error) {
	clauses, err := joins.Resolve(spec)
	if err != nil {
		return nil, err
	}
	symbols := make([]*expr.Symbol, len(spec.Params))
	copy(symbols, spec.Params)
	return &JoinQuery{Symbols: symbols, Joins: clauses}, nil
}

// Lowerer maps entity symbols to tables through the metadata registry.
type Lowerer struct {
	registry *schema.MetadataRegistry
}

// New creates a Lowerer.
func New(registry *schema.MetadataRegistry) *Lowerer {
	return &Lowerer{registry: registry}
}

// Alias returns the table alias of the i-th entity.
func Alias(i int) string {
	return "T" + strconv.Itoa(i)
}

// Lower builds the select command for q.
func (l *Lowerer) Lower(q *JoinQuery) (*domain.SelectCommand, error) {
	if q == nil || len(q.Symbols) == 0 {
		return nil, domain.NewError(domain.ErrInvalidArgument, nil, "query has no entities")
	}
	if len(q.Joins) != len(q.Symbols)-1 {
		return nil, domain.NewError(domain.ErrInvalidArgument, nil,
			"%d joins for %d entities", len(q.Joins), len(q.Symbols))
	}
	if (q.Skip != nil && *q.Skip < 0) || (q.Take != nil && *q.Take < 0) {
		return nil, domain.NewError(domain.ErrInvalidArgument, nil, "skip and take must not be negative")
	}

	metas := make([]*schema.EntityMeta, len(q.Symbols))
	for i, sym := range q.Symbols {
		meta, err := l.registry.GetEntity(sym.T.Name)
		if err != nil {
			return nil, domain.Unsupported("entity %s: %v", sym.Name, err)
		}
		metas[i] = meta
	}

	cmd := &domain.SelectCommand{
		Table: tableRef(metas[0], 0),
		Skip:  q.Skip,
		Take:  q.Take,
	}

	for i, sym := range q.Symbols {
		for _, f := range metas[i].Fields {
			cmd.Projections = append(cmd.Projections, domain.Projection{
				Expr:  domain.Col(Alias(i), f.Column),
				Alias: sym.Name + "_" + f.Name,
			})
		}
	}

	for i, clause := range q.Joins {
		scope, err := l.scope(q, clause.Condition)
		if err != nil {
			return nil, err
		}
		on, err := scope.predicate(clause.Condition.Body)
		if err != nil {
			return nil, err
		}
		cmd.Joins = append(cmd.Joins, domain.JoinNode{
			Type:  clause.Type,
			Table: tableRef(metas[i+1], i+1),
			On:    on,
		})
	}

	for _, w := range q.Where {
		scope, err := l.scope(q, w)
		if err != nil {
			return nil, err
		}
		pred, err := scope.predicate(w.Body)
		if err != nil {
			return nil, err
		}
		cmd.Where = domain.AndAll(cmd.Where, pred)
	}

	for _, o := range q.OrderBy {
		scope, err := l.scope(q, o.Key)
		if err != nil {
			return nil, err
		}
		key, err := scope.value(o.Key.Body)
		if err != nil {
			return nil, err
		}
		cmd.OrderBy = append(cmd.OrderBy, domain.Ordering{Expr: key, Desc: o.Desc})
	}

	return cmd, nil
}

func tableRef(meta *schema.EntityMeta, i int) domain.TableRef {
	return domain.TableRef{Schema: meta.Schema, Name: meta.Table, Alias: Alias(i)}
}

// scope binds the parameters of fn positionally to the query entities.
func (l *Lowerer) scope(q *JoinQuery, fn *expr.Lambda) (*scope, error) {
	if fn == nil {
		return nil, domain.NewError(domain.ErrInvalidArgument, nil, "nil expression")
	}
	if len(fn.Params) > len(q.Symbols) {
		return nil, domain.NewError(domain.ErrInvalidArgument, fn,
			"binds %d entities, query has %d", len(fn.Params), len(q.Symbols))
	}
	s := &scope{registry: l.registry, aliases: make(map[*expr.Symbol]string, len(fn.Params))}
	for i, p := range fn.Params {
		if p.T != q.Symbols[i].T {
			return nil, domain.NewError(domain.ErrInvalidArgument, fn,
				"parameter %s has type %s, want %s", p.Name, p.T, q.Symbols[i].T)
		}
		s.aliases[p] = Alias(i)
	}
	return s, nil
}

type scope struct {
	registry *schema.MetadataRegistry
	aliases  map[*expr.Symbol]string
}

// predicate lowers n where a boolean condition is expected. A bare boolean
// column becomes column = true.
func (s *scope) predicate(n expr.Node) (domain.DbExpr, error) {
	switch v := expr.StripConvert(n).(type) {
	case expr.Binary:
		if v.Op.IsLogical() {
			left, err := s.predicate(v.Left)
			if err != nil {
				return nil, err
			}
			right, err := s.predicate(v.Right)
			if err != nil {
				return nil, err
			}
			return domain.DbBinary{Op: v.Op, Left: left, Right: right}, nil
		}
	case expr.Unary:
		if v.Op == expr.OpNot && !expr.IsClosed(v) {
			operand, err := s.predicate(v.Operand)
			if err != nil {
				return nil, err
			}
			return domain.DbUnary{Op: expr.OpNot, Operand: operand}, nil
		}
	case expr.Member:
		if v.Type().Kind == expr.KindBool && !expr.IsClosed(v) {
			col, err := s.value(v)
			if err != nil {
				return nil, err
			}
			return domain.Equal(col, domain.DbConstant{Value: true}), nil
		}
	}
	return s.value(n)
}

func (s *scope) value(n expr.Node) (domain.DbExpr, error) {
	n = expr.StripConvert(n)

	switch v := n.(type) {
	case expr.Constant:
		return domain.DbConstant{Value: v.Value}, nil
	case *expr.Symbol:
		return nil, domain.Unsupported("entity %s used as a value", v.Name)
	case *expr.Lambda:
		return nil, domain.Unsupported("nested lambda %s", v)
	}

	if expr.IsClosed(n) {
		val, err := expr.Evaluate(n)
		if err != nil {
			return nil, &domain.Error{Kind: domain.ErrUnsupportedTranslation, Expr: n.String(), Message: err.Error()}
		}
		if val == nil {
			return domain.DbConstant{Value: nil}, nil
		}
		t := n.Type()
		if t.Kind == expr.KindUnknown || t.Kind == expr.KindObject {
			t = expr.TypeOf(val)
		}
		return domain.DbParameter{Value: val, Type: t}, nil
	}

	switch v := n.(type) {
	case expr.Member:
		sym, ok := v.Target.(*expr.Symbol)
		if !ok {
			return nil, domain.Unsupported("member access %s", v)
		}
		alias, ok := s.aliases[sym]
		if !ok {
			return nil, domain.Unsupported("%s is not bound in this scope", sym.Name)
		}
		col, err := s.registry.GetColumnName(sym.T.Name, v.Field)
		if err != nil {
			return nil, domain.Unsupported("%s: %v", v, err)
		}
		return domain.Col(alias, col), nil
	case expr.Binary:
		if v.Op.IsLogical() {
			return s.predicate(v)
		}
		left, err := s.value(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := s.value(v.Right)
		if err != nil {
			return nil, err
		}
		return domain.DbBinary{Op: v.Op, Left: left, Right: right}, nil
	case expr.Unary:
		if v.Op == expr.OpNot {
			return s.predicate(v)
		}
		operand, err := s.value(v.Operand)
		if err != nil {
			return nil, err
		}
		return domain.DbUnary{Op: v.Op, Operand: operand}, nil
	default:
		return nil, domain.Unsupported("expression %s", n)
	}
}
