// Package exprparse parses the text form of query conditions into structural
// expressions, for example:
//
//	user.CityId == city.Id && city.Name != $name
//
// Identifiers resolve against the entity symbols of a Scope; $name refers to
// a captured variable; Inner, Left, Right and Full are join type markers.
package exprparse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/core/query/expr"
)

// ErrUnknownIdentifier is returned for names that resolve to nothing in scope.
var ErrUnknownIdentifier = errors.New("unknown identifier")

// FieldTyper reports the static type of an entity field.
type FieldTyper interface {
	FieldType(entity, field string) (expr.Type, bool)
}

// Scope is the set of names visible to parsed text.
type Scope struct {
	Symbols []*expr.Symbol
	Vars    map[string]any
	// Fields types member access on symbols. When nil every field is Unknown.
	Fields FieldTyper
}

func (s Scope) symbol(name string) *expr.Symbol {
	for _, sym := range s.Symbols {
		if sym.Name == name {
			return sym
		}
	}
	return nil
}

// Parse parses a single expression.
func Parse(text string, scope Scope) (expr.Node, error) {
	raw, err := parser.ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", text, err)
	}
	b := builder{scope: scope}
	n, err := b.or(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", text, err)
	}
	return n, nil
}

// ParseLambda parses text and binds it to every symbol of the scope.
func ParseLambda(text string, scope Scope) (*expr.Lambda, error) {
	body, err := Parse(text, scope)
	if err != nil {
		return nil, err
	}
	return expr.NewLambda(body, scope.Symbols...), nil
}

// ParseJoinSpec builds an encoded join specification from its flat element
// list. Elements are boxed the way a heterogeneous array literal would be.
func ParseJoinSpec(elements []string, scope Scope) (*expr.Lambda, error) {
	nodes := make([]expr.Node, len(elements))
	for i, text := range elements {
		n, err := Parse(text, scope)
		if err != nil {
			return nil, err
		}
		nodes[i] = expr.Box(n)
	}
	return expr.NewLambda(expr.Array(nodes...), scope.Symbols...), nil
}

type builder struct {
	scope Scope
}

func (b builder) or(e *orExpr) (expr.Node, error) {
	left, err := b.and(e.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range e.Right {
		right, err := b.and(r)
		if err != nil {
			return nil, err
		}
		left = expr.Or(left, right)
	}
	return left, nil
}

func (b builder) and(e *andExpr) (expr.Node, error) {
	left, err := b.cmp(e.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range e.Right {
		right, err := b.cmp(r)
		if err != nil {
			return nil, err
		}
		left = expr.And(left, right)
	}
	return left, nil
}

func (b builder) cmp(e *cmpExpr) (expr.Node, error) {
	left, err := b.add(e.Left)
	if err != nil || e.Op == "" {
		return left, err
	}
	right, err := b.add(e.Right)
	if err != nil {
		return nil, err
	}
	return expr.Binary{Op: expr.BinaryOp(e.Op), Left: left, Right: right}, nil
}

func (b builder) add(e *addExpr) (expr.Node, error) {
	left, err := b.mul(e.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range e.Rest {
		right, err := b.mul(r.Operand)
		if err != nil {
			return nil, err
		}
		left = expr.Binary{Op: expr.BinaryOp(r.Op), Left: left, Right: right}
	}
	return left, nil
}

func (b builder) mul(e *mulExpr) (expr.Node, error) {
	left, err := b.unary(e.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range e.Rest {
		right, err := b.unary(r.Operand)
		if err != nil {
			return nil, err
		}
		left = expr.Binary{Op: expr.BinaryOp(r.Op), Left: left, Right: right}
	}
	return left, nil
}

func (b builder) unary(e *unaryExpr) (expr.Node, error) {
	if e.Primary != nil {
		return b.primary(e.Primary)
	}
	operand, err := b.unary(e.Operand)
	if err != nil {
		return nil, err
	}
	return expr.Unary{Op: expr.UnaryOp(e.Op), Operand: operand}, nil
}

func (b builder) primary(p *primary) (expr.Node, error) {
	switch {
	case p.Null:
		return expr.Const(nil), nil
	case p.True:
		return expr.Const(true), nil
	case p.False:
		return expr.Const(false), nil
	case p.Float != nil:
		return expr.Const(*p.Float), nil
	case p.Int != nil:
		return expr.Const(*p.Int), nil
	case p.String != nil:
		return expr.Const(*p.String), nil
	case p.Var != nil:
		return b.variable(p.Var)
	case p.Sub != nil:
		return b.or(p.Sub)
	default:
		return b.path(p.Path)
	}
}

func (b builder) variable(v *varRef) (expr.Node, error) {
	value, ok := b.scope.Vars[v.Name]
	if !ok {
		return nil, fmt.Errorf("%w: $%s", ErrUnknownIdentifier, v.Name)
	}
	var n expr.Node = expr.Capture(v.Name, value)
	for _, f := range v.Fields {
		m := expr.Member{Target: n, Field: f, T: expr.Unknown}
		if fv, err := expr.Evaluate(m); err == nil {
			m.T = expr.TypeOf(fv)
		}
		n = m
	}
	return n, nil
}

func (b builder) path(path []string) (expr.Node, error) {
	name := path[0]
	sym := b.scope.symbol(name)

	switch {
	case sym != nil && len(path) == 1:
		return sym, nil
	case sym != nil && len(path) == 2:
		t := expr.Unknown
		if b.scope.Fields != nil {
			ft, ok := b.scope.Fields.FieldType(sym.T.Name, path[1])
			if !ok {
				return nil, fmt.Errorf("%w: %s has no field %s", ErrUnknownIdentifier, sym.T.Name, path[1])
			}
			t = ft
		}
		return sym.Field(path[1], t), nil
	case sym == nil && len(path) == 1:
		if jt, ok := domain.ParseJoinType(name); ok {
			return domain.JoinMarker(jt), nil
		}
	case sym == nil && len(path) == 2 && name == "JoinType":
		if jt, ok := domain.ParseJoinType(path[1]); ok {
			return domain.JoinMarker(jt), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownIdentifier, strings.Join(path, "."))
}
