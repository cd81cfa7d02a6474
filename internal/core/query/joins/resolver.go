// Package joins resolves encoded join specifications into ordered join clauses.
//
// A specification is a lambda over N entity symbols whose body is a flat array
// alternating a join type marker and a boolean condition:
//
//	(user, city, province) => new object[] {
//		Left,  user.CityId == city.Id,
//		Inner, city.ProvinceId == province.Id,
//	}
//
// Each resulting condition is re-bound to the symbols introduced up to and
// including its own join target.
package joins

import (
	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/core/query/expr"
)

// Resolve validates spec and returns one clause per joined entity, in encoding order.
func Resolve(spec *expr.Lambda) (domain.JoinClauses, error) {
	if spec == nil {
		return nil, domain.NewError(domain.ErrInvalidArgument, nil, "join specification is nil")
	}

	arr, ok := spec.Body.(expr.NewArray)
	if !ok {
		return nil, domain.NewError(domain.ErrInvalidJoinSpecification, spec,
			"body must be an array construction, got %T", spec.Body)
	}

	n := len(spec.Params)
	if n == 0 {
		return nil, domain.NewError(domain.ErrInvalidJoinSpecification, spec, "no entity parameters")
	}
	if want := (n - 1) * 2; len(arr.Elements) != want {
		return nil, domain.NewError(domain.ErrInvalidJoinSpecification, spec,
			"expected %d elements for %d entities, got %d", want, n, len(arr.Elements))
	}

	clauses := make(domain.JoinClauses, 0, n-1)
	for i := 0; i < n-1; i++ {
		joinType, err := evalJoinType(arr.Elements[2*i])
		if err != nil {
			return nil, err
		}

		cond, err := scopeCondition(arr.Elements[2*i+1], spec.Params[:i+2])
		if err != nil {
			return nil, err
		}

		clauses = append(clauses, domain.JoinClause{Type: joinType, Condition: cond})
	}
	return clauses, nil
}

func evalJoinType(n expr.Node) (domain.JoinType, error) {
	v, err := expr.Evaluate(n)
	if err != nil {
		return 0, &domain.Error{Kind: domain.ErrInvalidJoinType, Expr: textOf(n), Message: err.Error()}
	}
	jt, ok := v.(domain.JoinType)
	if !ok {
		return 0, &domain.Error{Kind: domain.ErrInvalidJoinType, Expr: textOf(n),
			Message: "evaluated to a value of type " + typeName(v)}
	}
	if !jt.Valid() {
		return 0, &domain.Error{Kind: domain.ErrInvalidJoinType, Expr: textOf(n),
			Message: "value out of range: " + jt.String()}
	}
	return jt, nil
}

// scopeCondition binds the condition body to exactly the visible symbols.
func scopeCondition(n expr.Node, visible []*expr.Symbol) (*expr.Lambda, error) {
	if n == nil {
		return nil, domain.NewError(domain.ErrInvalidJoinCondition, nil, "condition is missing")
	}
	body := expr.StripConvert(n)
	if body.Type().Kind != expr.KindBool {
		return nil, domain.NewError(domain.ErrInvalidJoinCondition, body,
			"condition has type %s, want bool", body.Type())
	}

	for _, s := range expr.FreeSymbols(body) {
		if !contains(visible, s) {
			return nil, domain.NewError(domain.ErrInvalidJoinCondition, body,
				"references %q before it is joined", s.Name)
		}
	}

	params := make([]*expr.Symbol, len(visible))
	copy(params, visible)
	return &expr.Lambda{Params: params, Body: body, Result: expr.Bool}, nil
}

func contains(syms []*expr.Symbol, s *expr.Symbol) bool {
	for _, v := range syms {
		if v == s {
			return true
		}
	}
	return false
}

func textOf(n expr.Node) string {
	if n == nil {
		return ""
	}
	return n.String()
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	return expr.TypeOf(v).String()
}
