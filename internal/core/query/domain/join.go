// Package domain contains the provider-neutral query model: join clauses,
// the command IR, translated commands and the error taxonomy.
package domain

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/joinql/internal/core/query/expr"
)

// JoinType is the kind of join used to attach an entity.
type JoinType int

const (
	// InnerJoin keeps rows with a match on both sides.
	InnerJoin JoinType = iota
	// LeftJoin keeps every row of the left side.
	LeftJoin
	// RightJoin keeps every row of the joined entity.
	RightJoin
	// FullJoin keeps every row of both sides.
	FullJoin
)

// Valid reports whether t is a member of the JoinType domain.
func (t JoinType) Valid() bool {
	return t >= InnerJoin && t <= FullJoin
}

func (t JoinType) String() string {
	switch t {
	case InnerJoin:
		return "Inner"
	case LeftJoin:
		return "Left"
	case RightJoin:
		return "Right"
	case FullJoin:
		return "Full"
	default:
		return "JoinType(?)"
	}
}

// Keyword returns the SQL join keyword.
func (t JoinType) Keyword() string {
	switch t {
	case InnerJoin:
		return "INNER JOIN"
	case LeftJoin:
		return "LEFT JOIN"
	case RightJoin:
		return "RIGHT JOIN"
	case FullJoin:
		return "FULL JOIN"
	default:
		return "JOIN"
	}
}

// ParseJoinType maps a join type name (Inner, Left, Right, Full, case-insensitive,
// optionally suffixed with Join) to its value.
func ParseJoinType(name string) (JoinType, bool) {
	switch normalizeJoinName(name) {
	case "inner":
		return InnerJoin, true
	case "left":
		return LeftJoin, true
	case "right":
		return RightJoin, true
	case "full":
		return FullJoin, true
	}
	return 0, false
}

func normalizeJoinName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s != "join" {
		s = strings.TrimSuffix(s, "join")
	}
	return s
}

func init() {
	expr.RegisterConversion(expr.KindJoinType, toJoinType)
}

// toJoinType folds an integer cast to JoinType. Range is not checked here so
// callers can report out-of-domain values themselves.
func toJoinType(v any) (any, error) {
	if t, ok := v.(JoinType); ok {
		return t, nil
	}
	if i, ok := expr.AsInt(v); ok {
		return JoinType(i), nil
	}
	return nil, fmt.Errorf("%w: cannot convert %T to JoinType", expr.ErrNotEvaluable, v)
}

// JoinMarker returns the expression used to place t in an encoded join specification.
func JoinMarker(t JoinType) expr.Constant {
	return expr.Constant{Value: t, T: expr.JoinTypeT}
}

// JoinClause attaches one more entity. Condition is a boolean lambda whose
// parameters are exactly the entities introduced up to and including this join.
type JoinClause struct {
	Type      JoinType
	Condition *expr.Lambda
}

// Target returns the symbol of the entity this clause joins.
func (c JoinClause) Target() *expr.Symbol {
	return c.Condition.Params[len(c.Condition.Params)-1]
}

// JoinClauses is an ordered multimap of join type to condition. Order
// determines the left-to-right join nesting in generated SQL.
type JoinClauses []JoinClause
