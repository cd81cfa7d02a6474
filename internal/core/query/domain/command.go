package domain

import (
	"github.com/satishbabariya/joinql/internal/core/query/expr"
)

// Command is the provider-neutral representation of a statement. The set of
// implementations is closed; translators switch over it exhaustively.
type Command interface {
	command()
}

// TableRef names a table and the alias it is referenced by.
type TableRef struct {
	Schema string
	Name   string
	Alias  string
}

// Projection is one selected expression.
type Projection struct {
	Expr  DbExpr
	Alias string
}

// JoinNode attaches a table to the FROM clause.
type JoinNode struct {
	Type  JoinType
	Table TableRef
	On    DbExpr
}

// Ordering is one ORDER BY key.
type Ordering struct {
	Expr DbExpr
	Desc bool
}

// SelectCommand reads rows.
type SelectCommand struct {
	Table       TableRef
	Projections []Projection
	Joins       []JoinNode
	Where       DbExpr
	OrderBy     []Ordering
	Skip        *int
	Take        *int
}

// ColumnValue assigns a value expression to a column.
type ColumnValue struct {
	Column string
	Value  DbExpr
}

// InsertCommand inserts one row.
type InsertCommand struct {
	Table  TableRef
	Values []ColumnValue
}

// UpdateCommand updates the rows matching Where.
type UpdateCommand struct {
	Table TableRef
	Set   []ColumnValue
	Where DbExpr
}

// DeleteCommand deletes the rows matching Where.
type DeleteCommand struct {
	Table TableRef
	Where DbExpr
}

func (*SelectCommand) command() {}
func (*InsertCommand) command() {}
func (*UpdateCommand) command() {}
func (*DeleteCommand) command() {}

// DbExpr is a provider-neutral scalar or predicate expression.
type DbExpr interface {
	dbExpr()
}

// ColumnRef references a column, qualified by a table alias when Table is set.
type ColumnRef struct {
	Table  string
	Column string
}

// DbParameter is a value that is always bound as a command parameter.
type DbParameter struct {
	Value any
	Type  expr.Type
}

// DbConstant is a literal. nil, booleans and integers render inline; other
// values are bound as parameters.
type DbConstant struct {
	Value any
}

// DbBinary applies an operator to two operands.
type DbBinary struct {
	Op    expr.BinaryOp
	Left  DbExpr
	Right DbExpr
}

// DbUnary applies an operator to one operand.
type DbUnary struct {
	Op      expr.UnaryOp
	Operand DbExpr
}

// DbFunction calls an aggregate or scalar function.
type DbFunction struct {
	Name string
	Args []DbExpr
}

// DbStar is the * argument of COUNT(*) or a bare projection.
type DbStar struct{}

func (ColumnRef) dbExpr()   {}
func (DbParameter) dbExpr() {}
func (DbConstant) dbExpr()  {}
func (DbBinary) dbExpr()    {}
func (DbUnary) dbExpr()     {}
func (DbFunction) dbExpr()  {}
func (DbStar) dbExpr()      {}

// Param returns a DbParameter whose type is inferred from v.
func Param(v any) DbParameter {
	return DbParameter{Value: v, Type: expr.TypeOf(v)}
}

// Col returns a column reference.
func Col(table, column string) ColumnRef {
	return ColumnRef{Table: table, Column: column}
}

// Equal returns left = right.
func Equal(left, right DbExpr) DbBinary {
	return DbBinary{Op: expr.OpEqual, Left: left, Right: right}
}

// AndAll conjoins predicates, skipping nil entries. It returns nil when none remain.
func AndAll(preds ...DbExpr) DbExpr {
	var out DbExpr
	for _, p := range preds {
		if p == nil {
			continue
		}
		if out == nil {
			out = p
			continue
		}
		out = DbBinary{Op: expr.OpAnd, Left: out, Right: p}
	}
	return out
}
