// Package expr defines the structural query description: a closed set of typed
// expression nodes that callers compose to describe a multi-entity query before
// it is lowered into the provider-neutral command IR.
package expr

import (
	"fmt"
	"strings"
	"time"
)

// Kind classifies the value type of an expression.
type Kind int

const (
	// KindUnknown is the zero kind.
	KindUnknown Kind = iota
	// KindBool is a boolean value.
	KindBool
	// KindInt is any integer value, normalised to int64 on evaluation.
	KindInt
	// KindFloat is any floating point value, normalised to float64 on evaluation.
	KindFloat
	// KindString is a string value.
	KindString
	// KindTime is a time.Time value.
	KindTime
	// KindJoinType is a join type marker.
	KindJoinType
	// KindEntity is a mapped entity; Type.Name carries the entity type identifier.
	KindEntity
	// KindObject is an untyped value (the element type of a heterogeneous array).
	KindObject
)

// Type is the static type of an expression.
type Type struct {
	Kind Kind
	Name string
}

// Predefined scalar types.
var (
	Unknown   = Type{Kind: KindUnknown, Name: "unknown"}
	Bool      = Type{Kind: KindBool, Name: "bool"}
	Int       = Type{Kind: KindInt, Name: "int"}
	Float     = Type{Kind: KindFloat, Name: "float"}
	String    = Type{Kind: KindString, Name: "string"}
	Time      = Type{Kind: KindTime, Name: "time"}
	JoinTypeT = Type{Kind: KindJoinType, Name: "JoinType"}
	Object    = Type{Kind: KindObject, Name: "object"}
)

// Entity returns the type of a mapped entity identified by name.
func Entity(name string) Type {
	return Type{Kind: KindEntity, Name: name}
}

func (t Type) String() string {
	if t.Name != "" {
		return t.Name
	}
	return "unknown"
}

// TypeOf infers the static type of a Go value.
func TypeOf(v any) Type {
	switch v.(type) {
	case nil:
		return Object
	case bool:
		return Bool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Int
	case float32, float64:
		return Float
	case string:
		return String
	case time.Time:
		return Time
	default:
		return Object
	}
}

// Node is an expression tree node. The set of implementations is closed.
type Node interface {
	// Type returns the static value type of the node.
	Type() Type
	// String returns the textual form used in diagnostics.
	String() string

	node()
}

// Constant is a literal value.
type Constant struct {
	Value any
	T     Type
}

// Const returns a Constant whose type is inferred from v.
func Const(v any) Constant {
	return Constant{Value: v, T: TypeOf(v)}
}

func (c Constant) Type() Type { return c.T }

func (c Constant) String() string {
	switch v := c.Value.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (Constant) node() {}

// Captured is a variable closed over by the description; its value is known
// when the description is built but it is not a literal.
type Captured struct {
	Name  string
	Value any
	T     Type
}

// Capture returns a Captured whose type is inferred from v.
func Capture(name string, v any) Captured {
	return Captured{Name: name, Value: v, T: TypeOf(v)}
}

func (c Captured) Type() Type { return c.T }

func (c Captured) String() string { return c.Name }

func (Captured) node() {}

// Symbol is a typed parameter bound by a description, one per participating
// entity. Symbols are compared by identity.
type Symbol struct {
	Name string
	T    Type
}

// NewSymbol returns a symbol for an entity of the given type.
func NewSymbol(name, entity string) *Symbol {
	return &Symbol{Name: name, T: Entity(entity)}
}

func (s *Symbol) Type() Type { return s.T }

func (s *Symbol) String() string { return s.Name }

func (*Symbol) node() {}

// Field returns a member access on the symbol.
func (s *Symbol) Field(name string, t Type) Member {
	return Member{Target: s, Field: name, T: t}
}

// Member is a field access on a target expression.
type Member struct {
	Target Node
	Field  string
	T      Type
}

func (m Member) Type() Type { return m.T }

func (m Member) String() string { return m.Target.String() + "." + m.Field }

func (Member) node() {}

// BinaryOp is a binary operator.
type BinaryOp string

const (
	OpEqual        BinaryOp = "=="
	OpNotEqual     BinaryOp = "!="
	OpLess         BinaryOp = "<"
	OpLessEqual    BinaryOp = "<="
	OpGreater      BinaryOp = ">"
	OpGreaterEqual BinaryOp = ">="
	OpAnd          BinaryOp = "&&"
	OpOr           BinaryOp = "||"
	OpAdd          BinaryOp = "+"
	OpSub          BinaryOp = "-"
	OpMul          BinaryOp = "*"
	OpDiv          BinaryOp = "/"
	OpMod          BinaryOp = "%"
)

// IsComparison reports whether op yields a boolean from two operands of the same type.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpEqual, OpNotEqual, OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		return true
	}
	return false
}

// IsLogical reports whether op combines two booleans.
func (op BinaryOp) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

// Binary applies an operator to two operands.
type Binary struct {
	Op    BinaryOp
	Left  Node
	Right Node
}

// Eq returns left == right.
func Eq(left, right Node) Binary { return Binary{Op: OpEqual, Left: left, Right: right} }

// And returns left && right.
func And(left, right Node) Binary { return Binary{Op: OpAnd, Left: left, Right: right} }

// Or returns left || right.
func Or(left, right Node) Binary { return Binary{Op: OpOr, Left: left, Right: right} }

func (b Binary) Type() Type {
	if b.Op.IsComparison() || b.Op.IsLogical() {
		return Bool
	}
	lt, rt := b.Left.Type(), b.Right.Type()
	if lt.Kind == KindInt && rt.Kind == KindFloat {
		return Float
	}
	return lt
}

func (b Binary) String() string {
	return "(" + b.Left.String() + " " + string(b.Op) + " " + b.Right.String() + ")"
}

func (Binary) node() {}

// UnaryOp is a unary operator.
type UnaryOp string

const (
	OpNot    UnaryOp = "!"
	OpNegate UnaryOp = "-"
)

// Unary applies an operator to one operand.
type Unary struct {
	Op      UnaryOp
	Operand Node
}

// Not returns !operand.
func Not(operand Node) Unary { return Unary{Op: OpNot, Operand: operand} }

func (u Unary) Type() Type {
	if u.Op == OpNot {
		return Bool
	}
	return u.Operand.Type()
}

func (u Unary) String() string { return string(u.Op) + u.Operand.String() }

func (Unary) node() {}

// Convert coerces its operand to another type. Boxing an element of a
// heterogeneous array into Object is the common case.
type Convert struct {
	Operand Node
	T       Type
}

// Box wraps n in a conversion to Object.
func Box(n Node) Convert { return Convert{Operand: n, T: Object} }

func (c Convert) Type() Type { return c.T }

func (c Convert) String() string {
	return "Convert(" + c.Operand.String() + ", " + c.T.String() + ")"
}

func (Convert) node() {}

// StripConvert removes any chain of Convert wrappers around n.
func StripConvert(n Node) Node {
	for {
		c, ok := n.(Convert)
		if !ok {
			return n
		}
		n = c.Operand
	}
}

// NewArray constructs an array from a flat list of elements.
type NewArray struct {
	Elements []Node
	Elem     Type
}

// Array returns a heterogeneous array of the given elements.
func Array(elements ...Node) NewArray {
	return NewArray{Elements: elements, Elem: Object}
}

func (a NewArray) Type() Type {
	return Type{Kind: KindObject, Name: a.Elem.String() + "[]"}
}

func (a NewArray) String() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.String()
	}
	return "new " + a.Elem.String() + "[] {" + strings.Join(parts, ", ") + "}"
}

func (NewArray) node() {}

// Lambda binds an ordered list of symbols to a body.
type Lambda struct {
	Params []*Symbol
	Body   Node
	Result Type
}

// NewLambda returns a lambda whose result type is the body's type.
func NewLambda(body Node, params ...*Symbol) *Lambda {
	return &Lambda{Params: params, Body: body, Result: body.Type()}
}

func (l *Lambda) Type() Type { return l.Result }

func (l *Lambda) String() string {
	names := make([]string, len(l.Params))
	for i, p := range l.Params {
		names[i] = p.Name
	}
	return "(" + strings.Join(names, ", ") + ") => " + l.Body.String()
}

func (*Lambda) node() {}

// Signature returns the parameter types followed by the result type.
func (l *Lambda) Signature() []Type {
	sig := make([]Type, 0, len(l.Params)+1)
	for _, p := range l.Params {
		sig = append(sig, p.T)
	}
	return append(sig, l.Result)
}

// Binds reports whether s is one of the lambda's parameters.
func (l *Lambda) Binds(s *Symbol) bool {
	for _, p := range l.Params {
		if p == s {
			return true
		}
	}
	return false
}
