package expr

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
)

// ErrNotEvaluable is returned when a node cannot be folded to a value without
// a live entity set, for example because it references a symbol.
var ErrNotEvaluable = errors.New("expression is not evaluable")

// FieldGetter lets captured values expose fields to member access without reflection.
type FieldGetter interface {
	Field(name string) (any, bool)
}

// Conversion folds a value into a kind the expression package does not own.
type Conversion func(v any) (any, error)

var (
	conversionsMu sync.RWMutex
	conversions   = map[Kind]Conversion{}
)

// RegisterConversion installs the conversion applied by Convert nodes that
// target kind k. Built-in kinds cannot be overridden.
func RegisterConversion(k Kind, fn Conversion) {
	switch k {
	case KindBool, KindInt, KindFloat, KindString:
		panic(fmt.Sprintf("expr: conversion for built-in kind %d", k))
	}
	conversionsMu.Lock()
	defer conversionsMu.Unlock()
	conversions[k] = fn
}

func lookupConversion(k Kind) (Conversion, bool) {
	conversionsMu.RLock()
	defer conversionsMu.RUnlock()
	fn, ok := conversions[k]
	return fn, ok
}

// Evaluate folds a closed sub-expression to a plain value.
func Evaluate(n Node) (any, error) {
	switch n := n.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil expression", ErrNotEvaluable)
	case Constant:
		return n.Value, nil
	case Captured:
		return n.Value, nil
	case Convert:
		v, err := Evaluate(n.Operand)
		if err != nil {
			return nil, err
		}
		return convertValue(v, n.T)
	case Unary:
		return evalUnary(n)
	case Binary:
		return evalBinary(n)
	case Member:
		target, err := Evaluate(n.Target)
		if err != nil {
			return nil, err
		}
		return member(target, n.Field)
	case NewArray:
		out := make([]any, len(n.Elements))
		for i, e := range n.Elements {
			v, err := Evaluate(e)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case *Symbol:
		return nil, fmt.Errorf("%w: free symbol %q", ErrNotEvaluable, n.Name)
	case *Lambda:
		return nil, fmt.Errorf("%w: lambda %s", ErrNotEvaluable, n)
	default:
		return nil, fmt.Errorf("%w: unsupported node %T", ErrNotEvaluable, n)
	}
}

func member(target any, field string) (any, error) {
	switch t := target.(type) {
	case map[string]any:
		v, ok := t[field]
		if !ok {
			return nil, fmt.Errorf("%w: no field %q", ErrNotEvaluable, field)
		}
		return v, nil
	case FieldGetter:
		v, ok := t.Field(field)
		if !ok {
			return nil, fmt.Errorf("%w: no field %q", ErrNotEvaluable, field)
		}
		return v, nil
	case nil:
		return nil, fmt.Errorf("%w: field %q of null", ErrNotEvaluable, field)
	default:
		return nil, fmt.Errorf("%w: %T has no accessible fields", ErrNotEvaluable, target)
	}
}

func convertValue(v any, t Type) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t.Kind {
	case KindInt:
		if i, ok := toInt(v); ok {
			return i, nil
		}
		if f, ok := toFloat(v); ok {
			return int64(f), nil
		}
	case KindFloat:
		if f, ok := toFloat(v); ok {
			return f, nil
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	default:
		if fn, ok := lookupConversion(t.Kind); ok {
			return fn(v)
		}
		return v, nil
	}
	return nil, fmt.Errorf("%w: cannot convert %T to %s", ErrNotEvaluable, v, t)
}

func evalUnary(u Unary) (any, error) {
	v, err := Evaluate(u.Operand)
	if err != nil {
		return nil, err
	}
	switch u.Op {
	case OpNot:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: ! applied to %T", ErrNotEvaluable, v)
		}
		return !b, nil
	case OpNegate:
		if i, ok := toInt(v); ok {
			return -i, nil
		}
		if f, ok := toFloat(v); ok {
			return -f, nil
		}
		return nil, fmt.Errorf("%w: - applied to %T", ErrNotEvaluable, v)
	}
	return nil, fmt.Errorf("%w: unknown operator %s", ErrNotEvaluable, u.Op)
}

func evalBinary(b Binary) (any, error) {
	left, err := Evaluate(b.Left)
	if err != nil {
		return nil, err
	}

	if b.Op.IsLogical() {
		lb, ok := left.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s applied to %T", ErrNotEvaluable, b.Op, left)
		}
		if (b.Op == OpAnd && !lb) || (b.Op == OpOr && lb) {
			return lb, nil
		}
		right, err := Evaluate(b.Right)
		if err != nil {
			return nil, err
		}
		rb, ok := right.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s applied to %T", ErrNotEvaluable, b.Op, right)
		}
		return rb, nil
	}

	right, err := Evaluate(b.Right)
	if err != nil {
		return nil, err
	}

	switch b.Op {
	case OpEqual:
		return equal(left, right), nil
	case OpNotEqual:
		return !equal(left, right), nil
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		c, err := compare(left, right)
		if err != nil {
			return nil, err
		}
		switch b.Op {
		case OpLess:
			return c < 0, nil
		case OpLessEqual:
			return c <= 0, nil
		case OpGreater:
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	default:
		return arithmetic(b.Op, left, right)
	}
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if c, ok := compareIntegers(a, b); ok {
		return c == 0
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// compareIntegers orders two integers of any width without wrapping.
func compareIntegers(a, b any) (int, bool) {
	if !isInteger(a) || !isInteger(b) {
		return 0, false
	}
	ai, aok := toInt(a)
	bi, bok := toInt(b)
	if aok && bok {
		return cmp.Compare(ai, bi), true
	}
	// At least one side is above math.MaxInt64.
	au, aok := toUint(a)
	bu, bok := toUint(b)
	switch {
	case aok && bok:
		return cmp.Compare(au, bu), true
	case aok:
		return 1, true
	default:
		return -1, true
	}
}

func compare(a, b any) (int, error) {
	if c, ok := compareIntegers(a, b); ok {
		return c, nil
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			switch {
			case af < bf:
				return -1, nil
			case af > bf:
				return 1, nil
			}
			return 0, nil
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), nil
	}
	return 0, fmt.Errorf("%w: cannot order %T and %T", ErrNotEvaluable, a, b)
}

func arithmetic(op BinaryOp, a, b any) (any, error) {
	if as, ok := a.(string); ok && op == OpAdd {
		if bs, ok := b.(string); ok {
			return as + bs, nil
		}
	}
	if ai, ok := toInt(a); ok {
		if bi, ok := toInt(b); ok {
			switch op {
			case OpAdd:
				return ai + bi, nil
			case OpSub:
				return ai - bi, nil
			case OpMul:
				return ai * bi, nil
			case OpDiv, OpMod:
				if bi == 0 {
					return nil, fmt.Errorf("%w: division by zero", ErrNotEvaluable)
				}
				if op == OpDiv {
					return ai / bi, nil
				}
				return ai % bi, nil
			}
		}
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch op {
		case OpAdd:
			return af + bf, nil
		case OpSub:
			return af - bf, nil
		case OpMul:
			return af * bf, nil
		case OpDiv:
			return af / bf, nil
		}
	}
	return nil, fmt.Errorf("%w: %s applied to %T and %T", ErrNotEvaluable, op, a, b)
}

// AsInt reports v as an int64. Named integer types are accepted; unsigned
// values above math.MaxInt64 are not.
func AsInt(v any) (int64, bool) {
	return toInt(v)
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case bool, string, float32, float64, nil:
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}

// toUint reports non-negative integers of any width as a uint64.
func toUint(v any) (uint64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i := rv.Int(); i >= 0 {
			return uint64(i), true
		}
	}
	return 0, false
}

func isInteger(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	if i, ok := toInt(v); ok {
		return float64(i), true
	}
	return 0, false
}
