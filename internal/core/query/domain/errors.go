package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Callers classify failures with errors.Is.
var (
	// ErrInvalidJoinSpecification indicates a join description of the wrong shape.
	ErrInvalidJoinSpecification = errors.New("invalid join specification")

	// ErrInvalidJoinType indicates a join type position that does not evaluate to a JoinType.
	ErrInvalidJoinType = errors.New("invalid join type")

	// ErrInvalidJoinCondition indicates a join condition that is not a boolean
	// predicate over the entities introduced so far.
	ErrInvalidJoinCondition = errors.New("invalid join condition")

	// ErrInvalidArgument indicates a violated precondition.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedTranslation indicates an IR construct the dialect cannot render.
	ErrUnsupportedTranslation = errors.New("unsupported translation")
)

// Error carries the textual form of the expression that caused a failure.
type Error struct {
	Kind    error
	Expr    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Expr != "" && e.Message != "":
		return fmt.Sprintf("%v '%s': %s", e.Kind, e.Expr, e.Message)
	case e.Expr != "":
		return fmt.Sprintf("%v '%s'", e.Kind, e.Expr)
	case e.Message != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	default:
		return e.Kind.Error()
	}
}

// Unwrap returns the taxonomy sentinel.
func (e *Error) Unwrap() error {
	return e.Kind
}

// NewError returns an Error of the given kind.
func NewError(kind error, expr fmt.Stringer, format string, args ...any) *Error {
	e := &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
	if expr != nil {
		e.Expr = expr.String()
	}
	return e
}

// Unsupported returns an ErrUnsupportedTranslation error.
func Unsupported(format string, args ...any) *Error {
	return &Error{Kind: ErrUnsupportedTranslation, Message: fmt.Sprintf(format, args...)}
}
