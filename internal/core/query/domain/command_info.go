package domain

import (
	"database/sql"
	"strings"

	"github.com/satishbabariya/joinql/internal/core/query/expr"
)

// BindStyle is the way a driver matches placeholders to arguments.
type BindStyle int

const (
	// Named drivers bind by parameter name.
	Named BindStyle = iota
	// Positional drivers bind by occurrence order.
	Positional
)

func (s BindStyle) String() string {
	if s == Positional {
		return "positional"
	}
	return "named"
}

// Parameter is one bound value. Name includes the provider sigil.
type Parameter struct {
	Name  string
	Value any
	Type  expr.Type
}

// CommandInfo is translated command text plus its ordered parameters.
// It is treated as immutable once returned by a translator.
type CommandInfo struct {
	Text       string
	Parameters []Parameter
	Style      BindStyle
	// Sigil is the placeholder prefix used in Parameters names.
	Sigil byte
}

// Args returns the driver arguments for the command.
func (c *CommandInfo) Args() []any {
	return BindArgs(c.Style, c.Sigil, c.Parameters)
}

// BindArgs converts parameters into database/sql arguments. Named parameters
// are passed as sql.NamedArg with one leading sigil removed.
func BindArgs(style BindStyle, sigil byte, params []Parameter) []any {
	args := make([]any, len(params))
	for i, p := range params {
		if style == Positional {
			args[i] = p.Value
			continue
		}
		args[i] = sql.Named(strings.TrimPrefix(p.Name, string(sigil)), p.Value)
	}
	return args
}

// FormatParameterName prefixes name with sigil unless it already starts with it.
func FormatParameterName(sigil byte, name string) (string, error) {
	if name == "" {
		return "", NewError(ErrInvalidArgument, nil, "parameter name is empty")
	}
	if name[0] == sigil {
		return name, nil
	}
	return string(sigil) + name, nil
}
