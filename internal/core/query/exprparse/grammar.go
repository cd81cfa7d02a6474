package exprparse

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ConditionLexer tokenizes condition text.
var ConditionLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Float", Pattern: `\d+\.\d+`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Operator", Pattern: `==|!=|<=|>=|&&|\|\||[<>!+\-*/%]`},
	{Name: "Punct", Pattern: `[().$]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

type orExpr struct {
	Left  *andExpr   `@@`
	Right []*andExpr `( "||" @@ )*`
}

type andExpr struct {
	Left  *cmpExpr   `@@`
	Right []*cmpExpr `( "&&" @@ )*`
}

type cmpExpr struct {
	Left  *addExpr `@@`
	Op    string   `( @( "==" | "!=" | "<=" | ">=" | "<" | ">" )`
	Right *addExpr `  @@ )?`
}

type addExpr struct {
	Left *mulExpr `@@`
	Rest []*addOp `@@*`
}

type addOp struct {
	Op      string   `@( "+" | "-" )`
	Operand *mulExpr `@@`
}

type mulExpr struct {
	Left *unaryExpr `@@`
	Rest []*mulOp   `@@*`
}

type mulOp struct {
	Op      string     `@( "*" | "/" | "%" )`
	Operand *unaryExpr `@@`
}

type unaryExpr struct {
	Op      string     `  @( "!" | "-" )`
	Operand *unaryExpr `  @@`
	Primary *primary   `| @@`
}

type primary struct {
	Pos    lexer.Position
	Null   bool     `  @"null"`
	True   bool     `| @"true"`
	False  bool     `| @"false"`
	Float  *float64 `| @Float`
	Int    *int64   `| @Int`
	String *string  `| @String`
	Var    *varRef  `| "$" @@`
	Path   []string `| @Ident ( "." @Ident )*`
	Sub    *orExpr  `| "(" @@ ")"`
}

type varRef struct {
	Name   string   `@Ident`
	Fields []string `( "." @Ident )*`
}

var parser = participle.MustBuild[orExpr](
	participle.Lexer(ConditionLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)
