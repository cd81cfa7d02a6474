// Package translator renders the provider-neutral command IR into dialect
// specific SQL text and parameters.
package translator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/core/query/expr"
)

// Translator lowers a command into executable text.
type Translator interface {
	Translate(cmd domain.Command) (*domain.CommandInfo, error)
}

// SQLTranslator renders commands using a fixed dialect. It holds no per-call
// state and is safe for concurrent use.
type SQLTranslator struct {
	dialect Dialect
}

var _ Translator = (*SQLTranslator)(nil)

// New builds a translator for d with opts applied to a private copy.
func New(d Dialect, opts ...Option) (*SQLTranslator, error) {
	d.NoJoins = append([]domain.JoinType(nil), d.NoJoins...)
	for _, opt := range opts {
		if err := opt(&d); err != nil {
			return nil, err
		}
	}
	return &SQLTranslator{dialect: d}, nil
}

// MustNew is like New but panics on error.
func MustNew(d Dialect, opts ...Option) *SQLTranslator {
	t, err := New(d, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Dialect returns a copy of the translator's dialect.
func (t *SQLTranslator) Dialect() Dialect {
	return t.dialect
}

// Translate implements Translator.
func (t *SQLTranslator) Translate(cmd domain.Command) (*domain.CommandInfo, error) {
	w := &writer{d: &t.dialect}

	var err error
	switch c := cmd.(type) {
	case *domain.SelectCommand:
		err = w.selectCommand(c)
	case *domain.InsertCommand:
		err = w.insertCommand(c)
	case *domain.UpdateCommand:
		err = w.updateCommand(c)
	case *domain.DeleteCommand:
		err = w.deleteCommand(c)
	case nil:
		err = domain.NewError(domain.ErrInvalidArgument, nil, "command is nil")
	default:
		err = domain.Unsupported("command %T", cmd)
	}
	if err != nil {
		return nil, err
	}

	text := w.sb.String()
	if t.dialect.Style == domain.Positional && t.dialect.Placeholder != nil {
		text, err = t.dialect.Placeholder.ReplacePlaceholders(text)
		if err != nil {
			return nil, fmt.Errorf("replace placeholders: %w", err)
		}
	}

	return &domain.CommandInfo{Text: text, Parameters: w.params, Style: t.dialect.Style, Sigil: t.dialect.Sigil}, nil
}

var aggregates = map[string]bool{
	"COUNT": true,
	"SUM":   true,
	"MAX":   true,
	"MIN":   true,
	"AVG":   true,
}

// writer accumulates the text and parameters of one translation.
type writer struct {
	d      *Dialect
	sb     strings.Builder
	params []domain.Parameter
}

func (w *writer) write(parts ...string) {
	for _, p := range parts {
		w.sb.WriteString(p)
	}
}

func (w *writer) ident(name string) string {
	if w.d.FoldUpper {
		name = strings.ToUpper(name)
	}
	if w.d.rewritesMarkers() {
		// The placeholder pass turns ?? back into a literal ?.
		name = strings.ReplaceAll(name, "?", "??")
	}
	return w.d.OpenQuote + name + w.d.CloseQuote
}

func (w *writer) table(ref domain.TableRef) {
	if ref.Schema != "" {
		w.write(w.ident(ref.Schema), ".")
	}
	w.write(w.ident(ref.Name))
	if ref.Alias == "" {
		return
	}
	if w.d.TableAliasAS {
		w.write(" AS")
	}
	w.write(" ", w.ident(ref.Alias))
}

func (w *writer) selectCommand(c *domain.SelectCommand) error {
	w.write("SELECT ")
	if len(c.Projections) == 0 {
		w.write("*")
	}
	for i, p := range c.Projections {
		if i > 0 {
			w.write(", ")
		}
		if err := w.expr(p.Expr); err != nil {
			return err
		}
		if p.Alias != "" {
			w.write(" AS ", w.ident(p.Alias))
		}
	}

	w.write(" FROM ")
	w.table(c.Table)

	for _, j := range c.Joins {
		if !j.Type.Valid() {
			return domain.NewError(domain.ErrInvalidJoinType, nil, "join type %d", int(j.Type))
		}
		if !w.d.SupportsJoin(j.Type) {
			return domain.Unsupported("%s does not support %s", w.d.Name, j.Type.Keyword())
		}
		if j.On == nil {
			return domain.NewError(domain.ErrInvalidJoinCondition, nil, "join of %s has no condition", j.Table.Name)
		}
		w.write(" ", j.Type.Keyword(), " ")
		w.table(j.Table)
		w.write(" ON ")
		if err := w.expr(j.On); err != nil {
			return err
		}
	}

	if err := w.where(c.Where); err != nil {
		return err
	}

	for i, o := range c.OrderBy {
		if i == 0 {
			w.write(" ORDER BY ")
		} else {
			w.write(", ")
		}
		if err := w.expr(o.Expr); err != nil {
			return err
		}
		if o.Desc {
			w.write(" DESC")
		}
	}

	return w.paging(c.Skip, c.Take)
}

func (w *writer) paging(skip, take *int) error {
	if skip == nil && take == nil {
		return nil
	}
	if !w.d.SupportsPaging() {
		return domain.Unsupported("%s %s does not support OFFSET/FETCH", w.d.Name, w.d.ServerVersion)
	}
	if (skip != nil && *skip < 0) || (take != nil && *take < 0) {
		return domain.NewError(domain.ErrInvalidArgument, nil, "skip and take must not be negative")
	}

	switch w.d.Paging {
	case PagingOffsetFetch:
		if skip != nil {
			w.write(" OFFSET ", strconv.Itoa(*skip), " ROWS")
		}
		if take != nil {
			w.write(" FETCH NEXT ", strconv.Itoa(*take), " ROWS ONLY")
		}
	default:
		switch {
		case take != nil:
			w.write(" LIMIT ", strconv.Itoa(*take))
		case w.d.UnboundedLimit != "":
			w.write(" LIMIT ", w.d.UnboundedLimit)
		}
		if skip != nil {
			w.write(" OFFSET ", strconv.Itoa(*skip))
		}
	}
	return nil
}

func (w *writer) insertCommand(c *domain.InsertCommand) error {
	if len(c.Values) == 0 {
		return domain.NewError(domain.ErrInvalidArgument, nil, "insert into %s has no values", c.Table.Name)
	}
	w.write("INSERT INTO ")
	w.table(domain.TableRef{Schema: c.Table.Schema, Name: c.Table.Name})

	w.write(" (")
	for i, v := range c.Values {
		if i > 0 {
			w.write(", ")
		}
		w.write(w.ident(v.Column))
	}
	w.write(") VALUES (")
	for i, v := range c.Values {
		if i > 0 {
			w.write(", ")
		}
		if err := w.expr(v.Value); err != nil {
			return err
		}
	}
	w.write(")")
	return nil
}

func (w *writer) updateCommand(c *domain.UpdateCommand) error {
	if len(c.Set) == 0 {
		return domain.NewError(domain.ErrInvalidArgument, nil, "update of %s sets no columns", c.Table.Name)
	}
	w.write("UPDATE ")
	w.table(c.Table)
	w.write(" SET ")
	for i, v := range c.Set {
		if i > 0 {
			w.write(", ")
		}
		w.write(w.ident(v.Column), " = ")
		if err := w.expr(v.Value); err != nil {
			return err
		}
	}
	return w.where(c.Where)
}

func (w *writer) deleteCommand(c *domain.DeleteCommand) error {
	w.write("DELETE FROM ")
	w.table(c.Table)
	return w.where(c.Where)
}

func (w *writer) where(pred domain.DbExpr) error {
	if pred == nil {
		return nil
	}
	w.write(" WHERE ")
	return w.expr(pred)
}

func (w *writer) expr(e domain.DbExpr) error {
	switch v := e.(type) {
	case domain.ColumnRef:
		if v.Table != "" {
			w.write(w.ident(v.Table), ".")
		}
		w.write(w.ident(v.Column))
	case domain.DbParameter:
		return w.param(v.Value, v.Type)
	case domain.DbConstant:
		return w.constant(v.Value)
	case domain.DbStar:
		w.write("*")
	case domain.DbBinary:
		return w.binary(v)
	case domain.DbUnary:
		return w.unary(v)
	case domain.DbFunction:
		return w.function(v)
	case nil:
		return domain.NewError(domain.ErrInvalidArgument, nil, "missing expression")
	default:
		return domain.Unsupported("expression %T", e)
	}
	return nil
}

func (w *writer) param(value any, t expr.Type) error {
	name, err := w.d.FormatParameterName("P_" + strconv.Itoa(len(w.params)))
	if err != nil {
		return err
	}
	if t.Kind == expr.KindUnknown {
		t = expr.TypeOf(value)
	}
	w.params = append(w.params, domain.Parameter{Name: name, Value: value, Type: t})
	if w.d.Style == domain.Positional {
		w.write("?")
	} else {
		w.write(name)
	}
	return nil
}

func (w *writer) constant(value any) error {
	switch v := value.(type) {
	case nil:
		w.write("NULL")
	case bool:
		switch {
		case w.d.BoolAsInt && v:
			w.write("1")
		case w.d.BoolAsInt:
			w.write("0")
		case v:
			w.write("TRUE")
		default:
			w.write("FALSE")
		}
	case int:
		w.write(strconv.FormatInt(int64(v), 10))
	case int8:
		w.write(strconv.FormatInt(int64(v), 10))
	case int16:
		w.write(strconv.FormatInt(int64(v), 10))
	case int32:
		w.write(strconv.FormatInt(int64(v), 10))
	case int64:
		w.write(strconv.FormatInt(v, 10))
	case uint:
		w.write(strconv.FormatUint(uint64(v), 10))
	case uint8:
		w.write(strconv.FormatUint(uint64(v), 10))
	case uint16:
		w.write(strconv.FormatUint(uint64(v), 10))
	case uint32:
		w.write(strconv.FormatUint(uint64(v), 10))
	case uint64:
		w.write(strconv.FormatUint(v, 10))
	default:
		return w.param(value, expr.TypeOf(value))
	}
	return nil
}

func isNull(e domain.DbExpr) bool {
	c, ok := e.(domain.DbConstant)
	return ok && c.Value == nil
}

var binaryOps = map[expr.BinaryOp]string{
	expr.OpEqual:        "=",
	expr.OpNotEqual:     "<>",
	expr.OpLess:         "<",
	expr.OpLessEqual:    "<=",
	expr.OpGreater:      ">",
	expr.OpGreaterEqual: ">=",
	expr.OpAnd:          "AND",
	expr.OpOr:           "OR",
	expr.OpAdd:          "+",
	expr.OpSub:          "-",
	expr.OpMul:          "*",
	expr.OpDiv:          "/",
	expr.OpMod:          "%",
}

func (w *writer) binary(b domain.DbBinary) error {
	if b.Op == expr.OpEqual || b.Op == expr.OpNotEqual {
		operand := b.Left
		if isNull(b.Left) {
			operand = b.Right
		}
		if isNull(b.Left) || isNull(b.Right) {
			if err := w.operand(operand); err != nil {
				return err
			}
			if b.Op == expr.OpEqual {
				w.write(" IS NULL")
			} else {
				w.write(" IS NOT NULL")
			}
			return nil
		}
	}

	if b.Op == expr.OpMod && w.d.ModFunc {
		return w.function(domain.DbFunction{Name: "MOD", Args: []domain.DbExpr{b.Left, b.Right}})
	}

	op, ok := binaryOps[b.Op]
	if !ok {
		return domain.Unsupported("operator %s", b.Op)
	}
	if err := w.operand(b.Left); err != nil {
		return err
	}
	w.write(" ", op, " ")
	return w.operand(b.Right)
}

// operand renders a nested expression, parenthesizing compound ones.
func (w *writer) operand(e domain.DbExpr) error {
	switch e.(type) {
	case domain.DbBinary, domain.DbUnary:
		w.write("(")
		if err := w.expr(e); err != nil {
			return err
		}
		w.write(")")
		return nil
	}
	return w.expr(e)
}

func (w *writer) unary(u domain.DbUnary) error {
	switch u.Op {
	case expr.OpNot:
		w.write("NOT ")
	case expr.OpNegate:
		w.write("-")
	default:
		return domain.Unsupported("operator %s", u.Op)
	}
	return w.operand(u.Operand)
}

func (w *writer) function(f domain.DbFunction) error {
	name := strings.ToUpper(f.Name)
	if !aggregates[name] && !(name == "MOD" && w.d.ModFunc) {
		return domain.Unsupported("function %s", f.Name)
	}
	w.write(name, "(")
	for i, a := range f.Args {
		if i > 0 {
			w.write(", ")
		}
		if err := w.expr(a); err != nil {
			return err
		}
	}
	w.write(")")
	return nil
}
