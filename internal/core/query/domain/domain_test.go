package domain_test

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/core/query/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJoinType(t *testing.T) {
	tests := []struct {
		in   string
		want domain.JoinType
		ok   bool
	}{
		{"Inner", domain.InnerJoin, true},
		{"left", domain.LeftJoin, true},
		{"RightJoin", domain.RightJoin, true},
		{" full ", domain.FullJoin, true},
		{"cross", 0, false},
		{"join", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := domain.ParseJoinType(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestJoinType_Valid(t *testing.T) {
	assert.True(t, domain.FullJoin.Valid())
	assert.False(t, domain.JoinType(9).Valid())
	assert.Equal(t, "LEFT JOIN", domain.LeftJoin.Keyword())
	assert.Equal(t, "Right", domain.RightJoin.String())
}

func TestFormatParameterName(t *testing.T) {
	for _, name := range []string{"P_0", ":P_0", "userId", "x"} {
		t.Run(name, func(t *testing.T) {
			once, err := domain.FormatParameterName(':', name)
			require.NoError(t, err)
			twice, err := domain.FormatParameterName(':', once)
			require.NoError(t, err)

			assert.Equal(t, once, twice)
			assert.Equal(t, byte(':'), once[0])
		})
	}

	_, err := domain.FormatParameterName(':', "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestCommandInfo_Args(t *testing.T) {
	params := []domain.Parameter{
		{Name: ":P_0", Value: 1, Type: expr.Int},
		{Name: ":P_1", Value: nil, Type: expr.Object},
	}

	named := &domain.CommandInfo{Text: "x", Parameters: params, Style: domain.Named, Sigil: ':'}
	assert.Equal(t, []any{sql.Named("P_0", 1), sql.Named("P_1", nil)}, named.Args())

	positional := &domain.CommandInfo{Text: "x", Parameters: params, Style: domain.Positional}
	assert.Equal(t, []any{1, nil}, positional.Args())
}

func TestBindArgs_TrimsOneSigil(t *testing.T) {
	params := []domain.Parameter{
		{Name: "@@x", Value: 1},
		{Name: "@y", Value: 2},
		{Name: ":z", Value: 3},
	}
	assert.Equal(t,
		[]any{sql.Named("@x", 1), sql.Named("y", 2), sql.Named(":z", 3)},
		domain.BindArgs(domain.Named, '@', params))
}

func TestJoinTypeConversion(t *testing.T) {
	v, err := expr.Evaluate(expr.Convert{Operand: expr.Const(1), T: expr.JoinTypeT})
	require.NoError(t, err)
	assert.Equal(t, domain.LeftJoin, v)

	v, err = expr.Evaluate(expr.Convert{Operand: domain.JoinMarker(domain.FullJoin), T: expr.Int})
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	_, err = expr.Evaluate(expr.Convert{Operand: expr.Const("Left"), T: expr.JoinTypeT})
	assert.ErrorIs(t, err, expr.ErrNotEvaluable)
}

func TestError(t *testing.T) {
	cond := expr.Eq(expr.Const(1), expr.Const(2))
	err := domain.NewError(domain.ErrInvalidJoinCondition, cond, "not boolean")

	assert.True(t, errors.Is(err, domain.ErrInvalidJoinCondition))
	assert.Equal(t, "invalid join condition '(1 == 2)': not boolean", err.Error())
	assert.Equal(t, "unsupported translation: FULL JOIN", domain.Unsupported("FULL JOIN").Error())
}

func TestAndAll(t *testing.T) {
	assert.Nil(t, domain.AndAll(nil, nil))

	a := domain.Equal(domain.Col("T0", "Id"), domain.Param(1))
	assert.Equal(t, a, domain.AndAll(nil, a))

	b := domain.Equal(domain.Col("T1", "Id"), domain.Param(2))
	assert.Equal(t, domain.DbBinary{Op: expr.OpAnd, Left: a, Right: b}, domain.AndAll(a, b))
}
