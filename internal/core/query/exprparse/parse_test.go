package exprparse_test

import (
	"testing"

	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/core/query/expr"
	"github.com/satishbabariya/joinql/internal/core/query/exprparse"
	"github.com/satishbabariya/joinql/internal/core/query/joins"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fieldTypes map[string]expr.Type

func (f fieldTypes) FieldType(entity, field string) (expr.Type, bool) {
	t, ok := f[entity+"."+field]
	return t, ok
}

func newScope() exprparse.Scope {
	return exprparse.Scope{
		Symbols: []*expr.Symbol{
			expr.NewSymbol("user", "User"),
			expr.NewSymbol("city", "City"),
			expr.NewSymbol("province", "Province"),
		},
		Vars: map[string]any{
			"minAge": 18,
			"filter": map[string]any{"Name": "Oslo"},
		},
		Fields: fieldTypes{
			"User.CityId":         expr.Int,
			"User.Age":            expr.Int,
			"User.Active":         expr.Bool,
			"City.Id":             expr.Int,
			"City.Name":           expr.String,
			"City.ProvinceId":     expr.Int,
			"Province.Id":         expr.Int,
			"Province.Population": expr.Float,
		},
	}
}

func TestParse_Text(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"user.CityId == city.Id", "(user.CityId == city.Id)"},
		{"user.Age >= $minAge && user.Active", "((user.Age >= minAge) && user.Active)"},
		{"user.Age < 1 || user.Age > 2 && !user.Active", "((user.Age < 1) || ((user.Age > 2) && !user.Active))"},
		{"user.Age + 1 * 2 == 3", "((user.Age + (1 * 2)) == 3)"},
		{"(user.Age + 1) * 2 == 3", "(((user.Age + 1) * 2) == 3)"},
		{`city.Name != "Oslo"`, `(city.Name != "Oslo")`},
		{"city.Name == $filter.Name", "(city.Name == filter.Name)"},
		{"province.Population > 1.5", "(province.Population > 1.5)"},
		{"city.Name == null", "(city.Name == null)"},
		{"Left", "Left"},
		{"JoinType.Full", "Full"},
		{"-user.Age", "-user.Age"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, err := exprparse.Parse(tt.in, newScope())
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())
		})
	}
}

func TestParse_Types(t *testing.T) {
	scope := newScope()

	n, err := exprparse.Parse("user.Active", scope)
	require.NoError(t, err)
	assert.Equal(t, expr.Bool, n.Type())

	n, err = exprparse.Parse("Inner", scope)
	require.NoError(t, err)
	assert.Equal(t, domain.JoinMarker(domain.InnerJoin), n)

	n, err = exprparse.Parse("$filter.Name", scope)
	require.NoError(t, err)
	assert.Equal(t, expr.String, n.Type())

	n, err = exprparse.Parse("42", scope)
	require.NoError(t, err)
	assert.Equal(t, expr.Const(int64(42)), n)
}

func TestParse_Errors(t *testing.T) {
	scope := newScope()

	for _, in := range []string{"country.Id == 1", "user.Missing == 1", "$nope", "Cross"} {
		t.Run(in, func(t *testing.T) {
			_, err := exprparse.Parse(in, scope)
			assert.ErrorIs(t, err, exprparse.ErrUnknownIdentifier)
		})
	}

	_, err := exprparse.Parse("user.Age ==", scope)
	assert.Error(t, err)
}

func TestParseJoinSpec_Resolves(t *testing.T) {
	scope := newScope()
	spec, err := exprparse.ParseJoinSpec([]string{
		"Left", "user.CityId == city.Id",
		"Inner", "city.ProvinceId == province.Id",
	}, scope)
	require.NoError(t, err)

	clauses, err := joins.Resolve(spec)
	require.NoError(t, err)
	require.Len(t, clauses, 2)
	assert.Equal(t, domain.LeftJoin, clauses[0].Type)
	assert.Equal(t, domain.InnerJoin, clauses[1].Type)
	assert.Equal(t, scope.Symbols, clauses[1].Condition.Params)
}

func TestParseLambda(t *testing.T) {
	scope := newScope()
	l, err := exprparse.ParseLambda("user.Age > 1", scope)
	require.NoError(t, err)
	assert.Equal(t, "(user, city, province) => (user.Age > 1)", l.String())
	assert.Equal(t, expr.Bool, l.Result)
}
