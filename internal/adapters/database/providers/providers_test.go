package providers_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/joinql/internal/adapters/database"
	"github.com/satishbabariya/joinql/internal/adapters/database/mysql"
	"github.com/satishbabariya/joinql/internal/adapters/database/oracle"
	"github.com/satishbabariya/joinql/internal/adapters/database/providers"
	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/core/query/translator"
)

func TestNew_Identity(t *testing.T) {
	tests := []struct {
		key       string
		name      string
		style     domain.BindStyle
		paramName string
	}{
		{"oracle", "Oracle", domain.Named, ":id"},
		{"PostgreSQL", "PostgreSQL", domain.Positional, "$id"},
		{"mariadb", "MySQL", domain.Positional, "?id"},
		{"sqlite3", "SQLite", domain.Named, "@id"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			p, err := providers.NewForDB(database.Config{Provider: tt.key}, db)
			require.NoError(t, err)

			assert.Equal(t, tt.name, p.Name())
			assert.Equal(t, tt.style, p.BindStyle())
			assert.NotNil(t, p.CreateTranslator())

			once, err := p.FormatParameterName("id")
			require.NoError(t, err)
			assert.Equal(t, tt.paramName, once)

			twice, err := p.FormatParameterName(once)
			require.NoError(t, err)
			assert.Equal(t, once, twice)

			_, err = p.FormatParameterName("")
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := providers.New(database.Config{Provider: "db2"}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = providers.Translator(database.Config{Provider: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestNew_InvalidServerVersion(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p, err := providers.NewForDB(database.Config{Provider: "sqlite", ServerVersion: "three"}, db)
	assert.Error(t, err)
	assert.Nil(t, p)
}

func TestOracle_TranslatorSelection(t *testing.T) {
	upper, err := providers.Translator(database.Config{Provider: "oracle", ConvertToUppercase: true})
	require.NoError(t, err)
	again, err := providers.Translator(database.Config{Provider: "oracle", ConvertToUppercase: true})
	require.NoError(t, err)
	lower, err := providers.Translator(database.Config{Provider: "oracle"})
	require.NoError(t, err)

	assert.Same(t, upper, again)
	assert.NotSame(t, upper, lower)
	assert.True(t, upper.Dialect().FoldUpper)
	assert.False(t, lower.Dialect().FoldUpper)

	versioned, err := providers.Translator(database.Config{Provider: "oracle", ServerVersion: "11.2"})
	require.NoError(t, err)
	assert.False(t, versioned.Dialect().SupportsPaging())

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	p, err := oracle.New(database.NewSQLConnFactory(db), oracle.Options{ConvertToUppercase: true})
	require.NoError(t, err)
	assert.True(t, p.ConvertToUppercase())
	assert.Equal(t, translator.Oracle.Name, p.SQLTranslator().Dialect().Name)
}

func TestCreateConnection_Shims(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		provider string
		query    string
		arg      any
		want     driver.Value
	}{
		{"oracle", "UPDATE t SET b = :P_0", sql.Named("P_0", true), sql.Named("P_0", int64(1))},
		{"oracle", "UPDATE t SET s = :P_0", sql.Named("P_0", ""), sql.Named("P_0", nil)},
		{"postgres", "UPDATE t SET a = $1", []int64{1, 2}, "{1,2}"},
		{"mysql", "UPDATE t SET d = ?", when, when.UTC()},
		{"sqlite", "UPDATE t SET b = @P_0", sql.Named("P_0", false), sql.Named("P_0", int64(0))},
	}

	for _, tt := range tests {
		t.Run(tt.provider+" "+tt.query, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
			require.NoError(t, err)
			defer db.Close()

			p, err := providers.NewForDB(database.Config{Provider: tt.provider}, db)
			require.NoError(t, err)

			conn, err := p.CreateConnection(context.Background())
			require.NoError(t, err)
			assert.Equal(t, p.Name(), conn.Decoration())

			mock.ExpectExec(tt.query).WithArgs(tt.want).WillReturnResult(sqlmock.NewResult(0, 1))
			_, err = conn.ExecContext(context.Background(), tt.query, tt.arg)
			require.NoError(t, err)
			require.NoError(t, conn.Close())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMySQL_NormalizeDSN(t *testing.T) {
	dsn, err := mysql.NormalizeDSN("app:secret@tcp(localhost:3306)/shop")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "tcp(localhost:3306)/shop")

	_, err = mysql.NormalizeDSN("not a dsn")
	assert.Error(t, err)
}

func TestOracle_OpenRequiresDriver(t *testing.T) {
	_, err := oracle.Open(context.Background(), database.Config{Provider: "oracle", URL: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
