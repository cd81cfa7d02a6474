package client_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/joinql/internal/adapters/database"
	"github.com/satishbabariya/joinql/internal/adapters/database/sqlite"
	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/core/query/expr"
	"github.com/satishbabariya/joinql/internal/core/schema"
	"github.com/satishbabariya/joinql/pkg/client"
)

type User struct {
	ID     int64
	Name   string
	CityID int64
}

func (User) EntityName() string { return "User" }

func newRegistry(t *testing.T) *schema.MetadataRegistry {
	t.Helper()
	r := schema.NewMetadataRegistry()
	require.NoError(t, schema.RegisterEntity(r, schema.EntityMeta{
		Name:  "User",
		Table: "Users",
		Fields: []schema.FieldMeta{
			{Name: "Id", Type: "int", Key: true},
			{Name: "Name", Type: "string"},
			{Name: "CityId", Type: "int"},
		},
	}, func(u User) map[string]any {
		return map[string]any{"Id": u.ID, "Name": u.Name, "CityId": u.CityID}
	}))
	require.NoError(t, r.Register(schema.EntityMeta{
		Name:  "City",
		Table: "Cities",
		Fields: []schema.FieldMeta{
			{Name: "Id", Type: "int", Key: true},
			{Name: "Name", Type: "string"},
		},
	}))
	return r
}

func newContext(t *testing.T) (*client.Context, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	p, err := sqlite.New(database.NewSQLConnFactory(db), "")
	require.NoError(t, err)
	c, err := client.New(p, newRegistry(t))
	require.NoError(t, err)
	return c, mock
}

const (
	selectUserCity = `SELECT "T0"."Id" AS "user_Id", "T0"."Name" AS "user_Name", "T0"."CityId" AS "user_CityId", ` +
		`"T1"."Id" AS "city_Id", "T1"."Name" AS "city_Name" ` +
		`FROM "Users" AS "T0" LEFT JOIN "Cities" AS "T1" ON "T0"."CityId" = "T1"."Id"`
	fromUserCity = ` FROM "Users" AS "T0" LEFT JOIN "Cities" AS "T1" ON "T0"."CityId" = "T1"."Id"`
)

func userCityQuery(t *testing.T, c *client.Context) *client.JoinQuery {
	t.Helper()
	user, city := expr.NewSymbol("user", "User"), expr.NewSymbol("city", "City")
	q, err := c.ParseJoinQuery([]*expr.Symbol{user, city}, []string{"Left", "user.CityId == city.Id"}, nil)
	require.NoError(t, err)
	return q
}

func TestNew(t *testing.T) {
	_, err := client.New(nil, schema.NewMetadataRegistry())
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = client.New(nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestJoinQuery(t *testing.T) {
	c, mock := newContext(t)
	ctx := context.Background()

	q := userCityQuery(t, c)
	require.Len(t, q.Joins(), 1)
	assert.Equal(t, domain.LeftJoin, q.Joins()[0].Type)

	t.Run("command info", func(t *testing.T) {
		info, err := q.WhereText("city.Name == $name", map[string]any{"name": "Oslo"}).
			OrderByText("user.Name", false).
			Take(5).
			CommandInfo()
		require.NoError(t, err)
		assert.Equal(t, selectUserCity+` WHERE "T1"."Name" = @P_0 ORDER BY "T0"."Name" LIMIT 5`, info.Text)
		require.Len(t, info.Parameters, 1)
		assert.Equal(t, "Oslo", info.Parameters[0].Value)
	})

	t.Run("queries are immutable", func(t *testing.T) {
		_ = q.Take(1).Skip(2)
		info, err := q.CommandInfo()
		require.NoError(t, err)
		assert.Equal(t, selectUserCity, info.Text)
	})

	t.Run("rows", func(t *testing.T) {
		mock.ExpectQuery(selectUserCity + ` WHERE "T0"."Id" = @P_0`).
			WithArgs(sql.Named("P_0", int64(1))).
			WillReturnRows(sqlmock.NewRows([]string{"user_Id", "user_Name", "user_CityId", "city_Id", "city_Name"}).
				AddRow(int64(1), "ann", int64(4), int64(4), "Oslo"))

		rows, err := q.WhereText("user.Id == $id", map[string]any{"id": int64(1)}).Rows(ctx)
		require.NoError(t, err)
		require.True(t, rows.Next())
		var (
			userID, cityID, joinedID int64
			name, cityName           string
		)
		require.NoError(t, rows.Scan(&userID, &name, &cityID, &joinedID, &cityName))
		assert.Equal(t, "Oslo", cityName)
		require.NoError(t, rows.Close())
	})

	t.Run("rows async", func(t *testing.T) {
		mock.ExpectQuery(selectUserCity + ` LIMIT -1 OFFSET 3`).
			WillReturnRows(sqlmock.NewRows([]string{"user_Id"}))
		rows, err := q.Skip(3).RowsAsync(ctx).Await(ctx)
		require.NoError(t, err)
		assert.False(t, rows.Next())
		require.NoError(t, rows.Close())
	})

	t.Run("count", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT(*)` + fromUserCity).
			WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(9)))
		n, err := q.OrderByText("city.Name", true).Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(9), n)

		_, err = q.Take(2).Count(ctx)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("deferred errors", func(t *testing.T) {
		_, err := q.Where(nil).Take(1).Rows(ctx)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)

		_, err = q.Take(-1).RowsAsync(ctx).Await(ctx)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)

		_, err = q.WhereText("user.Id ==", nil).Command()
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinQuery_InvalidSpecification(t *testing.T) {
	c, _ := newContext(t)
	user, city, province := expr.NewSymbol("user", "User"), expr.NewSymbol("city", "City"), expr.NewSymbol("province", "City")

	_, err := c.ParseJoinQuery([]*expr.Symbol{user, city, province},
		[]string{"Left", "user.CityId == city.Id", "Inner"}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidJoinSpecification)

	_, err = c.ParseJoinQuery([]*expr.Symbol{user, city, province},
		[]string{"Left", "user.CityId == province.Id", "Inner", "city.Id == province.Id"}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidJoinCondition)

	_, err = c.JoinQuery(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSaveUpdateDelete(t *testing.T) {
	c, mock := newContext(t)
	ctx := context.Background()
	ann := User{ID: 1, Name: "ann", CityID: 4}

	mock.ExpectExec(`INSERT INTO "Users" ("Id", "Name", "CityId") VALUES (@P_0, @P_1, @P_2)`).
		WithArgs(sql.Named("P_0", int64(1)), sql.Named("P_1", "ann"), sql.Named("P_2", int64(4))).
		WillReturnResult(sqlmock.NewResult(1, 1))
	n, err := c.Save(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	mock.ExpectExec(`UPDATE "Users" SET "Name" = @P_0, "CityId" = @P_1 WHERE "Id" = @P_2`).
		WithArgs(sql.Named("P_0", "ann"), sql.Named("P_1", int64(4)), sql.Named("P_2", int64(1))).
		WillReturnResult(sqlmock.NewResult(0, 1))
	_, err = c.Update(ctx, ann)
	require.NoError(t, err)

	mock.ExpectExec(`DELETE FROM "Users" WHERE "Id" = @P_0`).
		WithArgs(sql.Named("P_0", int64(1))).
		WillReturnResult(sqlmock.NewResult(0, 1))
	_, err = c.Delete(ctx, ann)
	require.NoError(t, err)

	_, err = c.Save(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandWrittenCommands(t *testing.T) {
	c, mock := newContext(t)
	ctx := context.Background()

	id, err := c.Param("id", int64(2))
	require.NoError(t, err)
	assert.Equal(t, "@id", id.Name)

	again, err := c.Param(id.Name, int64(2))
	require.NoError(t, err)
	assert.Equal(t, id, again)

	_, err = c.Param("", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	mock.ExpectExec(`DELETE FROM "Users" WHERE "Id" = @id`).
		WithArgs(sql.Named("id", int64(2))).
		WillReturnResult(sqlmock.NewResult(0, 1))
	_, err = c.Exec(ctx, `DELETE FROM "Users" WHERE "Id" = @id`, id)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT "Name" FROM "Users" WHERE "Id" = @id`).
		WithArgs(sql.Named("id", int64(2))).
		WillReturnRows(sqlmock.NewRows([]string{"Name"}).AddRow("bob"))
	v, err := c.QueryScalar(ctx, `SELECT "Name" FROM "Users" WHERE "Id" = @id`, id)
	require.NoError(t, err)
	assert.Equal(t, "bob", v)

	mock.ExpectQuery(`SELECT "Name" FROM "Users"`).
		WillReturnRows(sqlmock.NewRows([]string{"Name"}).AddRow("bob"))
	rows, err := c.Query(ctx, `SELECT "Name" FROM "Users"`)
	require.NoError(t, err)
	require.NoError(t, rows.Close())

	assert.NoError(t, c.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
