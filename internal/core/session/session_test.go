package session_test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/joinql/internal/adapters/database"
	"github.com/satishbabariya/joinql/internal/adapters/database/postgres"
	"github.com/satishbabariya/joinql/internal/adapters/database/sqlite"
	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/core/query/expr"
	"github.com/satishbabariya/joinql/internal/core/session"
)

func newSession(t *testing.T, opts ...session.Option) (*session.SQLSession, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	p, err := sqlite.New(database.NewSQLConnFactory(db), "")
	require.NoError(t, err)
	return session.New(p, opts...), mock
}

var idParam = []domain.Parameter{{Name: "@P_0", Value: int64(7), Type: expr.Int}}

func TestExecuteNonQuery(t *testing.T) {
	s, mock := newSession(t)

	mock.ExpectExec(`DELETE FROM "Users" WHERE "Id" = @P_0`).
		WithArgs(sql.Named("P_0", int64(7))).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := s.ExecuteNonQuery(context.Background(), `DELETE FROM "Users" WHERE "Id" = @P_0`, idParam)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteScalar(t *testing.T) {
	s, mock := newSession(t)
	const q = `SELECT COUNT(*) FROM "Users" WHERE "Id" = @P_0`

	mock.ExpectQuery(q).WithArgs(sql.Named("P_0", int64(7))).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(3)))
	v, err := s.ExecuteScalar(context.Background(), q, idParam)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	mock.ExpectQuery(q).WithArgs(sql.Named("P_0", int64(7))).
		WillReturnRows(sqlmock.NewRows([]string{"n"}))
	v, err = s.ExecuteScalar(context.Background(), q, idParam)
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteReader(t *testing.T) {
	s, mock := newSession(t)
	const q = `SELECT "Id", "Name" FROM "Users"`

	mock.ExpectQuery(q).WillReturnRows(sqlmock.NewRows([]string{"Id", "Name"}).
		AddRow(int64(1), "ann").
		AddRow(int64(2), "bob"))

	r, err := s.ExecuteReader(context.Background(), q, nil)
	require.NoError(t, err)

	var names []string
	for r.Next() {
		var id int64
		var name string
		require.NoError(t, r.Scan(&id, &name))
		names = append(names, name)
	}
	require.NoError(t, r.Err())
	require.NoError(t, r.Close())

	assert.Equal(t, []string{"ann", "bob"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAsyncMatchesSync(t *testing.T) {
	s, mock := newSession(t)
	ctx := context.Background()
	const q = `UPDATE "Users" SET "Active" = 0`

	mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 4))
	n, err := s.ExecuteNonQueryAsync(ctx, q, nil).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	boom := errors.New("boom")
	mock.ExpectExec(q).WillReturnError(boom)
	_, syncErr := s.ExecuteNonQuery(ctx, q, nil)
	mock.ExpectExec(q).WillReturnError(boom)
	_, asyncErr := s.ExecuteNonQueryAsync(ctx, q, nil).Await(ctx)

	assert.ErrorIs(t, syncErr, boom)
	assert.ErrorIs(t, asyncErr, boom)

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow(int64(1)))
	v, err := s.ExecuteScalarAsync(ctx, "SELECT 1", nil).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	mock.ExpectQuery("SELECT 2").WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow(int64(2)))
	r, err := s.ExecuteReaderAsync(ctx, "SELECT 2", nil).Await(ctx)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPositionalBinding(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	p, err := postgres.New(database.NewSQLConnFactory(db), "")
	require.NoError(t, err)
	s := session.New(p)

	mock.ExpectExec(`DELETE FROM "Users" WHERE "Id" = $1`).WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	_, err = s.ExecuteNonQuery(context.Background(), `DELETE FROM "Users" WHERE "Id" = $1`,
		[]domain.Parameter{{Name: "$P_0", Value: int64(7), Type: expr.Int}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRetryConnectionAcquisition(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	pool := database.NewSQLConnFactory(db)
	transient := errors.New("connection refused")
	calls := 0
	factory := database.ConnectionFactoryFunc(func(ctx context.Context) (database.Connection, error) {
		calls++
		if calls < 3 {
			return nil, transient
		}
		return pool.Connect(ctx)
	})

	p, err := sqlite.New(factory, "")
	require.NoError(t, err)

	t.Run("succeeds after transient failures", func(t *testing.T) {
		s := session.New(p, session.WithRetry(
			session.WithMaxAttempts(3),
			session.WithInitialDelay(time.Millisecond),
			session.WithJitter(false),
		))
		mock.ExpectExec("SELECT 1").WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := s.ExecuteNonQuery(context.Background(), "SELECT 1", nil)
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausted", func(t *testing.T) {
		calls = 0
		s := session.New(p, session.WithRetry(
			session.WithMaxAttempts(2),
			session.WithInitialDelay(time.Millisecond),
		))

		_, err := s.ExecuteNonQuery(context.Background(), "SELECT 1", nil)
		assert.ErrorIs(t, err, session.ErrRetryExhausted)
		assert.ErrorIs(t, err, transient)
		assert.Equal(t, 2, calls)
	})

	t.Run("statement failures are not retried", func(t *testing.T) {
		calls = 2
		s := session.New(p, session.WithRetry(session.WithMaxAttempts(3), session.WithInitialDelay(time.Millisecond)))
		mock.ExpectExec("SELECT 1").WillReturnError(sql.ErrConnDone)

		_, err := s.ExecuteNonQuery(context.Background(), "SELECT 1", nil)
		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.Equal(t, 3, calls)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, mock := newSession(t, session.WithLogger(logger), session.WithQueryLogging(true))

	mock.ExpectExec("DELETE FROM t").WillReturnResult(sqlmock.NewResult(0, 1))
	_, err := s.ExecuteNonQuery(context.Background(), "DELETE FROM t", nil)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "command_id=")
	assert.Contains(t, out, "provider=SQLite")
	assert.Contains(t, out, "rows_affected=1")
}

func TestFuture(t *testing.T) {
	boom := errors.New("boom")
	f := session.Failed[int](boom)
	<-f.Done()
	_, err := f.Await(context.Background())
	assert.ErrorIs(t, err, boom)

	block := make(chan struct{})
	slow := session.Go(func() (int, error) {
		<-block
		return 1, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = slow.Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(block)
	v, err := slow.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestFuture_ReleasesAbandonedResult(t *testing.T) {
	block := make(chan struct{})
	var released []int
	f := session.GoWithRelease(func() (int, error) {
		<-block
		return 5, nil
	}, func(v int) { released = append(released, v) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(block)
	<-f.Done()
	assert.Equal(t, []int{5}, released)

	_, err = f.Await(context.Background())
	assert.ErrorIs(t, err, session.ErrAbandoned)
}

func TestExecuteReaderAsync_ClosesAbandonedReader(t *testing.T) {
	s, mock := newSession(t)

	mock.ExpectQuery("SELECT 3").
		WillDelayFor(20 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow(int64(3))).
		RowsWillBeClosed()

	f := s.ExecuteReaderAsync(context.Background(), "SELECT 3", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	<-f.Done()
	_, err = f.Await(context.Background())
	assert.ErrorIs(t, err, session.ErrAbandoned)
	assert.NoError(t, mock.ExpectationsWereMet())
}
