// pkg/db/pool_test.go
package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPool builds a single-connection pool on top of sqlmock.
func newTestPool(t *testing.T) (*Pool, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	cfg := validConfig()
	cfg.PoolMin = 1
	cfg.PoolMax = 1
	cfg.AcquireTimeout = 50 * time.Millisecond
	cfg.QueryTimeout = time.Second

	pool, err := newPool(context.Background(), sqlx.NewDb(mockDB, "sqlmock"), cfg)
	require.NoError(t, err)
	return pool, mock
}

func TestNewPoolPingFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing().WillReturnError(errors.New("access denied for user 'testuser'"))

	_, err = newPool(context.Background(), sqlx.NewDb(mockDB, "sqlmock"), validConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnection)
	assert.Contains(t, err.Error(), "access denied")
}

func TestNewPoolRejectsInvalidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.PoolMax = 0

	_, err := NewPool(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pool configuration")
}

func TestWithConnReleasesConnection(t *testing.T) {
	pool, mock := newTestPool(t)
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))

	err := pool.WithConn(context.Background(), func(ctx context.Context, conn *sqlx.Conn) error {
		assert.Equal(t, 1, pool.Stats().InUse)
		_, err := conn.ExecContext(ctx, "INSERT INTO users (username, email) VALUES (?, ?)", "alice", "alice@example.com")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 0, pool.Stats().InUse)

	// The single connection is free again.
	conn, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	conn.Release()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithConnReleasesOnError(t *testing.T) {
	pool, _ := newTestPool(t)
	boom := errors.New("boom")

	err := pool.WithConn(context.Background(), func(ctx context.Context, conn *sqlx.Conn) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, pool.Stats().InUse)
}

func TestWithConnReleasesOnPanic(t *testing.T) {
	pool, _ := newTestPool(t)

	assert.Panics(t, func() {
		_ = pool.WithConn(context.Background(), func(ctx context.Context, conn *sqlx.Conn) error {
			panic("handler bug")
		})
	})
	assert.Equal(t, 0, pool.Stats().InUse)

	conn, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	conn.Release()
}

func TestWithConnSurvivesRequestCancellation(t *testing.T) {
	pool, _ := newTestPool(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := pool.WithConn(ctx, func(queryCtx context.Context, conn *sqlx.Conn) error {
		cancel()
		assert.NoError(t, queryCtx.Err())
		_, hasDeadline := queryCtx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})
	assert.NoError(t, err)
}

func TestAcquireTimesOutWhenExhausted(t *testing.T) {
	pool, _ := newTestPool(t)

	held, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	start := time.Now()
	_, err = pool.Acquire(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPoolExhausted)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	held.Release()
	held.Release() // second release is a no-op

	conn, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	conn.Release()
}

func TestAcquireHonoursCallerCancellation(t *testing.T) {
	pool, _ := newTestPool(t)

	held, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer held.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pool.Acquire(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPoolExhausted)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCloseRejectsNewAcquisitions(t *testing.T) {
	pool, mock := newTestPool(t)
	mock.ExpectClose()

	require.NoError(t, pool.Close(context.Background()))

	_, err := pool.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)

	err = pool.WithConn(context.Background(), func(ctx context.Context, conn *sqlx.Conn) error {
		t.Fatal("callback must not run on a closed pool")
		return nil
	})
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.ErrorIs(t, pool.Ping(context.Background()), ErrPoolClosed)
	assert.ErrorIs(t, pool.Close(context.Background()), ErrPoolClosed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseWaitsForOutstandingConnections(t *testing.T) {
	pool, mock := newTestPool(t)
	mock.ExpectClose()

	held, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- pool.Close(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("Close returned while a connection was still in use")
	case <-time.After(50 * time.Millisecond):
	}

	held.Release()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Close did not return after the connection was released")
	}
}

func TestCloseGivesUpWhenContextExpires(t *testing.T) {
	pool, mock := newTestPool(t)
	mock.ExpectClose()

	held, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = pool.Close(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	held.Release()
}
