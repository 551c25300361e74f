// pkg/db/pool_minimum_test.go
package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingDriver hands out inert connections and counts how many it opened.
type countingDriver struct {
	opened atomic.Int64
}

func (d *countingDriver) Open(name string) (driver.Conn, error) {
	d.opened.Add(1)
	return countingConn{}, nil
}

type countingConn struct{}

func (countingConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("statements are not supported")
}
func (countingConn) Close() error { return nil }
func (countingConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions are not supported")
}

var countingDrv = &countingDriver{}

func init() {
	sql.Register("counting", countingDrv)
}

func TestPoolRestoresMinimumAfterConnectionsExpire(t *testing.T) {
	cfg := validConfig()
	cfg.PoolMin = 3
	cfg.PoolMax = 5
	cfg.ConnMaxLifetime = 200 * time.Millisecond

	database, err := sqlx.Open("counting", "")
	require.NoError(t, err)

	before := countingDrv.opened.Load()
	pool, err := newPool(context.Background(), database, cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, pool.Stats().OpenConnections)

	// database/sql's cleaner runs at most once a second and closes every expired idle connection.
	time.Sleep(2500 * time.Millisecond)

	assert.Eventually(t, func() bool {
		return pool.Stats().OpenConnections >= cfg.PoolMin
	}, time.Second, 10*time.Millisecond)
	assert.Greater(t, countingDrv.opened.Load()-before, int64(3), "expired connections were never replaced")

	require.NoError(t, pool.Close(context.Background()))

	// No connections are reopened once the pool is closed.
	afterClose := countingDrv.opened.Load()
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, afterClose, countingDrv.opened.Load())
	assert.Equal(t, 0, pool.Stats().OpenConnections)
}

func TestPoolWithoutLifetimeStartsNoRefresher(t *testing.T) {
	cfg := validConfig()
	cfg.PoolMin = 2
	cfg.PoolMax = 2
	cfg.ConnMaxLifetime = 0

	database, err := sqlx.Open("counting", "")
	require.NoError(t, err)

	pool, err := newPool(context.Background(), database, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, pool.Stats().OpenConnections)

	done := make(chan error, 1)
	go func() { done <- pool.Close(context.Background()) }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Close blocked without a refresher running")
	}
}
