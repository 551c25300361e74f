// pkg/db/pool.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

const pingTimeout = 5 * time.Second

// Pool is a bounded set of database connections handed out one request at a time.
// It wraps the database/sql pool and adds acquire timeouts and a draining shutdown.
type Pool struct {
	db  *sqlx.DB
	cfg Config

	mu     sync.RWMutex
	closed bool
	active sync.WaitGroup // Connections acquired and not yet released

	stop    chan struct{}
	refresh sync.WaitGroup // The keepWarm goroutine, if running
}

// Conn is a connection exclusively owned by its acquirer until Release is called.
type Conn struct {
	*sqlx.Conn
	pool *Pool
	once sync.Once
}

// NewPool opens a pool for cfg, verifies the database is reachable and opens
// PoolMin connections up front. Any failure wraps ErrConnection.
func NewPool(ctx context.Context, cfg Config) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pool configuration: %w", err)
	}
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	database, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	pool, err := newPool(ctx, database, cfg)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	return pool, nil
}

func newPool(ctx context.Context, database *sqlx.DB, cfg Config) (*Pool, error) {
	database.SetMaxOpenConns(cfg.PoolMax)
	database.SetMaxIdleConns(cfg.PoolMin)
	if cfg.ConnMaxLifetime > 0 {
		database.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := database.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("%w: ping %s: %w", ErrConnection, cfg.Driver, err)
	}

	p := &Pool{db: database, cfg: cfg, stop: make(chan struct{})}
	if err := p.warm(pingCtx, cfg.PoolMin); err != nil {
		return nil, err
	}

	// database/sql retires connections older than ConnMaxLifetime and never
	// reopens them on its own, so the floor has to be restored periodically.
	if cfg.ConnMaxLifetime > 0 {
		p.refresh.Add(1)
		go p.keepWarm(cfg.ConnMaxLifetime / 2)
	}
	return p, nil
}

// keepWarm reopens connections whenever fewer than PoolMin are open.
func (p *Pool) keepWarm(interval time.Duration) {
	defer p.refresh.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			stats := p.db.Stats()
			if stats.OpenConnections >= p.cfg.PoolMin {
				continue
			}
			// Never ask for more than the pool can open next to the connections in use.
			n := min(p.cfg.PoolMin, p.cfg.PoolMax-stats.InUse)
			if n <= 0 {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), p.cfg.AcquireTimeout)
			if err := p.warm(ctx, n); err != nil {
				slog.Warn("Failed to restore minimum pool size", "open", stats.OpenConnections, "min", p.cfg.PoolMin, "error", err)
			}
			cancel()
		}
	}
}

// warm checks out n connections at once so they are all open and idle afterwards.
// Expired idle connections are replaced by fresh ones on checkout.
func (p *Pool) warm(ctx context.Context, n int) error {
	conns := make([]*sqlx.Conn, 0, n)
	defer func() {
		for _, c := range conns {
			_ = c.Close()
		}
	}()
	for i := 0; i < n; i++ {
		c, err := p.db.Connx(ctx)
		if err != nil {
			return fmt.Errorf("%w: open connection %d of %d: %w", ErrConnection, i+1, n, err)
		}
		conns = append(conns, c)
	}
	return nil
}

// Acquire waits for a free connection. It fails with ErrPoolExhausted once
// AcquireTimeout elapses and with ErrPoolClosed after Close has been called.
// The caller must Release the connection.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrPoolClosed
	}
	p.active.Add(1)
	p.mu.RUnlock()

	waitCtx, cancel := context.WithTimeoutCause(ctx, p.cfg.AcquireTimeout, ErrPoolExhausted)
	defer cancel()

	conn, err := p.db.Connx(waitCtx)
	if err != nil {
		p.active.Done()
		if errors.Is(context.Cause(waitCtx), ErrPoolExhausted) {
			return nil, fmt.Errorf("%w: no connection free after %s", ErrPoolExhausted, p.cfg.AcquireTimeout)
		}
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &Conn{Conn: conn, pool: p}, nil
}

// Release hands the connection back to the pool. Extra calls are no-ops.
func (c *Conn) Release() {
	c.once.Do(func() {
		if err := c.Conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			slog.Warn("Failed to release database connection", "error", err)
		}
		c.pool.active.Done()
	})
}

// WithConn runs fn on a freshly acquired connection and releases it on every
// exit path, panics included. The context passed to fn survives cancellation
// of ctx so an in-flight statement is allowed to finish; it is bounded by
// QueryTimeout instead.
func (p *Pool) WithConn(ctx context.Context, fn func(ctx context.Context, conn *sqlx.Conn) error) error {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	queryCtx := context.WithoutCancel(ctx)
	if p.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(queryCtx, p.cfg.QueryTimeout)
		defer cancel()
	}
	return fn(queryCtx, conn.Conn)
}

// Ping checks that the database still answers.
func (p *Pool) Ping(ctx context.Context) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrPoolClosed
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return p.db.PingContext(pingCtx)
}

// Stats returns the underlying database/sql pool statistics.
func (p *Pool) Stats() sql.DBStats {
	return p.db.Stats()
}

// DB exposes the underlying handle for administrative use such as test fixtures.
func (p *Pool) DB() *sqlx.DB {
	return p.db
}

// Driver returns the configured driver name.
func (p *Pool) Driver() string {
	return p.cfg.Driver
}

// Close stops new acquisitions, waits until every acquired connection is
// released or ctx is done, then closes all connections.
// Only the first call does any work; later calls return ErrPoolClosed.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.closed = true
	p.mu.Unlock()

	close(p.stop)
	p.refresh.Wait()

	drained := make(chan struct{})
	go func() {
		p.active.Wait()
		close(drained)
	}()

	var drainErr error
	select {
	case <-drained:
	case <-ctx.Done():
		drainErr = fmt.Errorf("pool drain interrupted with connections still in use: %w", ctx.Err())
	}

	if err := p.db.Close(); err != nil {
		return errors.Join(drainErr, fmt.Errorf("failed to close database: %w", err))
	}
	return drainErr
}
