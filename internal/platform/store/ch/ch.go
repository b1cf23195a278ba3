// Package ch provides a clickhouse client seam for the append-only run log
package ch

import (
	"context"
	"errors"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ErrNotConnected is returned for writes on a detached client (no URL
// configured). Callers treat the run log as best-effort and keep going
var ErrNotConnected = errors.New("ch not connected")

// Config configures clickhouse client
type Config struct {
	URL string

	// Role and Tag annotate the connection via client info
	// role examples: "api", "discover", "audit"
	Role string
	Tag  string
}

// Rows is the minimal result set iteration for ch
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
	Columns() []string
}

// CH is the seam for clickhouse connectivity
// Connectivity is optional; callers must tolerate an unreachable event log.
// A zero-URL config yields a detached client whose writes fail with
// ErrNotConnected and whose reads return no rows
type CH struct {
	conn driver.Conn
}

// Open returns a clickhouse client. With an empty URL the client is
// detached; otherwise the DSN is dialed and pinged before being handed out
func Open(ctx context.Context, cfg Config) (*CH, error) {
	if cfg.URL == "" {
		return &CH{}, nil
	}

	opts, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("ch parse dsn: %w", err)
	}
	opts.ClientInfo = BuildClientInfo(cfg.Role, cfg.Tag)

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("ch open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ch ping: %w", err)
	}
	return &CH{conn: conn}, nil
}

// Insert appends rows to table via a prepared batch
func (c *CH) Insert(ctx context.Context, table string, rows [][]any) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	if len(rows) == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, "INSERT INTO "+table)
	if err != nil {
		return fmt.Errorf("ch prepare batch %s: %w", table, err)
	}
	for _, row := range rows {
		if err := batch.Append(row...); err != nil {
			return fmt.Errorf("ch append %s: %w", table, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("ch send %s: %w", table, err)
	}
	return nil
}

// Query runs a query and returns ch.Rows
func (c *CH) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	if c.conn == nil {
		return &emptyRows{}, nil
	}
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ch query: %w", err)
	}
	return rows, nil
}

// Close closes resources
func (c *CH) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// emptyRows is returned by a detached client
type emptyRows struct{}

func (*emptyRows) Next() bool             { return false }
func (*emptyRows) Scan(dest ...any) error { return nil }
func (*emptyRows) Err() error             { return nil }
func (*emptyRows) Close() error           { return nil }
func (*emptyRows) Columns() []string      { return nil }
