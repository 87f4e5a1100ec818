package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync/atomic"
	"testing"
)

// TxStats counts transaction outcomes seen by a NewTxDB handle.
type TxStats struct {
	Begun      atomic.Int64
	Committed  atomic.Int64
	RolledBack atomic.Int64
}

// NewTxDB returns a *sql.DB whose transactions do nothing. It lets service
// tests drive real *sql.Tx values through repository fakes that ignore
// them. Statements outside a transaction are rejected.
func NewTxDB(t *testing.T) (*sql.DB, *TxStats) {
	stats := &TxStats{}
	db := sql.OpenDB(noopConnector{stats: stats})
	t.Cleanup(func() { db.Close() })
	return db, stats
}

type noopDriver struct{}

func (noopDriver) Open(name string) (driver.Conn, error) {
	return &noopConn{stats: &TxStats{}}, nil
}

type noopConnector struct {
	stats *TxStats
}

func (c noopConnector) Connect(ctx context.Context) (driver.Conn, error) {
	return &noopConn{stats: c.stats}, nil
}

func (noopConnector) Driver() driver.Driver { return noopDriver{} }

type noopConn struct {
	stats *TxStats
}

func (c *noopConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("noop-tx: statements are not supported")
}

func (c *noopConn) Close() error { return nil }

func (c *noopConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *noopConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	c.stats.Begun.Add(1)
	return &noopTx{stats: c.stats}, nil
}

type noopTx struct {
	stats *TxStats
}

func (tx *noopTx) Commit() error {
	tx.stats.Committed.Add(1)
	return nil
}

func (tx *noopTx) Rollback() error {
	tx.stats.RolledBack.Add(1)
	return nil
}
