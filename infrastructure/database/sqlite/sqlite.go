package sqlite

import (
	"context"
	"database/sql"

	"github.com/vfg2006/dv360-sheets-sync/internal/config"
	_ "modernc.org/sqlite"
)

type Conn interface {
	Queryer
	Close() error
	Ping(context.Context) error
	RunInTransaction(context.Context, func(*sql.Tx) error) error
}

var _ Conn = (*Connection)(nil)

type Connection struct {
	*sql.DB
}

func NewConnection(
	ctx context.Context,
	cfg config.Database,
) (*Connection, error) {
	db, err := sql.Open("sqlite", cfg.File)
	if err != nil {
		return nil, err
	}

	conn := &Connection{DB: db}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	if err := conn.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

func (c *Connection) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// RunInTransaction runs a query in a transaction.
func (c *Connection) RunInTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err := recover(); err != nil {
			_ = tx.Rollback()
			panic(err)
		}
	}()

	if err := fn(tx); err != nil {
		if err := tx.Rollback(); err != nil {
			return err
		}
		return err
	}

	return tx.Commit()
}
