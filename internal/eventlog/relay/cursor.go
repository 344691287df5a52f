package relay

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
)

// MemoryCursor keeps the relay position in process memory.
type MemoryCursor struct {
	seq atomic.Uint64
}

func (c *MemoryCursor) Load(_ context.Context) (uint64, error) {
	return c.seq.Load(), nil
}

func (c *MemoryCursor) Save(_ context.Context, seq uint64) error {
	c.seq.Store(seq)
	return nil
}

// PostgresCursor stores the relay position in the relay_cursor table.
type PostgresCursor struct {
	db *sql.DB
}

func NewPostgresCursor(db *sql.DB) *PostgresCursor {
	return &PostgresCursor{db: db}
}

func (c *PostgresCursor) Load(ctx context.Context) (uint64, error) {
	var seq uint64
	if err := c.db.QueryRowContext(ctx, `SELECT sequence FROM relay_cursor WHERE id = 1`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("load relay cursor: %w", err)
	}
	return seq, nil
}

func (c *PostgresCursor) Save(ctx context.Context, seq uint64) error {
	if _, err := c.db.ExecContext(ctx, `UPDATE relay_cursor SET sequence = $1 WHERE id = 1`, seq); err != nil {
		return fmt.Errorf("save relay cursor: %w", err)
	}
	return nil
}
