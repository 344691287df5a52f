package tx

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dErrors "registrar/pkg/domain-errors"
)

// Postgres is the durable Runner. Each transaction takes a transaction-scoped
// advisory lock on the key, so concurrent writers for one name queue inside
// the database while other names proceed.
type Postgres struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, timeout: defaultTxTimeout}
}

func (p *Postgres) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if j := journalFrom(ctx); j != nil && j.owner == p {
		if key != j.key {
			if err := p.lockKey(ctx, key); err != nil {
				return err
			}
		}
		return fn(ctx)
	}

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	sqlTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	j := newJournal(p, key, -1)
	txCtx := WithTx(withJournal(ctx, j), sqlTx)
	if err := p.lockKey(txCtx, key); err != nil {
		return err
	}

	if err := fn(txCtx); err != nil {
		j.rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		j.rollback()
		return fmt.Errorf("commit transaction: %w", err)
	}
	j.commit()
	j.after(context.WithoutCancel(ctx))
	return nil
}

func (p *Postgres) View(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return p.ViewAll(ctx, fn)
}

// ViewAll runs fn in a read-only repeatable-read transaction. The snapshot
// covers every key, so no advisory lock is taken.
func (p *Postgres) ViewAll(ctx context.Context, fn func(ctx context.Context) error) error {
	if j := journalFrom(ctx); j != nil && j.owner == p {
		return fn(ctx)
	}
	sqlTx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin read transaction: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()
	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func (p *Postgres) lockKey(ctx context.Context, key string) error {
	if _, err := Executor(ctx, p.db).ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}
	return nil
}
