// Package tx defines the per-key transactional boundary shared by every store.
//
// A Runner serializes all writes for one key (a domain full name) and lets
// writes for different keys proceed in parallel. Two implementations exist:
// Sharded (in-memory stores, striped RW locks plus an undo journal) and
// Postgres (a database transaction holding an advisory lock on the key).
//
// Stores cooperate with the boundary through the context: SQL stores pick up
// the *sql.Tx with Executor, in-memory stores register compensations with
// RecordUndo, and work that must only become visible on success is deferred
// with OnCommit / AfterCommit.
package tx

import (
	"context"
	"database/sql"
)

// Runner is the transactional boundary for a single key.
type Runner interface {
	// RunInTx executes fn with exclusive access to key. If fn returns an
	// error every change made through the context is rolled back.
	// Calling RunInTx for the same key from inside fn joins the outer
	// transaction instead of deadlocking.
	RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error
	// View executes fn against a consistent snapshot of key. It may run
	// concurrently with other views but never with a write to key.
	View(ctx context.Context, key string, fn func(ctx context.Context) error) error
	// ViewAll executes fn against a snapshot spanning every key, for reads
	// that cross names such as portfolios and listing pages. It never
	// observes a write that has not committed. Do not call it from inside
	// View.
	ViewAll(ctx context.Context, fn func(ctx context.Context) error) error
}

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// DBTX is the subset of *sql.DB and *sql.Tx used by stores.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Executor returns the transaction in ctx, falling back to db.
func Executor(ctx context.Context, db *sql.DB) DBTX {
	if tx, ok := From(ctx); ok {
		return tx
	}
	return db
}
