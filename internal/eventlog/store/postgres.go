package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"registrar/internal/eventlog/models"
	"registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/platform/tx"
)

// PostgresStore persists events in PostgreSQL. Sequence numbers come from a
// single counter row; its row lock is held until the appending transaction
// ends, so aborted transactions never leave gaps.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const eventColumns = `sequence, tx_hash, type, full_name, actor, counterparty, amount, occurred_at, status`

func (s *PostgresStore) Append(ctx context.Context, e *models.Event) (uint64, error) {
	if _, ok := tx.From(ctx); ok {
		return s.append(ctx, e)
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin append: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()
	seq, err := s.append(tx.WithTx(ctx, sqlTx), e)
	if err != nil {
		return 0, err
	}
	if err := sqlTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit append: %w", err)
	}
	return seq, nil
}

func (s *PostgresStore) append(ctx context.Context, e *models.Event) (uint64, error) {
	exec := tx.Executor(ctx, s.db)
	var seq uint64
	if err := exec.QueryRowContext(ctx,
		`UPDATE event_sequence SET value = value + 1 WHERE id = 1 RETURNING value`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next event sequence: %w", err)
	}
	_, err := exec.ExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		seq, e.TxHash, string(e.Type), e.FullName, e.Actor.String(),
		nullAccount(e.Counterparty), nullDecimal(e.Amount), e.Timestamp, string(e.Status))
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	e.Sequence = seq
	return seq, nil
}

func (s *PostgresStore) HighWater(ctx context.Context) (uint64, error) {
	var seq uint64
	if err := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT value FROM event_sequence WHERE id = 1`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("read event high water: %w", err)
	}
	return seq, nil
}

func (s *PostgresStore) Page(ctx context.Context, f models.Filter, upTo uint64, limit int) ([]*models.Event, error) {
	where, args := filterClause(f)
	where = append(where, fmt.Sprintf("sequence <= $%d", len(args)+1))
	args = append(args, upTo)
	query := fmt.Sprintf(`SELECT %s FROM events WHERE %s ORDER BY sequence ASC LIMIT %d`,
		eventColumns, strings.Join(where, " AND "), limit)
	return s.query(ctx, query, args...)
}

func (s *PostgresStore) Recent(ctx context.Context, f models.Filter, n int) ([]*models.Event, error) {
	where, args := filterClause(f)
	query := fmt.Sprintf(`SELECT %s FROM events WHERE %s ORDER BY sequence DESC LIMIT %d`,
		eventColumns, strings.Join(where, " AND "), n)
	return s.query(ctx, query, args...)
}

func (s *PostgresStore) Get(ctx context.Context, seq uint64) (*models.Event, error) {
	events, err := s.query(ctx, `SELECT `+eventColumns+` FROM events WHERE sequence = $1`, seq)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return events[0], nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, seq uint64, status models.Status) error {
	exec := tx.Executor(ctx, s.db)
	res, err := exec.ExecContext(ctx,
		`UPDATE events SET status = $2 WHERE sequence = $1 AND status = $3`,
		seq, string(status), string(models.StatusPending))
	if err != nil {
		return fmt.Errorf("update event status: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := s.Get(ctx, seq); err != nil {
		return err
	}
	return sentinel.ErrInvalidState
}

func filterClause(f models.Filter) ([]string, []any) {
	where := []string{"sequence > $1"}
	args := []any{f.After}
	if f.FullName != "" {
		args = append(args, f.FullName)
		where = append(where, fmt.Sprintf("full_name = $%d", len(args)))
	}
	if f.Type != "" {
		args = append(args, string(f.Type))
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if !f.Since.IsZero() {
		args = append(args, f.Since)
		where = append(where, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	return where, args
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []*models.Event
	for rows.Next() {
		var (
			e            models.Event
			typ, status  string
			actor        string
			counterparty sql.NullString
			amount       decimal.NullDecimal
		)
		if err := rows.Scan(&e.Sequence, &e.TxHash, &typ, &e.FullName, &actor,
			&counterparty, &amount, &e.Timestamp, &status); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Type = models.Type(typ)
		e.Status = models.Status(status)
		e.Actor = domain.Account(actor)
		if counterparty.Valid {
			e.Counterparty = domain.Account(counterparty.String)
		}
		if amount.Valid {
			a := amount.Decimal
			e.Amount = &a
		}
		e.Timestamp = e.Timestamp.UTC()
		out = append(out, &e)
	}
	return out, rows.Err()
}

func nullAccount(a domain.Account) sql.NullString {
	return sql.NullString{String: a.String(), Valid: !a.IsZero()}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

