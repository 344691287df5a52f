package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"registrar/internal/registry/models"
	"registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/platform/tx"
)

// PostgresStore persists registry entries in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const entryColumns = `full_name, label, extension, owner, minted_at, times_transferred, active`

func (s *PostgresStore) Get(ctx context.Context, fullName string) (*models.Entry, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM registry_entries WHERE full_name = $1`, fullName)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get registry entry: %w", err)
	}
	return e, nil
}

// GetMany loads every existing entry among fullNames in one round trip.
func (s *PostgresStore) GetMany(ctx context.Context, fullNames []string) (map[string]*models.Entry, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+entryColumns+` FROM registry_entries WHERE full_name = ANY($1)`, pq.Array(fullNames))
	if err != nil {
		return nil, fmt.Errorf("get registry entries: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*models.Entry, len(fullNames))
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registry entry: %w", err)
		}
		out[e.FullName] = e
	}
	return out, rows.Err()
}

func (s *PostgresStore) Save(ctx context.Context, e *models.Entry) error {
	query := `
		INSERT INTO registry_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (full_name) DO UPDATE SET
			owner = EXCLUDED.owner,
			minted_at = EXCLUDED.minted_at,
			times_transferred = EXCLUDED.times_transferred,
			active = EXCLUDED.active
	`
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, query,
		e.FullName, e.Label, e.Extension, e.Owner.String(), e.MintedAt, e.TimesTransferred, e.Active)
	if err != nil {
		return fmt.Errorf("save registry entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner domain.Account) ([]*models.Entry, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+entryColumns+` FROM registry_entries WHERE owner = $1 AND active ORDER BY full_name`, owner.String())
	if err != nil {
		return nil, fmt.Errorf("list registry entries: %w", err)
	}
	defer rows.Close()

	var out []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registry entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*models.Entry, error) {
	var (
		e     models.Entry
		owner string
	)
	if err := row.Scan(&e.FullName, &e.Label, &e.Extension, &owner, &e.MintedAt, &e.TimesTransferred, &e.Active); err != nil {
		return nil, err
	}
	e.Owner = domain.Account(owner)
	e.MintedAt = e.MintedAt.UTC()
	return &e, nil
}
