package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"registrar/internal/resolver/models"
	"registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/platform/tx"
)

// PostgresStore persists resolution records; the partial index on
// (resolved_address, address_version) serves reverse lookups.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `full_name, resolved_address, address_version, text_records, updated_at`

func (s *PostgresStore) Get(ctx context.Context, fullName string) (*models.Record, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM resolution_records WHERE full_name = $1`, fullName)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get resolution record: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) Put(ctx context.Context, r *models.Record) error {
	texts, err := json.Marshal(r.TextRecords)
	if err != nil {
		return fmt.Errorf("encode text records: %w", err)
	}
	var addr sql.NullString
	if r.ResolvedAddress != nil {
		addr = sql.NullString{String: r.ResolvedAddress.String(), Valid: true}
	}
	_, err = tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO resolution_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (full_name) DO UPDATE SET
			resolved_address = EXCLUDED.resolved_address,
			address_version = EXCLUDED.address_version,
			text_records = EXCLUDED.text_records,
			updated_at = EXCLUDED.updated_at`,
		r.FullName, addr, r.AddressVersion, texts, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save resolution record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ReverseLookup(ctx context.Context, addr domain.Account) (string, error) {
	var name string
	err := tx.Executor(ctx, s.db).QueryRowContext(ctx, `
		SELECT full_name FROM resolution_records
		WHERE resolved_address = $1
		ORDER BY address_version DESC
		LIMIT 1`, addr.String()).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reverse lookup: %w", err)
	}
	return name, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.Record, error) {
	var (
		r     models.Record
		addr  sql.NullString
		texts []byte
	)
	if err := row.Scan(&r.FullName, &addr, &r.AddressVersion, &texts, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if addr.Valid {
		a := domain.Account(addr.String)
		r.ResolvedAddress = &a
	}
	if err := json.Unmarshal(texts, &r.TextRecords); err != nil {
		return nil, fmt.Errorf("decode text records: %w", err)
	}
	if r.TextRecords == nil {
		r.TextRecords = map[string]string{}
	}
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}
