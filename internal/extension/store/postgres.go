package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"registrar/internal/extension/models"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/platform/tx"
)

// PostgresStore persists the extension catalog in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const extensionColumns = `name, base_price, tier_pricing, enabled, description, total_minted, total_revenue`

func (s *PostgresStore) List(ctx context.Context) ([]*models.Extension, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+extensionColumns+` FROM extensions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list extensions: %w", err)
	}
	defer rows.Close()

	var out []*models.Extension
	for rows.Next() {
		ext, err := scanExtension(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ext)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, name string) (*models.Extension, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+extensionColumns+` FROM extensions WHERE name = $1`, name)
	ext, err := scanExtension(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return ext, err
}

func (s *PostgresStore) Save(ctx context.Context, ext *models.Extension) error {
	tiers, err := encodeTiers(ext.TierPricing)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO extensions (` + extensionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE SET
			base_price = EXCLUDED.base_price,
			tier_pricing = EXCLUDED.tier_pricing,
			enabled = EXCLUDED.enabled,
			description = EXCLUDED.description
	`
	_, err = tx.Executor(ctx, s.db).ExecContext(ctx, query,
		ext.Name, ext.BasePrice, tiers, ext.Enabled, ext.Description, ext.TotalMinted, ext.TotalRevenue)
	if err != nil {
		return fmt.Errorf("save extension: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordMint(ctx context.Context, name string, amount decimal.Decimal) error {
	res, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE extensions
		SET total_minted = total_minted + 1, total_revenue = total_revenue + $2
		WHERE name = $1`, name, amount)
	if err != nil {
		return fmt.Errorf("record mint: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExtension(row scanner) (*models.Extension, error) {
	var (
		ext   models.Extension
		tiers []byte
	)
	if err := row.Scan(&ext.Name, &ext.BasePrice, &tiers, &ext.Enabled, &ext.Description,
		&ext.TotalMinted, &ext.TotalRevenue); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan extension: %w", err)
	}
	decoded, err := decodeTiers(tiers)
	if err != nil {
		return nil, err
	}
	ext.TierPricing = decoded
	return &ext, nil
}

func encodeTiers(tiers map[int]decimal.Decimal) ([]byte, error) {
	if tiers == nil {
		tiers = map[int]decimal.Decimal{}
	}
	b, err := json.Marshal(tiers)
	if err != nil {
		return nil, fmt.Errorf("encode tier pricing: %w", err)
	}
	return b, nil
}

func decodeTiers(raw []byte) (map[int]decimal.Decimal, error) {
	var tiers map[int]decimal.Decimal
	if err := json.Unmarshal(raw, &tiers); err != nil {
		return nil, fmt.Errorf("decode tier pricing: %w", err)
	}
	if len(tiers) == 0 {
		return nil, nil
	}
	return tiers, nil
}
