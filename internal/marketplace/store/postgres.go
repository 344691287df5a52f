package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"registrar/internal/marketplace/models"
	"registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const listingColumns = `full_name, seller, price, listed_at, active`

func (s *PostgresStore) Get(ctx context.Context, fullName string) (*models.Listing, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE full_name = $1`, fullName)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) Save(ctx context.Context, l *models.Listing) error {
	_, err := tx.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO listings (`+listingColumns+`)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (full_name) DO UPDATE SET
			seller = EXCLUDED.seller,
			price = EXCLUDED.price,
			listed_at = EXCLUDED.listed_at,
			active = EXCLUDED.active`,
		l.FullName, l.Seller.String(), l.Price, l.ListedAt, l.Active)
	if err != nil {
		return fmt.Errorf("save listing: %w", err)
	}
	return nil
}

var listingOrder = map[models.Sort]string{
	models.SortNewest:    "listed_at DESC",
	models.SortOldest:    "listed_at ASC",
	models.SortPriceAsc:  "price ASC",
	models.SortPriceDesc: "price DESC",
	models.SortLength:    "length(split_part(full_name, '.', 1)) ASC",
}

// ListActive returns one page of active listings matching f. f must already
// be normalized.
func (s *PostgresStore) ListActive(ctx context.Context, f models.Filter) ([]*models.Listing, error) {
	where := []string{"active"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.Extension != "" {
		where = append(where, "split_part(full_name, '.', 2) = "+arg(f.Extension))
	}
	if f.Search != "" {
		where = append(where, "strpos(full_name, "+arg(f.Search)+") > 0")
	}
	if f.MinPrice != nil {
		where = append(where, "price >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, "price <= "+arg(*f.MaxPrice))
	}
	switch f.Length {
	case models.LengthShort:
		where = append(where, "length(split_part(full_name, '.', 1)) <= 3")
	case models.LengthFour:
		where = append(where, "length(split_part(full_name, '.', 1)) = 4")
	case models.LengthLong:
		where = append(where, "length(split_part(full_name, '.', 1)) >= 5")
	}
	order, ok := listingOrder[f.Sort]
	if !ok {
		order = listingOrder[models.SortNewest]
	}
	query := `SELECT ` + listingColumns + ` FROM listings WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY ` + order + `, full_name`
	if f.Limit > 0 {
		query += ` LIMIT ` + arg(f.Limit)
	}
	if f.Offset > 0 {
		query += ` OFFSET ` + arg(f.Offset)
	}

	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var out []*models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(row scanner) (*models.Listing, error) {
	var (
		l      models.Listing
		seller string
	)
	if err := row.Scan(&l.FullName, &seller, &l.Price, &l.ListedAt, &l.Active); err != nil {
		return nil, err
	}
	l.Seller = domain.Account(seller)
	l.ListedAt = l.ListedAt.UTC()
	return &l, nil
}
