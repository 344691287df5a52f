package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"registrar/internal/extension/models"
	"registrar/internal/naming"
	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/sentinel"
)

type Store interface {
	List(ctx context.Context) ([]*models.Extension, error)
	Get(ctx context.Context, name string) (*models.Extension, error)
	Save(ctx context.Context, ext *models.Extension) error
	RecordMint(ctx context.Context, name string, amount decimal.Decimal) error
}

// Service manages the extension catalog and prices registrations.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnabledSet returns the extensions currently open for registration.
func (s *Service) EnabledSet(ctx context.Context) (naming.ExtensionSet, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load extensions")
	}
	set := make(naming.ExtensionSet, len(all))
	for _, ext := range all {
		if ext.Enabled {
			set[ext.Name] = struct{}{}
		}
	}
	return set, nil
}

// IsEnabled reports whether name is a known, enabled extension.
func (s *Service) IsEnabled(ctx context.Context, name string) (bool, error) {
	ext, err := s.store.Get(ctx, strings.ToLower(strings.TrimSpace(name)))
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load extension")
	}
	return ext.Enabled, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Extension, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list extensions")
	}
	return all, nil
}

func (s *Service) Get(ctx context.Context, name string) (*models.Extension, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	ext, err := s.store.Get(ctx, name)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "extension ."+name+" not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load extension")
	}
	return ext, nil
}

// Upsert creates or updates a catalog entry. The store keeps the mint
// counters of an existing entry, so concurrent mints are never overwritten.
func (s *Service) Upsert(ctx context.Context, ext *models.Extension) (*models.Extension, error) {
	validated, err := models.NewExtension(ext.Name, ext.BasePrice, ext.TierPricing, ext.Enabled, ext.Description)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, validated); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save extension")
	}
	saved, err := s.store.Get(ctx, validated.Name)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load extension")
	}
	s.logger.InfoContext(ctx, "extension saved",
		"extension", saved.Name,
		"enabled", saved.Enabled,
		"base_price", saved.BasePrice.String(),
	)
	return saved, nil
}

func (s *Service) SetEnabled(ctx context.Context, name string, enabled bool) (*models.Extension, error) {
	ext, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	ext.Enabled = enabled
	if err := s.store.Save(ctx, ext); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save extension")
	}
	s.logger.InfoContext(ctx, "extension toggled", "extension", ext.Name, "enabled", enabled)
	return ext, nil
}

// Quote returns the registration price for name.
func (s *Service) Quote(ctx context.Context, name domain.Name) (decimal.Decimal, error) {
	ext, err := s.Get(ctx, name.Extension())
	if err != nil {
		return decimal.Zero, err
	}
	return ext.Quote(name), nil
}

// RecordMint adds one registration and its price to the extension counters.
// It joins the caller's transaction when one is running.
func (s *Service) RecordMint(ctx context.Context, name domain.Name) error {
	ext, err := s.Get(ctx, name.Extension())
	if err != nil {
		return err
	}
	if err := s.store.RecordMint(ctx, ext.Name, ext.Quote(name)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record mint")
	}
	return nil
}

// Seed saves every extension that is not in the catalog yet.
func (s *Service) Seed(ctx context.Context, exts []*models.Extension) error {
	for _, ext := range exts {
		_, err := s.store.Get(ctx, ext.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load extension")
		}
		if err := s.store.Save(ctx, ext); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to seed extension")
		}
	}
	return nil
}
