package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	evmodels "registrar/internal/eventlog/models"
	"registrar/internal/naming"
	"registrar/internal/platform/metrics"
	"registrar/internal/registry/models"
	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/platform/tx"
	"registrar/pkg/requestcontext"
)

const module = "registry"

type Store interface {
	Get(ctx context.Context, fullName string) (*models.Entry, error)
	GetMany(ctx context.Context, fullNames []string) (map[string]*models.Entry, error)
	Save(ctx context.Context, e *models.Entry) error
	ListByOwner(ctx context.Context, owner domain.Account) ([]*models.Entry, error)
}

// ExtensionCatalog supplies the enabled extension set and registration pricing.
type ExtensionCatalog interface {
	EnabledSet(ctx context.Context) (naming.ExtensionSet, error)
	Quote(ctx context.Context, name domain.Name) (decimal.Decimal, error)
	RecordMint(ctx context.Context, name domain.Name) error
}

type EventAppender interface {
	Append(ctx context.Context, e *evmodels.Event) (uint64, error)
}

// Hook lets modules that key their state by full name react to registry
// changes inside the same transaction. Returning an error aborts the change.
type Hook interface {
	OnRegistered(ctx context.Context, entry *models.Entry) error
	OnOwnerChanged(ctx context.Context, entry *models.Entry, previous domain.Account) error
}

// ListingLookup reports the active listing price of a name, or nil.
type ListingLookup interface {
	ActivePrice(ctx context.Context, fullName string) (*decimal.Decimal, error)
}

// Service is the source of truth for name ownership.
type Service struct {
	store      Store
	runner     tx.Runner
	extensions ExtensionCatalog
	events     EventAppender
	hooks      []Hook
	listings   ListingLookup
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithHooks(hooks ...Hook) Option {
	return func(s *Service) {
		s.hooks = append(s.hooks, hooks...)
	}
}

func WithListingLookup(l ListingLookup) Option {
	return func(s *Service) {
		s.listings = l
	}
}

func New(store Store, runner tx.Runner, extensions ExtensionCatalog, events EventAppender, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("registry store is required")
	}
	if runner == nil {
		return nil, errors.New("transaction runner is required")
	}
	if extensions == nil {
		return nil, errors.New("extension catalog is required")
	}
	if events == nil {
		return nil, errors.New("event appender is required")
	}
	s := &Service{
		store:      store,
		runner:     runner,
		extensions: extensions,
		events:     events,
		logger:     slog.Default(),
		tracer:     otel.Tracer("registrar/registry"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AddHook registers a hook after construction. Modules built on top of the
// registry (resolver, marketplace) register themselves during wiring.
func (s *Service) AddHook(h Hook) {
	s.hooks = append(s.hooks, h)
}

// SetListingLookup attaches the marketplace for Search results.
func (s *Service) SetListingLookup(l ListingLookup) {
	s.listings = l
}

// Register validates fullName and mints it to owner.
func (s *Service) Register(ctx context.Context, fullName string, owner domain.Account) (entry *models.Entry, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry.Register", trace.WithAttributes(attribute.String("full_name", fullName)))
	defer func() {
		s.metrics.ObserveOperation(module, "register", start, err)
		span.End()
	}()

	enabled, err := s.extensions.EnabledSet(ctx)
	if err != nil {
		return nil, err
	}
	name, err := naming.ValidateFullName(fullName, enabled)
	if err != nil {
		return nil, err
	}
	if owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "owner is required")
	}

	err = s.runner.RunInTx(ctx, name.FullName(), func(ctx context.Context) error {
		existing, err := s.store.Get(ctx, name.FullName())
		switch {
		case err == nil && existing.Active:
			return dErrors.NewReason(dErrors.CodeConflict, domain.ReasonAlreadyRegistered,
				name.FullName()+" is already registered")
		case err != nil && !errors.Is(err, sentinel.ErrNotFound):
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registry entry")
		}

		now := requestcontext.Now(ctx)
		entry = models.NewEntry(name, owner, now)
		if err := s.store.Save(ctx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save registry entry")
		}
		if err := s.extensions.RecordMint(ctx, name); err != nil {
			return err
		}
		for _, h := range s.hooks {
			if err := h.OnRegistered(ctx, entry); err != nil {
				return err
			}
		}
		price, err := s.extensions.Quote(ctx, name)
		if err != nil {
			return err
		}
		_, err = s.events.Append(ctx, evmodels.NewEvent(evmodels.TypeMint, entry.FullName, owner, "", &price, now))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "domain registered",
		"full_name", entry.FullName,
		"owner", owner.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return entry, nil
}

// Transfer moves fullName from one owner to another. Resolution data is
// cleared and any active listing is withdrawn by the registered hooks.
func (s *Service) Transfer(ctx context.Context, fullName string, from, to domain.Account) (entry *models.Entry, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry.Transfer", trace.WithAttributes(attribute.String("full_name", fullName)))
	defer func() {
		s.metrics.ObserveOperation(module, "transfer", start, err)
		span.End()
	}()

	name, err := domain.ParseFullName(fullName)
	if err != nil {
		return nil, err
	}
	if to.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "recipient is required")
	}
	key := name.FullName()

	err = s.runner.RunInTx(ctx, key, func(ctx context.Context) error {
		current, err := s.activeEntry(ctx, key)
		if err != nil {
			return err
		}
		if current.Owner != from {
			return domain.ErrNotOwner(key)
		}
		if from == to {
			return dErrors.NewReason(dErrors.CodeConflict, domain.ReasonSameOwner,
				"recipient already owns "+key)
		}

		entry = current.Clone()
		entry.TransferTo(to)
		if err := s.store.Save(ctx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save registry entry")
		}
		now := requestcontext.Now(ctx)
		if _, err := s.events.Append(ctx, evmodels.NewEvent(evmodels.TypeTransfer, key, from, to, nil, now)); err != nil {
			return err
		}
		for _, h := range s.hooks {
			if err := h.OnOwnerChanged(ctx, entry, from); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "domain transferred",
		"full_name", key,
		"from", from.String(),
		"to", to.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return entry, nil
}

// Get returns the active entry for fullName.
func (s *Service) Get(ctx context.Context, fullName string) (*models.Entry, error) {
	name, err := domain.ParseFullName(fullName)
	if err != nil {
		return nil, err
	}
	var entry *models.Entry
	err = s.runner.View(ctx, name.FullName(), func(ctx context.Context) error {
		entry, err = s.activeEntry(ctx, name.FullName())
		return err
	})
	return entry, err
}

func (s *Service) OwnerOf(ctx context.Context, fullName string) (domain.Account, error) {
	entry, err := s.Get(ctx, fullName)
	if err != nil {
		return "", err
	}
	return entry.Owner, nil
}

// IsAvailable reports whether fullName has no active entry.
func (s *Service) IsAvailable(ctx context.Context, fullName string) (bool, error) {
	_, err := s.Get(ctx, fullName)
	switch {
	case err == nil:
		return false, nil
	case dErrors.HasReason(err, domain.ReasonNotFound):
		return true, nil
	default:
		return false, err
	}
}

func (s *Service) ListByOwner(ctx context.Context, owner domain.Account) ([]*models.Entry, error) {
	if owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "owner is required")
	}
	var entries []*models.Entry
	err := s.runner.ViewAll(ctx, func(ctx context.Context) error {
		var err error
		entries, err = s.store.ListByOwner(ctx, owner)
		return err
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list domains")
	}
	return entries, nil
}

// Search checks label against each requested extension (all enabled
// extensions when none are given) and reports availability, price, owner and
// listing state.
func (s *Service) Search(ctx context.Context, label string, extensions []string) ([]*models.SearchResult, error) {
	enabled, err := s.extensions.EnabledSet(ctx)
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		for ext := range enabled {
			extensions = append(extensions, ext)
		}
		slices.Sort(extensions)
	}

	names := make([]domain.Name, 0, len(extensions))
	keys := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		name, err := naming.Validate(label, ext, enabled)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		keys = append(keys, name.FullName())
	}

	var results []*models.SearchResult
	err = s.runner.ViewAll(ctx, func(ctx context.Context) error {
		var err error
		results, err = s.search(ctx, names, keys)
		return err
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) search(ctx context.Context, names []domain.Name, keys []string) ([]*models.SearchResult, error) {
	entries, err := s.store.GetMany(ctx, keys)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search domains")
	}

	results := make([]*models.SearchResult, 0, len(names))
	for _, name := range names {
		price, err := s.extensions.Quote(ctx, name)
		if err != nil {
			return nil, err
		}
		r := &models.SearchResult{
			FullName:  name.FullName(),
			Extension: name.Extension(),
			Available: true,
			Price:     price,
		}
		if e, ok := entries[name.FullName()]; ok && e.Active {
			r.Available = false
			r.Owner = e.Owner
			if s.listings != nil {
				listPrice, err := s.listings.ActivePrice(ctx, name.FullName())
				if err != nil {
					return nil, err
				}
				r.Listed = listPrice != nil
				r.ListPrice = listPrice
			}
		}
		results = append(results, r)
	}
	return results, nil
}

func (s *Service) activeEntry(ctx context.Context, fullName string) (*models.Entry, error) {
	entry, err := s.store.Get(ctx, fullName)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, domain.ErrNotFound(fullName)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registry entry")
	}
	if !entry.Active {
		return nil, domain.ErrNotFound(fullName)
	}
	return entry, nil
}
