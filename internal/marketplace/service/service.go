package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	evmodels "registrar/internal/eventlog/models"
	"registrar/internal/marketplace/models"
	"registrar/internal/platform/metrics"
	regmodels "registrar/internal/registry/models"
	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/platform/tx"
	"registrar/pkg/requestcontext"
)

const module = "marketplace"

// DefaultMaxPrice is the listing price ceiling when none is configured.
var DefaultMaxPrice = decimal.NewFromInt(1000)

type Store interface {
	Get(ctx context.Context, fullName string) (*models.Listing, error)
	Save(ctx context.Context, l *models.Listing) error
	ListActive(ctx context.Context, f models.Filter) ([]*models.Listing, error)
}

// Registry is the ownership authority purchases settle against.
type Registry interface {
	OwnerOf(ctx context.Context, fullName string) (domain.Account, error)
	Transfer(ctx context.Context, fullName string, from, to domain.Account) (*regmodels.Entry, error)
}

type EventAppender interface {
	Append(ctx context.Context, e *evmodels.Event) (uint64, error)
}

// Service runs fixed-price listings and settles purchases through the
// registry.
type Service struct {
	store    Store
	runner   tx.Runner
	registry Registry
	events   EventAppender
	maxPrice decimal.Decimal
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
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

// WithMaxPrice sets the listing price ceiling. Zero disables it.
func WithMaxPrice(ceiling decimal.Decimal) Option {
	return func(s *Service) {
		s.maxPrice = ceiling
	}
}

func New(store Store, runner tx.Runner, registry Registry, events EventAppender, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("listing store is required")
	}
	if runner == nil {
		return nil, errors.New("transaction runner is required")
	}
	if registry == nil {
		return nil, errors.New("registry is required")
	}
	if events == nil {
		return nil, errors.New("event appender is required")
	}
	s := &Service{
		store:    store,
		runner:   runner,
		registry: registry,
		events:   events,
		maxPrice: DefaultMaxPrice,
		logger:   slog.Default(),
		tracer:   otel.Tracer("registrar/marketplace"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List offers fullName for sale by its owner.
func (s *Service) List(ctx context.Context, fullName string, seller domain.Account, price decimal.Decimal) (listing *models.Listing, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "marketplace.List", trace.WithAttributes(attribute.String("full_name", fullName)))
	defer func() {
		s.metrics.ObserveOperation(module, "list", start, err)
		span.End()
	}()

	name, err := domain.ParseFullName(fullName)
	if err != nil {
		return nil, err
	}
	if err := models.ValidatePrice(price, s.maxPrice); err != nil {
		return nil, err
	}
	key := name.FullName()

	err = s.runner.RunInTx(ctx, key, func(ctx context.Context) error {
		owner, err := s.registry.OwnerOf(ctx, key)
		if err != nil {
			return err
		}
		if owner != seller {
			return domain.ErrNotOwner(key)
		}
		current, err := s.current(ctx, key)
		if err != nil {
			return err
		}
		if current != nil && current.Active {
			return dErrors.NewReason(dErrors.CodeConflict, domain.ReasonAlreadyListed, key+" is already listed")
		}

		now := requestcontext.Now(ctx)
		listing = models.NewListing(key, seller, price, now)
		if err := s.store.Save(ctx, listing); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save listing")
		}
		_, err = s.events.Append(ctx, evmodels.NewEvent(evmodels.TypeList, key, seller, "", &price, now))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "domain listed",
		"full_name", key,
		"seller", seller.String(),
		"price", price.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return listing, nil
}

// Unlist withdraws the active listing of fullName. Only the owner may do so.
func (s *Service) Unlist(ctx context.Context, fullName string, caller domain.Account) (listing *models.Listing, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "marketplace.Unlist", trace.WithAttributes(attribute.String("full_name", fullName)))
	defer func() {
		s.metrics.ObserveOperation(module, "unlist", start, err)
		span.End()
	}()

	name, err := domain.ParseFullName(fullName)
	if err != nil {
		return nil, err
	}
	key := name.FullName()

	err = s.runner.RunInTx(ctx, key, func(ctx context.Context) error {
		owner, err := s.registry.OwnerOf(ctx, key)
		if err != nil {
			return err
		}
		if owner != caller {
			return domain.ErrNotOwner(key)
		}
		listing, err = s.active(ctx, key)
		if err != nil {
			return err
		}
		listing.Active = false
		if err := s.store.Save(ctx, listing); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save listing")
		}
		_, err = s.events.Append(ctx, evmodels.NewEvent(evmodels.TypeUnlist, key, caller, "", nil, requestcontext.Now(ctx)))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "domain unlisted",
		"full_name", key,
		"actor", caller.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return listing, nil
}

// Purchase buys fullName at its listed price. Closing the listing, the
// ownership transfer and the sale record commit together or not at all.
func (s *Service) Purchase(ctx context.Context, fullName string, buyer domain.Account, payment decimal.Decimal) (listing *models.Listing, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "marketplace.Purchase", trace.WithAttributes(attribute.String("full_name", fullName)))
	defer func() {
		s.metrics.ObserveOperation(module, "purchase", start, err)
		span.End()
	}()

	name, err := domain.ParseFullName(fullName)
	if err != nil {
		return nil, err
	}
	if buyer.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "buyer is required")
	}
	if err := models.ValidateAmount(payment); err != nil {
		return nil, err
	}
	key := name.FullName()

	err = s.runner.RunInTx(ctx, key, func(ctx context.Context) error {
		listing, err = s.active(ctx, key)
		if err != nil {
			return err
		}
		if listing.Seller == buyer {
			return dErrors.NewReason(dErrors.CodeConflict, domain.ReasonSelfPurchase, "seller cannot buy their own listing")
		}
		if !payment.Equal(listing.Price) {
			return dErrors.NewReason(dErrors.CodeUnprocessable, domain.ReasonPriceMismatch,
				"payment must equal the listed price of "+listing.Price.String())
		}

		listing.Active = false
		if err := s.store.Save(ctx, listing); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save listing")
		}
		if _, err := s.registry.Transfer(ctx, key, listing.Seller, buyer); err != nil {
			return err
		}
		price := listing.Price
		if _, err := s.events.Append(ctx, evmodels.NewEvent(evmodels.TypeSale, key, buyer, listing.Seller, &price, requestcontext.Now(ctx))); err != nil {
			return err
		}
		tx.OnCommit(ctx, func() {
			s.metrics.AddSaleVolume(price.InexactFloat64())
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "domain sold",
		"full_name", key,
		"seller", listing.Seller.String(),
		"buyer", buyer.String(),
		"price", listing.Price.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return listing, nil
}

// Get returns the latest listing of fullName, active or not.
func (s *Service) Get(ctx context.Context, fullName string) (*models.Listing, error) {
	name, err := domain.ParseFullName(fullName)
	if err != nil {
		return nil, err
	}
	key := name.FullName()
	var listing *models.Listing
	err = s.runner.View(ctx, key, func(ctx context.Context) error {
		listing, err = s.current(ctx, key)
		if err != nil {
			return err
		}
		if listing == nil {
			return dErrors.New(dErrors.CodeNotFound, key+" has never been listed")
		}
		return nil
	})
	return listing, err
}

// ActiveListings returns one page of active listings matching f, read from a
// single committed snapshot.
func (s *Service) ActiveListings(ctx context.Context, f models.Filter) ([]*models.Listing, error) {
	if err := f.Normalize(); err != nil {
		return nil, err
	}
	var listings []*models.Listing
	err := s.runner.ViewAll(ctx, func(ctx context.Context) error {
		var err error
		listings, err = s.store.ListActive(ctx, f)
		return err
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list listings")
	}
	return listings, nil
}

// ActivePrice reports the asking price of fullName, or nil when unlisted.
func (s *Service) ActivePrice(ctx context.Context, fullName string) (*decimal.Decimal, error) {
	listing, err := s.current(ctx, fullName)
	if err != nil || listing == nil || !listing.Active {
		return nil, err
	}
	price := listing.Price
	return &price, nil
}

func (s *Service) OnRegistered(context.Context, *regmodels.Entry) error {
	return nil
}

// OnOwnerChanged withdraws a listing whose seller no longer owns the name.
// Purchases close their listing first, so this only fires for transfers
// made outside the marketplace.
func (s *Service) OnOwnerChanged(ctx context.Context, entry *regmodels.Entry, previous domain.Account) error {
	listing, err := s.current(ctx, entry.FullName)
	if err != nil {
		return err
	}
	if listing == nil || !listing.Active || listing.Seller == entry.Owner {
		return nil
	}
	listing.Active = false
	if err := s.store.Save(ctx, listing); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save listing")
	}
	_, err = s.events.Append(ctx, evmodels.NewEvent(evmodels.TypeUnlist, entry.FullName, previous, entry.Owner, nil, requestcontext.Now(ctx)))
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "listing withdrawn after transfer",
		"full_name", entry.FullName,
		"seller", listing.Seller.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

func (s *Service) current(ctx context.Context, fullName string) (*models.Listing, error) {
	listing, err := s.store.Get(ctx, fullName)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load listing")
	}
	return listing, nil
}

func (s *Service) active(ctx context.Context, fullName string) (*models.Listing, error) {
	listing, err := s.current(ctx, fullName)
	if err != nil {
		return nil, err
	}
	if listing == nil || !listing.Active {
		return nil, dErrors.NewReason(dErrors.CodeConflict, domain.ReasonNotListed, fullName+" is not listed")
	}
	return listing, nil
}
