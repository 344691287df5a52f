package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	evmodels "registrar/internal/eventlog/models"
	"registrar/internal/platform/metrics"
	regmodels "registrar/internal/registry/models"
	"registrar/internal/resolver/models"
	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/platform/tx"
	"registrar/pkg/requestcontext"
)

const (
	module = "resolver"

	// MaxBatchSize bounds BatchResolve.
	MaxBatchSize = 100

	batchConcurrency = 16
)

type Store interface {
	Get(ctx context.Context, fullName string) (*models.Record, error)
	Put(ctx context.Context, r *models.Record) error
	ReverseLookup(ctx context.Context, addr domain.Account) (string, error)
}

// OwnerReader is the registry view the resolver authorizes writes against.
type OwnerReader interface {
	OwnerOf(ctx context.Context, fullName string) (domain.Account, error)
}

type EventAppender interface {
	Append(ctx context.Context, e *evmodels.Event) (uint64, error)
}

// Cache fronts Resolve. A hit with a nil target is a cached "unresolved".
// Invalidate bumps the name's generation; Set stores only if the generation
// still matches the one read before the store was consulted, so a fill that
// raced a committed write is dropped.
type Cache interface {
	Get(ctx context.Context, fullName string) (*domain.Account, bool, error)
	Generation(ctx context.Context, fullName string) (uint64, error)
	Set(ctx context.Context, fullName string, target *domain.Account, generation uint64) (bool, error)
	Invalidate(ctx context.Context, fullName string) error
}

// Service maps names to addresses and text records, and addresses back to
// names.
type Service struct {
	store      Store
	runner     tx.Runner
	registry   OwnerReader
	events     EventAppender
	cache      Cache
	closedKeys bool
	inflight   singleflight.Group
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

func WithCache(c Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithClosedKeys restricts text record keys to models.KnownTextKeys.
func WithClosedKeys(closed bool) Option {
	return func(s *Service) {
		s.closedKeys = closed
	}
}

func New(store Store, runner tx.Runner, registry OwnerReader, events EventAppender, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("resolver store is required")
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
		logger:   slog.Default(),
		tracer:   otel.Tracer("registrar/resolver"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetResolution points fullName at target. Only the current owner may do so.
func (s *Service) SetResolution(ctx context.Context, fullName string, caller, target domain.Account) (rec *models.Record, err error) {
	if target.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "target address is required")
	}
	return s.mutate(ctx, "set_resolution", fullName, caller, func(_ context.Context, r *models.Record) (*evmodels.Event, error) {
		r.ResolvedAddress = &target
		return evmodels.NewEvent(evmodels.TypeResolveUpdate, r.FullName, caller, target, nil, r.UpdatedAt), nil
	})
}

// ClearResolution removes the address of fullName, keeping its text records.
func (s *Service) ClearResolution(ctx context.Context, fullName string, caller domain.Account) (*models.Record, error) {
	return s.mutate(ctx, "clear_resolution", fullName, caller, func(_ context.Context, r *models.Record) (*evmodels.Event, error) {
		r.ResolvedAddress = nil
		r.AddressVersion = 0
		return evmodels.NewEvent(evmodels.TypeResolveUpdate, r.FullName, caller, "", nil, r.UpdatedAt), nil
	})
}

// SetTextRecord stores value under key. An empty value is kept as such.
func (s *Service) SetTextRecord(ctx context.Context, fullName string, caller domain.Account, key, value string) (*models.Record, error) {
	key = strings.TrimSpace(key)
	if err := models.ValidateTextKey(key, s.closedKeys); err != nil {
		return nil, err
	}
	if err := models.ValidateTextValue(value); err != nil {
		return nil, err
	}
	return s.mutate(ctx, "set_text_record", fullName, caller, func(_ context.Context, r *models.Record) (*evmodels.Event, error) {
		r.TextRecords[key] = value
		return evmodels.NewEvent(evmodels.TypeTextRecordUpdate, r.FullName, caller, "", nil, r.UpdatedAt), nil
	})
}

// RemoveTextRecord deletes key. Removing a key that is not set is NotFound.
func (s *Service) RemoveTextRecord(ctx context.Context, fullName string, caller domain.Account, key string) (*models.Record, error) {
	key = strings.TrimSpace(key)
	return s.mutate(ctx, "remove_text_record", fullName, caller, func(_ context.Context, r *models.Record) (*evmodels.Event, error) {
		if _, ok := r.TextRecords[key]; !ok {
			return nil, dErrors.New(dErrors.CodeNotFound, "text record "+key+" is not set on "+r.FullName)
		}
		delete(r.TextRecords, key)
		return evmodels.NewEvent(evmodels.TypeTextRecordUpdate, r.FullName, caller, "", nil, r.UpdatedAt), nil
	})
}

// mutate runs apply against a copy of the record under the name's
// transaction, after checking that caller owns the name.
func (s *Service) mutate(ctx context.Context, op, fullName string, caller domain.Account,
	apply func(ctx context.Context, r *models.Record) (*evmodels.Event, error)) (rec *models.Record, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "resolver."+op, trace.WithAttributes(attribute.String("full_name", fullName)))
	defer func() {
		s.metrics.ObserveOperation(module, op, start, err)
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
		current, err := s.load(ctx, key)
		if err != nil {
			return err
		}
		rec = current.Clone()
		rec.UpdatedAt = requestcontext.Now(ctx).UTC()
		event, err := apply(ctx, rec)
		if err != nil {
			return err
		}
		seq, err := s.events.Append(ctx, event)
		if err != nil {
			return err
		}
		// Event sequences are handed out in commit order, which makes the
		// latest pointer win reverse lookups.
		if event.Type == evmodels.TypeResolveUpdate && rec.ResolvedAddress != nil {
			rec.AddressVersion = seq
		}
		if err := s.store.Put(ctx, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save resolution record")
		}
		s.invalidateAfterCommit(ctx, key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "resolution record updated",
		"full_name", key,
		"operation", op,
		"actor", caller.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return rec, nil
}

// Resolve returns the address fullName points at, or nil when it is
// unresolved or unregistered.
func (s *Service) Resolve(ctx context.Context, fullName string) (*domain.Account, error) {
	name, err := domain.ParseFullName(fullName)
	if err != nil {
		return nil, err
	}
	key := name.FullName()

	if s.cache != nil {
		target, hit, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.metrics.IncCacheLookup("error")
			s.logger.WarnContext(ctx, "resolution cache read failed", "full_name", key, "error", err)
		case hit:
			s.metrics.IncCacheLookup("hit")
			return target, nil
		default:
			s.metrics.IncCacheLookup("miss")
		}
	}

	v, err, _ := s.inflight.Do(key, func() (any, error) {
		// Waiters share this flight; one caller cancelling must not fail the rest.
		ctx := context.WithoutCancel(ctx)
		generation, fill := s.cacheGeneration(ctx, key)
		var target *domain.Account
		err := s.runner.View(ctx, key, func(ctx context.Context) error {
			rec, err := s.store.Get(ctx, key)
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil
			}
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load resolution record")
			}
			target = rec.ResolvedAddress
			return nil
		})
		if err != nil {
			return nil, err
		}
		if fill {
			stored, err := s.cache.Set(ctx, key, target, generation)
			switch {
			case err != nil:
				s.logger.WarnContext(ctx, "resolution cache write failed", "full_name", key, "error", err)
			case !stored:
				s.logger.DebugContext(ctx, "stale resolution cache fill dropped", "full_name", key)
			}
		}
		return target, nil
	})
	if err != nil {
		return nil, err
	}
	target, _ := v.(*domain.Account)
	if target == nil {
		return nil, nil
	}
	out := *target
	return &out, nil
}

// GetTextRecord returns the value under key and whether it is set.
func (s *Service) GetTextRecord(ctx context.Context, fullName, key string) (string, bool, error) {
	rec, err := s.Record(ctx, fullName)
	if err != nil {
		if dErrors.HasReason(err, domain.ReasonNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	v, ok := rec.TextRecords[strings.TrimSpace(key)]
	return v, ok, nil
}

// Record returns the full resolution record of a registered name.
func (s *Service) Record(ctx context.Context, fullName string) (*models.Record, error) {
	name, err := domain.ParseFullName(fullName)
	if err != nil {
		return nil, err
	}
	key := name.FullName()
	var rec *models.Record
	err = s.runner.View(ctx, key, func(ctx context.Context) error {
		rec, err = s.store.Get(ctx, key)
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.ErrNotFound(key)
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load resolution record")
		}
		return nil
	})
	return rec, err
}

// ReverseResolve returns the name that most recently started resolving to
// addr. When several names point at addr the latest write wins; clearing it
// falls back to the next most recent one.
func (s *Service) ReverseResolve(ctx context.Context, addr domain.Account) (string, bool, error) {
	if addr.IsZero() {
		return "", false, dErrors.New(dErrors.CodeValidation, "address is required")
	}
	var name string
	err := s.runner.ViewAll(ctx, func(ctx context.Context) error {
		var err error
		name, err = s.store.ReverseLookup(ctx, addr)
		return err
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reverse resolve")
	}
	return name, true, nil
}

// Status combines ownership and resolution state of fullName.
func (s *Service) Status(ctx context.Context, fullName string) (*models.Status, error) {
	name, err := domain.ParseFullName(fullName)
	if err != nil {
		return nil, err
	}
	key := name.FullName()
	owner, err := s.registry.OwnerOf(ctx, key)
	if err != nil {
		return nil, err
	}
	rec, err := s.Record(ctx, key)
	if err != nil && !dErrors.HasReason(err, domain.ReasonNotFound) {
		return nil, err
	}
	status := &models.Status{FullName: key, Owner: owner}
	if rec != nil {
		status.Resolved = rec.ResolvedAddress != nil
		status.ResolvedAddress = rec.ResolvedAddress
		status.TextRecordCount = len(rec.TextRecords)
	}
	return status, nil
}

// BatchResolve resolves up to MaxBatchSize names concurrently. Unresolved
// and unregistered names map to nil.
func (s *Service) BatchResolve(ctx context.Context, fullNames []string) (map[string]*domain.Account, error) {
	if len(fullNames) > MaxBatchSize {
		return nil, dErrors.New(dErrors.CodeValidation, "at most 100 names can be resolved at once")
	}
	var (
		mu  sync.Mutex
		out = make(map[string]*domain.Account, len(fullNames))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for _, fullName := range fullNames {
		g.Go(func() error {
			name, err := domain.ParseFullName(fullName)
			if err != nil {
				return err
			}
			target, err := s.Resolve(gctx, name.FullName())
			if err != nil {
				return err
			}
			mu.Lock()
			out[name.FullName()] = target
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// OnRegistered starts the name with an empty record.
func (s *Service) OnRegistered(ctx context.Context, entry *regmodels.Entry) error {
	if err := s.store.Put(ctx, models.NewRecord(entry.FullName, requestcontext.Now(ctx))); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create resolution record")
	}
	s.invalidateAfterCommit(ctx, entry.FullName)
	return nil
}

// OnOwnerChanged resets the record so the new owner starts clean. The reset
// is part of the transfer and appends no event of its own.
func (s *Service) OnOwnerChanged(ctx context.Context, entry *regmodels.Entry, _ domain.Account) error {
	current, err := s.load(ctx, entry.FullName)
	if err != nil {
		return err
	}
	if current.IsEmpty() {
		return nil
	}
	if err := s.store.Put(ctx, models.NewRecord(entry.FullName, requestcontext.Now(ctx))); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear resolution record")
	}
	s.invalidateAfterCommit(ctx, entry.FullName)
	return nil
}

// load returns the stored record, or an empty one for names registered
// before the resolver kept state for them.
func (s *Service) load(ctx context.Context, fullName string) (*models.Record, error) {
	rec, err := s.store.Get(ctx, fullName)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.NewRecord(fullName, requestcontext.Now(ctx)), nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load resolution record")
	}
	return rec, nil
}

// cacheGeneration reads the generation a later fill must match. A failed
// read disables the fill.
func (s *Service) cacheGeneration(ctx context.Context, fullName string) (uint64, bool) {
	if s.cache == nil {
		return 0, false
	}
	generation, err := s.cache.Generation(ctx, fullName)
	if err != nil {
		s.logger.WarnContext(ctx, "resolution cache generation read failed", "full_name", fullName, "error", err)
		return 0, false
	}
	return generation, true
}

func (s *Service) invalidateAfterCommit(ctx context.Context, fullName string) {
	if s.cache == nil {
		return
	}
	tx.AfterCommit(ctx, func(ctx context.Context) {
		if err := s.cache.Invalidate(ctx, fullName); err != nil {
			s.logger.WarnContext(ctx, "resolution cache invalidation failed", "full_name", fullName, "error", err)
		}
	})
}
