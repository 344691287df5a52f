package service

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strconv"

	"registrar/internal/eventlog/models"
	"registrar/internal/platform/metrics"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/platform/tx"
)

// pageSize bounds how many events a query holds in memory at once.
const pageSize = 256

// maxRecent caps Recent.
const maxRecent = 1000

type Store interface {
	Append(ctx context.Context, e *models.Event) (uint64, error)
	HighWater(ctx context.Context) (uint64, error)
	Page(ctx context.Context, f models.Filter, upTo uint64, limit int) ([]*models.Event, error)
	Recent(ctx context.Context, f models.Filter, n int) ([]*models.Event, error)
	Get(ctx context.Context, seq uint64) (*models.Event, error)
	SetStatus(ctx context.Context, seq uint64, status models.Status) error
}

// Log is the append-only history of every registry, resolver and
// marketplace state transition.
type Log struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Log)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) {
		l.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Log) {
		l.metrics = m
	}
}

func New(store Store, opts ...Option) (*Log, error) {
	if store == nil {
		return nil, errors.New("event store is required")
	}
	l := &Log{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Append records e and returns its sequence number. Events without a status
// are recorded as confirmed. Inside a transaction the event becomes visible
// only if the transaction commits.
func (l *Log) Append(ctx context.Context, e *models.Event) (uint64, error) {
	if e.Status == "" {
		e.Status = models.StatusConfirmed
	}
	if err := e.Validate(); err != nil {
		return 0, err
	}
	seq, err := l.store.Append(ctx, e)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append event")
	}
	typ := string(e.Type)
	tx.OnCommit(ctx, func() { l.metrics.IncEventAppended(typ) })
	return seq, nil
}

// Query yields matching events in ascending sequence order. Each iteration
// snapshots the current end of the log first, so it is finite and a second
// iteration sees the same events unless new ones were appended in between.
func (l *Log) Query(ctx context.Context, f models.Filter) iter.Seq2[*models.Event, error] {
	return func(yield func(*models.Event, error) bool) {
		upTo, err := l.store.HighWater(ctx)
		if err != nil {
			yield(nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read event log"))
			return
		}
		cursor := f
		for cursor.After < upTo {
			if err := ctx.Err(); err != nil {
				yield(nil, dErrors.Wrap(err, dErrors.CodeTimeout, "event query cancelled"))
				return
			}
			page, err := l.store.Page(ctx, cursor, upTo, pageSize)
			if err != nil {
				yield(nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read event log"))
				return
			}
			for _, e := range page {
				if !yield(e, nil) {
					return
				}
			}
			if len(page) < pageSize {
				return
			}
			cursor.After = page[len(page)-1].Sequence
		}
	}
}

// Collect drains Query into a slice.
func (l *Log) Collect(ctx context.Context, f models.Filter) ([]*models.Event, error) {
	var out []*models.Event
	for e, err := range l.Query(ctx, f) {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Recent returns up to n matching events, newest first.
func (l *Log) Recent(ctx context.Context, f models.Filter, n int) ([]*models.Event, error) {
	if n <= 0 || n > maxRecent {
		return nil, dErrors.New(dErrors.CodeValidation, "limit must be between 1 and "+strconv.Itoa(maxRecent))
	}
	events, err := l.store.Recent(ctx, f, n)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read event log")
	}
	return events, nil
}

func (l *Log) Get(ctx context.Context, seq uint64) (*models.Event, error) {
	e, err := l.store.Get(ctx, seq)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read event")
	}
	return e, nil
}

// SetStatus settles a pending event as confirmed or failed. Settled events
// never change again.
func (l *Log) SetStatus(ctx context.Context, seq uint64, status models.Status) error {
	if !status.IsTerminal() {
		return dErrors.New(dErrors.CodeValidation, "status must be confirmed or failed")
	}
	err := l.store.SetStatus(ctx, seq, status)
	switch {
	case err == nil:
		l.logger.InfoContext(ctx, "event settled", "sequence", seq, "status", string(status))
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "event not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeConflict, "event is already settled")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update event status")
	}
}
