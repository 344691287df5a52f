// Package relay publishes committed events to Kafka in sequence order.
//
// The worker is at-least-once: the cursor advances only after a batch has
// been acknowledged, so a crash between publish and cursor save re-sends the
// tail of the last batch. Consumers de-duplicate on tx_hash.
package relay

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"time"

	"registrar/internal/eventlog/models"
	"registrar/internal/platform/metrics"
	"registrar/pkg/platform/circuit"
)

const defaultBatchSize = 100

// Source is the event log.
type Source interface {
	Query(ctx context.Context, f models.Filter) iter.Seq2[*models.Event, error]
}

// Producer publishes a batch of events, returning only once all are acknowledged.
type Producer interface {
	Publish(ctx context.Context, events []*models.Event) error
}

// Cursor remembers the last relayed sequence.
type Cursor interface {
	Load(ctx context.Context) (uint64, error)
	Save(ctx context.Context, seq uint64) error
}

type Worker struct {
	source    Source
	producer  Producer
	cursor    Cursor
	interval  time.Duration
	batchSize int
	breaker   *circuit.Breaker
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Worker)

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// WithBreaker replaces the default breaker that pauses publishing after
// repeated broker failures.
func WithBreaker(b *circuit.Breaker) Option {
	return func(w *Worker) {
		if b != nil {
			w.breaker = b
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func New(source Source, producer Producer, cursor Cursor, opts ...Option) (*Worker, error) {
	if source == nil {
		return nil, errors.New("event source is required")
	}
	if producer == nil {
		return nil, errors.New("producer is required")
	}
	if cursor == nil {
		return nil, errors.New("cursor is required")
	}
	w := &Worker{
		source:    source,
		producer:  producer,
		cursor:    cursor,
		interval:  time.Second,
		batchSize: defaultBatchSize,
		breaker:   circuit.New("event-relay", circuit.WithFailureThreshold(3), circuit.WithCooldown(30*time.Second)),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run relays until ctx is cancelled. While the breaker is open ticks are
// skipped until its cooldown lets a probe batch through.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if w.breaker.Allow() {
			w.drain(ctx)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// drain publishes batches until the log is caught up or a batch fails.
func (w *Worker) drain(ctx context.Context) {
	for {
		n, err := w.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.metrics.IncRelayFailure()
			_, change := w.breaker.RecordFailure()
			switch {
			case change.Opened:
				w.logger.ErrorContext(ctx, "event relay paused after repeated failures", "error", err)
			case w.breaker.IsOpen():
				w.logger.DebugContext(ctx, "event relay probe failed", "error", err)
			default:
				w.logger.ErrorContext(ctx, "event relay failed", "error", err)
			}
			return
		}
		if _, change := w.breaker.RecordSuccess(); change.Closed {
			w.logger.InfoContext(ctx, "event relay resumed")
		}
		if n < w.batchSize {
			return
		}
	}
}

// RunOnce publishes at most one batch and returns how many events it sent.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	after, err := w.cursor.Load(ctx)
	if err != nil {
		return 0, err
	}
	batch := make([]*models.Event, 0, w.batchSize)
	for e, err := range w.source.Query(ctx, models.Filter{After: after}) {
		if err != nil {
			return 0, err
		}
		batch = append(batch, e)
		if len(batch) == w.batchSize {
			break
		}
	}
	if len(batch) == 0 {
		return 0, nil
	}
	if err := w.producer.Publish(ctx, batch); err != nil {
		return 0, err
	}
	last := batch[len(batch)-1].Sequence
	if err := w.cursor.Save(ctx, last); err != nil {
		return 0, err
	}
	w.metrics.AddEventsRelayed(len(batch))
	w.logger.DebugContext(ctx, "events relayed", "count", len(batch), "last_sequence", last)
	return len(batch), nil
}
