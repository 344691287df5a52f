// Package resolver maps registered names to addresses and text records.
package resolver

import (
	"database/sql"
	"log/slog"

	"registrar/internal/platform/metrics"
	"registrar/internal/resolver/handler"
	"registrar/internal/resolver/service"
	"registrar/internal/resolver/store"
	"registrar/pkg/platform/tx"
)

type Service = service.Service

type Handler = handler.Handler

type Option = service.Option

var (
	WithCache      = service.WithCache
	WithClosedKeys = service.WithClosedKeys
)

// NewService builds an in-memory resolver when db is nil.
func NewService(db *sql.DB, runner tx.Runner, registry service.OwnerReader, events service.EventAppender,
	logger *slog.Logger, m *metrics.Metrics, opts ...Option) (*Service, error) {
	var st service.Store = store.NewInMemoryStore()
	if db != nil {
		st = store.NewPostgres(db)
	}
	opts = append([]Option{service.WithLogger(logger), service.WithMetrics(m)}, opts...)
	return service.New(st, runner, registry, events, opts...)
}

func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
