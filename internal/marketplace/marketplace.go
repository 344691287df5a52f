// Package marketplace runs fixed-price secondary sales of registered names.
package marketplace

import (
	"database/sql"
	"log/slog"

	"github.com/shopspring/decimal"

	"registrar/internal/marketplace/handler"
	"registrar/internal/marketplace/service"
	"registrar/internal/marketplace/store"
	"registrar/internal/platform/metrics"
	"registrar/pkg/platform/tx"
)

type Service = service.Service

type Handler = handler.Handler

// NewService builds an in-memory marketplace when db is nil.
func NewService(db *sql.DB, runner tx.Runner, registry service.Registry, events service.EventAppender,
	maxPrice decimal.Decimal, logger *slog.Logger, m *metrics.Metrics) (*Service, error) {
	var st service.Store = store.NewInMemoryStore()
	if db != nil {
		st = store.NewPostgres(db)
	}
	return service.New(st, runner, registry, events,
		service.WithMaxPrice(maxPrice),
		service.WithLogger(logger),
		service.WithMetrics(m),
	)
}

func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
