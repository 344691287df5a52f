// Package registry is the authoritative mapping of full names to owners.
package registry

import (
	"database/sql"
	"log/slog"

	"registrar/internal/platform/metrics"
	"registrar/internal/registry/handler"
	"registrar/internal/registry/service"
	"registrar/internal/registry/store"
	"registrar/pkg/platform/tx"
)

type Service = service.Service

type Handler = handler.Handler

// Hook is implemented by modules that must react to ownership changes.
type Hook = service.Hook

// NewService builds an in-memory registry when db is nil.
func NewService(db *sql.DB, runner tx.Runner, extensions service.ExtensionCatalog, events service.EventAppender,
	logger *slog.Logger, m *metrics.Metrics) (*Service, error) {
	var st service.Store = store.NewInMemoryStore()
	if db != nil {
		st = store.NewPostgres(db)
	}
	return service.New(st, runner, extensions, events, service.WithLogger(logger), service.WithMetrics(m))
}

func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
