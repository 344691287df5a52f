// Package eventlog is the single append-only history of registry, resolver
// and marketplace state transitions.
package eventlog

import (
	"database/sql"
	"log/slog"

	"registrar/internal/eventlog/handler"
	"registrar/internal/eventlog/service"
	"registrar/internal/eventlog/store"
	"registrar/internal/platform/metrics"
)

type Log = service.Log

type Handler = handler.Handler

// NewLog builds an in-memory log when db is nil.
func NewLog(db *sql.DB, logger *slog.Logger, m *metrics.Metrics) (*Log, error) {
	var st service.Store = store.NewInMemoryStore()
	if db != nil {
		st = store.NewPostgres(db)
	}
	return service.New(st, service.WithLogger(logger), service.WithMetrics(m))
}

func NewHandler(l *Log, logger *slog.Logger) *Handler {
	return handler.New(l, logger)
}
