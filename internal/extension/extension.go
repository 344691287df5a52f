// Package extension owns the catalog of registrable extensions and their pricing.
package extension

import (
	"database/sql"
	"log/slog"

	"registrar/internal/extension/handler"
	"registrar/internal/extension/service"
	"registrar/internal/extension/store"
)

// Service exposes catalog operations.
type Service = service.Service

// Handler wires HTTP endpoints to the catalog service.
type Handler = handler.Handler

// NewService builds an in-memory catalog when db is nil.
func NewService(db *sql.DB, logger *slog.Logger) *Service {
	var st service.Store = store.NewInMemoryStore()
	if db != nil {
		st = store.NewPostgres(db)
	}
	return service.New(st, service.WithLogger(logger))
}

func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
