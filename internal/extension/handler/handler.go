package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"registrar/internal/extension/models"
	"registrar/internal/naming"
	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/httputil"
	"registrar/pkg/requestcontext"
)

// Service defines the catalog operations exposed over HTTP.
type Service interface {
	List(ctx context.Context) ([]*models.Extension, error)
	Get(ctx context.Context, name string) (*models.Extension, error)
	Upsert(ctx context.Context, ext *models.Extension) (*models.Extension, error)
	SetEnabled(ctx context.Context, name string, enabled bool) (*models.Extension, error)
	EnabledSet(ctx context.Context) (naming.ExtensionSet, error)
	Quote(ctx context.Context, name domain.Name) (decimal.Decimal, error)
}

// Handler serves /extensions.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/extensions", h.handleList)
	r.Get("/extensions/{name}", h.handleGet)
	r.Put("/extensions/{name}", h.handleUpsert)
	r.Put("/extensions/{name}/enabled", h.handleSetEnabled)
	r.Get("/extensions/{name}/quote", h.handleQuote)
}

type UpsertRequest struct {
	BasePrice   decimal.Decimal         `json:"base_price"`
	TierPricing map[int]decimal.Decimal `json:"tier_pricing,omitempty"`
	Enabled     *bool                   `json:"enabled,omitempty"`
	Description string                  `json:"description,omitempty"`
}

func (r *UpsertRequest) Validate() error {
	if r.BasePrice.IsNegative() {
		return dErrors.New(dErrors.CodeValidation, "base_price must not be negative")
	}
	return nil
}

type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

func (r *SetEnabledRequest) Validate() error { return nil }

type QuoteResponse struct {
	FullName string          `json:"full_name"`
	Price    decimal.Decimal `json:"price"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	exts, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, r, "failed to list extensions", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, exts)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ext, err := h.service.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, "failed to load extension", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ext)
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[UpsertRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	enabled := req.Enabled == nil || *req.Enabled
	ext, err := h.service.Upsert(ctx, &models.Extension{
		Name:        chi.URLParam(r, "name"),
		BasePrice:   req.BasePrice,
		TierPricing: req.TierPricing,
		Enabled:     enabled,
		Description: req.Description,
	})
	if err != nil {
		h.writeError(w, r, "failed to save extension", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ext)
}

func (h *Handler) handleSetEnabled(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SetEnabledRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	ext, err := h.service.SetEnabled(ctx, chi.URLParam(r, "name"), req.Enabled)
	if err != nil {
		h.writeError(w, r, "failed to toggle extension", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ext)
}

// handleQuote prices /extensions/{name}/quote?label=alice.
func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	enabled, err := h.service.EnabledSet(ctx)
	if err != nil {
		h.writeError(w, r, "failed to load extensions", err)
		return
	}
	name, err := naming.Validate(r.URL.Query().Get("label"), chi.URLParam(r, "name"), enabled)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	price, err := h.service.Quote(ctx, name)
	if err != nil {
		h.writeError(w, r, "failed to quote", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, QuoteResponse{FullName: name.FullName(), Price: price})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), msg,
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
			"path", r.URL.Path,
		)
	}
	httputil.WriteError(w, err)
}
