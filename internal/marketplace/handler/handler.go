package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"registrar/internal/marketplace/models"
	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/httputil"
	"registrar/pkg/requestcontext"
)

type Service interface {
	List(ctx context.Context, fullName string, seller domain.Account, price decimal.Decimal) (*models.Listing, error)
	Unlist(ctx context.Context, fullName string, caller domain.Account) (*models.Listing, error)
	Purchase(ctx context.Context, fullName string, buyer domain.Account, payment decimal.Decimal) (*models.Listing, error)
	Get(ctx context.Context, fullName string) (*models.Listing, error)
	ActiveListings(ctx context.Context, f models.Filter) ([]*models.Listing, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/listings", h.handleActive)
	r.Post("/listings", h.handleList)
	r.Get("/listings/{fullName}", h.handleGet)
	r.Delete("/listings/{fullName}", h.handleUnlist)
	r.Post("/listings/{fullName}/purchase", h.handlePurchase)
}

// ListRequest accepts the price as a JSON string or number.
type ListRequest struct {
	FullName string          `json:"full_name"`
	Seller   string          `json:"seller"`
	Price    decimal.Decimal `json:"price"`

	seller domain.Account
}

func (r *ListRequest) Validate() error {
	r.FullName = strings.TrimSpace(r.FullName)
	if r.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "full_name is required")
	}
	var err error
	r.seller, err = domain.ParseAccount(r.Seller)
	return err
}

type UnlistRequest struct {
	Caller string `json:"caller"`

	caller domain.Account
}

func (r *UnlistRequest) Validate() error {
	var err error
	r.caller, err = domain.ParseAccount(r.Caller)
	return err
}

type PurchaseRequest struct {
	Buyer   string          `json:"buyer"`
	Payment decimal.Decimal `json:"payment"`

	buyer domain.Account
}

func (r *PurchaseRequest) Validate() error {
	var err error
	r.buyer, err = domain.ParseAccount(r.Buyer)
	return err
}

func (h *Handler) handleActive(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	listings, err := h.service.ActiveListings(r.Context(), f)
	if err != nil {
		h.writeError(w, r, "list listings failed", err)
		return
	}
	if listings == nil {
		listings = []*models.Listing{}
	}
	httputil.WriteJSON(w, http.StatusOK, listings)
}

func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	f := models.Filter{
		Extension: q.Get("extension"),
		Search:    q.Get("search"),
		Sort:      models.Sort(q.Get("sort")),
	}
	for param, dst := range map[string]**decimal.Decimal{"min_price": &f.MinPrice, "max_price": &f.MaxPrice} {
		raw := q.Get(param)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return models.Filter{}, dErrors.New(dErrors.CodeValidation, param+" must be a decimal number")
		}
		*dst = &d
	}
	for param, dst := range map[string]*int{"length": &f.Length, "limit": &f.Limit, "offset": &f.Offset} {
		raw := q.Get(param)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return models.Filter{}, dErrors.New(dErrors.CodeValidation, param+" must be an integer")
		}
		*dst = n
	}
	return f, nil
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ListRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	listing, err := h.service.List(ctx, req.FullName, req.seller, req.Price)
	if err != nil {
		h.writeError(w, r, "list failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, listing)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.Get(r.Context(), chi.URLParam(r, "fullName"))
	if err != nil {
		h.writeError(w, r, "listing lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listing)
}

func (h *Handler) handleUnlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[UnlistRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	listing, err := h.service.Unlist(ctx, chi.URLParam(r, "fullName"), req.caller)
	if err != nil {
		h.writeError(w, r, "unlist failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listing)
}

func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[PurchaseRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	listing, err := h.service.Purchase(ctx, chi.URLParam(r, "fullName"), req.buyer, req.Payment)
	if err != nil {
		h.writeError(w, r, "purchase failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listing)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), msg,
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
