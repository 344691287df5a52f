package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"registrar/internal/registry/models"
	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/httputil"
	strutil "registrar/pkg/platform/strings"
	"registrar/pkg/requestcontext"
)

type Service interface {
	Register(ctx context.Context, fullName string, owner domain.Account) (*models.Entry, error)
	Transfer(ctx context.Context, fullName string, from, to domain.Account) (*models.Entry, error)
	Get(ctx context.Context, fullName string) (*models.Entry, error)
	IsAvailable(ctx context.Context, fullName string) (bool, error)
	ListByOwner(ctx context.Context, owner domain.Account) ([]*models.Entry, error)
	Search(ctx context.Context, label string, extensions []string) ([]*models.SearchResult, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/domains", h.handleRegister)
	r.Get("/domains/search", h.handleSearch)
	r.Get("/domains/{fullName}", h.handleGet)
	r.Get("/domains/{fullName}/availability", h.handleAvailability)
	r.Post("/domains/{fullName}/transfer", h.handleTransfer)
	r.Get("/accounts/{account}/domains", h.handleListByOwner)
}

// RegisterRequest accepts either full_name or name + extension.
type RegisterRequest struct {
	FullName  string `json:"full_name,omitempty"`
	Name      string `json:"name,omitempty"`
	Extension string `json:"extension,omitempty"`
	Owner     string `json:"owner"`

	owner domain.Account
}

func (r *RegisterRequest) Validate() error {
	if r.FullName == "" {
		if r.Name == "" || r.Extension == "" {
			return dErrors.New(dErrors.CodeValidation, "full_name or name and extension are required")
		}
		r.FullName = strings.TrimSpace(r.Name) + "." + strings.TrimPrefix(strings.TrimSpace(r.Extension), ".")
	}
	owner, err := domain.ParseAccount(r.Owner)
	if err != nil {
		return err
	}
	r.owner = owner
	return nil
}

type TransferRequest struct {
	From string `json:"from"`
	To   string `json:"to"`

	from, to domain.Account
}

func (r *TransferRequest) Validate() error {
	var err error
	if r.from, err = domain.ParseAccount(r.From); err != nil {
		return err
	}
	if r.to, err = domain.ParseAccount(r.To); err != nil {
		return err
	}
	return nil
}

type AvailabilityResponse struct {
	FullName  string `json:"full_name"`
	Available bool   `json:"available"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	entry, err := h.service.Register(ctx, req.FullName, req.owner)
	if err != nil {
		h.writeError(w, r, "register failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	entry, err := h.service.Transfer(ctx, chi.URLParam(r, "fullName"), req.from, req.to)
	if err != nil {
		h.writeError(w, r, "transfer failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.Get(r.Context(), chi.URLParam(r, "fullName"))
	if err != nil {
		h.writeError(w, r, "lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	fullName := strings.ToLower(chi.URLParam(r, "fullName"))
	available, err := h.service.IsAvailable(r.Context(), fullName)
	if err != nil {
		h.writeError(w, r, "availability check failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AvailabilityResponse{FullName: fullName, Available: available})
}

func (h *Handler) handleListByOwner(w http.ResponseWriter, r *http.Request) {
	owner, err := domain.ParseAccount(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.service.ListByOwner(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, "list failed", err)
		return
	}
	if entries == nil {
		entries = []*models.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

// handleSearch serves /domains/search?name=alice&extensions=web3,dao.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results, err := h.service.Search(r.Context(), q.Get("name"), strutil.SplitListLower(q.Get("extensions")))
	if err != nil {
		h.writeError(w, r, "search failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, results)
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
