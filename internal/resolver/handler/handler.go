package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"registrar/internal/resolver/models"
	"registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/httputil"
	"registrar/pkg/requestcontext"
)

type Service interface {
	SetResolution(ctx context.Context, fullName string, caller, target domain.Account) (*models.Record, error)
	ClearResolution(ctx context.Context, fullName string, caller domain.Account) (*models.Record, error)
	Resolve(ctx context.Context, fullName string) (*domain.Account, error)
	SetTextRecord(ctx context.Context, fullName string, caller domain.Account, key, value string) (*models.Record, error)
	GetTextRecord(ctx context.Context, fullName, key string) (string, bool, error)
	RemoveTextRecord(ctx context.Context, fullName string, caller domain.Account, key string) (*models.Record, error)
	Record(ctx context.Context, fullName string) (*models.Record, error)
	ReverseResolve(ctx context.Context, addr domain.Account) (string, bool, error)
	Status(ctx context.Context, fullName string) (*models.Status, error)
	BatchResolve(ctx context.Context, fullNames []string) (map[string]*domain.Account, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/domains/{fullName}/resolution", h.handleResolve)
	r.Put("/domains/{fullName}/resolution", h.handleSetResolution)
	r.Delete("/domains/{fullName}/resolution", h.handleClearResolution)
	r.Get("/domains/{fullName}/records", h.handleRecord)
	r.Get("/domains/{fullName}/records/{key}", h.handleGetText)
	r.Put("/domains/{fullName}/records/{key}", h.handleSetText)
	r.Delete("/domains/{fullName}/records/{key}", h.handleRemoveText)
	r.Get("/domains/{fullName}/status", h.handleStatus)
	r.Get("/reverse/{address}", h.handleReverse)
	r.Post("/resolve/batch", h.handleBatch)
}

type SetResolutionRequest struct {
	Caller  string `json:"caller"`
	Address string `json:"address"`

	caller, address domain.Account
}

func (r *SetResolutionRequest) Validate() error {
	var err error
	if r.caller, err = domain.ParseAccount(r.Caller); err != nil {
		return err
	}
	if r.address, err = domain.ParseAccount(r.Address); err != nil {
		return err
	}
	return nil
}

// CallerRequest is the body of deletes, which only identify the caller.
type CallerRequest struct {
	Caller string `json:"caller"`

	caller domain.Account
}

func (r *CallerRequest) Validate() error {
	var err error
	r.caller, err = domain.ParseAccount(r.Caller)
	return err
}

type SetTextRequest struct {
	Caller string  `json:"caller"`
	Value  *string `json:"value"`

	caller domain.Account
}

func (r *SetTextRequest) Validate() error {
	var err error
	if r.caller, err = domain.ParseAccount(r.Caller); err != nil {
		return err
	}
	if r.Value == nil {
		return dErrors.New(dErrors.CodeValidation, "value is required")
	}
	return nil
}

type BatchRequest struct {
	FullNames []string `json:"full_names"`
}

func (r *BatchRequest) Validate() error {
	if len(r.FullNames) == 0 {
		return dErrors.New(dErrors.CodeValidation, "full_names is required")
	}
	return nil
}

type ResolveResponse struct {
	FullName        string          `json:"full_name"`
	ResolvedAddress *domain.Account `json:"resolved_address"`
}

type TextRecordResponse struct {
	FullName string  `json:"full_name"`
	Key      string  `json:"key"`
	Value    *string `json:"value"`
}

type ReverseResponse struct {
	Address  domain.Account `json:"address"`
	FullName *string        `json:"full_name"`
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	fullName := strings.ToLower(chi.URLParam(r, "fullName"))
	target, err := h.service.Resolve(r.Context(), fullName)
	if err != nil {
		h.writeError(w, r, "resolve failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ResolveResponse{FullName: fullName, ResolvedAddress: target})
}

func (h *Handler) handleSetResolution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SetResolutionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rec, err := h.service.SetResolution(ctx, chi.URLParam(r, "fullName"), req.caller, req.address)
	if err != nil {
		h.writeError(w, r, "set resolution failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleClearResolution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CallerRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rec, err := h.service.ClearResolution(ctx, chi.URLParam(r, "fullName"), req.caller)
	if err != nil {
		h.writeError(w, r, "clear resolution failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Record(r.Context(), chi.URLParam(r, "fullName"))
	if err != nil {
		h.writeError(w, r, "record lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleGetText(w http.ResponseWriter, r *http.Request) {
	fullName := strings.ToLower(chi.URLParam(r, "fullName"))
	key := chi.URLParam(r, "key")
	value, ok, err := h.service.GetTextRecord(r.Context(), fullName, key)
	if err != nil {
		h.writeError(w, r, "text record lookup failed", err)
		return
	}
	resp := TextRecordResponse{FullName: fullName, Key: key}
	if ok {
		resp.Value = &value
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSetText(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SetTextRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rec, err := h.service.SetTextRecord(ctx, chi.URLParam(r, "fullName"), req.caller, chi.URLParam(r, "key"), *req.Value)
	if err != nil {
		h.writeError(w, r, "set text record failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleRemoveText(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CallerRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rec, err := h.service.RemoveTextRecord(ctx, chi.URLParam(r, "fullName"), req.caller, chi.URLParam(r, "key"))
	if err != nil {
		h.writeError(w, r, "remove text record failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context(), chi.URLParam(r, "fullName"))
	if err != nil {
		h.writeError(w, r, "status lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) handleReverse(w http.ResponseWriter, r *http.Request) {
	addr, err := domain.ParseAccount(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	name, ok, err := h.service.ReverseResolve(r.Context(), addr)
	if err != nil {
		h.writeError(w, r, "reverse resolve failed", err)
		return
	}
	resp := ReverseResponse{Address: addr}
	if ok {
		resp.FullName = &name
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[BatchRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	out, err := h.service.BatchResolve(ctx, req.FullNames)
	if err != nil {
		h.writeError(w, r, "batch resolve failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
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
