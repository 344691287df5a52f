package handler

import (
	"context"
	"iter"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"registrar/internal/eventlog/models"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/httputil"
	"registrar/pkg/requestcontext"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

type Service interface {
	Query(ctx context.Context, f models.Filter) iter.Seq2[*models.Event, error]
	Recent(ctx context.Context, f models.Filter, n int) ([]*models.Event, error)
	Get(ctx context.Context, seq uint64) (*models.Event, error)
	SetStatus(ctx context.Context, seq uint64, status models.Status) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/events", h.handleQuery)
	r.Get("/events/recent", h.handleRecent)
	r.Get("/events/{sequence}", h.handleGet)
	r.Put("/events/{sequence}/status", h.handleSetStatus)
}

// QueryResponse pages through the log; pass Next as ?after= to continue.
type QueryResponse struct {
	Events []*models.Event `json:"events"`
	Next   uint64          `json:"next,omitempty"`
}

type SetStatusRequest struct {
	Status models.Status `json:"status"`
}

func (r *SetStatusRequest) Validate() error {
	if !r.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeValidation, "status must be confirmed or failed")
	}
	return nil
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := QueryResponse{Events: make([]*models.Event, 0, limit)}
	for e, err := range h.service.Query(ctx, f) {
		if err != nil {
			h.writeError(w, r, "event query failed", err)
			return
		}
		if len(resp.Events) == limit {
			resp.Next = resp.Events[limit-1].Sequence
			break
		}
		resp.Events = append(resp.Events, e)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.service.Recent(r.Context(), f, limit)
	if err != nil {
		h.writeError(w, r, "recent events failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	seq, err := parseSequence(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	e, err := h.service.Get(r.Context(), seq)
	if err != nil {
		h.writeError(w, r, "event lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	seq, err := parseSequence(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if err := h.service.SetStatus(ctx, seq, req.Status); err != nil {
		h.writeError(w, r, "event status update failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	typ, err := models.ParseType(q.Get("type"))
	if err != nil {
		return models.Filter{}, err
	}
	f := models.Filter{
		FullName: strings.ToLower(strings.TrimSpace(q.Get("full_name"))),
		Type:     typ,
	}
	if raw := q.Get("after"); raw != "" {
		after, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return models.Filter{}, dErrors.New(dErrors.CodeValidation, "after must be a sequence number")
		}
		f.After = after
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return models.Filter{}, dErrors.New(dErrors.CodeValidation, "since must be an RFC 3339 timestamp")
		}
		f.Since = since
	}
	return f, nil
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxLimit {
		return 0, dErrors.New(dErrors.CodeValidation, "limit must be between 1 and "+strconv.Itoa(maxLimit))
	}
	return n, nil
}

func parseSequence(r *http.Request) (uint64, error) {
	seq, err := strconv.ParseUint(chi.URLParam(r, "sequence"), 10, 64)
	if err != nil || seq == 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "sequence must be a positive integer")
	}
	return seq, nil
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
