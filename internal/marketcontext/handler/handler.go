package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"finsight/internal/marketcontext/models"
	"finsight/internal/tier"
	dErrors "finsight/pkg/domain-errors"
	"finsight/pkg/platform/httputil"
	"finsight/pkg/requestcontext"
)

// Service is the admin surface of the market context cache.
type Service interface {
	Stats(ctx context.Context) (models.Stats, error)
	Refresh(ctx context.Context, t tier.Tier, demo bool) (string, error)
	Invalidate(ctx context.Context, pattern string) ([]string, error)
}

// Handler exposes cache administration. Mount it behind the admin token middleware.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an admin handler.
func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts the admin endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/market-context/stats", h.HandleStats)
	r.Post("/admin/market-context/refresh", h.HandleRefresh)
	r.Post("/admin/market-context/invalidate", h.HandleInvalidate)
}

// HandleStats handles GET /admin/market-context/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.service.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read market context stats",
			"request_id", requestcontext.RequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}
	if stats.Keys == nil {
		stats.Keys = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// RefreshRequest is the body of POST /admin/market-context/refresh.
type RefreshRequest struct {
	Tier string `json:"tier"`
	Demo bool   `json:"demo"`
}

// Validate requires a known tier with market sources.
func (r *RefreshRequest) Validate() error {
	r.Tier = strings.ToLower(strings.TrimSpace(r.Tier))
	switch tier.Tier(r.Tier) {
	case tier.Standard, tier.Premium:
		return nil
	case tier.Starter:
		return dErrors.New(dErrors.CodeValidation, "starter tier has no market context")
	default:
		return dErrors.New(dErrors.CodeValidation, "tier must be standard or premium")
	}
}

// RefreshResponse reports the rebuilt summary.
type RefreshResponse struct {
	Key         string    `json:"key"`
	Length      int       `json:"length"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// HandleRefresh handles POST /admin/market-context/refresh.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RefreshRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	text, err := h.service.Refresh(ctx, tier.Tier(req.Tier), req.Demo)
	if err != nil {
		h.logger.ErrorContext(ctx, "market context refresh failed",
			"request_id", requestID, "tier", req.Tier, "demo", req.Demo, "error", err)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "market context refreshed by admin",
		"request_id", requestID, "tier", req.Tier, "demo", req.Demo)
	httputil.WriteJSON(w, http.StatusOK, RefreshResponse{
		Key:         models.SummaryKey(req.Tier, req.Demo),
		Length:      len(text),
		RefreshedAt: requestcontext.Now(ctx),
	})
}

// InvalidateRequest is the body of POST /admin/market-context/invalidate.
// An empty pattern evicts every key.
type InvalidateRequest struct {
	Pattern string `json:"pattern"`
}

// Validate bounds the pattern length.
func (r *InvalidateRequest) Validate() error {
	r.Pattern = strings.TrimSpace(r.Pattern)
	if len(r.Pattern) > 128 {
		return dErrors.New(dErrors.CodeValidation, "pattern must be at most 128 characters")
	}
	return nil
}

// InvalidateResponse lists the evicted keys.
type InvalidateResponse struct {
	Pattern string   `json:"pattern"`
	Evicted []string `json:"evicted"`
}

// HandleInvalidate handles POST /admin/market-context/invalidate.
func (h *Handler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[InvalidateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	evicted, err := h.service.Invalidate(ctx, req.Pattern)
	if err != nil {
		h.logger.ErrorContext(ctx, "market context invalidation failed",
			"request_id", requestID, "pattern", req.Pattern, "error", err)
		httputil.WriteError(w, err)
		return
	}
	if evicted == nil {
		evicted = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, InvalidateResponse{Pattern: req.Pattern, Evicted: evicted})
}
