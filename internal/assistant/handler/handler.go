package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"finsight/internal/assistant"
	"finsight/internal/tier"
	dErrors "finsight/pkg/domain-errors"
	"finsight/pkg/platform/httputil"
	"finsight/pkg/requestcontext"
)

const maxQuestionLength = 4000

// Service is the question pipeline.
type Service interface {
	Ask(ctx context.Context, q assistant.Question) (*assistant.Answer, error)
	EndSession(ctx context.Context) (bool, error)
}

// Handler exposes the assistant endpoints. Mount it behind the auth middleware.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts the assistant endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/ai/ask", h.HandleAsk)
	r.Post("/ai/session/end", h.HandleEndSession)
}

// AskRequest is the body of POST /ai/ask.
type AskRequest struct {
	Question string `json:"question"`
	Demo     bool   `json:"demo"`
}

func (r *AskRequest) Validate() error {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return dErrors.New(dErrors.CodeValidation, "question is required")
	}
	if len(r.Question) > maxQuestionLength {
		return dErrors.New(dErrors.CodeValidation, "question is too long")
	}
	return nil
}

// AskResponse is the answer with the tier facts the client renders.
type AskResponse struct {
	Answer             string             `json:"answer"`
	Tier               tier.Tier          `json:"tier"`
	AvailableSources   []tier.Source      `json:"available_sources"`
	UnavailableSources []tier.Source      `json:"unavailable_sources"`
	UpgradeHints       []tier.UpgradeHint `json:"upgrade_hints"`
	UsedRealtimeSearch bool               `json:"used_realtime_search"`
}

// HandleAsk handles POST /ai/ask.
func (h *Handler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AskRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	answer, err := h.service.Ask(ctx, assistant.Question{Text: req.Question, Demo: req.Demo})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := AskResponse{
		Answer:             answer.Text,
		Tier:               answer.Tier,
		AvailableSources:   answer.AvailableSources,
		UnavailableSources: answer.UnavailableSources,
		UpgradeHints:       answer.UpgradeHints,
		UsedRealtimeSearch: answer.UsedRealtimeSearch,
	}
	if resp.AvailableSources == nil {
		resp.AvailableSources = []tier.Source{}
	}
	if resp.UnavailableSources == nil {
		resp.UnavailableSources = []tier.Source{}
	}
	if resp.UpgradeHints == nil {
		resp.UpgradeHints = []tier.UpgradeHint{}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// EndSessionResponse reports whether a registry was cleared.
type EndSessionResponse struct {
	Cleared bool `json:"cleared"`
}

// HandleEndSession handles POST /ai/session/end, the logout hook that destroys
// the caller's token registry.
func (h *Handler) HandleEndSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cleared, err := h.service.EndSession(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to end session",
			"request_id", requestcontext.RequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, EndSessionResponse{Cleared: cleared})
}
