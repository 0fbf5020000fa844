package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/assistant"
	"finsight/internal/tier"
	dErrors "finsight/pkg/domain-errors"
	"finsight/pkg/requestcontext"
	"finsight/pkg/testutil"
)

type stubService struct {
	questions []assistant.Question
	answer    *assistant.Answer
	err       error
	sessions  []string
}

func (s *stubService) Ask(_ context.Context, q assistant.Question) (*assistant.Answer, error) {
	s.questions = append(s.questions, q)
	return s.answer, s.err
}

func (s *stubService) EndSession(ctx context.Context) (bool, error) {
	id := requestcontext.SessionID(ctx)
	if id == "" {
		return false, dErrors.New(dErrors.CodeUnauthorized, "session required")
	}
	s.sessions = append(s.sessions, id)
	return true, nil
}

func newRouter(svc Service) http.Handler {
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestHandleAsk(t *testing.T) {
	t.Run("returns the answer with tier facts", func(t *testing.T) {
		svc := &stubService{answer: &assistant.Answer{
			Text:               "Chase Checking at Chase Bank looks fine.",
			Tier:               tier.Standard,
			AvailableSources:   []tier.Source{tier.SourceAccounts},
			UnavailableSources: []tier.Source{tier.SourceLiveMarketData},
			UpgradeHints:       []tier.UpgradeHint{{Feature: "Live market data", RequiredTier: tier.Premium}},
		}}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/ai/ask", map[string]any{"question": "  How am I doing?  ", "demo": true})
		req = testutil.WithAuth(req, "user-1", "session-1", "standard")

		rr := testutil.DoRequest(newRouter(svc), req)

		testutil.AssertStatusOK(t, rr)
		resp := testutil.UnmarshalResponse[AskResponse](t, rr)
		assert.Equal(t, "Chase Checking at Chase Bank looks fine.", resp.Answer)
		assert.Equal(t, tier.Standard, resp.Tier)
		assert.False(t, resp.UsedRealtimeSearch)
		require.Len(t, resp.UpgradeHints, 1)
		require.Len(t, svc.questions, 1)
		assert.Equal(t, assistant.Question{Text: "How am I doing?", Demo: true}, svc.questions[0])
	})

	t.Run("empty lists are arrays", func(t *testing.T) {
		svc := &stubService{answer: &assistant.Answer{Text: "ok", Tier: tier.Premium, UsedRealtimeSearch: true}}
		req := testutil.NewRequestWithBody(t, http.MethodPost, "/ai/ask", `{"question":"hi"}`)
		rr := testutil.DoRequest(newRouter(svc), req)
		testutil.AssertStatusOK(t, rr)
		assert.Contains(t, rr.Body.String(), `"upgrade_hints":[]`)
		assert.Contains(t, rr.Body.String(), `"unavailable_sources":[]`)
	})

	t.Run("missing question", func(t *testing.T) {
		svc := &stubService{}
		req := testutil.NewRequestWithBody(t, http.MethodPost, "/ai/ask", `{"question":"   "}`)
		rr := testutil.DoRequest(newRouter(svc), req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeValidation))
		assert.Empty(t, svc.questions)
	})

	t.Run("question too long", func(t *testing.T) {
		body := `{"question":"` + strings.Repeat("a", maxQuestionLength+1) + `"}`
		rr := testutil.DoRequest(newRouter(&stubService{}), testutil.NewRequestWithBody(t, http.MethodPost, "/ai/ask", body))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("malformed body", func(t *testing.T) {
		rr := testutil.DoRequest(newRouter(&stubService{}), testutil.NewRequestWithBody(t, http.MethodPost, "/ai/ask", `{"question":`))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	t.Run("processing failure is generic", func(t *testing.T) {
		svc := &stubService{err: dErrors.New(dErrors.CodeInternal, "unable to process your request")}
		rr := testutil.DoRequest(newRouter(svc), testutil.NewRequestWithBody(t, http.MethodPost, "/ai/ask", `{"question":"hi"}`))
		testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
		assert.NotContains(t, rr.Body.String(), "error_description")
	})
}

func TestHandleEndSession(t *testing.T) {
	svc := &stubService{}
	req := testutil.WithAuth(testutil.NewRequest(t, http.MethodPost, "/ai/session/end"), "user-1", "session-9", "premium")

	rr := testutil.DoRequest(newRouter(svc), req)

	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "cleared", true)
	assert.Equal(t, []string{"session-9"}, svc.sessions)

	t.Run("without a session", func(t *testing.T) {
		rr := testutil.DoRequest(newRouter(&stubService{}), testutil.NewRequest(t, http.MethodPost, "/ai/session/end"))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}
