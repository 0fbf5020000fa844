package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/marketcontext/models"
	"finsight/internal/tier"
	dErrors "finsight/pkg/domain-errors"
)

type stubService struct {
	stats       models.Stats
	statsErr    error
	refreshed   []string
	refreshErr  error
	invalidated []string
	evicted     []string
}

func (s *stubService) Stats(context.Context) (models.Stats, error) {
	return s.stats, s.statsErr
}

func (s *stubService) Refresh(_ context.Context, t tier.Tier, demo bool) (string, error) {
	s.refreshed = append(s.refreshed, models.SummaryKey(string(t), demo))
	return "summary text", s.refreshErr
}

func (s *stubService) Invalidate(_ context.Context, pattern string) ([]string, error) {
	s.invalidated = append(s.invalidated, pattern)
	return s.evicted, nil
}

func newRouter(svc Service) http.Handler {
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestHandleStats(t *testing.T) {
	last := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	svc := &stubService{stats: models.Stats{Size: 2, Keys: []string{"economic_indicators", "market_context:standard:live"}, LastRefresh: &last}}

	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/market-context/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, float64(2), body["size"])
	assert.Equal(t, "2025-01-15T10:00:00Z", body["last_refresh"])

	t.Run("store failure is 503 without details", func(t *testing.T) {
		svc := &stubService{statsErr: dErrors.Wrap(errors.New("redis: connection refused"), dErrors.CodeUnavailable, "list cache keys")}
		rec := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/market-context/stats", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.NotContains(t, rec.Body.String(), "redis")
	})
}

func TestHandleRefresh(t *testing.T) {
	t.Run("valid tier", func(t *testing.T) {
		svc := &stubService{}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin/market-context/refresh", strings.NewReader(`{"tier":"Premium","demo":true}`))
		newRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"market_context:premium:demo"}, svc.refreshed)
		var resp RefreshResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "market_context:premium:demo", resp.Key)
		assert.Equal(t, len("summary text"), resp.Length)
	})

	t.Run("starter is rejected", func(t *testing.T) {
		svc := &stubService{}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin/market-context/refresh", strings.NewReader(`{"tier":"starter"}`))
		newRouter(svc).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, svc.refreshed)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin/market-context/refresh", strings.NewReader(`{"tier":"standard","force":true}`))
		newRouter(&stubService{}).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("upstream failure", func(t *testing.T) {
		svc := &stubService{refreshErr: dErrors.New(dErrors.CodeUnavailable, "market context unavailable")}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin/market-context/refresh", strings.NewReader(`{"tier":"standard"}`))
		newRouter(svc).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandleInvalidate(t *testing.T) {
	svc := &stubService{evicted: []string{"economic_indicators", "market_context:standard:live"}}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/market-context/invalidate", strings.NewReader(`{"pattern":" economic_indicators "}`))
	newRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"economic_indicators"}, svc.invalidated)
	var resp InvalidateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, svc.evicted, resp.Evicted)

	t.Run("empty result is an empty list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin/market-context/invalidate", strings.NewReader(`{"pattern":"nothing"}`))
		newRouter(&stubService{}).ServeHTTP(rec, req)
		assert.JSONEq(t, `{"pattern":"nothing","evicted":[]}`, rec.Body.String())
	})
}
