package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnthropicComplete(t *testing.T) {
	var seen map[string]any
	srv := newTestServer(t, http.StatusOK, `{
		"id": "msg_01",
		"type": "message",
		"role": "assistant",
		"model": "claude-sonnet-4-5",
		"content": [
			{"type": "text", "text": "Your Account_1 looks "},
			{"type": "text", "text": "healthy."}
		],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 12, "output_tokens": 6}
	}`, &seen)

	c := NewAnthropic("test-key", "claude-sonnet-4-5", 256, 0.2,
		WithRequestOptions(option.WithBaseURL(srv.URL), option.WithMaxRetries(0)))

	text, err := c.Complete(context.Background(), "system rules", "=== QUESTION ===\nHow is Account_1?")
	require.NoError(t, err)
	assert.Equal(t, "Your Account_1 looks healthy.", text)

	assert.Equal(t, "claude-sonnet-4-5", seen["model"])
	assert.Equal(t, float64(256), seen["max_tokens"])
	system, ok := seen["system"].([]any)
	require.True(t, ok)
	require.Len(t, system, 1)
	assert.Equal(t, "system rules", system[0].(map[string]any)["text"])
}

func TestAnthropicErrors(t *testing.T) {
	t.Run("upstream failure", func(t *testing.T) {
		srv := newTestServer(t, http.StatusInternalServerError,
			`{"type":"error","error":{"type":"api_error","message":"overloaded"}}`, nil)
		c := NewAnthropic("test-key", "claude-sonnet-4-5", 256, 0,
			WithRequestOptions(option.WithBaseURL(srv.URL), option.WithMaxRetries(0)))
		_, err := c.Complete(context.Background(), "", "hi")
		assert.Error(t, err)
	})

	t.Run("empty completion", func(t *testing.T) {
		srv := newTestServer(t, http.StatusOK, `{
			"id": "msg_02", "type": "message", "role": "assistant", "model": "claude-sonnet-4-5",
			"content": [], "stop_reason": "end_turn", "usage": {"input_tokens": 1, "output_tokens": 0}
		}`, nil)
		c := NewAnthropic("test-key", "claude-sonnet-4-5", 256, 0,
			WithRequestOptions(option.WithBaseURL(srv.URL), option.WithMaxRetries(0)))
		_, err := c.Complete(context.Background(), "", "hi")
		assert.ErrorContains(t, err, "empty completion")
	})

	t.Run("unconfigured", func(t *testing.T) {
		_, err := Unconfigured{}.Complete(context.Background(), "", "hi")
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}
