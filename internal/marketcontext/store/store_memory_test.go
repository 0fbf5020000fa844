package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/marketcontext/models"
	"finsight/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	s := NewInMemoryStore(time.Hour)
	s.now = func() time.Time { return now }

	entry := &models.Entry{Key: "market_context:standard:live", Kind: models.KindSummary, Text: "rates", ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, s.Put(ctx, entry))

	t.Run("returns a copy", func(t *testing.T) {
		got, err := s.Get(ctx, entry.Key)
		require.NoError(t, err)
		got.Text = "mutated"
		again, err := s.Get(ctx, entry.Key)
		require.NoError(t, err)
		assert.Equal(t, "rates", again.Text)
	})

	t.Run("expired entries remain readable within retention", func(t *testing.T) {
		now = now.Add(30 * time.Minute)
		got, err := s.Get(ctx, entry.Key)
		require.NoError(t, err)
		assert.False(t, got.Fresh(now))
	})

	t.Run("entries past retention are gone", func(t *testing.T) {
		now = now.Add(2 * time.Hour)
		_, err := s.Get(ctx, entry.Key)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		keys, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("keys and delete", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, &models.Entry{Key: "b", ExpiresAt: now.Add(time.Minute)}))
		require.NoError(t, s.Put(ctx, &models.Entry{Key: "a", ExpiresAt: now.Add(time.Minute)}))
		keys, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, keys)

		require.NoError(t, s.Delete(ctx, "a", "missing"))
		_, err = s.Get(ctx, "a")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("nil put is a no-op", func(t *testing.T) {
		assert.NoError(t, s.Put(ctx, nil))
	})
}
