package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/finance/models"
	"finsight/pkg/testutil"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	f := models.Float

	testutil.Given(t, "a user with unordered transactions", func(t *testing.T) {
		s := NewInMemoryStore()
		later := time.Date(2025, 1, 20, 9, 30, 0, 0, time.UTC)
		s.Put("user-1", models.Snapshot{
			Accounts: []models.Account{{AccountID: "a1", Name: "Checking", CurrentBalance: f(10)}},
			Transactions: []models.Transaction{
				{TransactionID: "t1", Name: "Old", Date: "2025-01-01"},
				{TransactionID: "t3", Name: "Timed", Datetime: &later},
				{TransactionID: "t2", Name: "Newer", Date: "2025-01-10"},
			},
		}, nil)

		testutil.When(t, "reading with a limit", func(t *testing.T) {
			snap, err := s.Snapshot(ctx, "user-1", 2)
			require.NoError(t, err)

			testutil.Then(t, "transactions are newest first and truncated", func(t *testing.T) {
				require.Len(t, snap.Transactions, 2)
				assert.Equal(t, "t3", snap.Transactions[0].TransactionID)
				assert.Equal(t, "t2", snap.Transactions[1].TransactionID)
			})
		})

		testutil.When(t, "the caller mutates the result", func(t *testing.T) {
			snap, err := s.Snapshot(ctx, "user-1", 0)
			require.NoError(t, err)
			snap.Accounts[0].Name = "changed"

			testutil.Then(t, "the stored records are unchanged", func(t *testing.T) {
				again, err := s.Snapshot(ctx, "user-1", 0)
				require.NoError(t, err)
				assert.Equal(t, "Checking", again.Accounts[0].Name)
				assert.Len(t, again.Transactions, 3)
			})
		})

		testutil.When(t, "no profile was saved", func(t *testing.T) {
			_, err := s.Profile(ctx, "user-1")

			testutil.Then(t, "profile is not found", func(t *testing.T) {
				assert.ErrorIs(t, err, ErrNotFound)
			})
		})
	})

	testutil.Given(t, "an unknown user", func(t *testing.T) {
		_, err := NewInMemoryStore().Snapshot(ctx, "nobody", 10)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDemoStore(t *testing.T) {
	ctx := context.Background()
	s := NewDemoStore()

	a, err := s.Snapshot(ctx, "user-a", 0)
	require.NoError(t, err)
	b, err := s.Snapshot(ctx, "user-b", 0)
	require.NoError(t, err)
	assert.Equal(t, a, b, "demo data is shared by every user")
	assert.NotEmpty(t, a.Accounts)
	assert.NotEmpty(t, a.Holdings)
	assert.NotEmpty(t, a.Liabilities)

	profile, err := s.Profile(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, "moderate", profile.RiskTolerance)
}
