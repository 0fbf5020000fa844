//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/suite"

	"finsight/internal/finance/store"
	"finsight/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.Require().NoError(s.postgres.Exec(context.Background(), store.Schema))
	s.store = store.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(),
		"finance_accounts", "finance_transactions", "finance_holdings", "finance_liabilities", "finance_profiles")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) exec(query string, args ...any) {
	_, err := s.postgres.DB.ExecContext(context.Background(), query, args...)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) seed() {
	s.exec(`INSERT INTO finance_accounts (account_id, user_id, name, type, subtype, current_balance, institution_name)
		VALUES ('a1', 'u1', 'Chase Checking', 'depository', 'checking', 1000.00, 'Chase Bank')`)
	s.exec(`INSERT INTO finance_accounts (account_id, user_id, name) VALUES ('a2', 'u1', 'Unbalanced')`)
	s.exec(`INSERT INTO finance_transactions (transaction_id, user_id, account_id, name, amount, date, enriched_categories, city, region, pending)
		VALUES ('t1', 'u1', 'a1', 'Starbucks', -4.75, '2025-01-15', $1, 'Seattle', 'WA', false)`,
		pq.Array([]string{"Food and Drink", "Coffee"}))
	s.exec(`INSERT INTO finance_transactions (transaction_id, user_id, account_id, name, amount, date, pending)
		VALUES ('t0', 'u1', 'a1', 'Rent', -1500, '2025-01-01', false)`)
	s.exec(`INSERT INTO finance_transactions (transaction_id, user_id, name, datetime, pending)
		VALUES ('t2', 'u1', 'Refund', $1, true)`, time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC))
	s.exec(`INSERT INTO finance_holdings (user_id, security_name, ticker_symbol, security_type, quantity)
		VALUES ('u1', 'Apple Inc.', 'AAPL', 'equity', 10.5)`)
	s.exec(`INSERT INTO finance_liabilities (user_id, name, type, apr_percentage)
		VALUES ('u1', 'Visa', 'credit', 19.99)`)
	s.exec(`INSERT INTO finance_profiles (user_id, goals, risk_tolerance) VALUES ('u1', $1, 'low')`,
		pq.Array([]string{"Retire early"}))
}

func (s *PostgresStoreSuite) TestSnapshot() {
	s.seed()
	ctx := context.Background()

	snap, err := s.store.Snapshot(ctx, "u1", 2)
	s.Require().NoError(err)

	s.Require().Len(snap.Accounts, 2)
	s.Equal("Chase Checking", snap.Accounts[0].Name)
	s.Require().NotNil(snap.Accounts[0].CurrentBalance)
	s.InDelta(1000.0, *snap.Accounts[0].CurrentBalance, 0.001)
	s.Nil(snap.Accounts[1].CurrentBalance, "missing balance stays nil")

	s.Require().Len(snap.Transactions, 2)
	s.Equal("t2", snap.Transactions[0].TransactionID)
	s.Require().NotNil(snap.Transactions[0].Datetime)
	s.True(snap.Transactions[0].Pending)
	s.Equal("t1", snap.Transactions[1].TransactionID)
	s.Equal([]string{"Food and Drink", "Coffee"}, snap.Transactions[1].EnrichedCategories)
	s.Require().NotNil(snap.Transactions[1].Location)
	s.Equal("Seattle", snap.Transactions[1].Location.City)

	s.Require().Len(snap.Holdings, 1)
	s.Equal("AAPL", snap.Holdings[0].TickerSymbol)
	s.Require().Len(snap.Liabilities, 1)
	s.Require().NotNil(snap.Liabilities[0].APR)
	s.InDelta(19.99, *snap.Liabilities[0].APR, 0.001)
}

func (s *PostgresStoreSuite) TestProfile() {
	s.seed()
	p, err := s.store.Profile(context.Background(), "u1")
	s.Require().NoError(err)
	s.Equal([]string{"Retire early"}, p.Goals)
	s.Equal("low", p.RiskTolerance)

	_, err = s.store.Profile(context.Background(), "u2")
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUnknownUser() {
	_, err := s.store.Snapshot(context.Background(), "nobody", 10)
	s.ErrorIs(err, store.ErrNotFound)
}
