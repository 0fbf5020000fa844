package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"finsight/internal/finance/models"
)

// Schema creates the finance tables. It is idempotent.
//
//go:embed schema.sql
var Schema string

// PostgresStore reads financial records written by the aggregation pipeline.
// It never writes.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Snapshot returns the user's records with at most limit transactions,
// newest first. A user without accounts is ErrNotFound.
func (s *PostgresStore) Snapshot(ctx context.Context, userID string, limit int) (*models.Snapshot, error) {
	accounts, err := s.accounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrNotFound
	}
	txns, err := s.transactions(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	holdings, err := s.holdings(ctx, userID)
	if err != nil {
		return nil, err
	}
	liabilities, err := s.liabilities(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.Snapshot{
		Accounts:     accounts,
		Transactions: txns,
		Holdings:     holdings,
		Liabilities:  liabilities,
	}, nil
}

// Profile returns the user's planning profile.
func (s *PostgresStore) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	query := `
		SELECT goals, COALESCE(risk_tolerance, ''), COALESCE(time_horizon, ''),
			   COALESCE(income_bracket, ''), COALESCE(household_status, '')
		FROM finance_profiles
		WHERE user_id = $1
	`
	var p models.Profile
	var goals pq.StringArray
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&goals, &p.RiskTolerance, &p.TimeHorizon, &p.IncomeBracket, &p.HouseholdStatus,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query profile: %w", err)
	}
	p.Goals = []string(goals)
	return &p, nil
}

func (s *PostgresStore) accounts(ctx context.Context, userID string) ([]models.Account, error) {
	query := `
		SELECT account_id, name, COALESCE(official_name, ''), COALESCE(type, ''), COALESCE(subtype, ''),
			   current_balance, available_balance, COALESCE(currency_code, ''), COALESCE(institution_name, '')
		FROM finance_accounts
		WHERE user_id = $1
		ORDER BY account_id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		var a models.Account
		var current, available sql.NullFloat64
		if err := rows.Scan(&a.AccountID, &a.Name, &a.OfficialName, &a.Type, &a.Subtype,
			&current, &available, &a.CurrencyCode, &a.InstitutionName); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.CurrentBalance = floatPtr(current)
		a.AvailableBalance = floatPtr(available)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) transactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	query := `
		SELECT transaction_id, COALESCE(account_id, ''), name, COALESCE(merchant_name, ''), amount,
			   COALESCE(date, ''), datetime, enriched_categories, category,
			   COALESCE(city, ''), COALESCE(region, ''), COALESCE(payment_channel, ''), pending
		FROM finance_transactions
		WHERE user_id = $1
		ORDER BY COALESCE(to_char(datetime AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS'), date) DESC NULLS LAST,
				 transaction_id
	`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var amount sql.NullFloat64
		var datetime sql.NullTime
		var enriched, basic pq.StringArray
		var city, region string
		if err := rows.Scan(&t.TransactionID, &t.AccountID, &t.Name, &t.MerchantName, &amount,
			&t.Date, &datetime, &enriched, &basic, &city, &region, &t.PaymentChannel, &t.Pending); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Amount = floatPtr(amount)
		if datetime.Valid {
			dt := datetime.Time.UTC()
			t.Datetime = &dt
		}
		t.EnrichedCategories = []string(enriched)
		t.Category = []string(basic)
		if city != "" || region != "" {
			t.Location = &models.Location{City: city, Region: region}
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) holdings(ctx context.Context, userID string) ([]models.Holding, error) {
	query := `
		SELECT COALESCE(account_id, ''), security_name, COALESCE(ticker_symbol, ''), COALESCE(security_type, ''),
			   quantity, institution_price, institution_value, cost_basis
		FROM finance_holdings
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query holdings: %w", err)
	}
	defer rows.Close()

	var out []models.Holding
	for rows.Next() {
		var h models.Holding
		var qty, price, value, basis sql.NullFloat64
		if err := rows.Scan(&h.AccountID, &h.SecurityName, &h.TickerSymbol, &h.SecurityType,
			&qty, &price, &value, &basis); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		h.Quantity = floatPtr(qty)
		h.InstitutionPrice = floatPtr(price)
		h.InstitutionValue = floatPtr(value)
		h.CostBasis = floatPtr(basis)
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holdings: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) liabilities(ctx context.Context, userID string) ([]models.Liability, error) {
	query := `
		SELECT name, COALESCE(type, ''), COALESCE(institution_name, ''),
			   current_balance, apr_percentage, minimum_payment, COALESCE(next_payment_due_date, '')
		FROM finance_liabilities
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query liabilities: %w", err)
	}
	defer rows.Close()

	var out []models.Liability
	for rows.Next() {
		var l models.Liability
		var balance, apr, minimum sql.NullFloat64
		if err := rows.Scan(&l.Name, &l.Type, &l.InstitutionName,
			&balance, &apr, &minimum, &l.NextPaymentDueDate); err != nil {
			return nil, fmt.Errorf("scan liability: %w", err)
		}
		l.CurrentBalance = floatPtr(balance)
		l.APR = floatPtr(apr)
		l.MinimumPayment = floatPtr(minimum)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liabilities: %w", err)
	}
	return out, nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
