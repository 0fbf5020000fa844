// Package models holds the financial records delivered by the aggregation and
// persistence layers. Every field is optional: numbers are pointers so a
// missing balance is distinguishable from a real zero.
package models

import "time"

// Account is a linked bank, card, loan or investment account.
type Account struct {
	AccountID        string   `json:"account_id"`
	Name             string   `json:"name"`
	OfficialName     string   `json:"official_name,omitempty"`
	Type             string   `json:"type,omitempty"`
	Subtype          string   `json:"subtype,omitempty"`
	CurrentBalance   *float64 `json:"current_balance,omitempty"`
	AvailableBalance *float64 `json:"available_balance,omitempty"`
	CurrencyCode     string   `json:"currency_code,omitempty"`
	InstitutionName  string   `json:"institution_name,omitempty"`
}

// Location is the upstream location block of a transaction. Only City and
// Region are ever rendered into model context.
type Location struct {
	Address     string   `json:"address,omitempty"`
	City        string   `json:"city,omitempty"`
	Region      string   `json:"region,omitempty"`
	PostalCode  string   `json:"postal_code,omitempty"`
	Country     string   `json:"country,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	StoreNumber string   `json:"store_number,omitempty"`
}

// Transaction is a posted or pending account transaction. Negative amounts are spending.
type Transaction struct {
	TransactionID string   `json:"transaction_id"`
	AccountID     string   `json:"account_id,omitempty"`
	Name          string   `json:"name"`
	MerchantName  string   `json:"merchant_name,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	// Date is the raw upstream date, usually YYYY-MM-DD but not guaranteed.
	Date string `json:"date,omitempty"`
	// Datetime takes precedence over Date when set.
	Datetime *time.Time `json:"datetime,omitempty"`
	// EnrichedCategories come from the enrichment pipeline and win over Category.
	EnrichedCategories []string  `json:"enriched_categories,omitempty"`
	Category           []string  `json:"category,omitempty"`
	Location           *Location `json:"location,omitempty"`
	PaymentChannel     string    `json:"payment_channel,omitempty"`
	Pending            bool      `json:"pending"`
}

// Holding is a position in an investment account.
type Holding struct {
	AccountID        string   `json:"account_id,omitempty"`
	SecurityName     string   `json:"security_name"`
	TickerSymbol     string   `json:"ticker_symbol,omitempty"`
	SecurityType     string   `json:"security_type,omitempty"`
	Quantity         *float64 `json:"quantity,omitempty"`
	InstitutionPrice *float64 `json:"institution_price,omitempty"`
	InstitutionValue *float64 `json:"institution_value,omitempty"`
	CostBasis        *float64 `json:"cost_basis,omitempty"`
}

// Liability is a credit card, student loan or mortgage obligation.
type Liability struct {
	Name               string   `json:"name"`
	Type               string   `json:"type,omitempty"`
	InstitutionName    string   `json:"institution_name,omitempty"`
	CurrentBalance     *float64 `json:"current_balance,omitempty"`
	APR                *float64 `json:"apr_percentage,omitempty"`
	MinimumPayment     *float64 `json:"minimum_payment,omitempty"`
	NextPaymentDueDate string   `json:"next_payment_due_date,omitempty"`
}

// Profile is the user's self-declared, non-identifying planning context.
type Profile struct {
	Goals           []string `json:"goals,omitempty"`
	RiskTolerance   string   `json:"risk_tolerance,omitempty"`
	TimeHorizon     string   `json:"time_horizon,omitempty"`
	IncomeBracket   string   `json:"income_bracket,omitempty"`
	HouseholdStatus string   `json:"household_status,omitempty"`
}

// Float returns a pointer to v, for building records in code and tests.
func Float(v float64) *float64 {
	return &v
}

// Snapshot is every financial record of one user at read time.
// Transactions are ordered newest first.
type Snapshot struct {
	Accounts     []Account
	Transactions []Transaction
	Holdings     []Holding
	Liabilities  []Liability
}
