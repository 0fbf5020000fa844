// Package tier maps a subscription tier to the data sources its AI context may use.
package tier

import (
	"strings"

	"finsight/internal/finance/models"
)

// Tier is a subscription level.
type Tier string

const (
	Starter  Tier = "starter"
	Standard Tier = "standard"
	Premium  Tier = "premium"
)

// Parse maps a claim or header value to a Tier. Unknown values fall back to Starter.
func Parse(s string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case Standard:
		return Standard
	case Premium:
		return Premium
	default:
		return Starter
	}
}

// All returns the tiers in ascending order.
func All() []Tier {
	return []Tier{Starter, Standard, Premium}
}

func (t Tier) String() string { return string(t) }

func (t Tier) rank() int {
	switch t {
	case Premium:
		return 2
	case Standard:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether t includes everything min does.
func (t Tier) AtLeast(min Tier) bool {
	return Parse(string(t)).rank() >= Parse(string(min)).rank()
}

// Source is a category of data that can populate the prompt.
type Source string

const (
	SourceAccounts           Source = "accounts"
	SourceTransactions       Source = "transactions"
	SourceInvestments        Source = "investments"
	SourceLiabilities        Source = "liabilities"
	SourceEconomicIndicators Source = "economic_indicators"
	SourceLiveMarketData     Source = "live_market_data"
	SourceScenarioPlanning   Source = "scenario_planning"
)

// sourceTiers lists every source with the minimum tier that unlocks it, in display order.
var sourceTiers = []struct {
	source Source
	min    Tier
}{
	{SourceAccounts, Starter},
	{SourceTransactions, Starter},
	{SourceInvestments, Standard},
	{SourceLiabilities, Standard},
	{SourceEconomicIndicators, Standard},
	{SourceLiveMarketData, Premium},
	{SourceScenarioPlanning, Premium},
}

var transactionLimits = map[Tier]int{
	Starter:  50,
	Standard: 200,
	Premium:  500,
}

// Definition is the resolved policy for a tier.
type Definition struct {
	Tier               Tier
	AvailableSources   []Source
	UnavailableSources []Source
	TransactionLimit   int
}

// Define returns the policy for t. It is total: unknown tiers resolve as Starter.
func Define(t Tier) Definition {
	t = Parse(string(t))
	def := Definition{Tier: t, TransactionLimit: transactionLimits[t]}
	for _, st := range sourceTiers {
		if t.AtLeast(st.min) {
			def.AvailableSources = append(def.AvailableSources, st.source)
		} else {
			def.UnavailableSources = append(def.UnavailableSources, st.source)
		}
	}
	return def
}

// Allows reports whether the tier may use s.
func (d Definition) Allows(s Source) bool {
	for _, a := range d.AvailableSources {
		if a == s {
			return true
		}
	}
	return false
}

// MinimumTier returns the lowest tier that unlocks s.
func MinimumTier(s Source) Tier {
	for _, st := range sourceTiers {
		if st.source == s {
			return st.min
		}
	}
	return Premium
}

// Info is the tier summary returned to callers alongside an answer.
type Info struct {
	CurrentTier        Tier     `json:"current_tier"`
	AvailableSources   []Source `json:"available_sources"`
	UnavailableSources []Source `json:"unavailable_sources"`
}

// Context is the tier-filtered personal data for one request.
type Context struct {
	Accounts     []models.Account
	Transactions []models.Transaction
	Info         Info
	UpgradeHints []UpgradeHint
	Demo         bool
}

// BuildTierAwareContext filters personal records to what t allows and attaches
// tier info and upgrade hints. Transactions are assumed newest first and are
// truncated to the tier's limit.
func BuildTierAwareContext(t Tier, accounts []models.Account, transactions []models.Transaction, demo bool) Context {
	def := Define(t)
	ctx := Context{
		Info: Info{
			CurrentTier:        def.Tier,
			AvailableSources:   def.AvailableSources,
			UnavailableSources: def.UnavailableSources,
		},
		UpgradeHints: ComputeUpgradeHints(def.Tier, false),
		Demo:         demo,
	}
	if def.Allows(SourceAccounts) {
		ctx.Accounts = accounts
	}
	if def.Allows(SourceTransactions) {
		ctx.Transactions = transactions
		if def.TransactionLimit > 0 && len(transactions) > def.TransactionLimit {
			ctx.Transactions = transactions[:def.TransactionLimit]
		}
	}
	return ctx
}
