package tier

// UpgradeHint describes a capability the current tier lacks.
type UpgradeHint struct {
	Feature      string `json:"feature"`
	Benefit      string `json:"benefit"`
	RequiredTier Tier   `json:"required_tier"`
}

var hintCopy = map[Source]struct{ feature, benefit string }{
	SourceInvestments: {
		"Investment analysis",
		"Answers that account for your holdings and portfolio allocation.",
	},
	SourceLiabilities: {
		"Debt insights",
		"Payoff strategies based on your balances and APRs.",
	},
	SourceEconomicIndicators: {
		"Economic context",
		"Answers that factor in interest rates, inflation and employment trends.",
	},
	SourceLiveMarketData: {
		"Live market data",
		"Current market conditions and news in every answer.",
	},
	SourceScenarioPlanning: {
		"Scenario planning",
		"What-if projections for major financial decisions.",
	},
}

// ComputeUpgradeHints returns one hint per source t cannot use. When the
// answer already drew on real-time search, no hints are returned at all.
func ComputeUpgradeHints(t Tier, hasRealtimeSearchContext bool) []UpgradeHint {
	if hasRealtimeSearchContext {
		return nil
	}
	def := Define(t)
	hints := make([]UpgradeHint, 0, len(def.UnavailableSources))
	for _, s := range def.UnavailableSources {
		c, ok := hintCopy[s]
		if !ok {
			continue
		}
		hints = append(hints, UpgradeHint{
			Feature:      c.feature,
			Benefit:      c.benefit,
			RequiredTier: MinimumTier(s),
		})
	}
	return hints
}
