package assistant

import (
	"strings"

	"finsight/internal/finance/models"
	mcmodels "finsight/internal/marketcontext/models"
	"finsight/internal/privacy/anonymize"
	"finsight/internal/privacy/tokenize"
	"finsight/internal/tier"
)

// SystemPrompt instructs the model how to treat tokenized entities.
const SystemPrompt = `You are a personal finance assistant. Financial entities in the context are
replaced by tokens such as Account_1, Institution_2, Merchant_3, Security_4 and Liability_5.
Refer to entities only by these tokens, exactly as written. Never guess the real names behind them.
Use only the sections provided; if a section is missing, say the information is not available on
the user's plan rather than inventing it. Give general educational guidance, not individual
investment, tax or legal advice.`

// Section headers. Every block of the prompt starts with one of these.
const (
	SectionProfile      = "USER PROFILE"
	SectionAccounts     = "ACCOUNTS"
	SectionTransactions = "RECENT TRANSACTIONS"
	SectionInvestments  = "INVESTMENTS"
	SectionLiabilities  = "LIABILITIES"
	SectionMarket       = "MARKET CONTEXT"
	SectionSearch       = "REAL-TIME SEARCH RESULTS"
	SectionTier         = "SUBSCRIPTION"
	SectionQuestion     = "QUESTION"
)

type promptBuilder struct {
	b strings.Builder
}

// section appends a delimited block. Empty bodies are skipped so a missing
// source never leaves a dangling header.
func (p *promptBuilder) section(title, body string) {
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}
	if p.b.Len() > 0 {
		p.b.WriteString("\n\n")
	}
	p.b.WriteString("=== ")
	p.b.WriteString(title)
	p.b.WriteString(" ===\n")
	p.b.WriteString(body)
}

func (p *promptBuilder) String() string {
	return p.b.String()
}

// formatProfile renders the profile. Goals are free text and may name
// accounts or institutions, so they are masked against registry.
func formatProfile(p *models.Profile, registry *tokenize.Registry) string {
	if p == nil {
		return ""
	}
	var lines []string
	goals := make([]string, 0, len(p.Goals))
	for _, g := range p.Goals {
		if g = strings.TrimSpace(g); g != "" {
			goals = append(goals, anonymize.MaskText(registry, g))
		}
	}
	if len(goals) > 0 {
		lines = append(lines, "Goals: "+strings.Join(goals, "; "))
	}
	add := func(label, v string) {
		if v = strings.TrimSpace(v); v != "" {
			lines = append(lines, label+": "+v)
		}
	}
	add("Risk tolerance", p.RiskTolerance)
	add("Time horizon", p.TimeHorizon)
	add("Income bracket", p.IncomeBracket)
	add("Household", p.HouseholdStatus)
	return strings.Join(lines, "\n")
}

func formatSearchResults(results []mcmodels.Headline) string {
	var b strings.Builder
	for _, r := range results {
		title := strings.TrimSpace(r.Title)
		snippet := strings.TrimSpace(r.Snippet)
		if title == "" && snippet == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(title)
		if snippet != "" {
			if title != "" {
				b.WriteString(": ")
			}
			b.WriteString(snippet)
		}
		if r.PublishedAt != "" {
			b.WriteString(" (" + r.PublishedAt + ")")
		}
	}
	return b.String()
}

func formatTier(info tier.Info) string {
	join := func(sources []tier.Source) string {
		if len(sources) == 0 {
			return "none"
		}
		parts := make([]string, len(sources))
		for i, s := range sources {
			parts[i] = string(s)
		}
		return strings.Join(parts, ", ")
	}
	return "Current tier: " + string(info.CurrentTier) +
		"\nAvailable sources: " + join(info.AvailableSources) +
		"\nUnavailable sources: " + join(info.UnavailableSources)
}
