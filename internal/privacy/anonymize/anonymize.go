// Package anonymize renders financial records as prompt text in which every
// personally identifying name is replaced by a session-scoped token.
package anonymize

import (
	"regexp"
	"sort"
	"strings"

	"finsight/internal/finance/models"
	"finsight/internal/privacy/tokenize"
)

// Formatter writes anonymized text against a single session registry.
type Formatter struct {
	registry *tokenize.Registry
}

// New creates a Formatter bound to registry.
func New(registry *tokenize.Registry) *Formatter {
	return &Formatter{registry: registry}
}

// Registry returns the registry tokens are minted in.
func (f *Formatter) Registry() *tokenize.Registry {
	return f.registry
}

// Accounts renders one line per account. An empty slice yields "".
func (f *Formatter) Accounts(accounts []models.Account) string {
	if len(accounts) == 0 {
		return ""
	}
	lines := make([]string, 0, len(accounts))
	for _, a := range accounts {
		name := a.Name
		if strings.TrimSpace(name) == "" {
			name = a.OfficialName
		}
		token := f.registry.TokenizeAccount(name, a.InstitutionName)

		available := ""
		if a.AvailableBalance != nil {
			available = "Available: " + Money(a.AvailableBalance)
		}
		institution := ""
		if strings.TrimSpace(a.InstitutionName) != "" {
			institution = "Institution: " + f.registry.TokenizeInstitution(a.InstitutionName)
		}
		currency := ""
		if code := strings.ToUpper(strings.TrimSpace(a.CurrencyCode)); code != "" && code != "USD" {
			currency = "Currency: " + code
		}
		lines = append(lines, "- "+joinClauses(
			token,
			typeLabel(a.Type, a.Subtype),
			"Balance: "+Money(a.CurrentBalance),
			available,
			currency,
			institution,
		))
	}
	return strings.Join(lines, "\n")
}

// Transactions renders one line per transaction. The transaction name is
// always tokenized as a merchant; a distinct merchant name gets its own token.
func (f *Formatter) Transactions(txns []models.Transaction) string {
	if len(txns) == 0 {
		return ""
	}
	lines := make([]string, 0, len(txns))
	for _, t := range txns {
		date := NormalizeDate(t.Date)
		if t.Datetime != nil && !t.Datetime.IsZero() {
			date = NormalizeDate(*t.Datetime)
		}

		pending := ""
		if t.Pending {
			pending = "[PENDING]"
		}
		channel := ""
		if c := strings.TrimSpace(t.PaymentChannel); c != "" {
			channel = "Channel: " + c
		}
		lines = append(lines, "- "+joinClauses(
			date,
			f.payee(t.Name, t.MerchantName),
			Money(t.Amount),
			Category(t.EnrichedCategories, t.Category),
			Location(t.Location),
			channel,
			pending,
		))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) payee(name, merchant string) string {
	name = strings.TrimSpace(name)
	merchant = strings.TrimSpace(merchant)
	switch {
	case name == "" && merchant == "":
		return "Unknown payee"
	case name == "":
		return f.registry.TokenizeMerchant(merchant)
	}
	token := f.registry.TokenizeMerchant(name)
	if merchant == "" || merchant == name {
		return token
	}
	return token + " (merchant: " + f.registry.TokenizeMerchant(merchant) + ")"
}

// Investments renders one line per holding with the security tokenized.
func (f *Formatter) Investments(holdings []models.Holding) string {
	if len(holdings) == 0 {
		return ""
	}
	lines := make([]string, 0, len(holdings))
	for _, h := range holdings {
		token := f.registry.TokenizeSecurity(h.SecurityName, h.TickerSymbol, h.SecurityType)

		price := ""
		if h.InstitutionPrice != nil {
			price = "Price: " + Money(h.InstitutionPrice)
		}
		cost := ""
		gain := ""
		if h.CostBasis != nil {
			cost = "Cost basis: " + Money(h.CostBasis)
			if h.InstitutionValue != nil {
				diff := *h.InstitutionValue - *h.CostBasis
				gain = "Unrealized: " + Money(&diff)
			}
		}
		lines = append(lines, "- "+joinClauses(
			token,
			"Qty: "+Quantity(h.Quantity),
			price,
			"Value: "+Money(h.InstitutionValue),
			cost,
			gain,
		))
	}
	return strings.Join(lines, "\n")
}

// Liabilities renders one line per liability with its name tokenized.
func (f *Formatter) Liabilities(liabilities []models.Liability) string {
	if len(liabilities) == 0 {
		return ""
	}
	lines := make([]string, 0, len(liabilities))
	for _, l := range liabilities {
		token := f.registry.TokenizeLiability(l.Name, l.Type, l.InstitutionName)

		kind := ""
		if t := strings.TrimSpace(l.Type); t != "" {
			kind = "Type: " + t
		}
		apr := ""
		if l.APR != nil {
			apr = "APR: " + Percent(l.APR)
		}
		minimum := ""
		if l.MinimumPayment != nil {
			minimum = "Minimum payment: " + Money(l.MinimumPayment)
		}
		due := ""
		if strings.TrimSpace(l.NextPaymentDueDate) != "" {
			due = "Next due: " + NormalizeDate(l.NextPaymentDueDate)
		}
		institution := ""
		if strings.TrimSpace(l.InstitutionName) != "" {
			institution = "Institution: " + f.registry.TokenizeInstitution(l.InstitutionName)
		}
		lines = append(lines, "- "+joinClauses(
			token,
			kind,
			"Balance: "+Money(l.CurrentBalance),
			apr,
			minimum,
			due,
			institution,
		))
	}
	return strings.Join(lines, "\n")
}

// Category prefers the enriched hierarchy over the basic one and labels
// which was used. Blank and placeholder entries are dropped.
func Category(enriched, basic []string) string {
	if parts := cleanCategories(enriched); len(parts) > 0 {
		return "[Enhanced: " + strings.Join(parts, " > ") + "]"
	}
	if parts := cleanCategories(basic); len(parts) > 0 {
		return "[Basic: " + strings.Join(parts, " > ") + "]"
	}
	return ""
}

func cleanCategories(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		switch strings.ToLower(c) {
		case "", "0", "null":
			continue
		}
		out = append(out, c)
	}
	return out
}

// Location renders city-level detail only. Street address, postal code and
// coordinates are never emitted.
func Location(loc *models.Location) string {
	if loc == nil {
		return ""
	}
	city := strings.TrimSpace(loc.City)
	region := strings.TrimSpace(loc.Region)
	switch {
	case city != "" && region != "":
		return city + ", " + region
	case city != "":
		return city
	default:
		return region
	}
}

// MaskText replaces every entity name already registered (three characters
// or longer) in text with its token. Matching ignores case and respects word
// boundaries, so a merchant "Shell" leaves "Shellfish" alone. Longer names win
// over their prefixes.
func MaskText(registry *tokenize.Registry, text string) string {
	if registry == nil || text == "" {
		return text
	}
	type candidate struct {
		name  string
		token string
	}
	seen := make(map[string]struct{})
	var candidates []candidate
	add := func(name, token string) {
		name = strings.TrimSpace(name)
		if len(name) < 3 {
			return
		}
		folded := strings.ToLower(name)
		if _, ok := seen[folded]; ok {
			return
		}
		seen[folded] = struct{}{}
		candidates = append(candidates, candidate{name: name, token: token})
	}
	entries := registry.Entries()
	for _, e := range entries {
		name := e.Attributes.Get(tokenize.FieldName)
		if inst := e.Attributes.Get(tokenize.FieldInstitution); e.Kind == tokenize.KindAccount && inst != "" && name != "" {
			add(name+" at "+inst, e.Token)
		}
	}
	for _, e := range entries {
		add(e.Attributes.Get(tokenize.FieldName), e.Token)
	}
	if len(candidates) == 0 {
		return text
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].name) > len(candidates[j].name)
	})

	alternatives := make([]string, len(candidates))
	for i, c := range candidates {
		alternatives[i] = wordBounded(c.name)
	}
	pattern, err := regexp.Compile(`(?i)(?:` + strings.Join(alternatives, "|") + `)`)
	if err != nil {
		return text
	}
	return pattern.ReplaceAllStringFunc(text, func(match string) string {
		for _, c := range candidates {
			if strings.EqualFold(c.name, match) {
				return c.token
			}
		}
		return match
	})
}

// wordBounded quotes name and anchors each end that is a word character.
// Names ending in punctuation ("Apple Inc.") cannot take a boundary there.
func wordBounded(name string) string {
	p := regexp.QuoteMeta(name)
	if isWordByte(name[0]) {
		p = `\b` + p
	}
	if isWordByte(name[len(name)-1]) {
		p += `\b`
	}
	return p
}

func isWordByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
