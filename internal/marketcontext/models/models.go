package models

import (
	"strings"
	"time"
)

// Key prefixes. Component keys are shared by every tier summary that uses them.
const (
	SummaryPrefix         = "market_context"
	EconomicIndicatorsKey = "economic_indicators"
	LiveMarketDataKey     = "live_market_data"
	demoSuffix            = ":demo"
)

// EntryKind distinguishes composed summaries from the component caches they are built from.
type EntryKind string

const (
	KindSummary   EntryKind = "summary"
	KindComponent EntryKind = "component"
)

// Entry is one cached text block. Entries are replaced wholesale and never mutated after storing.
type Entry struct {
	Key          string               `json:"key"`
	Kind         EntryKind            `json:"kind"`
	Text         string               `json:"text"`
	ComposedFrom map[string]time.Time `json:"composed_from,omitempty"`
	RefreshedAt  time.Time            `json:"refreshed_at"`
	ExpiresAt    time.Time            `json:"expires_at"`
}

// Fresh reports whether the entry may be served without a rebuild.
func (e *Entry) Fresh(now time.Time) bool {
	return e != nil && now.Before(e.ExpiresAt)
}

// SummaryKey is the cache key of a tier summary, e.g. market_context:premium:live.
func SummaryKey(tier string, demo bool) string {
	mode := "live"
	if demo {
		mode = "demo"
	}
	return SummaryPrefix + ":" + tier + ":" + mode
}

// ComponentKey returns the key of a shared component cache, suffixed for demo data.
func ComponentKey(base string, demo bool) string {
	if demo {
		return base + demoSuffix
	}
	return base
}

// IsSummaryKey reports whether key names a tier summary.
func IsSummaryKey(key string) bool {
	return strings.HasPrefix(key, SummaryPrefix+":")
}

// Stats is the admin view of the cache.
type Stats struct {
	Size        int        `json:"size"`
	Keys        []string   `json:"keys"`
	LastRefresh *time.Time `json:"last_refresh,omitempty"`
}

// Indicator is one macro-economic series observation.
type Indicator struct {
	SeriesID string
	Label    string
	Value    float64
	Unit     string
	Date     string
}

// Headline is one live market news or data item.
type Headline struct {
	Title       string
	URL         string
	Snippet     string
	PublishedAt string
}
