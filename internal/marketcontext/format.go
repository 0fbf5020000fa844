package marketcontext

import (
	"strconv"
	"strings"
	"time"

	"finsight/internal/marketcontext/models"
)

// FormatIndicators renders the economic component text.
func FormatIndicators(indicators []models.Indicator, asOf time.Time) string {
	if len(indicators) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Economic indicators (as of ")
	b.WriteString(asOf.UTC().Format("2006-01-02"))
	b.WriteString("):")
	for _, ind := range indicators {
		b.WriteString("\n- ")
		b.WriteString(ind.Label)
		b.WriteString(": ")
		b.WriteString(strconv.FormatFloat(ind.Value, 'f', 2, 64))
		if ind.Unit == "%" {
			b.WriteString("%")
		} else if ind.Unit != "" {
			b.WriteString(" " + ind.Unit)
		}
		if ind.Date != "" {
			b.WriteString(" (" + ind.Date + ")")
		}
	}
	return b.String()
}

// FormatHeadlines renders the live market component text.
func FormatHeadlines(headlines []models.Headline) string {
	if len(headlines) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Live market data:")
	for _, h := range headlines {
		b.WriteString("\n- ")
		b.WriteString(h.Title)
		if h.Snippet != "" {
			if h.Title != "" {
				b.WriteString(": ")
			}
			b.WriteString(truncate(h.Snippet, 280))
		}
		if h.PublishedAt != "" {
			b.WriteString(" (" + h.PublishedAt + ")")
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
