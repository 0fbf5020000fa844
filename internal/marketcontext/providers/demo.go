package providers

import (
	"context"

	"finsight/internal/marketcontext/models"
)

// DemoEconomicSource returns fixed indicators without network access.
type DemoEconomicSource struct{}

func (DemoEconomicSource) Name() string { return "demo_economic" }

func (DemoEconomicSource) FetchIndicators(context.Context) ([]models.Indicator, error) {
	return []models.Indicator{
		{SeriesID: "FEDFUNDS", Label: "Federal funds rate", Value: 4.33, Unit: "%", Date: "2025-01-01"},
		{SeriesID: "CPIAUCSL", Label: "Consumer price index", Value: 317.6, Unit: "index", Date: "2025-01-01"},
		{SeriesID: "UNRATE", Label: "Unemployment rate", Value: 4.1, Unit: "%", Date: "2025-01-01"},
		{SeriesID: "DGS10", Label: "10-year Treasury yield", Value: 4.57, Unit: "%", Date: "2025-01-14"},
		{SeriesID: "MORTGAGE30US", Label: "30-year fixed mortgage rate", Value: 6.93, Unit: "%", Date: "2025-01-09"},
	}, nil
}

// DemoMarketSource returns fixed headlines and answers every search with them.
type DemoMarketSource struct{}

func (DemoMarketSource) Name() string { return "demo_market" }

var demoHeadlines = []models.Headline{
	{Title: "Stocks edge higher as inflation cools", Snippet: "The S&P 500 rose 0.8% after consumer prices came in below expectations.", PublishedAt: "2025-01-15"},
	{Title: "Treasury yields ease from recent highs", Snippet: "The 10-year yield slipped to 4.57% as traders priced in rate cuts later this year.", PublishedAt: "2025-01-15"},
	{Title: "Mortgage rates hold near 7%", Snippet: "Average 30-year fixed rates were little changed week over week.", PublishedAt: "2025-01-14"},
}

func (DemoMarketSource) FetchHeadlines(context.Context) ([]models.Headline, error) {
	out := make([]models.Headline, len(demoHeadlines))
	copy(out, demoHeadlines)
	return out, nil
}

func (d DemoMarketSource) Search(ctx context.Context, _ string, maxResults int) ([]models.Headline, error) {
	out, _ := d.FetchHeadlines(ctx)
	if maxResults > 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}
