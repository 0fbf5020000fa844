package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"finsight/internal/marketcontext/models"
)

const (
	fredProvider       = "fred"
	DefaultFREDBaseURL = "https://api.stlouisfed.org/fred"
)

// Series is a FRED series the client fetches.
type Series struct {
	ID    string
	Label string
	Unit  string
}

// DefaultSeries are the headline indicators used for economic context.
var DefaultSeries = []Series{
	{ID: "FEDFUNDS", Label: "Federal funds rate", Unit: "%"},
	{ID: "CPIAUCSL", Label: "Consumer price index", Unit: "index"},
	{ID: "UNRATE", Label: "Unemployment rate", Unit: "%"},
	{ID: "DGS10", Label: "10-year Treasury yield", Unit: "%"},
	{ID: "MORTGAGE30US", Label: "30-year fixed mortgage rate", Unit: "%"},
}

// FREDClient fetches the latest observation of each configured series.
type FREDClient struct {
	baseURL string
	apiKey  string
	series  []Series
	client  *http.Client
}

// FREDOption configures a FREDClient.
type FREDOption func(*FREDClient)

// WithFREDHTTPClient overrides the HTTP client.
func WithFREDHTTPClient(c *http.Client) FREDOption {
	return func(f *FREDClient) {
		if c != nil {
			f.client = c
		}
	}
}

// WithSeries overrides the fetched series.
func WithSeries(series ...Series) FREDOption {
	return func(f *FREDClient) {
		if len(series) > 0 {
			f.series = series
		}
	}
}

// NewFREDClient creates a client. An empty baseURL uses the public API.
func NewFREDClient(baseURL, apiKey string, opts ...FREDOption) *FREDClient {
	if baseURL == "" {
		baseURL = DefaultFREDBaseURL
	}
	f := &FREDClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		series:  DefaultSeries,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name identifies the provider in logs and metrics.
func (f *FREDClient) Name() string { return fredProvider }

// FetchIndicators queries every series concurrently. Series that fail or have
// no numeric observation are skipped; an error is returned only when none succeed.
func (f *FREDClient) FetchIndicators(ctx context.Context) ([]models.Indicator, error) {
	if f.apiKey == "" {
		return nil, newError(ErrorNotConfigured, fredProvider, "api key not set", nil)
	}

	var (
		mu       sync.Mutex
		firstErr error
	)
	results := make([]*models.Indicator, len(f.series))
	var g errgroup.Group
	for i, s := range f.series {
		g.Go(func() error {
			ind, err := f.latest(ctx, s)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}
			results[i] = ind
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.Indicator, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	if len(out) == 0 {
		if firstErr == nil {
			firstErr = newError(ErrorBadData, fredProvider, "no observations returned", nil)
		}
		return nil, firstErr
	}
	return out, nil
}

type fredObservations struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

func (f *FREDClient) latest(ctx context.Context, s Series) (*models.Indicator, error) {
	q := url.Values{}
	q.Set("series_id", s.ID)
	q.Set("api_key", f.apiKey)
	q.Set("file_type", "json")
	q.Set("sort_order", "desc")
	q.Set("limit", "5")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/series/observations?"+q.Encode(), nil)
	if err != nil {
		return nil, newError(ErrorBadData, fredProvider, "build request", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, newError(ErrorTimeout, fredProvider, s.ID, err)
		}
		return nil, newError(ErrorOutage, fredProvider, s.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, newError(statusCategory(resp.StatusCode), fredProvider,
			fmt.Sprintf("%s: status %d: %s", s.ID, resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var payload fredObservations
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, newError(ErrorBadData, fredProvider, s.ID+": decode", err)
	}
	// FRED reports missing values as "."
	for _, obs := range payload.Observations {
		v, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			continue
		}
		return &models.Indicator{SeriesID: s.ID, Label: s.Label, Value: v, Unit: s.Unit, Date: obs.Date}, nil
	}
	return nil, newError(ErrorBadData, fredProvider, s.ID+": no numeric observation", nil)
}
