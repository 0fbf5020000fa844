package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finsight/internal/marketcontext/models"
)

const (
	searchProvider = "search"

	// DefaultMarketQuery is used to build the live market component.
	DefaultMarketQuery = "stock market today S&P 500 Nasdaq Treasury yields"
)

// SearchClient calls a JSON search API: POST {query, max_results} returning
// results[]{title, url, content, published_date}.
type SearchClient struct {
	endpoint    string
	apiKey      string
	marketQuery string
	maxResults  int
	client      *http.Client
}

// SearchOption configures a SearchClient.
type SearchOption func(*SearchClient)

// WithSearchHTTPClient overrides the HTTP client.
func WithSearchHTTPClient(c *http.Client) SearchOption {
	return func(s *SearchClient) {
		if c != nil {
			s.client = c
		}
	}
}

// WithMarketQuery overrides the query used for live market headlines.
func WithMarketQuery(q string) SearchOption {
	return func(s *SearchClient) {
		if strings.TrimSpace(q) != "" {
			s.marketQuery = q
		}
	}
}

// WithMaxResults sets the default result count.
func WithMaxResults(n int) SearchOption {
	return func(s *SearchClient) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// NewSearchClient creates a client for endpoint.
func NewSearchClient(endpoint, apiKey string, opts ...SearchOption) *SearchClient {
	s := &SearchClient{
		endpoint:    endpoint,
		apiKey:      apiKey,
		marketQuery: DefaultMarketQuery,
		maxResults:  5,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name identifies the provider in logs and metrics.
func (s *SearchClient) Name() string { return searchProvider }

// FetchHeadlines returns current market headlines.
func (s *SearchClient) FetchHeadlines(ctx context.Context) ([]models.Headline, error) {
	return s.Search(ctx, s.marketQuery, s.maxResults)
}

type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Results []struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		Content       string `json:"content"`
		PublishedDate string `json:"published_date"`
	} `json:"results"`
}

// Search runs query and returns up to maxResults results. maxResults <= 0 uses the client default.
func (s *SearchClient) Search(ctx context.Context, query string, maxResults int) ([]models.Headline, error) {
	if s.endpoint == "" || s.apiKey == "" {
		return nil, newError(ErrorNotConfigured, searchProvider, "endpoint or api key not set", nil)
	}
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	body, err := json.Marshal(searchRequest{Query: query, MaxResults: maxResults})
	if err != nil {
		return nil, newError(ErrorBadData, searchProvider, "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, newError(ErrorBadData, searchProvider, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, newError(ErrorTimeout, searchProvider, "request", err)
		}
		return nil, newError(ErrorOutage, searchProvider, "request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, newError(statusCategory(resp.StatusCode), searchProvider,
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), nil)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, newError(ErrorBadData, searchProvider, "decode", err)
	}
	out := make([]models.Headline, 0, len(payload.Results))
	for _, r := range payload.Results {
		if strings.TrimSpace(r.Title) == "" && strings.TrimSpace(r.Content) == "" {
			continue
		}
		out = append(out, models.Headline{
			Title:       strings.TrimSpace(r.Title),
			URL:         r.URL,
			Snippet:     strings.TrimSpace(r.Content),
			PublishedAt: r.PublishedDate,
		})
		if len(out) == maxResults {
			break
		}
	}
	return out, nil
}
