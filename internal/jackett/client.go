// Package jackett searches a Jackett indexer aggregator and reads Torznab feeds.
package jackett

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"remux-tracker/internal/ratelimit"
)

// Movie and Movie/BluRay in the Torznab category tree.
var DefaultCategories = []int{2000, 2045}

// UnknownIndexer names the source of a result that reported none.
const UnknownIndexer = "Unknown"

// Result is one search hit as reported by Jackett.
type Result struct {
	Title       string   `json:"Title"`
	Tracker     string   `json:"Tracker"`
	TrackerList []string `json:"TrackerList,omitempty"`
	Size        int64    `json:"Size"`
	MagnetURI   string   `json:"MagnetUri"`
	Link        string   `json:"Link"`
	GUID        string   `json:"Guid"`
}

// Indexers returns who reported the result, falling back to UnknownIndexer.
func (r Result) Indexers() []string {
	var out []string
	for _, name := range r.TrackerList {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	if len(out) > 0 {
		return out
	}
	if name := strings.TrimSpace(r.Tracker); name != "" {
		return []string{name}
	}
	return []string{UnknownIndexer}
}

type searchResponse struct {
	Results []Result `json:"Results"`
}

// SearchRequest queries all configured indexers. An empty Query returns the
// most recent results.
type SearchRequest struct {
	Query      string
	Categories []int
}

// Searcher is the search surface used by ingestion.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) ([]Result, error)
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    ratelimit.Limiter
	now        func() time.Time
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLimiter routes every request through limiter.
func WithLimiter(limiter ratelimit.Limiter) Option {
	return func(c *Client) {
		if limiter != nil {
			c.limiter = limiter
		}
	}
}

func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("jackett api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("jackett url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    ratelimit.Noop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *Client) Search(ctx context.Context, req SearchRequest) ([]Result, error) {
	endpoint, err := url.Parse(c.baseURL + "/api/v2.0/indexers/all/results")
	if err != nil {
		return nil, fmt.Errorf("parse jackett url: %w", err)
	}

	categories := req.Categories
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	if q := strings.TrimSpace(req.Query); q != "" {
		params.Set("Query", q)
	}
	for _, cat := range categories {
		params.Add("Category", strconv.Itoa(cat))
	}
	// Jackett caches identical queries; a changing parameter forces a fresh search.
	params.Set("_", strconv.FormatInt(c.now().UnixMilli(), 10))
	endpoint.RawQuery = params.Encode()

	var payload searchResponse
	err = c.limiter.Do(ctx, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		httpReq.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("execute request: %w", err)
		}
		defer resp.Body.Close()

		if err := ratelimit.CheckStatus("jackett", resp); err != nil {
			return err
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return fmt.Errorf("decode jackett response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("jackett search %q: %w", req.Query, err)
	}
	return payload.Results, nil
}
