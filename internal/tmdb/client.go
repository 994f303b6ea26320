// Package tmdb fetches movie discovery pages and release-date records from TMDB.
package tmdb

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

// ReleaseTypePhysical is TMDB's release type code for home-media releases.
const ReleaseTypePhysical = 5

const dateLayout = "2006-01-02"

// Movie is one discovery result.
type Movie struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	PosterPath  string `json:"poster_path"`
	ReleaseDate string `json:"release_date"`
}

// Year returns the year of the primary release date, or 0 if it is unparseable.
func (m Movie) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

type DiscoverResponse struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

type DiscoverParams struct {
	From         time.Time
	To           time.Time
	MinVoteCount int
	Page         int
}

// ReleaseDate is one country release. The date stays raw so that a single
// malformed entry does not fail the whole response.
type ReleaseDate struct {
	Certification string `json:"certification"`
	Language      string `json:"iso_639_1"`
	Note          string `json:"note"`
	ReleaseDate   string `json:"release_date"`
	Type          int    `json:"type"`
}

// Date parses ReleaseDate as RFC 3339 or a bare date. ok is false when the
// field is empty or malformed.
func (r ReleaseDate) Date() (time.Time, bool) {
	raw := strings.TrimSpace(r.ReleaseDate)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

type CountryReleases struct {
	CountryCode  string        `json:"iso_3166_1"`
	ReleaseDates []ReleaseDate `json:"release_dates"`
}

type ReleaseDatesResponse struct {
	ID      int64             `json:"id"`
	Results []CountryReleases `json:"results"`
}

// Source is the subset of TMDB used by ingestion.
type Source interface {
	Discover(ctx context.Context, params DiscoverParams) (*DiscoverResponse, error)
	ReleaseDates(ctx context.Context, movieID int64) (*ReleaseDatesResponse, error)
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    ratelimit.Limiter
}

var _ Source = (*Client)(nil)

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
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    ratelimit.Noop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Discover fetches one page of movies whose primary release date falls in
// [From, To], newest first.
func (c *Client) Discover(ctx context.Context, params DiscoverParams) (*DiscoverResponse, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	query := url.Values{}
	query.Set("primary_release_date.gte", params.From.Format(dateLayout))
	query.Set("primary_release_date.lte", params.To.Format(dateLayout))
	query.Set("vote_count.gte", strconv.Itoa(params.MinVoteCount))
	query.Set("sort_by", "primary_release_date.desc")
	query.Set("page", strconv.Itoa(page))

	var payload DiscoverResponse
	if err := c.get(ctx, "/discover/movie", query, &payload); err != nil {
		return nil, fmt.Errorf("tmdb discover page %d: %w", page, err)
	}
	return &payload, nil
}

// ReleaseDates fetches every country's release-date records for a movie.
func (c *Client) ReleaseDates(ctx context.Context, movieID int64) (*ReleaseDatesResponse, error) {
	var payload ReleaseDatesResponse
	path := "/movie/" + strconv.FormatInt(movieID, 10) + "/release_dates"
	if err := c.get(ctx, path, url.Values{}, &payload); err != nil {
		return nil, fmt.Errorf("tmdb release dates for %d: %w", movieID, err)
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	query.Set("api_key", c.apiKey)
	endpoint.RawQuery = query.Encode()

	return c.limiter.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("execute request: %w", err)
		}
		defer resp.Body.Close()

		if err := ratelimit.CheckStatus("tmdb", resp); err != nil {
			return err
		}
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("decode tmdb response: %w", err)
		}
		return nil
	})
}
