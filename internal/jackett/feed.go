package jackett

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"remux-tracker/internal/ratelimit"
)

// Feed is a Torznab RSS endpoint, typically one indexer's
// /api/v2.0/indexers/<id>/results/torznab/api?t=search URL.
type Feed struct {
	Name string
	URL  string
}

// FeedSource reads recent items from Torznab feeds and reports them as Results.
type FeedSource struct {
	feeds      []Feed
	httpClient *http.Client
	limiter    ratelimit.Limiter
}

func NewFeedSource(feeds []Feed, opts ...FeedOption) *FeedSource {
	s := &FeedSource{
		feeds:      feeds,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    ratelimit.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type FeedOption func(*FeedSource)

func WithFeedHTTPClient(client *http.Client) FeedOption {
	return func(s *FeedSource) {
		if client != nil {
			s.httpClient = client
		}
	}
}

func WithFeedLimiter(limiter ratelimit.Limiter) FeedOption {
	return func(s *FeedSource) {
		if limiter != nil {
			s.limiter = limiter
		}
	}
}

// Len returns the number of configured feeds.
func (s *FeedSource) Len() int { return len(s.feeds) }

// Fetch reads every feed. Items from feeds that loaded are returned even when
// others failed; the failures are joined into the error.
func (s *FeedSource) Fetch(ctx context.Context) ([]Result, error) {
	var (
		results []Result
		errs    []error
	)
	for _, feed := range s.feeds {
		items, err := s.fetchFeed(ctx, feed)
		if err != nil {
			errs = append(errs, fmt.Errorf("feed %s: %w", feed.Name, err))
			continue
		}
		results = append(results, items...)
	}
	return results, errors.Join(errs...)
}

func (s *FeedSource) fetchFeed(ctx context.Context, feed Feed) ([]Result, error) {
	var parsed *gofeed.Feed
	err := s.limiter.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/rss+xml, application/xml")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("execute request: %w", err)
		}
		defer resp.Body.Close()

		if err := ratelimit.CheckStatus("torznab", resp); err != nil {
			return err
		}
		parsed, err = gofeed.NewParser().Parse(resp.Body)
		if err != nil {
			return fmt.Errorf("parse feed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	indexer := strings.TrimSpace(feed.Name)
	if indexer == "" {
		indexer = strings.TrimSpace(parsed.Title)
	}

	results := make([]Result, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		results = append(results, itemResult(item, indexer))
	}
	return results, nil
}

func itemResult(item *gofeed.Item, indexer string) Result {
	attrs := torznabAttrs(item.Extensions)

	r := Result{
		Title:     strings.TrimSpace(item.Title),
		Tracker:   indexer,
		GUID:      item.GUID,
		Link:      item.Link,
		MagnetURI: attrs["magneturl"],
	}
	if r.GUID == "" {
		r.GUID = item.Link
	}
	if size, err := strconv.ParseInt(attrs["size"], 10, 64); err == nil {
		r.Size = size
	}
	for _, enc := range item.Enclosures {
		if r.Size == 0 {
			if size, err := strconv.ParseInt(enc.Length, 10, 64); err == nil {
				r.Size = size
			}
		}
		if r.MagnetURI == "" && strings.HasPrefix(enc.URL, "magnet:") {
			r.MagnetURI = enc.URL
		}
	}
	if r.MagnetURI == "" && strings.HasPrefix(r.Link, "magnet:") {
		r.MagnetURI = r.Link
	}
	return r
}

// torznabAttrs flattens <torznab:attr name="..." value="..."/> elements.
func torznabAttrs(extensions ext.Extensions) map[string]string {
	attrs := map[string]string{}
	for _, e := range extensions["torznab"]["attr"] {
		name := strings.ToLower(e.Attrs["name"])
		if name == "" {
			continue
		}
		if _, seen := attrs[name]; !seen {
			attrs[name] = e.Attrs["value"]
		}
	}
	return attrs
}
