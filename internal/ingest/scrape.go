package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidYear = errors.New("invalid year")

const (
	minScrapeYear = 1900
	maxScrapeYear = 2100
)

// ScrapeReport describes a manual year scrape.
type ScrapeReport struct {
	Year       int   `json:"year"`
	Discovered int   `json:"discovered"`
	Search     Stats `json:"search"`
}

// ValidateYear rejects years outside 1900..2100.
func ValidateYear(year int) error {
	if year < minScrapeYear || year > maxScrapeYear {
		return fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}
	return nil
}

// ScrapeYear discovers every movie with a primary release in year and then
// searches torrents for exactly the movies that discovery stored.
func (s *Service) ScrapeYear(ctx context.Context, year int) (ScrapeReport, error) {
	report := ScrapeReport{Year: year}
	if err := ValidateYear(year); err != nil {
		return report, err
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	s.logger.Infof("starting scrape for year %d", year)
	ids, err := s.DiscoverReleases(ctx, from, to)
	if err != nil {
		return report, fmt.Errorf("scrape year %d: %w", year, err)
	}
	report.Discovered = len(ids)
	s.logger.Infof("scrape for year %d found %d movies", year, len(ids))

	movies, err := s.movies.ListByIDs(ctx, ids)
	if err != nil {
		return report, fmt.Errorf("scrape year %d: load movies: %w", year, err)
	}
	report.Search, err = s.SearchTorrents(ctx, movies)
	return report, err
}
