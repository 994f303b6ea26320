package ingest

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"remux-tracker/internal/domain"
	"remux-tracker/internal/tmdb"
)

// CheckNewReleases discovers movies released during the last LookbackDays.
func (s *Service) CheckNewReleases(ctx context.Context) ([]int64, error) {
	today := s.today()
	return s.DiscoverReleases(ctx, today.AddDate(0, 0, -s.cfg.LookbackDays), today)
}

// DiscoverReleases walks every discovery page for [from, to] and upserts the
// movies that have a qualifying physical release date. It returns their ids.
//
// Pages are fetched one after another. Release-date lookups within a page run
// concurrently, bounded only by the upstream limiter. A failed page fetch
// aborts the walk; a failed lookup is logged and skipped.
func (s *Service) DiscoverReleases(ctx context.Context, from, to time.Time) ([]int64, error) {
	params := tmdb.DiscoverParams{From: from, To: to, MinVoteCount: s.cfg.MinVoteCount, Page: 1}

	first, err := s.tmdb.Discover(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("discover releases: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"from":  from.Format(time.DateOnly),
		"to":    to.Format(time.DateOnly),
		"pages": first.TotalPages,
	}).Infof("found %d movies", first.TotalResults)

	ids := s.lookupPage(ctx, first.Results)
	for page := 2; page <= first.TotalPages; page++ {
		params.Page = page
		resp, err := s.tmdb.Discover(ctx, params)
		if err != nil {
			return ids, fmt.Errorf("discover releases: %w", err)
		}
		s.logger.Debugf("processing discovery page %d of %d", page, first.TotalPages)
		ids = append(ids, s.lookupPage(ctx, resp.Results)...)
	}
	return ids, nil
}

func (s *Service) lookupPage(ctx context.Context, movies []tmdb.Movie) []int64 {
	found := make([]bool, len(movies))

	var g errgroup.Group
	for i, movie := range movies {
		g.Go(func() error {
			ok, err := s.lookupPhysicalDate(ctx, movie)
			if err != nil {
				s.logger.WithField("movie_id", movie.ID).Errorf("lookup physical release date: %v", err)
				return nil
			}
			found[i] = ok
			return nil
		})
	}
	_ = g.Wait()

	var ids []int64
	for i, ok := range found {
		if ok {
			ids = append(ids, movies[i].ID)
		}
	}
	return ids
}

// lookupPhysicalDate upserts movie when TMDB lists a qualifying physical release.
func (s *Service) lookupPhysicalDate(ctx context.Context, movie tmdb.Movie) (bool, error) {
	resp, err := s.tmdb.ReleaseDates(ctx, movie.ID)
	if err != nil {
		return false, err
	}

	date, ok := EarliestPhysicalRelease(resp, s.cfg.PhysicalNote)
	if !ok {
		return false, nil
	}

	record := &domain.Movie{
		TMDBID:              movie.ID,
		Title:               movie.Title,
		Year:                movie.Year(),
		PosterPath:          movie.PosterPath,
		PhysicalReleaseDate: &date,
		HasReleased:         domain.Released(date, s.now()),
	}
	created, err := s.movies.Upsert(ctx, record)
	if err != nil {
		return false, fmt.Errorf("upsert movie: %w", err)
	}

	verb := "updated"
	if created {
		verb = "created"
	}
	s.logger.WithFields(logrus.Fields{
		"movie_id":     movie.ID,
		"release_date": date.Format(time.DateOnly),
		"released":     record.HasReleased,
	}).Infof("movie %s: %s (%d)", verb, movie.Title, record.Year)
	return true, nil
}

// EarliestPhysicalRelease scans every country for physical releases whose note
// contains note, case-insensitively, and returns the earliest date.
func EarliestPhysicalRelease(resp *tmdb.ReleaseDatesResponse, note string) (time.Time, bool) {
	if resp == nil {
		return time.Time{}, false
	}
	note = strings.ToLower(note)

	var dates []time.Time
	for _, country := range resp.Results {
		for _, rd := range country.ReleaseDates {
			if rd.Type != tmdb.ReleaseTypePhysical || !strings.Contains(strings.ToLower(rd.Note), note) {
				continue
			}
			date, ok := rd.Date()
			if !ok {
				continue
			}
			dates = append(dates, date)
		}
	}
	if len(dates) == 0 {
		return time.Time{}, false
	}
	return slices.MinFunc(dates, func(a, b time.Time) int { return a.Compare(b) }), true
}
