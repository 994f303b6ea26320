package ingest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"remux-tracker/internal/domain"
	"remux-tracker/internal/jackett"
	"remux-tracker/internal/parser"
)

// PollFeed reads the unfiltered stream of recent results and merges remux
// items matching a released movie that has no remux stored yet.
//
// An item matches when it contains the movie's title, case-insensitively, and
// its year. Short titles can match unrelated releases.
func (s *Service) PollFeed(ctx context.Context) (Stats, error) {
	var stats Stats

	outstanding, err := s.outstandingMovies(ctx)
	if err != nil {
		return stats, err
	}
	if len(outstanding) == 0 {
		s.logger.Debug("feed poll: no movies waiting for a remux")
		return stats, nil
	}
	stats.Movies = len(outstanding)

	results, fetchErr := s.recentResults(ctx)
	if len(results) == 0 && fetchErr != nil {
		return stats, fetchErr
	}
	if fetchErr != nil {
		s.logger.Warnf("feed poll: partial results: %v", fetchErr)
	}
	stats.Results = len(results)

	matched := map[int64][]domain.Candidate{}
	for _, result := range results {
		release := parser.Parse(result.Title)
		if release.Quality != domain.QualityRemux {
			continue
		}
		for _, movie := range outstanding {
			if matchesMovie(result.Title, movie) {
				matched[movie.TMDBID] = append(matched[movie.TMDBID], buildCandidate(movie.TMDBID, result, release))
			}
		}
	}

	for _, movie := range outstanding {
		if candidates := matched[movie.TMDBID]; len(candidates) > 0 {
			s.logger.WithField("movie_id", movie.TMDBID).Infof("feed poll: %d remux items for %s (%d)", len(candidates), movie.Title, movie.Year)
			s.mergeMovie(ctx, &stats, candidates)
		}
	}
	return stats, fetchErr
}

// outstandingMovies returns released movies without any stored remux.
func (s *Service) outstandingMovies(ctx context.Context) ([]domain.Movie, error) {
	released, err := s.movies.ListReleased(ctx)
	if err != nil {
		return nil, fmt.Errorf("list released movies: %w", err)
	}
	remuxed, err := s.torrents.MovieIDsWithQuality(ctx, domain.QualityRemux)
	if err != nil {
		return nil, fmt.Errorf("list remuxed movies: %w", err)
	}
	return slices.DeleteFunc(released, func(m domain.Movie) bool {
		return slices.Contains(remuxed, m.TMDBID)
	}), nil
}

func (s *Service) recentResults(ctx context.Context) ([]jackett.Result, error) {
	var errs []error
	results, err := s.search.Search(ctx, jackett.SearchRequest{Categories: s.cfg.Categories})
	if err != nil {
		errs = append(errs, err)
	}
	if s.feeds != nil {
		items, err := s.feeds.Fetch(ctx)
		if err != nil {
			errs = append(errs, err)
		}
		results = append(results, items...)
	}
	return results, errors.Join(errs...)
}

func matchesMovie(title string, movie domain.Movie) bool {
	if movie.Title == "" || movie.Year == 0 {
		return false
	}
	return strings.Contains(strings.ToLower(title), strings.ToLower(movie.Title)) &&
		strings.Contains(title, strconv.Itoa(movie.Year))
}
