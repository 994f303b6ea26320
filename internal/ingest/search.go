package ingest

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"remux-tracker/internal/domain"
	"remux-tracker/internal/jackett"
	"remux-tracker/internal/parser"
	"remux-tracker/internal/ranking"
)

// CheckNewTorrents searches the default candidate selection.
func (s *Service) CheckNewTorrents(ctx context.Context) (Stats, error) {
	movies, err := s.SelectCandidateMovies(ctx, nil)
	if err != nil {
		return Stats{}, err
	}
	return s.SearchTorrents(ctx, movies)
}

// SelectCandidateMovies returns explicit when it is non-nil. Otherwise it
// returns every released movie plus those whose physical date falls within the
// trailing candidate window, deduplicated by id.
func (s *Service) SelectCandidateMovies(ctx context.Context, explicit []domain.Movie) ([]domain.Movie, error) {
	if explicit != nil {
		return dedupMovies(explicit), nil
	}

	released, err := s.movies.ListReleased(ctx)
	if err != nil {
		return nil, fmt.Errorf("list released movies: %w", err)
	}
	today := s.today()
	recent, err := s.movies.ListPhysicalBetween(ctx, today.AddDate(0, 0, -s.cfg.CandidateWindowDays), today)
	if err != nil {
		return nil, fmt.Errorf("list recent movies: %w", err)
	}
	return dedupMovies(append(released, recent...)), nil
}

// SearchTorrents searches each movie in turn and merges its complete remux
// results. A failed search is logged and the run moves on to the next movie;
// all such failures are returned joined.
func (s *Service) SearchTorrents(ctx context.Context, movies []domain.Movie) (Stats, error) {
	var (
		stats Stats
		errs  []error
	)
	for _, movie := range movies {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		logger := s.logger.WithField("movie_id", movie.TMDBID)

		query := fmt.Sprintf("%s %d remux", movie.Title, movie.Year)
		results, err := s.search.Search(ctx, jackett.SearchRequest{Query: query, Categories: s.cfg.Categories})
		if err != nil {
			logger.Errorf("search torrents: %v", err)
			errs = append(errs, fmt.Errorf("movie %d: %w", movie.TMDBID, err))
			continue
		}
		stats.Movies++
		stats.Results += len(results)

		var candidates []domain.Candidate
		for _, result := range results {
			release := parser.Parse(result.Title)
			if !release.IsCompleteRemux() {
				continue
			}
			candidates = append(candidates, buildCandidate(movie.TMDBID, result, release))
		}
		logger.Infof("%s (%d): %d results, %d remux candidates", movie.Title, movie.Year, len(results), len(candidates))

		s.mergeMovie(ctx, &stats, candidates)
	}
	return stats, errors.Join(errs...)
}

func (s *Service) mergeMovie(ctx context.Context, stats *Stats, candidates []domain.Candidate) {
	if len(candidates) == 0 {
		return
	}
	stats.Candidates += len(candidates)
	summary := s.merger.MergeBatch(ctx, ranking.RankCandidates(candidates))
	stats.addMerge(summary)
	if summary.Failed > 0 {
		s.logger.WithFields(logrus.Fields{
			"movie_id": candidates[0].MovieID,
			"failed":   summary.Failed,
		}).Warn("some torrents were not stored")
	}
}

func dedupMovies(movies []domain.Movie) []domain.Movie {
	out := make([]domain.Movie, 0, len(movies))
	for _, m := range movies {
		if !slices.ContainsFunc(out, func(o domain.Movie) bool { return o.TMDBID == m.TMDBID }) {
			out = append(out, m)
		}
	}
	return out
}
