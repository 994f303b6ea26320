// Package service exposes read-side catalog queries for the HTTP API and
// snapshot export.
package service

import (
	"context"
	"fmt"
	"time"

	"remux-tracker/internal/repository"
)

// CatalogService answers the queries behind the movie list, detail and
// calendar views.
type CatalogService interface {
	ListMovies(ctx context.Context) ([]MovieView, error)
	GetMovie(ctx context.Context, tmdbID int64) (*MovieDetailView, error)
	ListUpcoming(ctx context.Context) ([]MovieView, error)
	Snapshot(ctx context.Context) (*CatalogSnapshot, error)
}

type catalogService struct {
	movies   repository.MovieRepository
	torrents repository.TorrentRepository
	now      func() time.Time
}

func NewCatalogService(movies repository.MovieRepository, torrents repository.TorrentRepository) CatalogService {
	return &catalogService{
		movies:   movies,
		torrents: torrents,
		now:      time.Now,
	}
}

// ListMovies returns released movies with at least one torrent, newest
// physical release first.
func (s *catalogService) ListMovies(ctx context.Context) ([]MovieView, error) {
	movies, err := s.movies.ListReleasedWithTorrents(ctx)
	if err != nil {
		return nil, err
	}
	return moviesToViews(movies), nil
}

// GetMovie returns repository.ErrNotFound for unknown ids.
func (s *catalogService) GetMovie(ctx context.Context, tmdbID int64) (*MovieDetailView, error) {
	movie, err := s.movies.Get(ctx, tmdbID)
	if err != nil {
		return nil, err
	}
	torrents, err := s.torrents.ListByMovie(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	detail := &MovieDetailView{
		Movie:    movieToView(*movie),
		Torrents: make([]TorrentView, len(torrents)),
	}
	for i := range torrents {
		detail.Torrents[i] = torrentToView(torrents[i])
	}
	return detail, nil
}

func (s *catalogService) ListUpcoming(ctx context.Context) ([]MovieView, error) {
	movies, err := s.movies.ListUpcoming(ctx, s.now())
	if err != nil {
		return nil, err
	}
	return moviesToViews(movies), nil
}

func (s *catalogService) Snapshot(ctx context.Context) (*CatalogSnapshot, error) {
	movies, err := s.movies.ListReleasedWithTorrents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}

	snapshot := &CatalogSnapshot{
		GeneratedAt: s.now().UTC().Format(time.RFC3339),
		Movies:      make([]MovieDetailView, 0, len(movies)),
	}
	for _, movie := range movies {
		detail, err := s.GetMovie(ctx, movie.TMDBID)
		if err != nil {
			return nil, fmt.Errorf("movie %d: %w", movie.TMDBID, err)
		}
		snapshot.Movies = append(snapshot.Movies, *detail)
	}

	if snapshot.Upcoming, err = s.ListUpcoming(ctx); err != nil {
		return nil, fmt.Errorf("list upcoming: %w", err)
	}
	return snapshot, nil
}
