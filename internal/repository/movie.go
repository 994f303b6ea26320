package repository

import (
	"context"
	"errors"
	"time"

	"remux-tracker/internal/domain"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("not found")

// MovieRepository exposes persistence operations for tracked movies.
type MovieRepository interface {
	Init(ctx context.Context) error
	// Upsert inserts or replaces the movie keyed by TMDB id and reports whether
	// a new row was created.
	Upsert(ctx context.Context, movie *domain.Movie) (bool, error)
	Get(ctx context.Context, tmdbID int64) (*domain.Movie, error)
	ListByIDs(ctx context.Context, tmdbIDs []int64) ([]domain.Movie, error)
	ListReleased(ctx context.Context) ([]domain.Movie, error)
	// ListPhysicalBetween returns movies whose physical release date lies in
	// [from, to], both inclusive.
	ListPhysicalBetween(ctx context.Context, from, to time.Time) ([]domain.Movie, error)
	ListUpcoming(ctx context.Context, now time.Time) ([]domain.Movie, error)
	// ListReleasedWithTorrents returns released movies with at least one stored
	// torrent, newest physical release first.
	ListReleasedWithTorrents(ctx context.Context) ([]domain.Movie, error)
}
