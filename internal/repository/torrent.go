package repository

import (
	"context"

	"remux-tracker/internal/domain"
)

// TorrentRepository persists canonical torrent records keyed by their dedup key.
type TorrentRepository interface {
	Init(ctx context.Context) error
	FindByKey(ctx context.Context, key domain.TorrentKey) (*domain.Torrent, error)
	Create(ctx context.Context, torrent *domain.Torrent) (int64, error)
	Update(ctx context.Context, torrent *domain.Torrent) error
	ListByMovie(ctx context.Context, movieID int64) ([]domain.Torrent, error)
	MovieIDsWithQuality(ctx context.Context, quality domain.Quality) ([]int64, error)
}
