package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remux-tracker/internal/domain"
	"remux-tracker/internal/repository"
)

func openTestDB(t *testing.T) (repository.MovieRepository, repository.TorrentRepository) {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	movies := NewMovieRepository(db)
	torrents := NewTorrentRepository(db)
	require.NoError(t, Migrate(context.Background(), movies, torrents))
	return movies, torrents
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestMovieRepository_UpsertIsIdempotentByID(t *testing.T) {
	ctx := context.Background()
	movies, _ := openTestDB(t)

	movie := &domain.Movie{TMDBID: 42, Title: "Heat", Year: 1995, PosterPath: "/heat.jpg", PhysicalReleaseDate: date(1996, 6, 1), HasReleased: true}
	created, err := movies.Upsert(ctx, movie)
	require.NoError(t, err)
	assert.True(t, created)

	movie.Title = "Heat (Remastered)"
	created, err = movies.Upsert(ctx, movie)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := movies.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Heat (Remastered)", got.Title)
	assert.Equal(t, 1995, got.Year)
	assert.True(t, got.HasReleased)
	require.NotNil(t, got.PhysicalReleaseDate)
	assert.True(t, got.PhysicalReleaseDate.Equal(*date(1996, 6, 1)))

	all, err := movies.ListReleased(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMovieRepository_GetMissing(t *testing.T) {
	movies, _ := openTestDB(t)

	_, err := movies.Get(context.Background(), 7)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMovieRepository_Queries(t *testing.T) {
	ctx := context.Background()
	movies, torrents := openTestDB(t)

	for _, m := range []domain.Movie{
		{TMDBID: 1, Title: "Old", PhysicalReleaseDate: date(2024, 3, 1), HasReleased: true},
		{TMDBID: 2, Title: "Recent", PhysicalReleaseDate: date(2024, 3, 12), HasReleased: false},
		{TMDBID: 3, Title: "Future", PhysicalReleaseDate: date(2024, 4, 30), HasReleased: false},
	} {
		_, err := movies.Upsert(ctx, &m)
		require.NoError(t, err)
	}

	window, err := movies.ListPhysicalBetween(ctx, *date(2024, 3, 10), *date(2024, 3, 20))
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, int64(2), window[0].TMDBID)

	upcoming, err := movies.ListUpcoming(ctx, *date(2024, 3, 20))
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, int64(3), upcoming[0].TMDBID)

	byID, err := movies.ListByIDs(ctx, []int64{3, 1, 99})
	require.NoError(t, err)
	require.Len(t, byID, 2)
	assert.Equal(t, int64(1), byID[0].TMDBID)

	withTorrents, err := movies.ListReleasedWithTorrents(ctx)
	require.NoError(t, err)
	assert.Empty(t, withTorrents)

	_, err = torrents.Create(ctx, &domain.Torrent{MovieID: 1, ReleaseGroup: "FGT", Quality: domain.QualityRemux})
	require.NoError(t, err)

	withTorrents, err = movies.ListReleasedWithTorrents(ctx)
	require.NoError(t, err)
	require.Len(t, withTorrents, 1)
	assert.Equal(t, int64(1), withTorrents[0].TMDBID)
}

func TestTorrentRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	_, torrents := openTestDB(t)

	seen := time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)
	in := &domain.Torrent{
		MovieID:       10,
		Indexers:      []string{"A"},
		Resolution:    domain.Resolution2160p,
		Quality:       domain.QualityRemux,
		Encode:        domain.EncodeHEVC,
		ReleaseGroup:  "FGT",
		Size:          1 << 30,
		Links:         []domain.Link{{Indexer: "A", GUID: "g-1"}},
		FileName:      "Movie.2024.2160p.REMUX.HEVC-FGT",
		FirstSeen:     seen,
		VisualTags:    []domain.VisualTag{domain.VisualDV},
		AudioTags:     []string{"TrueHD"},
		AudioChannels: []string{"7.1"},
		Rank:          18,
	}
	id, err := torrents.Create(ctx, in)
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := torrents.FindByKey(ctx, in.Key())
	require.NoError(t, err)
	assert.Equal(t, in.Indexers, got.Indexers)
	assert.Equal(t, in.Links, got.Links)
	assert.Equal(t, in.VisualTags, got.VisualTags)
	assert.Equal(t, in.AudioTags, got.AudioTags)
	assert.Nil(t, got.Languages)
	assert.True(t, got.FirstSeen.Equal(seen))
	assert.Equal(t, 18, got.Rank)

	got.Indexers = append(got.Indexers, "B")
	got.MagnetLink = "magnet:?xt=urn:btih:abc"
	got.Rank = 19
	require.NoError(t, torrents.Update(ctx, got))

	again, err := torrents.FindByKey(ctx, in.Key())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, again.Indexers)
	assert.Equal(t, "magnet:?xt=urn:btih:abc", again.MagnetLink)
	assert.Equal(t, 19, again.Rank)
	assert.True(t, again.FirstSeen.Equal(seen))

	ids, err := torrents.MovieIDsWithQuality(ctx, domain.QualityRemux)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, ids)
}

func TestTorrentRepository_DedupKeyIsUnique(t *testing.T) {
	ctx := context.Background()
	_, torrents := openTestDB(t)

	first := &domain.Torrent{MovieID: 1, ReleaseGroup: "FGT", Resolution: domain.Resolution1080p, Quality: domain.QualityRemux, Encode: domain.EncodeAVC}
	_, err := torrents.Create(ctx, first)
	require.NoError(t, err)

	dup := *first
	_, err = torrents.Create(ctx, &dup)
	assert.Error(t, err)
}

func TestTorrentRepository_ReleaseGroupIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	_, torrents := openTestDB(t)

	upper := &domain.Torrent{MovieID: 1, ReleaseGroup: "FGT", Quality: domain.QualityRemux}
	lower := &domain.Torrent{MovieID: 1, ReleaseGroup: "fgt", Quality: domain.QualityRemux}
	_, err := torrents.Create(ctx, upper)
	require.NoError(t, err)
	_, err = torrents.Create(ctx, lower)
	require.NoError(t, err)

	list, err := torrents.ListByMovie(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = torrents.FindByKey(ctx, domain.TorrentKey{MovieID: 1, ReleaseGroup: "Fgt", Quality: domain.QualityRemux})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTorrentRepository_UpdateMissing(t *testing.T) {
	_, torrents := openTestDB(t)

	err := torrents.Update(context.Background(), &domain.Torrent{ID: 999})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
