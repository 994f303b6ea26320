package ingest

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"remux-tracker/internal/domain"
	"remux-tracker/internal/jackett"
	"remux-tracker/internal/merge"
	"remux-tracker/internal/repository"
	"remux-tracker/internal/repository/sqlite"
	"remux-tracker/internal/tmdb"
)

var testNow = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

type fakeTMDB struct {
	mu       sync.Mutex
	pages    map[int]*tmdb.DiscoverResponse
	releases map[int64]*tmdb.ReleaseDatesResponse
	failPage int
	calls    []tmdb.DiscoverParams
}

func (f *fakeTMDB) Discover(_ context.Context, params tmdb.DiscoverParams) (*tmdb.DiscoverResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, params)
	if params.Page == f.failPage {
		return nil, fmt.Errorf("page %d: connection reset", params.Page)
	}
	page, ok := f.pages[params.Page]
	if !ok {
		return &tmdb.DiscoverResponse{Page: params.Page}, nil
	}
	return page, nil
}

func (f *fakeTMDB) ReleaseDates(_ context.Context, movieID int64) (*tmdb.ReleaseDatesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resp, ok := f.releases[movieID]
	if !ok {
		return nil, fmt.Errorf("tmdb returned status 404")
	}
	return resp, nil
}

type fakeSearcher struct {
	mu      sync.Mutex
	results map[string][]jackett.Result
	fail    map[string]error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, req jackett.SearchRequest) ([]jackett.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, req.Query)
	if err, ok := f.fail[req.Query]; ok {
		return nil, err
	}
	return f.results[req.Query], nil
}

type fakeFeeds struct {
	results []jackett.Result
	err     error
}

func (f fakeFeeds) Fetch(context.Context) ([]jackett.Result, error) {
	return f.results, f.err
}

type fixture struct {
	movies   repository.MovieRepository
	torrents repository.TorrentRepository
	tmdb     *fakeTMDB
	search   *fakeSearcher
	service  *Service
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "ingest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	movies := sqlite.NewMovieRepository(db)
	torrents := sqlite.NewTorrentRepository(db)
	require.NoError(t, sqlite.Migrate(context.Background(), movies, torrents))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	clock := func() time.Time { return testNow }
	f := &fixture{
		movies:   movies,
		torrents: torrents,
		tmdb:     &fakeTMDB{pages: map[int]*tmdb.DiscoverResponse{}, releases: map[int64]*tmdb.ReleaseDatesResponse{}},
		search:   &fakeSearcher{results: map[string][]jackett.Result{}, fail: map[string]error{}},
	}
	engine := merge.NewEngine(torrents, logger, merge.WithClock(clock))
	opts = append([]Option{WithClock(clock)}, opts...)
	f.service = NewService(movies, torrents, f.tmdb, f.search, engine, logger, opts...)
	return f
}

func (f *fixture) addMovie(t *testing.T, m domain.Movie) {
	t.Helper()
	_, err := f.movies.Upsert(context.Background(), &m)
	require.NoError(t, err)
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func physical(note string, date time.Time) tmdb.ReleaseDate {
	return tmdb.ReleaseDate{Type: tmdb.ReleaseTypePhysical, Note: note, ReleaseDate: date.Format(time.RFC3339)}
}

const testHash = "c9e15763f722f23e98a29decdfae341b98d53056"
