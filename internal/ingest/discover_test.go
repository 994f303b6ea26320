package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remux-tracker/internal/repository"
	"remux-tracker/internal/tmdb"
)

func TestEarliestPhysicalRelease(t *testing.T) {
	resp := &tmdb.ReleaseDatesResponse{Results: []tmdb.CountryReleases{
		{CountryCode: "US", ReleaseDates: []tmdb.ReleaseDate{
			physical("4K Ultra HD BLU-RAY", *day(2024, 5, 14)),
			{Type: 4, Note: "Blu-ray", ReleaseDate: "2024-03-01T00:00:00.000Z"},
			{Type: tmdb.ReleaseTypePhysical, Note: "Blu-ray", ReleaseDate: ""},
			{Type: tmdb.ReleaseTypePhysical, Note: "Blu-ray", ReleaseDate: "soon"},
		}},
		{CountryCode: "GB", ReleaseDates: []tmdb.ReleaseDate{
			physical("blu-ray", *day(2024, 5, 2)),
			physical("DVD", *day(2024, 4, 1)),
		}},
	}}

	date, ok := EarliestPhysicalRelease(resp, "blu-ray")
	require.True(t, ok)
	assert.True(t, date.Equal(*day(2024, 5, 2)))

	_, ok = EarliestPhysicalRelease(&tmdb.ReleaseDatesResponse{}, "blu-ray")
	assert.False(t, ok)
	_, ok = EarliestPhysicalRelease(nil, "blu-ray")
	assert.False(t, ok)
}

func TestDiscoverReleases_WalksAllPages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.tmdb.pages[1] = &tmdb.DiscoverResponse{TotalPages: 3, TotalResults: 3, Results: []tmdb.Movie{
		{ID: 1, Title: "Dune: Part Two", ReleaseDate: "2024-02-27", PosterPath: "/dune.jpg"},
	}}
	f.tmdb.pages[2] = &tmdb.DiscoverResponse{Results: []tmdb.Movie{
		{ID: 2, Title: "No Disc", ReleaseDate: "2024-01-10"},
	}}
	f.tmdb.pages[3] = &tmdb.DiscoverResponse{Results: []tmdb.Movie{
		{ID: 3, Title: "Coming Soon", ReleaseDate: "2024-03-01"},
		{ID: 4, Title: "Lookup Fails", ReleaseDate: "2024-03-01"},
	}}
	f.tmdb.releases[1] = &tmdb.ReleaseDatesResponse{Results: []tmdb.CountryReleases{
		{CountryCode: "US", ReleaseDates: []tmdb.ReleaseDate{physical("Blu-ray", *day(2024, 5, 14))}},
	}}
	f.tmdb.releases[2] = &tmdb.ReleaseDatesResponse{Results: []tmdb.CountryReleases{
		{CountryCode: "US", ReleaseDates: []tmdb.ReleaseDate{physical("DVD", *day(2024, 2, 1))}},
	}}
	f.tmdb.releases[3] = &tmdb.ReleaseDatesResponse{Results: []tmdb.CountryReleases{
		{CountryCode: "US", ReleaseDates: []tmdb.ReleaseDate{physical("Blu-ray", *day(2024, 3, 1))}},
	}}

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	ids, err := f.service.DiscoverReleases(ctx, from, to)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 3}, ids)

	require.Len(t, f.tmdb.calls, 3)
	for i, call := range f.tmdb.calls {
		assert.Equal(t, i+1, call.Page)
		assert.Equal(t, 100, call.MinVoteCount)
		assert.Equal(t, from, call.From)
	}

	dune, err := f.movies.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2024, dune.Year)
	assert.Equal(t, "/dune.jpg", dune.PosterPath)
	assert.False(t, dune.HasReleased)

	soon, err := f.movies.Get(ctx, 3)
	require.NoError(t, err)
	assert.True(t, soon.HasReleased)

	_, err = f.movies.Get(ctx, 2)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDiscoverReleases_PageFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.tmdb.pages[1] = &tmdb.DiscoverResponse{TotalPages: 3}
	f.tmdb.failPage = 2

	_, err := f.service.DiscoverReleases(context.Background(), testNow, testNow)
	require.Error(t, err)
	assert.Len(t, f.tmdb.calls, 2)
}

func TestCheckNewReleases_UsesLookbackWindow(t *testing.T) {
	f := newFixture(t)
	f.tmdb.pages[1] = &tmdb.DiscoverResponse{TotalPages: 1}

	_, err := f.service.CheckNewReleases(context.Background())
	require.NoError(t, err)

	require.Len(t, f.tmdb.calls, 1)
	assert.Equal(t, "2024-03-19", f.tmdb.calls[0].From.Format(time.DateOnly))
	assert.Equal(t, "2024-03-20", f.tmdb.calls[0].To.Format(time.DateOnly))
}
