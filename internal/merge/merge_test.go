package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"remux-tracker/internal/domain"
)

func remuxCandidate(indexer string) domain.Candidate {
	return domain.Candidate{
		MovieID: 1,
		Release: domain.ParsedRelease{
			Resolution:   domain.Resolution1080p,
			Quality:      domain.QualityRemux,
			Encode:       domain.EncodeAVC,
			ReleaseGroup: "FGT",
		},
		Indexers: []string{indexer},
		FileName: "Movie.2024.1080p.BluRay.REMUX.AVC-FGT",
	}
}

func TestNewTorrent(t *testing.T) {
	now := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	c := remuxCandidate("A")
	c.Release.ReleaseGroup = ""

	got := NewTorrent(c, now)

	assert.Equal(t, domain.UnknownReleaseGroup, got.ReleaseGroup)
	assert.Equal(t, []string{"A"}, got.Indexers)
	assert.Equal(t, 12, got.Rank)
	assert.Equal(t, now, got.FirstSeen)
	assert.Equal(t, c.Key(), got.Key())
}

func TestMerge_SameCandidateIsNoop(t *testing.T) {
	c := remuxCandidate("A")
	existing := NewTorrent(c, time.Now())

	got, changed := Merge(existing, c)

	assert.False(t, changed)
	assert.Equal(t, existing, got)
}

func TestMerge_UnionsIndexers(t *testing.T) {
	existing := NewTorrent(remuxCandidate("A"), time.Now())

	got, changed := Merge(existing, remuxCandidate("B"))

	assert.True(t, changed)
	assert.Equal(t, []string{"A", "B"}, got.Indexers)
	assert.Equal(t, []string{"A"}, existing.Indexers)
}

func TestMerge_UnionsLinks(t *testing.T) {
	first := remuxCandidate("A")
	first.Links = []domain.Link{{Indexer: "A", GUID: "1"}}
	existing := NewTorrent(first, time.Now())

	second := remuxCandidate("A")
	second.Links = []domain.Link{{Indexer: "A", GUID: "1"}, {Indexer: "A", GUID: "2"}}

	got, changed := Merge(existing, second)

	assert.True(t, changed)
	assert.Equal(t, []domain.Link{{Indexer: "A", GUID: "1"}, {Indexer: "A", GUID: "2"}}, got.Links)
}

func TestMerge_MagnetIsNeverOverwritten(t *testing.T) {
	first := remuxCandidate("A")
	first.MagnetLink = "magnet:?xt=urn:btih:first"
	first.InfoHash = "first"
	existing := NewTorrent(first, time.Now())

	second := remuxCandidate("A")
	second.MagnetLink = "magnet:?xt=urn:btih:second"
	second.InfoHash = "second"

	got, changed := Merge(existing, second)

	assert.False(t, changed)
	assert.Equal(t, "magnet:?xt=urn:btih:first", got.MagnetLink)
	assert.Equal(t, "first", got.InfoHash)
}

func TestMerge_AdoptsMagnetWhenMissing(t *testing.T) {
	existing := NewTorrent(remuxCandidate("A"), time.Now())

	c := remuxCandidate("A")
	c.MagnetLink = "magnet:?xt=urn:btih:abc"
	c.InfoHash = "abc"

	got, changed := Merge(existing, c)

	assert.True(t, changed)
	assert.Equal(t, "magnet:?xt=urn:btih:abc", got.MagnetLink)
	assert.Equal(t, "abc", got.InfoHash)
}

func TestMerge_RankAloneDoesNotRewrite(t *testing.T) {
	existing := NewTorrent(remuxCandidate("A"), time.Now())
	existing.Rank = 3

	got, changed := Merge(existing, remuxCandidate("A"))

	assert.False(t, changed)
	assert.Equal(t, 3, got.Rank)
}

func TestMerge_RankOnlyRises(t *testing.T) {
	existing := NewTorrent(remuxCandidate("A"), time.Now())
	existing.Rank = 3

	got, changed := Merge(existing, remuxCandidate("B"))
	assert.True(t, changed)
	assert.Equal(t, 12, got.Rank)

	existing.Rank = 30
	got, changed = Merge(existing, remuxCandidate("B"))
	assert.True(t, changed)
	assert.Equal(t, 30, got.Rank)
}
