// Package merge reconciles classified candidates with canonical torrent records.
//
// Indexer and link sets only grow, a stored magnet link is never replaced, and
// the stored rank only rises. A record is rewritten only when a set grows or a
// magnet is adopted, so re-ingesting the same candidates is a no-op.
package merge

import (
	"slices"
	"time"

	"remux-tracker/internal/domain"
	"remux-tracker/internal/ranking"
)

// NewTorrent seeds a canonical record from the first sighting of a dedup key.
func NewTorrent(c domain.Candidate, now time.Time) domain.Torrent {
	return domain.Torrent{
		MovieID:       c.MovieID,
		Indexers:      union(nil, c.Indexers),
		Resolution:    c.Release.Resolution,
		Quality:       c.Release.Quality,
		Encode:        c.Release.Encode,
		ReleaseGroup:  c.ReleaseGroup(),
		Size:          c.Size,
		MagnetLink:    c.MagnetLink,
		InfoHash:      c.InfoHash,
		Links:         union(nil, c.Links),
		FileName:      c.FileName,
		FirstSeen:     now,
		VisualTags:    slices.Clone(c.Release.VisualTags),
		AudioTags:     slices.Clone(c.Release.AudioTags),
		AudioChannels: slices.Clone(c.Release.AudioChannels),
		Languages:     slices.Clone(c.Release.Languages),
		Rank:          ranking.Score(c.Release),
	}
}

// Merge folds candidate c into existing and reports whether the record needs
// a write: a new indexer or link, or a newly adopted magnet link. A higher rank
// rides along with such a write but never triggers one; a lower rank is
// ignored. existing is not modified.
func Merge(existing domain.Torrent, c domain.Candidate) (domain.Torrent, bool) {
	updated := existing
	updated.Indexers = union(existing.Indexers, c.Indexers)
	updated.Links = union(existing.Links, c.Links)

	changed := len(updated.Indexers) > len(existing.Indexers) ||
		len(updated.Links) > len(existing.Links)

	if existing.MagnetLink == "" && c.MagnetLink != "" {
		updated.MagnetLink = c.MagnetLink
		updated.InfoHash = c.InfoHash
		changed = true
	}

	if !changed {
		return existing, false
	}
	updated.Rank = max(existing.Rank, ranking.Score(c.Release))
	return updated, true
}

// union appends the values of add missing from base, keeping first-seen order.
func union[T comparable](base, add []T) []T {
	out := slices.Clone(base)
	for _, v := range add {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
