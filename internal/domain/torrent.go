package domain

import "time"

// Link references a release on an indexer that exposed no magnet link.
type Link struct {
	Indexer string `json:"indexer"`
	GUID    string `json:"guid"`
}

// TorrentKey identifies "the same release" across indexers. ReleaseGroup is
// compared exactly, including case.
type TorrentKey struct {
	MovieID      int64
	ReleaseGroup string
	Resolution   Resolution
	Quality      Quality
	Encode       Encode
}

// Candidate is a classified search result for a specific movie, waiting to be
// merged into the store.
type Candidate struct {
	MovieID    int64
	Release    ParsedRelease
	Indexers   []string
	MagnetLink string
	InfoHash   string
	Links      []Link
	FileName   string
	Size       int64
	Rank       int
}

// ReleaseGroup returns the parsed group or UnknownReleaseGroup.
func (c Candidate) ReleaseGroup() string {
	if c.Release.ReleaseGroup == "" {
		return UnknownReleaseGroup
	}
	return c.Release.ReleaseGroup
}

// Key returns the dedup key the candidate merges into.
func (c Candidate) Key() TorrentKey {
	return TorrentKey{
		MovieID:      c.MovieID,
		ReleaseGroup: c.ReleaseGroup(),
		Resolution:   c.Release.Resolution,
		Quality:      c.Release.Quality,
		Encode:       c.Release.Encode,
	}
}

// Torrent is the canonical stored record for one dedup key.
type Torrent struct {
	ID            int64
	MovieID       int64
	Indexers      []string
	Resolution    Resolution
	Quality       Quality
	Encode        Encode
	ReleaseGroup  string
	Size          int64
	MagnetLink    string
	InfoHash      string
	Links         []Link
	FileName      string
	FirstSeen     time.Time
	VisualTags    []VisualTag
	AudioTags     []string
	AudioChannels []string
	Languages     []string
	Rank          int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Key returns the record's dedup key.
func (t Torrent) Key() TorrentKey {
	return TorrentKey{
		MovieID:      t.MovieID,
		ReleaseGroup: t.ReleaseGroup,
		Resolution:   t.Resolution,
		Quality:      t.Quality,
		Encode:       t.Encode,
	}
}
