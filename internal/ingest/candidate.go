package ingest

import (
	"remux-tracker/internal/domain"
	"remux-tracker/internal/jackett"
	"remux-tracker/internal/magnet"
)

// buildCandidate attaches the result's magnet link when it has a valid one and
// falls back to (indexer, guid) references otherwise.
func buildCandidate(movieID int64, result jackett.Result, release domain.ParsedRelease) domain.Candidate {
	c := domain.Candidate{
		MovieID:  movieID,
		Release:  release,
		Indexers: result.Indexers(),
		FileName: result.Title,
		Size:     result.Size,
	}

	uri := result.MagnetURI
	if uri == "" {
		uri = result.Link
	}
	if info, err := magnet.Parse(uri); err == nil {
		c.MagnetLink = info.URI
		c.InfoHash = info.InfoHash
		return c
	}

	guid := result.GUID
	if guid == "" {
		guid = result.Link
	}
	if guid == "" {
		return c
	}
	for _, indexer := range c.Indexers {
		c.Links = append(c.Links, domain.Link{Indexer: indexer, GUID: guid})
	}
	return c
}
