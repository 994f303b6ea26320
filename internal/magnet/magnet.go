// Package magnet validates magnet URIs reported by indexers.
package magnet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/anacrolix/torrent/metainfo"
)

var ErrNotMagnet = errors.New("not a magnet uri")

// Info is the part of a magnet link stored alongside a torrent record.
type Info struct {
	URI      string
	InfoHash string
}

// Parse validates uri and extracts its BitTorrent info hash as lowercase hex.
// Indexer download links (http URLs) are rejected with ErrNotMagnet.
func Parse(uri string) (Info, error) {
	uri = strings.TrimSpace(uri)
	if !strings.HasPrefix(strings.ToLower(uri), "magnet:") {
		return Info{}, ErrNotMagnet
	}
	m, err := metainfo.ParseMagnetUri(uri)
	if err != nil {
		return Info{}, fmt.Errorf("parse magnet: %w", err)
	}
	return Info{
		URI:      uri,
		InfoHash: m.InfoHash.HexString(),
	}, nil
}
