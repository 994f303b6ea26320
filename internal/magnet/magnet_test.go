package magnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hash = "c9e15763f722f23e98a29decdfae341b98d53056"

func TestParse(t *testing.T) {
	uri := "magnet:?xt=urn:btih:" + hash + "&dn=Heat.1995.REMUX&tr=udp%3A%2F%2Ftracker.example%3A80"
	info, err := Parse("  " + uri + "\n")
	require.NoError(t, err)

	assert.Equal(t, hash, info.InfoHash)
	assert.Equal(t, uri, info.URI)
}

func TestParse_UppercaseHashIsNormalised(t *testing.T) {
	info, err := Parse("magnet:?xt=urn:btih:C9E15763F722F23E98A29DECDFAE341B98D53056")
	require.NoError(t, err)
	assert.Equal(t, hash, info.InfoHash)
}

func TestParse_Rejects(t *testing.T) {
	_, err := Parse("https://jackett.local/dl/abc?file=Movie.torrent")
	assert.ErrorIs(t, err, ErrNotMagnet)

	_, err = Parse("magnet:?dn=no-hash")
	assert.Error(t, err)

	_, err = Parse("")
	assert.ErrorIs(t, err, ErrNotMagnet)
}
