// Package parser classifies free-text torrent titles into release attributes.
//
// Classification is heuristic: patterns are tried in a fixed priority order and
// overlapping matches are settled by that order alone.
package parser

import (
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"

	"remux-tracker/internal/domain"
)

// Parse extracts release attributes from name. Malformed input never fails;
// unrecognised fields are left empty.
func Parse(name string) domain.ParsedRelease {
	var result domain.ParsedRelease

	working := stripExtension(name)

	if m := findMatch(releaseGroupPattern, working); m != nil {
		result.ReleaseGroup = m.GroupByNumber(1).String()
		working = working[:runeOffset(working, m.Index)]
	}

	if m := findMatch(titlePattern, working); m != nil {
		title := strings.NewReplacer(".", " ", "_", " ").Replace(m.GroupByNumber(1).String())
		result.Title = strings.TrimSpace(title)
	}

	result.Resolution = matchFirst(resolutions, working)
	result.Quality = matchFirst(qualities, working)
	result.Encode = matchFirst(encodes, working)
	result.AudioTags = matchAll(audioTags, working)
	result.AudioChannels = matchAll(audioChannels, working)
	result.Languages = matchAll(languages, working)
	result.VisualTags = matchAll(visualTags, working)

	if m := findMatch(yearPattern, working); m != nil {
		if year, err := strconv.Atoi(m.GroupByNumber(1).String()); err == nil {
			result.Year = year
		}
	}

	return result
}

// stripExtension drops a trailing ".xxx" suffix of two to four alphanumerics.
// Suffixes that are themselves codec tokens (".x264", ".HEVC") are kept since
// they carry release information rather than a container format.
func stripExtension(name string) string {
	m := findMatch(extensionPattern, name)
	if m == nil {
		return name
	}
	if matchFirst(encodes, m.GroupByNumber(1).String()) != "" {
		return name
	}
	return name[:runeOffset(name, m.Index)]
}

func findMatch(re *regexp2.Regexp, s string) *regexp2.Match {
	m, err := re.FindStringMatch(s)
	if err != nil {
		return nil
	}
	return m
}

// runeOffset converts a regexp2 match index, counted in runes, to a byte offset.
func runeOffset(s string, runeIndex int) int {
	if runeIndex <= 0 {
		return 0
	}
	n := 0
	for i := range s {
		if n == runeIndex {
			return i
		}
		n++
	}
	return len(s)
}
