// Package ranking scores parsed releases with fixed additive point tables.
package ranking

import (
	"slices"

	"remux-tracker/internal/domain"
)

var (
	resolutionPoints = map[domain.Resolution]int{
		domain.Resolution2160p: 4,
		domain.Resolution1080p: 3,
		domain.Resolution720p:  2,
		domain.Resolution480p:  1,
	}
	qualityPoints = map[domain.Quality]int{
		domain.QualityRemux:  7,
		domain.QualityBluRay: 6,
		domain.QualityWebDL:  5,
		domain.QualityWebRip: 4,
		domain.QualityHDRip:  3,
		domain.QualityDVDRip: 2,
		domain.QualityHDTV:   2,
		domain.QualityCAM:    1,
		domain.QualityTS:     1,
		domain.QualityTC:     1,
	}
	encodePoints = map[domain.Encode]int{
		domain.EncodeHEVC: 3,
		domain.EncodeAV1:  3,
		domain.EncodeAVC:  2,
		domain.EncodeXviD: 1,
		domain.EncodeDivX: 1,
	}
	visualPoints = map[domain.VisualTag]int{
		domain.VisualHDR10Plus: 4,
		domain.VisualDV:        4,
		domain.VisualHDR10:     3,
		domain.VisualHDR:       2,
		domain.Visual10Bit:     1,
	}
)

// Score returns the desirability of a release. Audio, language and group
// attributes do not contribute.
func Score(p domain.ParsedRelease) int {
	points := resolutionPoints[p.Resolution] + qualityPoints[p.Quality] + encodePoints[p.Encode]
	for _, tag := range p.VisualTags {
		points += visualPoints[tag]
	}
	return points
}

// Rank scores releases and orders them by rank descending. Ties keep input order.
func Rank(releases []domain.ParsedRelease) []domain.RankedRelease {
	ranked := make([]domain.RankedRelease, len(releases))
	for i, p := range releases {
		ranked[i] = domain.RankedRelease{ParsedRelease: p, Rank: Score(p)}
	}
	slices.SortStableFunc(ranked, func(a, b domain.RankedRelease) int {
		return b.Rank - a.Rank
	})
	return ranked
}

// RankCandidates sets each candidate's rank and returns a copy ordered by rank
// descending, ties in input order. Merge relies on this order when two
// candidates share a dedup key.
func RankCandidates(candidates []domain.Candidate) []domain.Candidate {
	ranked := slices.Clone(candidates)
	for i := range ranked {
		ranked[i].Rank = Score(ranked[i].Release)
	}
	slices.SortStableFunc(ranked, func(a, b domain.Candidate) int {
		return b.Rank - a.Rank
	})
	return ranked
}
