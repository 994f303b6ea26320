package domain

// Resolution is the vertical resolution tier of a release. Empty means unknown.
type Resolution string

const (
	Resolution2160p Resolution = "2160p"
	Resolution1080p Resolution = "1080p"
	Resolution720p  Resolution = "720p"
	Resolution480p  Resolution = "480p"
)

// Quality is the source tier of a release. Empty means unknown.
type Quality string

const (
	QualityRemux  Quality = "BluRay REMUX"
	QualityBluRay Quality = "BluRay"
	QualityWebDL  Quality = "WEB-DL"
	QualityWebRip Quality = "WEBRip"
	QualityHDRip  Quality = "HDRip"
	QualityDVDRip Quality = "DVDRip"
	QualityHDTV   Quality = "HDTV"
	QualityCAM    Quality = "CAM"
	QualityTS     Quality = "TS"
	QualityTC     Quality = "TC"
)

// Encode is the video codec family. Empty means unknown.
type Encode string

const (
	EncodeHEVC Encode = "HEVC"
	EncodeAVC  Encode = "AVC"
	EncodeAV1  Encode = "AV1"
	EncodeXviD Encode = "XviD"
	EncodeDivX Encode = "DivX"
)

// VisualTag marks HDR formats and bit depth.
type VisualTag string

const (
	VisualHDR10Plus VisualTag = "HDR10+"
	VisualHDR10     VisualTag = "HDR10"
	VisualHDR       VisualTag = "HDR"
	VisualDV        VisualTag = "DV"
	Visual10Bit     VisualTag = "10bit"
)

// UnknownReleaseGroup is persisted when a title carries no group suffix.
const UnknownReleaseGroup = "Unknown"

// ParsedRelease holds the attributes extracted from a single release title.
// Tag slices are in the parser's table order, so equal inputs give equal values.
type ParsedRelease struct {
	Title         string
	Resolution    Resolution
	Quality       Quality
	Encode        Encode
	ReleaseGroup  string
	VisualTags    []VisualTag
	AudioTags     []string
	AudioChannels []string
	Languages     []string
	Year          int
}

// IsCompleteRemux reports whether the release is a remux with both a known
// resolution and a known encode.
func (p ParsedRelease) IsCompleteRemux() bool {
	return p.Quality == QualityRemux && p.Resolution != "" && p.Encode != ""
}

// RankedRelease is a ParsedRelease annotated with its score.
type RankedRelease struct {
	ParsedRelease
	Rank int
}
