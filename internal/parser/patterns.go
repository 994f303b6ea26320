package parser

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"remux-tracker/internal/domain"
)

// sep matches the separators treated as equivalent word boundaries.
const sep = `[\s._-]`

// matchTimeout bounds a single pattern evaluation on hostile input.
const matchTimeout = 100 * time.Millisecond

type rule[T ~string] struct {
	tag T
	re  *regexp2.Regexp
}

func newRule[T ~string](tag T, pattern string) rule[T] {
	return rule[T]{tag: tag, re: compile(pattern)}
}

func compile(pattern string) *regexp2.Regexp {
	pattern = strings.ReplaceAll(pattern, "{sep}", sep)
	re := regexp2.MustCompile(pattern, regexp2.IgnoreCase)
	re.MatchTimeout = matchTimeout
	return re
}

// Tables are evaluated in declaration order. Single-valued fields take the
// first matching rule; tag fields collect every matching rule.
var (
	extensionPattern    = compile(`\.([a-z0-9]{2,4})$`)
	releaseGroupPattern = compile(`(?:-| )(?!\d+$|S\d+|\d+x|ep?\d+)([^\-. \[\()]+)(?=(?:\.[a-z]{2,4})?$|$)`)
	titlePattern        = compile(`^(.*?)((19|20)\d{2}|S\d{2}|E\d{2}|x\d{2}|720p|1080p|2160p|BluRay|WEB|HDR|DVDrip|HDTV)`)
	yearPattern         = compile(`((19|20)\d{2})`)

	resolutions = []rule[domain.Resolution]{
		newRule(domain.Resolution2160p, `(4k|2160(p|i)?)|ultra{sep}?hd|uhd|3840x\d+`),
		newRule(domain.Resolution1080p, `(1080(p|i)?)|full{sep}?hd|1920x\d+`),
		newRule(domain.Resolution720p, `(720(p|i)?)|hd|1280x\d+`),
		newRule(domain.Resolution480p, `(480(p|i)?)|sd`),
	}

	qualities = []rule[domain.Quality]{
		newRule(domain.QualityRemux, `remux`),
		newRule(domain.QualityBluRay, `blu{sep}?ray|bd{sep}?rip`),
		newRule(domain.QualityWebDL, `web{sep}?dl(?!{sep}?rip)`),
		newRule(domain.QualityWebRip, `web{sep}?rip`),
		newRule(domain.QualityHDRip, `hd{sep}?rip|web{sep}?dl{sep}?rip`),
		newRule(domain.QualityDVDRip, `dvd{sep}?rip`),
		newRule(domain.QualityHDTV, `(hd|pd)tv|tv{sep}?rip`),
		newRule(domain.QualityCAM, `cam|hdcam|cam{sep}?rip`),
		newRule(domain.QualityTS, `telesync|ts|hd{sep}?ts`),
		newRule(domain.QualityTC, `telecine|tc|hd{sep}?tc`),
	}

	encodes = []rule[domain.Encode]{
		newRule(domain.EncodeHEVC, `hevc|[xh]{sep}?265`),
		newRule(domain.EncodeAVC, `avc|[xh]{sep}?264`),
		newRule(domain.EncodeAV1, `av1`),
		newRule(domain.EncodeXviD, `xvid`),
		newRule(domain.EncodeDivX, `divx`),
	}

	audioTags = []rule[string]{
		newRule("Atmos", `atmos`),
		newRule("DD+", `dd{sep}?\+|dolby{sep}?digital{sep}?plus|eac3`),
		newRule("DD", `dd(?!\+)|ac3|dolby{sep}?digital`),
		newRule("DTS", `dts(?!{sep}?hd|{sep}?ma)`),
		newRule("DTS-HD MA", `dts{sep}?hd{sep}?ma`),
		newRule("TrueHD", `true{sep}?hd`),
		newRule("AAC", `aac`),
		newRule("FLAC", `flac`),
	}

	audioChannels = []rule[string]{
		newRule("2.0", `2{sep}0`),
		newRule("5.1", `5{sep}1`),
		newRule("7.1", `7{sep}1`),
	}

	languages = []rule[string]{
		newRule("Dual Audio", `dual{sep}?audio`),
		newRule("English", `english|eng`),
		newRule("French", `french|fre|fr`),
		newRule("German", `german|ger|de`),
		newRule("Spanish", `spanish|spa|es`),
		newRule("Italian", `italian|ita`),
	}

	visualTags = []rule[domain.VisualTag]{
		newRule(domain.VisualHDR10Plus, `hdr{sep}?10{sep}?(plus|\+)`),
		newRule(domain.VisualHDR10, `hdr{sep}?10`),
		newRule(domain.VisualHDR, `hdr(?!{sep}?10)`),
		newRule(domain.VisualDV, `dolby{sep}?vision|dv`),
		newRule(domain.Visual10Bit, `10{sep}?bit`),
	}
)

func matches(re *regexp2.Regexp, s string) bool {
	ok, err := re.MatchString(s)
	return err == nil && ok
}

func matchFirst[T ~string](rules []rule[T], s string) T {
	for _, r := range rules {
		if matches(r.re, s) {
			return r.tag
		}
	}
	var zero T
	return zero
}

func matchAll[T ~string](rules []rule[T], s string) []T {
	var tags []T
	for _, r := range rules {
		if matches(r.re, s) {
			tags = append(tags, r.tag)
		}
	}
	return tags
}
