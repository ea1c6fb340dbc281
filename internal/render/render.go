// Package render splits raw transcript text into alternating prose and
// timestamp-link segments for display.
package render

import (
	"regexp"
	"strings"

	"github.com/snarg/yt-scribe/internal/timestamp"
)

// Kind discriminates display segments.
type Kind string

const (
	KindText Kind = "text"
	KindLink Kind = "link"
)

// Segment is one display unit of a transcript. Raw always holds the exact
// input substring the segment was produced from, so concatenating Raw over
// a split reproduces the input byte-for-byte.
type Segment struct {
	Raw   string `json:"raw"`
	Kind  Kind   `json:"kind"`
	Label string `json:"label,omitempty"`
	Href  string `json:"href,omitempty"`
}

// A bracketed run with no nested brackets. The split is purely syntactic:
// "[inaudible]" links to the video start just like a real token would.
var tokenRe = regexp.MustCompile(`\[[^\[\]]*\]`)

// Split breaks transcript text into ordered display segments. When
// hasTimestamps is false, or the text contains no bracket at all, the whole
// text comes back as a single prose segment without scanning.
func Split(text string, hasTimestamps bool, videoURL string) []Segment {
	if !hasTimestamps || !strings.Contains(text, "[") {
		return []Segment{{Raw: text, Kind: KindText}}
	}

	var segs []Segment
	last := 0
	for _, loc := range tokenRe.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			segs = append(segs, Segment{Raw: text[last:loc[0]], Kind: KindText})
		}
		tok := text[loc[0]:loc[1]]
		segs = append(segs, Segment{
			Raw:   tok,
			Kind:  KindLink,
			Label: timestamp.FormatDisplay(tok),
			Href:  timestamp.BuildURL(tok, videoURL),
		})
		last = loc[1]
	}
	if last < len(text) {
		segs = append(segs, Segment{Raw: text[last:], Kind: KindText})
	}
	if segs == nil {
		segs = []Segment{{Raw: text, Kind: KindText}}
	}
	return segs
}
