// Package timestamp converts bracketed timestamp tokens embedded in
// transcript text ("[123.4s]", "[02:03.4]", "[01:02:03.4]") to playback
// offsets and time-anchored video links.
package timestamp

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// ParseOffset returns the playback offset in seconds encoded by a token.
// The surrounding brackets are optional. Recognized shapes:
//
//	123.4s      → 123.4
//	MM:SS.s     → minutes*60 + seconds
//	HH:MM:SS.s  → hours*3600 + minutes*60 + seconds
//
// Anything else parses to 0. Malformed tokens are not an error: transcript
// text routinely carries bracketed asides ("[music]") and a dead link to
// the video start beats a failed render.
func ParseOffset(token string) float64 {
	v := stripBrackets(token)

	if !strings.Contains(v, ":") {
		if n, ok := strings.CutSuffix(v, "s"); ok {
			sec, err := strconv.ParseFloat(n, 64)
			if err != nil || sec < 0 {
				return 0
			}
			return sec
		}
		return 0
	}

	parts := strings.Split(v, ":")
	switch len(parts) {
	case 2:
		m, err1 := strconv.ParseFloat(parts[0], 64)
		s, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil || m < 0 || s < 0 {
			return 0
		}
		return m*60 + s
	case 3:
		h, err1 := strconv.ParseFloat(parts[0], 64)
		m, err2 := strconv.ParseFloat(parts[1], 64)
		s, err3 := strconv.ParseFloat(parts[2], 64)
		if err1 != nil || err2 != nil || err3 != nil || h < 0 || m < 0 || s < 0 {
			return 0
		}
		return h*3600 + m*60 + s
	default:
		return 0
	}
}

// BuildURL returns baseURL with its t query parameter set to the token's
// whole-second offset (e.g. "t=123s"). All other query parameters and the
// path are preserved; an existing t is overwritten.
func BuildURL(token, baseURL string) string {
	secs := int64(math.Floor(ParseOffset(token)))

	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(secs, 10)+"s")
	u.RawQuery = q.Encode()
	return u.String()
}

// FormatDisplay returns a label for the token with brackets stripped and
// fractional seconds dropped: "[123.4s]" → "123s", "[01:02:03.4]" → "01:02:03".
// Purely cosmetic; the parsed offset is unaffected.
func FormatDisplay(token string) string {
	v := stripBrackets(token)

	if !strings.Contains(v, ":") {
		if n, ok := strings.CutSuffix(v, "s"); ok {
			return truncateFraction(n) + "s"
		}
		return v
	}

	parts := strings.Split(v, ":")
	parts[len(parts)-1] = truncateFraction(parts[len(parts)-1])
	return strings.Join(parts, ":")
}

func stripBrackets(token string) string {
	token = strings.TrimPrefix(token, "[")
	return strings.TrimSuffix(token, "]")
}

// truncateFraction drops a ".<digits>" suffix, but only when what precedes
// and follows the dot is numeric — "[ca. 1990]" must come through untouched.
func truncateFraction(s string) string {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 {
		return s
	}
	if !allDigits(s[:i]) || !allDigits(s[i+1:]) {
		return s
	}
	return s[:i]
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
