// Package video validates and normalizes YouTube video URLs at the input
// boundary. Anything that doesn't resolve to a video id is rejected before
// a backend is ever called.
package video

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned for input that is not a recognizable YouTube
// video URL.
var ErrInvalidURL = errors.New("invalid youtube url")

// ParseID extracts the video id from a YouTube URL. Accepted forms:
//
//	https://www.youtube.com/watch?v=<id>   (any subdomain, with or without scheme)
//	https://youtu.be/<id>
//
// Extra query parameters (playlist, t, si, ...) are ignored.
func ParseID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case host == "youtu.be":
		id := strings.Trim(strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)[0], "/")
		if id == "" {
			return "", fmt.Errorf("%w: youtu.be link missing video id", ErrInvalidURL)
		}
		return id, nil
	case host == "youtube.com" || strings.HasSuffix(host, ".youtube.com"):
		if id := u.Query().Get("v"); id != "" {
			return id, nil
		}
		// /shorts/<id> and /embed/<id> carry the id in the path.
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if rest, ok := strings.CutPrefix(u.Path, prefix); ok && rest != "" {
				return strings.SplitN(rest, "/", 2)[0], nil
			}
		}
		return "", fmt.Errorf("%w: missing v parameter", ErrInvalidURL)
	default:
		return "", fmt.Errorf("%w: host %q is not youtube", ErrInvalidURL, host)
	}
}

// WatchURL returns the canonical watch URL for a video id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id)
}
