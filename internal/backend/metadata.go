package backend

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// MetadataFetcher scrapes title and duration off a video's watch page.
// Used as a last-resort fallback when a backend response carries neither.
type MetadataFetcher struct {
	baseURL string
	client  *http.Client
}

// NewMetadataFetcher creates a watch-page metadata fetcher. baseURL is the
// watch-page root; pass "" for youtube.com (tests point it at a local server).
func NewMetadataFetcher(baseURL string, timeout time.Duration) *MetadataFetcher {
	if baseURL == "" {
		baseURL = "https://www.youtube.com/watch"
	}
	return &MetadataFetcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Fetch returns the video's title and duration in seconds. Either value may
// be zero when the page doesn't expose it; only transport and parse failures
// return an error.
func (mf *MetadataFetcher) Fetch(ctx context.Context, videoID string) (string, float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mf.baseURL+"?v="+videoID, nil)
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := mf.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("fetch watch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("watch page returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("parse watch page: %w", err)
	}

	title, _ := doc.Find(`meta[property="og:title"]`).Attr("content")
	if title == "" {
		title = doc.Find("title").Text()
	}

	var duration float64
	if iso, ok := doc.Find(`meta[itemprop="duration"]`).Attr("content"); ok {
		duration = parseISODuration(iso)
	}

	return title, duration, nil
}

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// parseISODuration converts an ISO 8601 duration ("PT4M13S") to seconds.
// Returns 0 for anything it doesn't recognize.
func parseISODuration(s string) float64 {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	h, _ := strconv.Atoi(zeroIfEmpty(m[1]))
	min, _ := strconv.Atoi(zeroIfEmpty(m[2]))
	sec, _ := strconv.Atoi(zeroIfEmpty(m[3]))
	return float64(h*3600 + min*60 + sec)
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
