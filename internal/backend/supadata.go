package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// SupadataClient fetches transcripts through the Supadata caption-scrape
// API. The API's transcript field is polymorphic (a plain string, an array
// of segment objects, or a nested object) and its metadata has moved between
// top-level and a nested video object across versions, so normalization
// probes all known locations.
type SupadataClient struct {
	baseURL  string
	apiKey   string
	timeout  time.Duration
	client   *http.Client
	metadata *MetadataFetcher
	log      zerolog.Logger
}

// supadataResponse leaves the transcript raw for shape probing. Metadata is
// preferred from the nested video object, then top level.
type supadataResponse struct {
	Transcript json.RawMessage `json:"transcript"`
	Content    json.RawMessage `json:"content"` // newer API versions
	Video      *supadataVideo  `json:"video"`
	Title      string          `json:"title"`
	Duration   float64         `json:"duration"`
}

type supadataVideo struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
}

type supadataSegment struct {
	Text string `json:"text"`
}

// NewSupadataClient creates a Supadata client. The metadata fetcher fills in
// title/duration when the API omits them; it may be nil to disable fallback.
func NewSupadataClient(baseURL, apiKey string, timeout time.Duration, metadata *MetadataFetcher, log zerolog.Logger) *SupadataClient {
	return &SupadataClient{
		baseURL:  baseURL,
		apiKey:   apiKey,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
		metadata: metadata,
		log:      log,
	}
}

// Name returns the provider name.
func (sc *SupadataClient) Name() string { return "supadata" }

// Fetch requests a scraped transcript and normalizes the response.
func (sc *SupadataClient) Fetch(ctx context.Context, videoID string, opts Options) (*Result, error) {
	q := url.Values{}
	q.Set("videoId", videoID)
	q.Set("text", "true")
	if opts.Language != "" {
		q.Set("lang", opts.Language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sc.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-api-key", sc.apiKey)

	resp, err := sc.client.Do(req)
	if err != nil {
		return nil, classifyTransport(sc.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(sc.Name(), resp.StatusCode, body)
	}

	var result supadataResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	res := result.toResult()

	// Best-effort metadata fallback when the API returned neither a nested
	// video object nor top-level fields.
	if (res.Title == "" || res.Duration == 0) && sc.metadata != nil {
		title, duration, err := sc.metadata.Fetch(ctx, videoID)
		if err != nil {
			sc.log.Debug().Err(err).Str("video_id", videoID).Msg("metadata fallback failed")
		} else {
			if res.Title == "" {
				res.Title = title
			}
			if res.Duration == 0 {
				res.Duration = duration
			}
		}
	}

	return finalize(res)
}

// toResult maps the scrape API shape onto the canonical result.
func (sr *supadataResponse) toResult() *Result {
	raw := sr.Transcript
	if len(raw) == 0 {
		raw = sr.Content
	}

	res := &Result{
		Text:    extractTranscriptText(raw),
		Status:  StatusCompleted,
		Service: "supadata",
	}
	if sr.Video != nil {
		res.Title = sr.Video.Title
		res.Duration = sr.Video.Duration
	}
	if res.Title == "" {
		res.Title = sr.Title
	}
	if res.Duration == 0 {
		res.Duration = sr.Duration
	}
	return res
}

// extractTranscriptText resolves the polymorphic transcript field. Three
// shapes are seen in the wild:
//
//	"transcript": "full text"
//	"transcript": [{"text": "..."}, {"text": "..."}]
//	"transcript": {"text": "full text"}
//
// Segments are joined with single spaces and trimmed. Anything unreadable
// yields empty text, which finalize classifies as no-transcript.
func extractTranscriptText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var segs []supadataSegment
	if err := json.Unmarshal(raw, &segs); err == nil {
		parts := make([]string, 0, len(segs))
		for _, seg := range segs {
			if seg.Text != "" {
				parts = append(parts, seg.Text)
			}
		}
		return strings.TrimSpace(strings.Join(parts, " "))
	}

	var obj supadataSegment
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Text
	}

	return ""
}
