package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CaptionsClient pulls existing YouTube captions through a caption-extraction
// service. Cheapest and fastest backend, but only works when the video has
// captions at all.
type CaptionsClient struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

// captionsRequest is the request body for the caption service.
type captionsRequest struct {
	VideoID           string `json:"video_id"`
	IncludeTimestamps bool   `json:"include_timestamps"`
	TimestampFormat   string `json:"timestamp_format,omitempty"`
	Language          string `json:"language,omitempty"`
}

// captionsResponse is the caption service's response shape: plain text plus
// an optional segment list and a flag for whether timestamp formatting was
// applied.
type captionsResponse struct {
	Text              string            `json:"text"`
	TimestampsApplied bool              `json:"timestamps_applied"`
	VideoTitle        string            `json:"video_title"`
	Segments          []captionsSegment `json:"segments"`
}

type captionsSegment struct {
	Text      string  `json:"text"`
	Start     float64 `json:"start"`
	Duration  float64 `json:"duration"`
	End       float64 `json:"end"`
	Timestamp string  `json:"timestamp"`
}

// NewCaptionsClient creates a caption-extraction client.
func NewCaptionsClient(url string, timeout time.Duration) *CaptionsClient {
	return &CaptionsClient{
		url:     url,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the provider name.
func (cc *CaptionsClient) Name() string { return "captions" }

// Fetch requests captions for a video and normalizes the response.
func (cc *CaptionsClient) Fetch(ctx context.Context, videoID string, opts Options) (*Result, error) {
	reqBody := captionsRequest{
		VideoID:           videoID,
		IncludeTimestamps: opts.IncludeTimestamps,
		Language:          opts.Language,
	}
	if opts.IncludeTimestamps {
		format := opts.Format
		if format == "" {
			format = FormatSeconds
		}
		reqBody.TimestampFormat = string(format)
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cc.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := cc.client.Do(req)
	if err != nil {
		return nil, classifyTransport(cc.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(cc.Name(), resp.StatusCode, body)
	}

	var result captionsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return finalize(result.toResult())
}

// toResult maps the caption service shape onto the canonical result.
func (cr *captionsResponse) toResult() *Result {
	res := &Result{
		Text:          cr.Text,
		Status:        StatusCompleted,
		Title:         cr.VideoTitle,
		Service:       "captions",
		HasTimestamps: cr.TimestampsApplied,
	}
	if len(cr.Segments) > 0 {
		res.Segments = make([]Segment, len(cr.Segments))
		for i, s := range cr.Segments {
			end := s.End
			if end == 0 && s.Duration > 0 {
				end = s.Start + s.Duration
			}
			res.Segments[i] = Segment{
				Text:      s.Text,
				Start:     s.Start,
				Duration:  s.Duration,
				End:       end,
				Timestamp: s.Timestamp,
			}
		}
		// Segment list gives the audio extent when the service omits it.
		res.Duration = res.Segments[len(res.Segments)-1].End
	}
	return res
}
