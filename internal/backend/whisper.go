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

// WhisperClient calls an AI transcription service that downloads the video's
// audio and runs it through a Whisper model. Slow (long videos are processed
// in chunks server-side) but works on videos without captions.
type WhisperClient struct {
	url     string
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

// whisperResponse covers both the single-file and the chunked variant of the
// service's response. Chunks is empty for single-file jobs.
type whisperResponse struct {
	Text                string         `json:"text"`
	Status              string         `json:"status"` // "pending", "completed", "error"
	AudioDuration       float64        `json:"audio_duration"`
	VideoTitle          string         `json:"video_title"`
	Chunks              []whisperChunk `json:"chunks"`
	TotalProcessingTime float64        `json:"total_processing_time"`
}

type whisperChunk struct {
	ID             int     `json:"id"`
	Status         string  `json:"status"`
	StartTime      float64 `json:"start_time"`
	EndTime        float64 `json:"end_time"`
	ProcessingTime float64 `json:"processing_time"`
}

// NewWhisperClient creates an AI transcription client. Timeouts here are
// long by design: a one-hour video can take minutes to transcribe.
func NewWhisperClient(url, apiKey string, timeout time.Duration) *WhisperClient {
	return &WhisperClient{
		url:     url,
		apiKey:  apiKey,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the provider name.
func (wc *WhisperClient) Name() string { return "whisper" }

// Fetch submits the video for transcription and normalizes the response.
func (wc *WhisperClient) Fetch(ctx context.Context, videoID string, opts Options) (*Result, error) {
	payload, err := json.Marshal(map[string]string{
		"video_url": "https://www.youtube.com/watch?v=" + videoID,
		"language":  opts.Language,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wc.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if wc.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+wc.apiKey)
	}

	resp, err := wc.client.Do(req)
	if err != nil {
		return nil, classifyTransport(wc.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(wc.Name(), resp.StatusCode, body)
	}

	var result whisperResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return finalize(result.toResult())
}

// toResult maps the AI service shape onto the canonical result. Chunk
// success is derived from the per-chunk status: anything other than
// "completed" counts as a failed chunk.
func (wr *whisperResponse) toResult() *Result {
	res := &Result{
		Text:                wr.Text,
		Status:              parseStatus(wr.Status),
		Duration:            wr.AudioDuration,
		Title:               wr.VideoTitle,
		Service:             "whisper",
		TotalProcessingTime: wr.TotalProcessingTime,
	}
	if len(wr.Chunks) > 0 {
		res.Chunks = make([]ChunkInfo, len(wr.Chunks))
		for i, c := range wr.Chunks {
			res.Chunks[i] = ChunkInfo{
				ID:             c.ID,
				Status:         c.Status,
				Start:          c.StartTime,
				End:            c.EndTime,
				ProcessingTime: c.ProcessingTime,
				Success:        c.Status == "completed",
			}
		}
	}
	return res
}

func parseStatus(s string) Status {
	switch s {
	case "pending":
		return StatusPending
	case "error", "failed":
		return StatusError
	default:
		return StatusCompleted
	}
}
