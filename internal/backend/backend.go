// Package backend holds the transcription providers and the normalization
// of their divergent response shapes into one canonical result.
package backend

import (
	"context"
	"strings"
)

// Provider is the interface for transcript backends.
type Provider interface {
	Fetch(ctx context.Context, videoID string, opts Options) (*Result, error)
	Name() string // "captions", "whisper", "supadata"
}

// TimestampFormat selects how the captions backend renders inline tokens.
type TimestampFormat string

const (
	FormatSeconds  TimestampFormat = "seconds"  // [123.4s]
	FormatMinutes  TimestampFormat = "minutes"  // [02:03.4]
	FormatTimecode TimestampFormat = "timecode" // [00:02:03.4]
)

// Options are per-request options. Timestamp fields only apply to the
// captions backend; the others ignore them.
type Options struct {
	IncludeTimestamps bool
	Format            TimestampFormat
	Language          string
}

// Status is the lifecycle state of a transcription.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Segment is one timed span of transcript text.
type Segment struct {
	Text      string  `json:"text"`
	Start     float64 `json:"start"`
	Duration  float64 `json:"duration"`
	End       float64 `json:"end"`
	Timestamp string  `json:"timestamp,omitempty"` // display form, e.g. "02:03"
}

// ChunkInfo describes one chunk of a chunked AI transcription.
type ChunkInfo struct {
	ID             int     `json:"id"`
	Status         string  `json:"status"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	ProcessingTime float64 `json:"processing_time"`
	Success        bool    `json:"success"`
}

// Result is the canonical transcript shape every provider response is
// normalized into.
type Result struct {
	Text                string      `json:"text"`
	Status              Status      `json:"status"`
	Duration            float64     `json:"audio_duration,omitempty"`
	Title               string      `json:"video_title,omitempty"`
	Service             string      `json:"service_used"`
	HasTimestamps       bool        `json:"has_timestamps"`
	Segments            []Segment   `json:"segments,omitempty"`
	Chunks              []ChunkInfo `json:"chunks_info,omitempty"`
	TotalProcessingTime float64     `json:"total_processing_time,omitempty"`
}

// finalize enforces the normalizer contract: a result with empty or
// whitespace-only text is an extraction failure, not a successful empty
// transcript. Title and duration stay best-effort.
func finalize(res *Result) (*Result, error) {
	if strings.TrimSpace(res.Text) == "" {
		return nil, ErrNoTranscript
	}
	if res.Status == "" {
		res.Status = StatusCompleted
	}
	return res, nil
}
