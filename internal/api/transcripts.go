package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/snarg/yt-scribe/internal/backend"
	"github.com/snarg/yt-scribe/internal/events"
	"github.com/snarg/yt-scribe/internal/metrics"
	"github.com/snarg/yt-scribe/internal/render"
	"github.com/snarg/yt-scribe/internal/video"
)

// TranscribeHandler runs a transcript request through one backend and
// returns the normalized result plus display segments.
type TranscribeHandler struct {
	providers      map[string]backend.Provider
	defaultService string
	bus            *events.Bus
}

func NewTranscribeHandler(providers map[string]backend.Provider, defaultService string, bus *events.Bus) *TranscribeHandler {
	return &TranscribeHandler{
		providers:      providers,
		defaultService: defaultService,
		bus:            bus,
	}
}

// TranscribeRequest is the POST /api/v1/transcripts body.
type TranscribeRequest struct {
	URL               string `json:"url"`
	Service           string `json:"service,omitempty"`
	IncludeTimestamps bool   `json:"include_timestamps,omitempty"`
	TimestampFormat   string `json:"timestamp_format,omitempty"`
	Language          string `json:"language,omitempty"`
}

// TranscribeResponse is the canonical result plus everything the UI needs
// to render it.
type TranscribeResponse struct {
	backend.Result
	VideoID  string           `json:"video_id"`
	VideoURL string           `json:"video_url"`
	Display  []render.Segment `json:"display"`
}

func (h *TranscribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	var req TranscribeRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	videoID, err := video.ParseID(req.URL)
	if err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid youtube url", err.Error())
		return
	}

	service := req.Service
	if service == "" {
		service = h.defaultService
	}
	provider, ok := h.providers[service]
	if !ok {
		WriteError(w, http.StatusBadRequest, "unknown or unconfigured service: "+service)
		return
	}

	opts := backend.Options{
		IncludeTimestamps: req.IncludeTimestamps,
		Format:            backend.TimestampFormat(req.TimestampFormat),
		Language:          req.Language,
	}

	start := time.Now()
	result, err := provider.Fetch(r.Context(), videoID, opts)
	metrics.TranscribeDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
	if err != nil {
		h.writeFetchError(w, r, service, videoID, err)
		return
	}
	metrics.TranscribeRequestsTotal.WithLabelValues(service, "ok").Inc()

	watchURL := video.WatchURL(videoID)
	resp := TranscribeResponse{
		Result:   *result,
		VideoID:  videoID,
		VideoURL: watchURL,
		Display:  render.Split(result.Text, result.HasTimestamps, watchURL),
	}

	log.Info().
		Str("service", service).
		Str("video_id", videoID).
		Int("text_len", len(result.Text)).
		Msg("transcript fetched")

	h.publish(events.TypeTranscriptCompleted, map[string]any{
		"video_id": videoID,
		"service":  service,
		"status":   result.Status,
	})

	WriteJSON(w, http.StatusOK, resp)
}

// writeFetchError maps the backend error taxonomy onto HTTP statuses and
// user-facing messages.
func (h *TranscribeHandler) writeFetchError(w http.ResponseWriter, r *http.Request, service, videoID string, err error) {
	log := hlog.FromRequest(r)

	status := http.StatusInternalServerError
	msg := "transcription failed"
	outcome := "error"
	switch {
	case errors.Is(err, backend.ErrNoTranscript):
		status, msg, outcome = http.StatusNotFound, "no transcript available for this video", "no_transcript"
	case errors.Is(err, backend.ErrTimeout):
		status, msg, outcome = http.StatusGatewayTimeout, "the transcription service took too long to respond", "timeout"
	case errors.Is(err, backend.ErrUnavailable):
		status, msg, outcome = http.StatusBadGateway, "the transcription service is temporarily unavailable", "unavailable"
	}
	metrics.TranscribeRequestsTotal.WithLabelValues(service, outcome).Inc()

	log.Warn().Err(err).Str("service", service).Str("video_id", videoID).Msg("transcription failed")

	h.publish(events.TypeTranscriptFailed, map[string]any{
		"video_id": videoID,
		"service":  service,
		"reason":   outcome,
	})

	WriteErrorDetail(w, status, msg, err.Error())
}

func (h *TranscribeHandler) publish(eventType string, data any) {
	if h.bus == nil {
		return
	}
	h.bus.Publish(eventType, data)
	metrics.SSEEventsPublishedTotal.Inc()
}
