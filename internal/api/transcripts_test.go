package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/snarg/yt-scribe/internal/backend"
	"github.com/snarg/yt-scribe/internal/events"
	"github.com/snarg/yt-scribe/internal/render"
)

type fakeProvider struct {
	name    string
	result  *backend.Result
	err     error
	gotID   string
	gotOpts backend.Options
}

func (f *fakeProvider) Fetch(ctx context.Context, videoID string, opts backend.Options) (*backend.Result, error) {
	f.gotID = videoID
	f.gotOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeProvider) Name() string { return f.name }

func postTranscribe(t *testing.T, h *TranscribeHandler, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcripts", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestTranscribeSuccess(t *testing.T) {
	fake := &fakeProvider{
		name: "captions",
		result: &backend.Result{
			Text:          "Hello [123.4s] world",
			Status:        backend.StatusCompleted,
			Service:       "captions",
			HasTimestamps: true,
		},
	}
	bus := events.NewBus(8)
	h := NewTranscribeHandler(map[string]backend.Provider{"captions": fake}, "captions", bus)

	w := postTranscribe(t, h, TranscribeRequest{
		URL:               "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		IncludeTimestamps: true,
		TimestampFormat:   "seconds",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	if fake.gotID != "dQw4w9WgXcQ" {
		t.Errorf("provider got video id %q", fake.gotID)
	}
	if !fake.gotOpts.IncludeTimestamps || fake.gotOpts.Format != backend.FormatSeconds {
		t.Errorf("provider opts = %+v", fake.gotOpts)
	}

	var resp TranscribeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.VideoURL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("VideoURL = %q", resp.VideoURL)
	}
	if len(resp.Display) != 3 {
		t.Fatalf("got %d display segments, want 3", len(resp.Display))
	}
	if resp.Display[1].Kind != render.KindLink || resp.Display[1].Label != "123s" {
		t.Errorf("display[1] = %+v", resp.Display[1])
	}

	// Success publishes a completion event.
	replayed := bus.ReplaySince("0")
	if len(replayed) != 1 || replayed[0].Type != events.TypeTranscriptCompleted {
		t.Errorf("bus events = %+v, want one transcript.completed", replayed)
	}
}

func TestTranscribeDefaultService(t *testing.T) {
	fake := &fakeProvider{name: "whisper", result: &backend.Result{Text: "x", Service: "whisper"}}
	h := NewTranscribeHandler(map[string]backend.Provider{"whisper": fake}, "whisper", events.NewBus(8))

	w := postTranscribe(t, h, TranscribeRequest{URL: "https://youtu.be/abc"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if fake.gotID != "abc" {
		t.Errorf("provider got video id %q, want abc", fake.gotID)
	}
}

func TestTranscribeValidation(t *testing.T) {
	h := NewTranscribeHandler(map[string]backend.Provider{}, "captions", events.NewBus(8))

	tests := []struct {
		name string
		req  TranscribeRequest
	}{
		{"invalid_url", TranscribeRequest{URL: "https://vimeo.com/123"}},
		{"empty_url", TranscribeRequest{}},
		{"unknown_service", TranscribeRequest{URL: "https://youtu.be/abc", Service: "gpt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postTranscribe(t, h, tt.req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestTranscribeErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"no_transcript", backend.ErrNoTranscript, http.StatusNotFound},
		{"timeout", backend.ErrTimeout, http.StatusGatewayTimeout},
		{"unavailable", backend.ErrUnavailable, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeProvider{name: "captions", err: tt.err}
			bus := events.NewBus(8)
			h := NewTranscribeHandler(map[string]backend.Provider{"captions": fake}, "captions", bus)

			w := postTranscribe(t, h, TranscribeRequest{URL: "https://youtu.be/abc"})
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			replayed := bus.ReplaySince("0")
			if len(replayed) != 1 || replayed[0].Type != events.TypeTranscriptFailed {
				t.Errorf("bus events = %+v, want one transcript.failed", replayed)
			}
		})
	}
}
