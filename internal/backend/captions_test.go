package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCaptionsFetch(t *testing.T) {
	var gotReq captionsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(captionsResponse{
			Text:              "Hello [1.5s] world",
			TimestampsApplied: true,
			VideoTitle:        "Test Video",
			Segments: []captionsSegment{
				{Text: "Hello", Start: 1.5, Duration: 2, Timestamp: "00:01"},
				{Text: "world", Start: 3.5, Duration: 2.5, Timestamp: "00:03"},
			},
		})
	}))
	defer srv.Close()

	cc := NewCaptionsClient(srv.URL, 5*time.Second)
	res, err := cc.Fetch(context.Background(), "abc123", Options{
		IncludeTimestamps: true,
		Format:            FormatSeconds,
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if gotReq.VideoID != "abc123" {
		t.Errorf("request video_id = %q, want abc123", gotReq.VideoID)
	}
	if !gotReq.IncludeTimestamps || gotReq.TimestampFormat != "seconds" {
		t.Errorf("request timestamps = %v/%q, want true/seconds", gotReq.IncludeTimestamps, gotReq.TimestampFormat)
	}

	if res.Text != "Hello [1.5s] world" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Status != StatusCompleted {
		t.Errorf("Status = %s, want completed", res.Status)
	}
	if !res.HasTimestamps {
		t.Error("HasTimestamps = false, want true")
	}
	if res.Title != "Test Video" {
		t.Errorf("Title = %q", res.Title)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(res.Segments))
	}
	// End synthesized from start+duration when the service omits it.
	if res.Segments[0].End != 3.5 {
		t.Errorf("segment 0 End = %v, want 3.5", res.Segments[0].End)
	}
	// Duration derived from the last segment's extent.
	if res.Duration != 6 {
		t.Errorf("Duration = %v, want 6", res.Duration)
	}
}

func TestCaptionsFormatOmittedWithoutTimestamps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req captionsRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.TimestampFormat != "" {
			t.Errorf("timestamp_format = %q, want empty when timestamps disabled", req.TimestampFormat)
		}
		json.NewEncoder(w).Encode(captionsResponse{Text: "plain text"})
	}))
	defer srv.Close()

	cc := NewCaptionsClient(srv.URL, 5*time.Second)
	res, err := cc.Fetch(context.Background(), "abc", Options{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.HasTimestamps {
		t.Error("HasTimestamps = true, want false")
	}
	if res.Segments != nil {
		t.Errorf("Segments = %v, want nil", res.Segments)
	}
}

func TestCaptionsErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"server_error", http.StatusInternalServerError, ErrUnavailable},
		{"bad_gateway", http.StatusBadGateway, ErrUnavailable},
		{"rate_limited", http.StatusTooManyRequests, ErrUnavailable},
		{"not_found", http.StatusNotFound, ErrNoTranscript},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			cc := NewCaptionsClient(srv.URL, 5*time.Second)
			_, err := cc.Fetch(context.Background(), "abc", Options{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Fetch error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCaptionsConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	cc := NewCaptionsClient(srv.URL, 2*time.Second)
	_, err := cc.Fetch(context.Background(), "abc", Options{})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Fetch error = %v, want ErrUnavailable", err)
	}
}

func TestCaptionsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	cc := NewCaptionsClient(srv.URL, 50*time.Millisecond)
	_, err := cc.Fetch(context.Background(), "abc", Options{})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Fetch error = %v, want ErrTimeout", err)
	}
}

func TestCaptionsEmptyTextIsNoTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(captionsResponse{Text: "   \n  "})
	}))
	defer srv.Close()

	cc := NewCaptionsClient(srv.URL, 5*time.Second)
	_, err := cc.Fetch(context.Background(), "abc", Options{})
	if !errors.Is(err, ErrNoTranscript) {
		t.Errorf("Fetch error = %v, want ErrNoTranscript", err)
	}
}
