package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		iso  string
		want float64
	}{
		{"PT4M13S", 253},
		{"PT1H2M3S", 3723},
		{"PT45S", 45},
		{"PT2H", 7200},
		{"PT0S", 0},
		{"4m13s", 0},
		{"garbage", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := parseISODuration(tt.iso); got != tt.want {
			t.Errorf("parseISODuration(%q) = %v, want %v", tt.iso, got, tt.want)
		}
	}
}

func TestMetadataFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("v"); got != "abc" {
			t.Errorf("v = %q, want abc", got)
		}
		fmt.Fprint(w, `<html><head>
			<title>Fallback - YouTube</title>
			<meta property="og:title" content="Proper Title">
			<meta itemprop="duration" content="PT1H2M3S">
		</head></html>`)
	}))
	defer srv.Close()

	mf := NewMetadataFetcher(srv.URL, 5*time.Second)
	title, duration, err := mf.Fetch(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if title != "Proper Title" {
		t.Errorf("title = %q, want Proper Title", title)
	}
	if duration != 3723 {
		t.Errorf("duration = %v, want 3723", duration)
	}
}

func TestMetadataFetchTitleTagFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Only Title Tag</title></head></html>`)
	}))
	defer srv.Close()

	mf := NewMetadataFetcher(srv.URL, 5*time.Second)
	title, duration, err := mf.Fetch(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if title != "Only Title Tag" {
		t.Errorf("title = %q, want Only Title Tag", title)
	}
	if duration != 0 {
		t.Errorf("duration = %v, want 0", duration)
	}
}

func TestMetadataFetchNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	mf := NewMetadataFetcher(srv.URL, 5*time.Second)
	if _, _, err := mf.Fetch(context.Background(), "abc"); err == nil {
		t.Error("Fetch returned nil error for 429")
	}
}
