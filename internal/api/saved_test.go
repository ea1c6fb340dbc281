package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/snarg/yt-scribe/internal/events"
	"github.com/snarg/yt-scribe/internal/store"
)

func newSavedRouter(t *testing.T) (*chi.Mux, store.Store, *events.Bus) {
	t.Helper()
	fs, err := store.NewFileStore(filepath.Join(t.TempDir(), "transcripts.json"), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	bus := events.NewBus(8)
	h := NewSavedHandler(fs, nil, bus, zerolog.Nop())

	r := chi.NewRouter()
	r.Get("/api/v1/saved", h.List)
	r.Post("/api/v1/saved", h.Create)
	r.Get("/api/v1/saved/{id}", h.Get)
	r.Delete("/api/v1/saved/{id}", h.Delete)
	return r, fs, bus
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validSave(title string) SaveRequest {
	return SaveRequest{
		VideoTitle: title,
		VideoURL:   "https://www.youtube.com/watch?v=abc",
		Text:       "saved text",
	}
}

func TestSavedCreateAndList(t *testing.T) {
	r, _, bus := newSavedRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/saved", validSave("first"))
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	var created store.SavedTranscript
	json.Unmarshal(w.Body.Bytes(), &created)
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Errorf("created record missing id/timestamps: %+v", created)
	}

	doJSON(t, r, http.MethodPost, "/api/v1/saved", validSave("second"))

	w = doJSON(t, r, http.MethodGet, "/api/v1/saved", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var recs []store.SavedTranscript
	json.Unmarshal(w.Body.Bytes(), &recs)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].VideoTitle != "second" {
		t.Errorf("newest record first: got %q, want second", recs[0].VideoTitle)
	}

	// Both saves published events.
	replayed := bus.ReplaySince("0")
	if len(replayed) != 2 {
		t.Errorf("got %d bus events, want 2", len(replayed))
	}
	for _, e := range replayed {
		if e.Type != events.TypeSavedCreated {
			t.Errorf("event type = %q, want saved.created", e.Type)
		}
	}
}

func TestSavedCreateValidation(t *testing.T) {
	r, _, _ := newSavedRouter(t)

	tests := []struct {
		name string
		req  SaveRequest
	}{
		{"empty_text", SaveRequest{VideoURL: "https://youtu.be/abc", Text: "   "}},
		{"bad_url", SaveRequest{VideoURL: "https://vimeo.com/1", Text: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/v1/saved", tt.req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestSavedGet(t *testing.T) {
	r, st, _ := newSavedRouter(t)
	rec, _ := st.Save(context.Background(), store.SavedTranscript{
		VideoTitle: "t", VideoURL: "https://youtu.be/abc", Text: "x",
	})

	w := doJSON(t, r, http.MethodGet, "/api/v1/saved/"+rec.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/saved/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSavedDelete(t *testing.T) {
	r, st, bus := newSavedRouter(t)
	rec, _ := st.Save(context.Background(), store.SavedTranscript{
		VideoTitle: "t", VideoURL: "https://youtu.be/abc", Text: "x",
	})

	w := doJSON(t, r, http.MethodDelete, "/api/v1/saved/"+rec.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodDelete, "/api/v1/saved/"+rec.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}

	replayed := bus.ReplaySince("0")
	if len(replayed) != 1 || replayed[0].Type != events.TypeSavedDeleted {
		t.Errorf("bus events = %+v, want one saved.deleted", replayed)
	}
}
