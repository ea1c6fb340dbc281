package api

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/snarg/yt-scribe/internal/events"
)

// SSEHandler streams bus events to the browser. On reconnect the client's
// Last-Event-ID replays anything still in the ring buffer.
type SSEHandler struct {
	bus *events.Bus
}

func NewSSEHandler(bus *events.Bus) *SSEHandler {
	return &SSEHandler{bus: bus}
}

func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Middleware wraps the ResponseWriter, so a plain type assertion on
	// http.Flusher misses the real flusher. ResponseController follows the
	// Unwrap chain. The first Flush commits the 200 and the headers above;
	// if it fails nothing has been written yet and a JSON error still works.
	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		w.Header().Del("Content-Type")
		w.Header().Del("Cache-Control")
		w.Header().Del("Connection")
		WriteError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ch, cancel := h.bus.Subscribe()
	defer cancel()

	lastID := r.Header.Get("Last-Event-ID")
	if lastID == "" {
		lastID = r.URL.Query().Get("last_event_id")
	}
	for _, e := range h.bus.ReplaySince(lastID) {
		writeSSE(w, e)
	}
	if err := rc.Flush(); err != nil {
		return
	}

	hlog.FromRequest(r).Debug().Str("last_event_id", lastID).Msg("sse client connected")

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			writeSSE(w, e)
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, e events.Event) {
	fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", e.ID, e.Type, eventData(e))
}

func eventData(e events.Event) string {
	if len(e.Data) == 0 {
		return "{}"
	}
	return string(e.Data)
}
