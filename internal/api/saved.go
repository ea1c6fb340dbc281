package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/snarg/yt-scribe/internal/archive"
	"github.com/snarg/yt-scribe/internal/events"
	"github.com/snarg/yt-scribe/internal/metrics"
	"github.com/snarg/yt-scribe/internal/store"
	"github.com/snarg/yt-scribe/internal/video"
)

// SavedHandler exposes the persistence gateway: save, list, get, delete.
type SavedHandler struct {
	store    store.Store
	archiver *archive.Archiver // nil when archival is not configured
	bus      *events.Bus
	log      zerolog.Logger
}

func NewSavedHandler(st store.Store, archiver *archive.Archiver, bus *events.Bus, log zerolog.Logger) *SavedHandler {
	return &SavedHandler{store: st, archiver: archiver, bus: bus, log: log}
}

// SaveRequest is the POST /api/v1/saved body.
type SaveRequest struct {
	VideoTitle    string   `json:"video_title"`
	VideoURL      string   `json:"video_url"`
	Text          string   `json:"text"`
	AudioDuration *float64 `json:"audio_duration,omitempty"`
	ServiceUsed   string   `json:"service_used,omitempty"`
}

func (h *SavedHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		WriteError(w, http.StatusBadRequest, "text is required")
		return
	}
	if _, err := video.ParseID(req.VideoURL); err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid youtube url", err.Error())
		return
	}

	rec, err := h.store.Save(r.Context(), store.SavedTranscript{
		VideoTitle:    req.VideoTitle,
		VideoURL:      req.VideoURL,
		Text:          req.Text,
		AudioDuration: req.AudioDuration,
		ServiceUsed:   req.ServiceUsed,
	})
	if err != nil {
		metrics.StoreOperationsTotal.WithLabelValues("save", "error").Inc()
		hlog.FromRequest(r).Error().Err(err).Msg("save transcript")
		WriteError(w, http.StatusInternalServerError, "failed to save transcript")
		return
	}
	metrics.StoreOperationsTotal.WithLabelValues("save", "ok").Inc()

	h.publish(events.TypeSavedCreated, map[string]string{"id": rec.ID, "title": rec.VideoTitle})
	h.archiveAsync(rec)

	WriteJSON(w, http.StatusCreated, rec)
}

func (h *SavedHandler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.store.List(r.Context())
	if err != nil {
		metrics.StoreOperationsTotal.WithLabelValues("list", "error").Inc()
		hlog.FromRequest(r).Error().Err(err).Msg("list transcripts")
		WriteError(w, http.StatusInternalServerError, "failed to list transcripts")
		return
	}
	metrics.StoreOperationsTotal.WithLabelValues("list", "ok").Inc()
	if recs == nil {
		recs = []store.SavedTranscript{}
	}
	WriteJSON(w, http.StatusOK, recs)
}

func (h *SavedHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "transcript not found")
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("id", id).Msg("get transcript")
		WriteError(w, http.StatusInternalServerError, "failed to load transcript")
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}

func (h *SavedHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := h.store.Delete(r.Context(), id)
	if err != nil {
		metrics.StoreOperationsTotal.WithLabelValues("delete", "error").Inc()
		hlog.FromRequest(r).Error().Err(err).Str("id", id).Msg("delete transcript")
		WriteError(w, http.StatusInternalServerError, "failed to delete transcript")
		return
	}
	if !ok {
		metrics.StoreOperationsTotal.WithLabelValues("delete", "not_found").Inc()
		WriteError(w, http.StatusNotFound, "transcript not found")
		return
	}
	metrics.StoreOperationsTotal.WithLabelValues("delete", "ok").Inc()

	h.publish(events.TypeSavedDeleted, map[string]string{"id": id})
	if h.archiver != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := h.archiver.Delete(ctx, id); err != nil {
				h.log.Warn().Err(err).Str("id", id).Msg("archive delete failed")
			}
		}()
	}

	w.WriteHeader(http.StatusNoContent)
}

// archiveAsync uploads the record to S3 off the request path. Archival is a
// secondary copy; failures never surface to the user.
func (h *SavedHandler) archiveAsync(rec store.SavedTranscript) {
	if h.archiver == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.archiver.Upload(ctx, rec); err != nil {
			h.log.Warn().Err(err).Str("id", rec.ID).Msg("archive upload failed")
		}
	}()
}

func (h *SavedHandler) publish(eventType string, data any) {
	if h.bus == nil {
		return
	}
	h.bus.Publish(eventType, data)
	metrics.SSEEventsPublishedTotal.Inc()
}
