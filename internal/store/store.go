// Package store persists saved transcripts. Two drivers implement the same
// gateway: a single-JSON-file store for the default single-user setup and a
// Postgres store for anything bigger.
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("saved transcript not found")

// SavedTranscript is one persisted transcript. Records are created on an
// explicit save and immutable until deleted.
type SavedTranscript struct {
	ID            string    `json:"id"`
	VideoTitle    string    `json:"video_title"`
	VideoURL      string    `json:"video_url"`
	Text          string    `json:"text"`
	AudioDuration *float64  `json:"audio_duration,omitempty"`
	ServiceUsed   string    `json:"service_used,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Store is the persistence gateway for saved transcripts.
type Store interface {
	// Save assigns an id and timestamps and persists the record.
	Save(ctx context.Context, rec SavedTranscript) (SavedTranscript, error)
	// List returns all records, most recently created first.
	List(ctx context.Context) ([]SavedTranscript, error)
	// Get returns the record with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (SavedTranscript, error)
	// Delete removes the record. Returns false when the id doesn't exist;
	// the remaining collection is untouched either way.
	Delete(ctx context.Context, id string) (bool, error)
	Close()
}

// newID returns a random 16-hex-char record id.
func newID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
