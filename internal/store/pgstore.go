package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS saved_transcripts (
	id             TEXT PRIMARY KEY,
	video_title    TEXT NOT NULL,
	video_url      TEXT NOT NULL,
	text           TEXT NOT NULL,
	audio_duration DOUBLE PRECISION,
	service_used   TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_saved_transcripts_created_at
	ON saved_transcripts (created_at DESC);
`

// PGStore is the Postgres-backed gateway, for setups where the JSON file
// store's last-writer-wins behavior is not acceptable.
type PGStore struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewPGStore connects to Postgres and ensures the schema exists.
func NewPGStore(ctx context.Context, databaseURL string, log zerolog.Logger) (*PGStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	log.Info().Msg("postgres store connected")
	return &PGStore{pool: pool, log: log}, nil
}

func (ps *PGStore) Save(ctx context.Context, rec SavedTranscript) (SavedTranscript, error) {
	rec.ID = newID()
	row := ps.pool.QueryRow(ctx, `
		INSERT INTO saved_transcripts (id, video_title, video_url, text, audio_duration, service_used)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		rec.ID, rec.VideoTitle, rec.VideoURL, rec.Text, rec.AudioDuration, rec.ServiceUsed)
	if err := row.Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return SavedTranscript{}, fmt.Errorf("insert transcript: %w", err)
	}
	ps.log.Info().Str("id", rec.ID).Str("title", rec.VideoTitle).Msg("transcript saved")
	return rec, nil
}

func (ps *PGStore) List(ctx context.Context) ([]SavedTranscript, error) {
	rows, err := ps.pool.Query(ctx, `
		SELECT id, video_title, video_url, text, audio_duration, service_used, created_at, updated_at
		FROM saved_transcripts
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	defer rows.Close()

	var recs []SavedTranscript
	for rows.Next() {
		var r SavedTranscript
		if err := rows.Scan(&r.ID, &r.VideoTitle, &r.VideoURL, &r.Text,
			&r.AudioDuration, &r.ServiceUsed, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan transcript: %w", err)
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func (ps *PGStore) Get(ctx context.Context, id string) (SavedTranscript, error) {
	var r SavedTranscript
	err := ps.pool.QueryRow(ctx, `
		SELECT id, video_title, video_url, text, audio_duration, service_used, created_at, updated_at
		FROM saved_transcripts WHERE id = $1`, id).
		Scan(&r.ID, &r.VideoTitle, &r.VideoURL, &r.Text,
			&r.AudioDuration, &r.ServiceUsed, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return SavedTranscript{}, ErrNotFound
	}
	if err != nil {
		return SavedTranscript{}, fmt.Errorf("get transcript: %w", err)
	}
	return r, nil
}

func (ps *PGStore) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := ps.pool.Exec(ctx, `DELETE FROM saved_transcripts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete transcript: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	ps.log.Info().Str("id", id).Msg("transcript deleted")
	return true, nil
}

func (ps *PGStore) Close() {
	ps.pool.Close()
}

// HealthCheck pings the pool with a short deadline.
func (ps *PGStore) HealthCheck(ctx context.Context) error {
	return ps.pool.Ping(ctx)
}
