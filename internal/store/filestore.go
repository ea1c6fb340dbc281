package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// FileStore keeps the whole collection in one JSON file, rewriting it on
// every mutation. The mutex serializes the read-modify-write cycle across
// HTTP handlers; concurrent writers from other processes still race
// (last writer wins), which is accepted for the single-user setup.
type FileStore struct {
	path string
	mu   sync.Mutex
	log  zerolog.Logger
}

// NewFileStore creates a JSON-file store at path, creating the parent
// directory if needed.
func NewFileStore(path string, log zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	fs := &FileStore{path: path, log: log}
	// Validate an existing file up front so a corrupt store fails at
	// startup, not on the first save.
	if _, err := fs.read(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) Save(ctx context.Context, rec SavedTranscript) (SavedTranscript, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	recs, err := fs.read()
	if err != nil {
		return SavedTranscript{}, err
	}

	now := time.Now().UTC()
	rec.ID = newID()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	recs = append(recs, rec)
	if err := fs.write(recs); err != nil {
		return SavedTranscript{}, err
	}

	fs.log.Info().Str("id", rec.ID).Str("title", rec.VideoTitle).Msg("transcript saved")
	return rec, nil
}

func (fs *FileStore) List(ctx context.Context) ([]SavedTranscript, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	recs, err := fs.read()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	return recs, nil
}

func (fs *FileStore) Get(ctx context.Context, id string) (SavedTranscript, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	recs, err := fs.read()
	if err != nil {
		return SavedTranscript{}, err
	}
	for _, r := range recs {
		if r.ID == id {
			return r, nil
		}
	}
	return SavedTranscript{}, ErrNotFound
}

func (fs *FileStore) Delete(ctx context.Context, id string) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	recs, err := fs.read()
	if err != nil {
		return false, err
	}

	kept := recs[:0]
	found := false
	for _, r := range recs {
		if r.ID == id {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return false, nil
	}
	if err := fs.write(kept); err != nil {
		return false, err
	}

	fs.log.Info().Str("id", id).Msg("transcript deleted")
	return true, nil
}

func (fs *FileStore) Close() {}

// Path returns the backing file path.
func (fs *FileStore) Path() string { return fs.path }

func (fs *FileStore) read() ([]SavedTranscript, error) {
	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var recs []SavedTranscript
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode store %s: %w", fs.path, err)
	}
	return recs, nil
}

// write replaces the whole collection atomically: temp file + rename.
func (fs *FileStore) write(recs []SavedTranscript) error {
	if recs == nil {
		recs = []SavedTranscript{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	dir := filepath.Dir(fs.path)
	tmp, err := os.CreateTemp(dir, ".store-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpPath, fs.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Watch reports external modifications of the backing file until ctx ends.
// Rapid write bursts are debounced so an editor save triggers one callback,
// not five. The store's own writes also fire; callers treat the callback as
// a cheap "refresh your view" hint, so that is harmless.
func (fs *FileStore) Watch(ctx context.Context, debounce time.Duration, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: rename-based atomic writes replace the file
	// inode, which a file-level watch would lose.
	if err := w.Add(filepath.Dir(fs.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(fs.path), err)
	}

	go func() {
		defer w.Close()
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(fs.path) {
					continue
				}
				if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, onChange)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				fs.log.Warn().Err(err).Msg("store watcher error")
			}
		}
	}()

	fs.log.Info().Str("path", fs.path).Msg("store file watcher started")
	return nil
}
