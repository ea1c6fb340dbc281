package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "transcripts.json"), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return fs
}

func mustSave(t *testing.T, fs *FileStore, title string) SavedTranscript {
	t.Helper()
	rec, err := fs.Save(context.Background(), SavedTranscript{
		VideoTitle: title,
		VideoURL:   "https://www.youtube.com/watch?v=abc",
		Text:       "some text",
	})
	if err != nil {
		t.Fatalf("Save(%q): %v", title, err)
	}
	return rec
}

func TestSaveAssignsIDAndTimestamps(t *testing.T) {
	fs := newTestStore(t)
	rec := mustSave(t, fs, "first")

	if rec.ID == "" {
		t.Error("Save did not assign an id")
	}
	if rec.CreatedAt.IsZero() || rec.UpdatedAt.IsZero() {
		t.Error("Save did not assign timestamps")
	}
}

func TestListNewestFirst(t *testing.T) {
	fs := newTestStore(t)
	a := mustSave(t, fs, "a")
	time.Sleep(5 * time.Millisecond)
	b := mustSave(t, fs, "b")
	time.Sleep(5 * time.Millisecond)
	c := mustSave(t, fs, "c")

	recs, err := fs.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	wantOrder := []string{c.ID, b.ID, a.ID}
	for i, want := range wantOrder {
		if recs[i].ID != want {
			t.Errorf("recs[%d].ID = %s, want %s", i, recs[i].ID, want)
		}
	}
}

func TestGet(t *testing.T) {
	fs := newTestStore(t)
	saved := mustSave(t, fs, "wanted")

	got, err := fs.Get(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.VideoTitle != "wanted" {
		t.Errorf("VideoTitle = %q, want wanted", got.VideoTitle)
	}

	if _, err := fs.Get(context.Background(), "nope"); err != ErrNotFound {
		t.Errorf("Get(nope) error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	fs := newTestStore(t)
	keep := mustSave(t, fs, "keep")
	drop := mustSave(t, fs, "drop")

	ok, err := fs.Delete(context.Background(), drop.ID)
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v; want true, nil", ok, err)
	}

	recs, _ := fs.List(context.Background())
	if len(recs) != 1 || recs[0].ID != keep.ID {
		t.Errorf("after delete, records = %+v, want only %s", recs, keep.ID)
	}
}

func TestDeleteMissingLeavesCollectionUntouched(t *testing.T) {
	fs := newTestStore(t)
	mustSave(t, fs, "only")

	ok, err := fs.Delete(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok {
		t.Error("Delete(missing) = true, want false")
	}

	recs, _ := fs.List(context.Background())
	if len(recs) != 1 {
		t.Errorf("got %d records after no-op delete, want 1", len(recs))
	}
}

func TestSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transcripts.json")

	fs1, err := NewFileStore(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	saved := mustSave(t, fs1, "durable")
	fs1.Close()

	fs2, err := NewFileStore(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := fs2.Get(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.VideoTitle != "durable" {
		t.Errorf("VideoTitle = %q, want durable", got.VideoTitle)
	}
}

func TestCorruptFileFailsAtOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transcripts.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path, zerolog.Nop()); err == nil {
		t.Error("NewFileStore accepted a corrupt file")
	}
}

func TestWatchFiresOnExternalWrite(t *testing.T) {
	fs := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := make(chan struct{}, 1)
	if err := fs.Watch(ctx, 20*time.Millisecond, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	// Simulate an external editor rewriting the file.
	if err := os.WriteFile(fs.Path(), []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not fire within 2s")
	}
}
