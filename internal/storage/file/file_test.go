package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"depenses/internal/storage"
)

var _ storage.KeyValueStore = (*Store)(nil)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	s, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, found, err := s.Get(ctx, "depenses-data"); found || err != nil {
		t.Fatalf("expected absent, found=%v err=%v", found, err)
	}
	if err := s.Put(ctx, "depenses-data", []byte(`{"x":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, found, err := s.Get(ctx, "depenses-data")
	if err != nil || !found || string(got) != `{"x":1}` {
		t.Fatalf("get = %q found=%v err=%v", got, found, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "depenses-data.json")); err != nil {
		t.Fatalf("expected backing file: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestSanitizeKey(t *testing.T) {
	if got := sanitizeKey("../etc/passwd"); got != "___etc_passwd" {
		t.Fatalf("sanitizeKey = %q", got)
	}
}
