package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("stream broke")
}

func TestPut(t *testing.T) {
	store, err := New(t.TempDir(), "http://localhost:8080/blobs/")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	url, err := store.Put(context.Background(), "user-1/123-photo.png", strings.NewReader("bytes"))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if url != "http://localhost:8080/blobs/user-1/123-photo.png" {
		t.Errorf("unexpected url %q", url)
	}
}

func TestPutWritesBytes(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, "http://blobs")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.Put(context.Background(), "a/b.txt", strings.NewReader("hello")); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "a", "b.txt"))
	if err != nil {
		t.Fatalf("blob not written: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("blob content = %q, want hello", data)
	}
}

// A reader that fails mid-copy leaves no partial blob behind, and the
// file handle is released exactly once on either path.
func TestPutRemovesPartialOnCopyError(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, "http://blobs")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.Put(context.Background(), "a/part.bin", failingReader{}); err == nil {
		t.Fatal("expected copy error")
	}
	if _, err := os.Stat(filepath.Join(dir, "a", "part.bin")); !os.IsNotExist(err) {
		t.Error("partial blob left behind")
	}
}

func TestPutConfinesPathToRoot(t *testing.T) {
	dir := t.TempDir()
	store, err := New(filepath.Join(dir, "root"), "http://blobs")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.Put(context.Background(), "../escape.txt", strings.NewReader("x")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.txt")); err == nil {
		t.Error("path traversal escaped the blob root")
	}
}
