// Package local is a disk-backed blob store. Files land under a root
// directory and are served back by the HTTP layer's static route, so
// Put returns a URL the client can fetch directly.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type Store struct {
	root    string
	baseURL string
}

func New(root, baseURL string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Store{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *Store) Put(ctx context.Context, path string, r io.Reader) (string, error) {
	clean := filepath.Clean("/" + path)
	dst := filepath.Join(s.root, clean)

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		// Drop the partial file; a half-written blob must not get a URL.
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("close blob: %w", err)
	}

	return s.baseURL + filepath.ToSlash(clean), nil
}
