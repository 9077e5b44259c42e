package storage

import (
	"context"
	"io"
)

// Store is the blob-storage boundary: write bytes under a path, get
// back a public URL. Paths are namespaced by the caller (sender id plus
// a collision-resistant suffix) so concurrent uploads never overwrite.
type Store interface {
	Put(ctx context.Context, path string, r io.Reader) (string, error)
}
