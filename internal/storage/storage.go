package storage

import (
	"context"
	"io"
)

// Store is the object storage backend behind the file drive.
// All operations stream through io.Reader/io.Writer so large uploads never
// have to fit in memory.
type Store interface {
	// Put stores an object under key. size is the number of bytes that will
	// be read from r. Storing the same key twice overwrites.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Get retrieves the object under key and writes it to w.
	Get(ctx context.Context, key string, w io.Writer) error

	// Delete removes the object under key. Deleting a missing key is not an
	// error; callers treat deletion as best-effort.
	Delete(ctx context.Context, key string) error

	// URL returns a public URL for the object, or "" when the backend has no
	// directly addressable URLs and the object must be served by the app.
	URL(key string) string

	// Validate verifies that the backend is accessible and properly configured.
	Validate(ctx context.Context) error
}
