package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileSystemStore is a filesystem-based implementation of the Store
// interface. Objects are stored as flat files under <root>/objects.
type FileSystemStore struct {
	root       string
	objectsDir string
}

// NewFileSystemStore creates a filesystem store rooted at the given path.
func NewFileSystemStore(root string) (*FileSystemStore, error) {
	objectsDir := filepath.Join(root, "objects")

	if err := os.MkdirAll(objectsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create objects directory: %w", err)
	}

	return &FileSystemStore{
		root:       root,
		objectsDir: objectsDir,
	}, nil
}

// Put stores an object under key, writing through a temp file so a partial
// write never leaves a truncated object behind.
func (s *FileSystemStore) Put(_ context.Context, key string, r io.Reader, size int64, _ string) error {
	destPath := filepath.Join(s.objectsDir, key)

	tmpFile, err := os.CreateTemp(s.objectsDir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	written, err := io.Copy(tmpFile, r)
	if closeErr := tmpFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write object: %w", err)
	}
	if written != size {
		os.Remove(tmpPath)
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move object into place: %w", err)
	}

	return nil
}

// Get retrieves an object by key and writes it to w.
func (s *FileSystemStore) Get(_ context.Context, key string, w io.Writer) error {
	srcPath := filepath.Join(s.objectsDir, key)

	f, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("object not found: %s", key)
		}
		return fmt.Errorf("failed to open object: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}

	return nil
}

// Delete removes an object. Missing keys are ignored.
func (s *FileSystemStore) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(s.objectsDir, key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// URL returns ""; filesystem objects are served by the app.
func (s *FileSystemStore) URL(_ string) string {
	return ""
}

// Validate verifies the objects directory is writable.
func (s *FileSystemStore) Validate(_ context.Context) error {
	probe, err := os.CreateTemp(s.objectsDir, ".probe-*")
	if err != nil {
		return fmt.Errorf("objects directory not writable: %w", err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}
