package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileSystemStoreRoundTrip(t *testing.T) {
	store, err := NewFileSystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemStore failed: %v", err)
	}
	ctx := context.Background()

	content := "persistent bytes"
	if err := store.Put(ctx, "doc.bin", strings.NewReader(content), int64(len(content)), "application/octet-stream"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var out bytes.Buffer
	if err := store.Get(ctx, "doc.bin", &out); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if out.String() != content {
		t.Errorf("Get returned %q, want %q", out.String(), content)
	}

	if err := store.Delete(ctx, "doc.bin"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Get(ctx, "doc.bin", &out); err == nil {
		t.Error("Get after Delete should fail")
	}
	if err := store.Delete(ctx, "doc.bin"); err != nil {
		t.Errorf("Delete of missing key should be a no-op, got %v", err)
	}
}

func TestFileSystemStoreSizeMismatchLeavesNothing(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileSystemStore(root)
	if err != nil {
		t.Fatalf("NewFileSystemStore failed: %v", err)
	}

	if err := store.Put(context.Background(), "bad.bin", strings.NewReader("tiny"), 9999, ""); err == nil {
		t.Fatal("Put with wrong size should fail")
	}

	entries, err := os.ReadDir(filepath.Join(root, "objects"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("failed Put should leave no files, found %d", len(entries))
	}
}

func TestFileSystemStoreValidate(t *testing.T) {
	store, err := NewFileSystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemStore failed: %v", err)
	}
	if err := store.Validate(context.Background()); err != nil {
		t.Errorf("Validate on a writable directory should succeed, got %v", err)
	}
}

func TestFileSystemStoreCreatesObjectsDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "drive")
	if _, err := NewFileSystemStore(root); err != nil {
		t.Fatalf("NewFileSystemStore failed: %v", err)
	}
	info, err := os.Stat(filepath.Join(root, "objects"))
	if err != nil || !info.IsDir() {
		t.Errorf("objects directory should exist, err %v", err)
	}
}
