package storage

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	content := "hello world"
	if err := store.Put(ctx, "a.txt", strings.NewReader(content), int64(len(content)), "text/plain"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("Len = %d, want 1", store.Len())
	}

	var out bytes.Buffer
	if err := store.Get(ctx, "a.txt", &out); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if out.String() != content {
		t.Errorf("Get returned %q, want %q", out.String(), content)
	}

	if err := store.Delete(ctx, "a.txt"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Get(ctx, "a.txt", &out); err == nil {
		t.Error("Get after Delete should fail")
	}
	// Deleting a missing key is not an error.
	if err := store.Delete(ctx, "a.txt"); err != nil {
		t.Errorf("Delete of missing key should be a no-op, got %v", err)
	}
}

func TestMemoryStoreSizeMismatch(t *testing.T) {
	store := NewMemoryStore()

	err := store.Put(context.Background(), "b.txt", strings.NewReader("short"), 100, "text/plain")
	if err == nil {
		t.Fatal("Put with wrong size should fail")
	}
	if store.Len() != 0 {
		t.Errorf("failed Put should store nothing, Len = %d", store.Len())
	}
}

func TestMemoryStoreServesThroughApp(t *testing.T) {
	store := NewMemoryStore()
	if url := store.URL("anything"); url != "" {
		t.Errorf("memory store URL should be empty, got %q", url)
	}
	if err := store.Validate(context.Background()); err != nil {
		t.Errorf("Validate should always succeed, got %v", err)
	}
}
