package testsupport

import (
	"context"
	"testing"

	"clipforge/internal/config"
	"clipforge/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewClip creates a pending clip for tests using the provided store.
func NewClip(t testing.TB, store *queue.Store, title string, sourceType queue.SourceType, sourceURL string) *queue.Clip {
	t.Helper()

	clip, err := store.NewClip(context.Background(), title, sourceType, sourceURL)
	if err != nil {
		t.Fatalf("store.NewClip: %v", err)
	}
	return clip
}
