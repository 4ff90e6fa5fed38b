package testsupport

import (
	"context"
	"testing"

	"storyreel/internal/config"
	"storyreel/internal/document"
)

// MustOpenStore opens a document.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *document.Store {
	t.Helper()

	store, err := document.Open(cfg)
	if err != nil {
		t.Fatalf("document.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewStory creates a fresh canonical document for tests.
func NewStory(t testing.TB, store *document.Store, storyID, title string) *document.Document {
	t.Helper()

	doc, err := store.CreateInitial(context.Background(), storyID, map[string]any{
		document.FieldTitle: title,
	})
	if err != nil {
		t.Fatalf("store.CreateInitial: %v", err)
	}
	return doc
}
