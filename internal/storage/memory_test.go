package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-microsite/internal/content"
)

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	var notFound *content.NotFoundError
	if _, err := store.Load(ctx); !errors.As(err, &notFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Save(ctx, nil); !errors.Is(err, ErrDocumentRequired) {
		t.Fatalf("expected ErrDocumentRequired, got %v", err)
	}

	doc := content.Document{"meta": map[string]any{"title": "Rifas"}}
	if err := store.Save(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	doc["meta"].(map[string]any)["title"] = "changed"

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded["meta"].(map[string]any)["title"] != "Rifas" {
		t.Fatalf("store shares memory with the caller")
	}
	loaded["meta"] = nil
	again, _ := store.Load(ctx)
	if again["meta"] == nil {
		t.Fatalf("store shares memory with readers")
	}
}
