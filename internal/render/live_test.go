package render_test

import (
	"testing"

	"github.com/goliatone/go-microsite/internal/content"
	"github.com/goliatone/go-microsite/internal/render"
)

func TestLiveStateClonesAndNotifies(t *testing.T) {
	doc := content.Document{"pages": []any{
		map[string]any{"id": "home", "hero": map[string]any{"title": "A"}},
		map[string]any{"id": "ganadores"},
	}}
	live := render.NewLiveState(doc)
	if live.PageID() != "home" {
		t.Fatalf("expected first page selected, got %q", live.PageID())
	}

	doc["pages"].([]any)[0].(map[string]any)["id"] = "mutated"
	if id := live.Current()["pages"].([]any)[0].(map[string]any)["id"]; id != "home" {
		t.Fatalf("seed document leaked into the live copy: %v", id)
	}

	var updates []render.Update
	cancel := live.Subscribe(func(u render.Update) { updates = append(updates, u) })

	if got := live.SelectPage("ganadores"); got != "ganadores" {
		t.Fatalf("expected ganadores, got %q", got)
	}
	if got := live.SelectPage("missing"); got != "home" {
		t.Fatalf("expected fallback to first page, got %q", got)
	}

	next := content.Document{"pages": []any{map[string]any{"id": "otra"}}}
	live.Publish(next)
	next["pages"] = nil
	if live.Version() != 1 || live.PageID() != "otra" {
		t.Fatalf("unexpected state after publish: v%d %q", live.Version(), live.PageID())
	}
	if pages, _ := live.Current()["pages"].([]any); len(pages) != 1 {
		t.Fatalf("publisher mutation reached the live copy")
	}

	current := live.Current()
	current["pages"] = nil
	if pages, _ := live.Current()["pages"].([]any); len(pages) != 1 {
		t.Fatalf("reader mutation reached the live copy")
	}

	if len(updates) != 3 || updates[2].Version != 1 || updates[2].PageID != "otra" {
		t.Fatalf("unexpected updates %#v", updates)
	}
	cancel()
	cancel()
	live.Publish(next)
	if len(updates) != 3 {
		t.Fatalf("cancelled subscriber still notified")
	}

	empty := render.NewLiveState(nil)
	if empty.PageID() != content.DefaultPageID {
		t.Fatalf("expected default page id, got %q", empty.PageID())
	}
}
