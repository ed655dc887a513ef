package storage

import (
	"context"
	"testing"

	"github.com/goliatone/go-microsite/internal/content"
)

func TestSnapshotterRun(t *testing.T) {
	ctx := context.Background()
	revisions := NewRevisionStore(newRevisionDB(t))
	if err := revisions.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	source := NewMemoryStore(sampleDocument())

	snap, err := NewSnapshotter(source, revisions, "@every 1h")
	if err != nil {
		t.Fatalf("new snapshotter: %v", err)
	}
	rev, err := snap.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rev.Version != 1 || snap.Runs() != 1 {
		t.Fatalf("unexpected snapshot %d runs=%d", rev.Version, snap.Runs())
	}
	if _, err := snap.Run(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if list, _ := revisions.List(ctx, 0); len(list) != 1 {
		t.Fatalf("unchanged source should not add revisions, got %d", len(list))
	}

	if err := source.Save(ctx, content.Document{"meta": map[string]any{"title": "x"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if rev, _ := snap.Run(ctx); rev.Version != 2 {
		t.Fatalf("expected a new revision after the source changed")
	}

	if err := snap.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	snap.Stop()
	snap.Stop()
}

func TestSnapshotterRejectsBadSchedule(t *testing.T) {
	if _, err := NewSnapshotter(NewMemoryStore(nil), NewRevisionStore(newRevisionDB(t)), "every minute"); err == nil {
		t.Fatalf("expected schedule error")
	}
	if _, err := NewSnapshotter(nil, nil, "@hourly"); err == nil {
		t.Fatalf("expected error for missing stores")
	}
}
