package memory

import (
	"context"
	"testing"
)

func TestCursorStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewCursorStore()

	if _, ok, _ := store.Cursor(ctx, "run-1"); ok {
		t.Fatalf("expected no cursor")
	}
	if err := store.SetCursor(ctx, "run-1", "node-2"); err != nil {
		t.Fatalf("set cursor: %v", err)
	}
	nodeID, ok, err := store.Cursor(ctx, "run-1")
	if err != nil || !ok || nodeID != "node-2" {
		t.Fatalf("expected node-2, got %q %v %v", nodeID, ok, err)
	}

	if err := store.ClearCursor(ctx, "run-1"); err != nil {
		t.Fatalf("clear cursor: %v", err)
	}
	if _, ok, _ := store.Cursor(ctx, "run-1"); ok {
		t.Fatalf("expected cursor removed")
	}
}
