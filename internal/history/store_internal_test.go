package history

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func TestPruneRemovesFailuresOnAnyConnection(t *testing.T) {
	store, err := OpenPath(filepath.Join(t.TempDir(), DatabaseFileName))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "new"} {
		start := base.Add(time.Duration(i) * time.Hour)
		if err := store.Record(ctx, Run{
			ID: id, Kind: KindDirectory, Root: "/r", Status: StatusPartial,
			StartedAt: start, FinishedAt: start,
			Failures: []Failure{{Kind: "destination_exists", Severity: "error", Message: "taken"}},
		}); err != nil {
			t.Fatalf("Record %s: %v", id, err)
		}
	}

	// Keep one connection checked out so Prune runs on another one.
	held, err := store.db.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	defer held.Close()

	removed, err := store.Prune(ctx, 1)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	var orphans int
	if err := held.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM run_failures f WHERE NOT EXISTS (SELECT 1 FROM runs r WHERE r.id = f.run_id)",
	).Scan(&orphans); err != nil {
		t.Fatalf("count orphans: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("orphaned failure rows = %d, want 0", orphans)
	}
}

func TestEveryConnectionEnforcesForeignKeys(t *testing.T) {
	store, err := OpenPath(filepath.Join(t.TempDir(), DatabaseFileName))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	first, err := store.db.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	defer first.Close()
	second, err := store.db.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	defer second.Close()

	for i, conn := range []*sql.Conn{first, second} {
		var enabled int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
			t.Fatalf("conn %d: read pragma: %v", i, err)
		}
		if enabled != 1 {
			t.Fatalf("conn %d: foreign_keys = %d, want 1", i, enabled)
		}
	}
}
