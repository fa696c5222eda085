package storage

import (
	"context"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestMigrateTwice(t *testing.T) {
	store := newTestStore(t)
	if err := store.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if store.Dialect() != DriverSQLite {
		t.Fatalf("dialect = %q", store.Dialect())
	}
}

func TestUnsupportedDriver(t *testing.T) {
	if _, err := New("mysql", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestWarningsActiveStrikes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	warnings := []Warning{
		{ID: "w1", GuildID: "g1", UserID: "u1", Category: "language", Reason: "r", Strikes: 2, CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour)},
		{ID: "w2", GuildID: "g1", UserID: "u1", Category: "language", Reason: "r", Strikes: 1, CreatedAt: now.Add(-48 * time.Hour), ExpiresAt: now.Add(-time.Hour)},
		{ID: "w3", GuildID: "g1", UserID: "u1", Category: "invites", Reason: "r", Strikes: 1, CreatedAt: now},
		{ID: "w4", GuildID: "g1", UserID: "u2", Category: "language", Reason: "r", Strikes: 5, CreatedAt: now},
		{ID: "w5", GuildID: "g2", UserID: "u1", Category: "language", Reason: "r", Strikes: 5, CreatedAt: now},
	}
	for _, w := range warnings {
		if err := store.AddWarning(ctx, w); err != nil {
			t.Fatalf("add warning %s: %v", w.ID, err)
		}
	}

	total, err := store.ActiveStrikes(ctx, "g1", "u1", now)
	if err != nil {
		t.Fatalf("active strikes: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 active strikes, got %d", total)
	}

	byCategory, err := store.StrikesByCategory(ctx, "g1", "u1", now)
	if err != nil {
		t.Fatalf("strikes by category: %v", err)
	}
	if len(byCategory) != 2 {
		t.Fatalf("expected 2 categories, got %+v", byCategory)
	}
	if byCategory[0].Category != "invites" || byCategory[0].Strikes != 1 {
		t.Fatalf("unexpected invites row %+v", byCategory[0])
	}
	if byCategory[1].Category != "language" || byCategory[1].Strikes != 2 || byCategory[1].Warnings != 1 {
		t.Fatalf("unexpected language row %+v", byCategory[1])
	}

	listed, err := store.ListWarnings(ctx, "g1", "u1", 10)
	if err != nil {
		t.Fatalf("list warnings: %v", err)
	}
	if len(listed) != 3 || listed[0].ID != "w3" {
		t.Fatalf("unexpected listing %+v", listed)
	}
	if !listed[0].ExpiresAt.IsZero() || !listed[0].Active(now) {
		t.Fatalf("warning without expiry should stay active: %+v", listed[0])
	}

	pruned, err := store.PruneWarnings(ctx, now)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected 1 pruned warning, got %d", pruned)
	}
}

func TestAuditLogs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	if err := store.AddAuditLog(ctx, AuditLog{GuildID: "g1", UserID: "u1", Level: "WARN", Event: "automod_warning", Details: "language", CreatedAt: now}); err != nil {
		t.Fatalf("add audit log: %v", err)
	}
	if err := store.AddAuditLog(ctx, AuditLog{GuildID: "g1", Level: "INFO", Event: "old", CreatedAt: now.AddDate(0, 0, -30)}); err != nil {
		t.Fatalf("add audit log: %v", err)
	}

	logs, err := store.ListAuditLogs(ctx, "g1", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("list audit logs: %v", err)
	}
	if len(logs) != 1 || logs[0].Event != "automod_warning" {
		t.Fatalf("unexpected logs %+v", logs)
	}

	if err := store.CleanupAuditLogs(ctx, 14); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	logs, err = store.ListAuditLogs(ctx, "g1", time.Unix(0, 0))
	if err != nil {
		t.Fatalf("list audit logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected old log to be removed, got %d", len(logs))
	}
}

func TestRebind(t *testing.T) {
	sqlite := &Store{dialect: DriverSQLite}
	postgres := &Store{dialect: DriverPostgres}
	query := "SELECT a FROM t WHERE b = ? AND c > ? LIMIT ?"

	if got := sqlite.rebind(query); got != query {
		t.Fatalf("sqlite rebind changed query: %s", got)
	}
	want := "SELECT a FROM t WHERE b = $1 AND c > $2 LIMIT $3"
	if got := postgres.rebind(query); got != want {
		t.Fatalf("postgres rebind = %s, want %s", got, want)
	}
}
