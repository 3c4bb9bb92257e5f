package storage

import (
	"errors"
	"strings"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// no migration is re-applied.
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

// TestMigrationsOrdered verifies versions are applied ascending with
// checksums recorded.
func TestMigrationsOrdered(t *testing.T) {
	s := openTestStore(t)

	applied, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(applied) < 2 {
		t.Fatalf("expected at least 2 migrations, got %d", len(applied))
	}
	for i := 1; i < len(applied); i++ {
		if applied[i].Version <= applied[i-1].Version {
			t.Errorf("migrations out of order: %d after %d", applied[i].Version, applied[i-1].Version)
		}
	}
	for _, m := range applied {
		if m.Checksum == "" {
			t.Errorf("migration %d has empty checksum", m.Version)
		}
	}
}

func TestPendingMigrationsEmptyAfterOpen(t *testing.T) {
	s := openTestStore(t)

	pending, err := s.PendingMigrations()
	if err != nil {
		t.Fatalf("PendingMigrations: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no pending migrations, got %d", len(pending))
	}
}

// TestRollback rolls back the latest migration and checks its tables are
// gone and the ledger row removed.
func TestRollback(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	applied, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	latest := applied[len(applied)-1].Version

	if err := s.Rollback(latest); err != nil {
		t.Fatalf("Rollback(%d): %v", latest, err)
	}

	after, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(after) != len(applied)-1 {
		t.Errorf("expected %d applied after rollback, got %d", len(applied)-1, len(after))
	}

	// The tags table arrives in the rolled-back migration.
	if _, err := s.ListTags(); err == nil {
		t.Error("expected querying tags to fail after rollback")
	}
}

// TestMigrationRestoreOnFailure feeds applyPending a broken script and
// verifies the database file comes back in its pre-migration state.
func TestMigrationRestoreOnFailure(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	c, err := s.CreateCompany(Company{Name: "Initech"})
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	before, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	err = s.applyPending([]migrationFile{
		{
			Migration: Migration{Version: 90, Filename: "090_scratch.sql", Description: "scratch table"},
			up:        "CREATE TABLE scratch (id INTEGER PRIMARY KEY)",
		},
		{
			Migration: Migration{Version: 91, Filename: "091_broken.sql", Description: "broken"},
			up:        "CREATE TABLE missing column types here (",
		},
	})
	if err == nil {
		t.Fatal("expected applyPending to fail")
	}
	if !strings.Contains(err.Error(), "database restored") {
		t.Errorf("error = %v, want restore notice", err)
	}

	// The first script succeeded before the failure; restore must undo it too.
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'scratch'`).Scan(&n); err != nil {
		t.Fatalf("querying sqlite_master: %v", err)
	}
	if n != 0 {
		t.Error("scratch table survived the restore")
	}

	if _, err := s.GetCompany(c.ID); err != nil {
		t.Errorf("GetCompany after restore: %v", err)
	}
	after, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(after) != len(before) {
		t.Errorf("ledger changed: %d -> %d entries", len(before), len(after))
	}
}

// TestRollbackRestoresOnFailure sabotages the tags table so the DOWN script
// fails mid-rollback, and verifies the ledger row survives the restore.
func TestRollbackRestoresOnFailure(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	applied, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	latest := applied[len(applied)-1].Version

	// DROP TABLE refuses to drop a view, so replacing the table with a
	// same-named view makes the DOWN script fail partway through.
	for _, stmt := range []string{
		"DROP TABLE IF EXISTS resume_tags",
		"DROP TABLE tags",
		"CREATE VIEW tags AS SELECT 1 AS id",
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}

	err = s.Rollback(latest)
	if err == nil {
		t.Fatalf("expected Rollback(%d) to fail", latest)
	}
	if !strings.Contains(err.Error(), "database restored") {
		t.Errorf("error = %v, want restore notice", err)
	}

	after, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(after) != len(applied) {
		t.Errorf("ledger changed: %d -> %d entries", len(applied), len(after))
	}
}

func TestRollbackUnknownVersion(t *testing.T) {
	s := openTestStore(t)
	if err := s.Rollback(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Rollback(999) = %v, want ErrNotFound", err)
	}
}

func TestSplitMigration(t *testing.T) {
	content := `-- Migration 042: Example
-- Description: adds a thing

-- UP
CREATE TABLE things (id INTEGER PRIMARY KEY);

-- DOWN
DROP TABLE things;
`
	up, down, desc, err := splitMigration(content)
	if err != nil {
		t.Fatalf("splitMigration: %v", err)
	}
	if desc != "adds a thing" {
		t.Errorf("description = %q", desc)
	}
	if up == "" || down == "" {
		t.Errorf("expected both sections, got up=%q down=%q", up, down)
	}
}
