package storage

import (
	"crypto/md5"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database with methods for companies, resumes,
// recruiters, managers, postings, applications, and tags.
type Store struct {
	db   *sql.DB
	path string // empty for in-memory databases
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used by
// tests).
func Open(dataDir string) (*Store, error) {
	var dsn, path string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		path = filepath.Join(dataDir, "jobtrack.db")
		dsn = path
	}

	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %s: %w", pragma, err)
		}
	}
	return db, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migration describes a schema change script, either applied or pending.
type Migration struct {
	Version     int
	Filename    string
	Description string
	Checksum    string
	AppliedAt   string // empty while pending
}

type migrationFile struct {
	Migration
	up   string
	down string
}

// migrate applies any embedded migration not yet recorded in the
// schema_migrations ledger, in ascending version order. The database file is
// backed up before the first script runs and restored if any script fails.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		filename TEXT NOT NULL,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		checksum TEXT,
		description TEXT
	)`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	pending, err := s.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	return s.applyPending(pending)
}

// applyPending runs the given scripts in order behind a file backup. A failed
// script restores the database to its pre-migration state.
func (s *Store) applyPending(pending []migrationFile) error {
	backup, err := s.backupFile()
	if err != nil {
		return fmt.Errorf("creating pre-migration backup: %w", err)
	}

	for _, m := range pending {
		if err := s.applyMigration(m); err != nil {
			if restoreErr := s.restoreBackup(backup); restoreErr != nil {
				return fmt.Errorf("applying migration %d: %w (restore failed: %v)", m.Version, err, restoreErr)
			}
			return fmt.Errorf("applying migration %d: %w (database restored)", m.Version, err)
		}
	}
	return nil
}

func (s *Store) applyMigration(m migrationFile) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if _, err := tx.Exec(m.up); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec(
		`INSERT INTO schema_migrations (version, filename, checksum, description) VALUES (?, ?, ?, ?)`,
		m.Version, m.Filename, m.Checksum, m.Description,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("recording migration: %w", err)
	}
	return tx.Commit()
}

// Rollback reverts the migration identified by version using its DOWN
// section. Migrations with an empty DOWN section cannot be rolled back.
func (s *Store) Rollback(version int) error {
	var filename string
	err := s.db.QueryRow("SELECT filename FROM schema_migrations WHERE version = ?", version).Scan(&filename)
	if err == sql.ErrNoRows {
		return fmt.Errorf("migration %d: %w", version, ErrNotFound)
	}
	if err != nil {
		return err
	}

	m, err := readMigrationFile(filename)
	if err != nil {
		return err
	}
	if m.down == "" {
		return fmt.Errorf("migration %d (%s) has no rollback section", version, filename)
	}

	backup, err := s.backupFile()
	if err != nil {
		return fmt.Errorf("creating pre-rollback backup: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if _, err := tx.Exec(m.down); err != nil {
		tx.Rollback()
		if restoreErr := s.restoreBackup(backup); restoreErr != nil {
			return fmt.Errorf("rolling back migration %d: %w (restore failed: %v)", version, err, restoreErr)
		}
		return fmt.Errorf("rolling back migration %d: %w (database restored)", version, err)
	}
	if _, err := tx.Exec("DELETE FROM schema_migrations WHERE version = ?", version); err != nil {
		tx.Rollback()
		return fmt.Errorf("removing ledger entry for %d: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		if restoreErr := s.restoreBackup(backup); restoreErr != nil {
			return fmt.Errorf("committing rollback of %d: %w (restore failed: %v)", version, err, restoreErr)
		}
		return fmt.Errorf("committing rollback of %d: %w (database restored)", version, err)
	}
	return nil
}

// AppliedMigrations returns the ledger contents in ascending version order.
func (s *Store) AppliedMigrations() ([]Migration, error) {
	rows, err := s.db.Query(`SELECT version, filename, COALESCE(checksum, ''), COALESCE(description, ''), applied_at
		FROM schema_migrations ORDER BY version ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Migration
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Filename, &m.Checksum, &m.Description, &m.AppliedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// PendingMigrations returns embedded migrations not yet recorded in the
// ledger, sorted ascending.
func (s *Store) PendingMigrations() ([]migrationFile, error) {
	applied := make(map[int]bool)
	ms, err := s.AppliedMigrations()
	if err != nil {
		return nil, err
	}
	for _, m := range ms {
		applied[m.Version] = true
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var pending []migrationFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		m, err := readMigrationFile(entry.Name())
		if err != nil {
			return nil, err
		}
		if !applied[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

func readMigrationFile(name string) (migrationFile, error) {
	content, err := migrationsFS.ReadFile("migrations/" + name)
	if err != nil {
		return migrationFile{}, fmt.Errorf("reading migration %s: %w", name, err)
	}

	var m migrationFile
	m.Filename = name
	m.Checksum = fmt.Sprintf("%x", md5.Sum(content))
	if _, err := fmt.Sscanf(name, "%d_", &m.Version); err != nil {
		return migrationFile{}, fmt.Errorf("parsing migration version from %q: %w", name, err)
	}
	m.up, m.down, m.Description, err = splitMigration(string(content))
	if err != nil {
		return migrationFile{}, fmt.Errorf("parsing %s: %w", name, err)
	}
	return m, nil
}

// splitMigration separates a script into its UP and DOWN sections and pulls
// the description from the header comment.
func splitMigration(content string) (up, down, description string, err error) {
	lines := strings.Split(content, "\n")
	upStart, downStart := -1, -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch trimmed {
		case "-- UP":
			upStart = i + 1
		case "-- DOWN":
			downStart = i + 1
		}
		if description == "" && strings.HasPrefix(trimmed, "-- Description:") {
			description = strings.TrimSpace(strings.TrimPrefix(trimmed, "-- Description:"))
		}
	}
	if upStart < 0 {
		return "", "", "", fmt.Errorf("missing '-- UP' marker")
	}
	if downStart < 0 || downStart <= upStart {
		return "", "", "", fmt.Errorf("missing '-- DOWN' marker")
	}

	up = strings.TrimSpace(strings.Join(lines[upStart:downStart-1], "\n"))
	down = strings.TrimSpace(strings.Join(lines[downStart:], "\n"))
	if stripSQLComments(up) == "" {
		return "", "", "", fmt.Errorf("empty UP section")
	}
	if stripSQLComments(down) == "" {
		down = ""
	}
	return up, down, description, nil
}

func stripSQLComments(script string) string {
	var kept []string
	for _, line := range strings.Split(script, "\n") {
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "--") {
			continue
		}
		kept = append(kept, t)
	}
	return strings.Join(kept, "\n")
}

// backupFile snapshots the database next to it before schema changes.
// Returns "" for in-memory databases, which have nothing to back up.
func (s *Store) backupFile() (string, error) {
	if s.path == "" {
		return "", nil
	}
	dir := filepath.Join(filepath.Dir(s.path), "backups")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	backup := filepath.Join(dir, "jobtrack_pre_migration.db")
	os.Remove(backup)
	if _, err := s.db.Exec("VACUUM INTO ?", backup); err != nil {
		return "", err
	}
	return backup, nil
}

// restoreBackup replaces the database file with the backup and reopens the
// connection. No-op when there is no backup (in-memory database).
func (s *Store) restoreBackup(backup string) error {
	if backup == "" {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	if err := copyFile(backup, s.path); err != nil {
		return fmt.Errorf("restoring backup: %w", err)
	}
	// Stale WAL files would shadow the restored content.
	os.Remove(s.path + "-wal")
	os.Remove(s.path + "-shm")

	db, err := openDB(s.path)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
