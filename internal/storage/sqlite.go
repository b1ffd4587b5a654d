package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver.

	"newsadvisor/internal/models"
)

// sqliteTimeLayout is how timestamps are stored; all values are UTC.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// Compile-time interface check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite database at the given path, applies
// schema migrations, and returns a ready store. The connection uses WAL
// journal mode, a 5-second busy timeout, and is limited to a single
// connection because SQLite supports only one concurrent writer.
func OpenSQLite(path string) (*SQLiteStore, error) {
	// For in-memory databases, skip directory creation.
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %q: %w", dir, err)
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database %q: %w", path, err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database %q: %w", path, err)
	}

	slog.Info("opened sqlite database", "path", path)
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ExistingHashes returns which of the given content hashes already exist in
// the feeds table.
func (s *SQLiteStore) ExistingHashes(ctx context.Context, hashes []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(hashes))
	if len(hashes) == 0 {
		return existing, nil
	}

	placeholders := strings.Repeat("?,", len(hashes)-1) + "?"
	args := make([]any, len(hashes))
	for i, h := range hashes {
		args[i] = h
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT content_hash FROM feeds WHERE content_hash IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying existing hashes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scanning content hash: %w", err)
		}
		existing[h] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating existing hashes: %w", err)
	}

	return existing, nil
}

// SaveFeedItems batch-inserts feed items inside a single transaction.
func (s *SQLiteStore) SaveFeedItems(ctx context.Context, items []models.FeedItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO feeds (title, link, summary, category, content_hash, processed, published_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(sqliteTimeLayout)
	for i := range items {
		item := &items[i]
		if _, err := stmt.ExecContext(ctx,
			item.Title, item.Link, item.Summary, string(item.Category),
			item.ContentHash, item.Processed,
			item.PublishedAt.UTC().Format(sqliteTimeLayout), now, now,
		); err != nil {
			return fmt.Errorf("inserting feed item %q: %w", item.ContentHash, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// MarkFeedsProcessed flips processed to true for all feed items with the
// given content hashes.
func (s *SQLiteStore) MarkFeedsProcessed(ctx context.Context, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(hashes)-1) + "?"
	args := make([]any, 0, len(hashes)+1)
	args = append(args, time.Now().UTC().Format(sqliteTimeLayout))
	for _, h := range hashes {
		args = append(args, h)
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE feeds SET processed = 1, updated_at = ? WHERE content_hash IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("marking feeds processed: %w", err)
	}
	return nil
}

// SaveRequestResponse appends one exchange record.
func (s *SQLiteStore) SaveRequestResponse(ctx context.Context, rec *models.RequestResponseRecord) error {
	now := time.Now().UTC().Format(sqliteTimeLayout)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO llm_request_responses (prompt, prompt_response, created_at, updated_at)
		 VALUES (?, ?, ?, ?)`,
		rec.Prompt, rec.PromptResponse, now, now)
	if err != nil {
		return fmt.Errorf("inserting request response: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		rec.ID = strconv.FormatInt(id, 10)
	}
	return nil
}

// ResponsesForDay returns all exchange records created within the UTC
// calendar day containing the given instant, newest first.
func (s *SQLiteStore) ResponsesForDay(ctx context.Context, day time.Time) ([]models.RequestResponseRecord, error) {
	start, end := dayBoundsUTC(day)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, prompt, prompt_response, created_at, updated_at
		 FROM llm_request_responses
		 WHERE created_at >= ? AND created_at < ?
		 ORDER BY created_at DESC, id DESC`,
		start.Format(sqliteTimeLayout), end.Format(sqliteTimeLayout))
	if err != nil {
		return nil, fmt.Errorf("querying responses: %w", err)
	}
	defer rows.Close()

	var records []models.RequestResponseRecord
	for rows.Next() {
		var (
			id                   int64
			rec                  models.RequestResponseRecord
			createdAt, updatedAt string
		)
		if err := rows.Scan(&id, &rec.Prompt, &rec.PromptResponse, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning response record: %w", err)
		}
		rec.ID = strconv.FormatInt(id, 10)
		rec.CreatedAt = parseTime(createdAt)
		rec.UpdatedAt = parseTime(updatedAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating response records: %w", err)
	}

	return records, nil
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

// runMigrations applies any unapplied schema migrations to the database.
// Migration SQL files are read from the embedded migrations/ directory.
// Each file must be named NNN_description.sql where NNN is the version
// number. Each migration runs inside its own transaction for atomicity.
func runMigrations(db *sql.DB) error {
	const createTracker = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
	`
	if _, err := db.Exec(createTracker); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return fmt.Errorf("reading applied migrations: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	type migrationFile struct {
		version  int
		filename string
	}
	var files []migrationFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version := parseVersion(entry.Name())
		if version <= 0 {
			continue
		}
		files = append(files, migrationFile{version: version, filename: entry.Name()})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].version < files[j].version
	})

	for _, mf := range files {
		if applied[mf.version] {
			continue
		}

		sqlBytes, err := migrationsFS.ReadFile("migrations/" + mf.filename)
		if err != nil {
			return fmt.Errorf("reading migration file %q: %w", mf.filename, err)
		}

		if err := applyMigration(db, mf.version, string(sqlBytes)); err != nil {
			return fmt.Errorf("applying migration %s: %w", mf.filename, err)
		}

		slog.Info("applied migration", "version", mf.version, "file", mf.filename)
	}

	return nil
}

// parseVersion extracts the version number from a migration filename like
// "001_initial_schema.sql" → 1.
func parseVersion(filename string) int {
	parts := strings.SplitN(filename, "_", 2)
	if len(parts) == 0 {
		return 0
	}
	v, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	return v
}

// appliedVersions returns the set of migration versions already applied.
func appliedVersions(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("querying schema_migrations: %w", err)
	}
	defer rows.Close()

	versions := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning migration version: %w", err)
		}
		versions[v] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating migration versions: %w", err)
	}

	return versions, nil
}

// applyMigration executes a single migration's SQL and records its version,
// all within a single transaction.
func applyMigration(db *sql.DB, version int, sql string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(sql); err != nil {
		return fmt.Errorf("executing migration SQL: %w", err)
	}

	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version) VALUES (?)", version,
	); err != nil {
		return fmt.Errorf("recording migration version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}

	return nil
}

// parseTime attempts to parse a SQLite datetime string in common formats.
// Stored values are UTC. It returns the zero time if parsing fails.
func parseTime(s string) time.Time {
	for _, layout := range []string{
		sqliteTimeLayout,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}
