package backend

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on prefs.namespace for namespace scans and clears
const currentSchemaVersion = 1

// SQLite is a Registry backed by a single SQLite database file.
// Uses WAL mode so readers are not blocked by the writer.
type SQLite struct {
	db    *sql.DB
	watch notifiers
}

// OpenSQLite creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// The path ":memory:" opens a private in-memory database.
// This function is idempotent - safe to call multiple times on one path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, and ":memory:" databases
	// are per-connection, so keep exactly one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer Node methods when available.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// Node returns the node for namespace. No rows are created until the first
// Put.
func (s *SQLite) Node(ctx context.Context, namespace string) (Node, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	return &sqliteNode{db: s.db, namespace: namespace, notify: s.watch.get(namespace)}, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds the namespace index.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_prefs_namespace
		ON prefs(namespace)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *SQLite) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

type sqliteNode struct {
	db        *sql.DB
	namespace string
	notify    *notifier
}

func (n *sqliteNode) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := n.db.QueryRowContext(ctx, `
		SELECT value FROM prefs
		WHERE namespace = ? AND key = ?
	`, n.namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (n *sqliteNode) Put(ctx context.Context, key, value string) error {
	_, err := n.db.ExecContext(ctx, `
		INSERT INTO prefs (namespace, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value
	`, n.namespace, key, value)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}

	n.notify.emit(Change{Namespace: n.namespace, Kind: ChangePut, Key: key, Value: value})
	return nil
}

func (n *sqliteNode) Remove(ctx context.Context, key string) error {
	result, err := n.db.ExecContext(ctx, `
		DELETE FROM prefs
		WHERE namespace = ? AND key = ?
	`, n.namespace, key)
	if err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove %q: rows affected: %w", key, err)
	}
	if rowsAffected > 0 {
		n.notify.emit(Change{Namespace: n.namespace, Kind: ChangeRemove, Key: key})
	}
	return nil
}

// Keys lists keys ordered by key COLLATE BINARY so enumeration is
// deterministic.
func (n *sqliteNode) Keys(ctx context.Context) ([]string, error) {
	rows, err := n.db.QueryContext(ctx, `
		SELECT key FROM prefs
		WHERE namespace = ?
		ORDER BY key COLLATE BINARY ASC
	`, n.namespace)
	if err != nil {
		return nil, fmt.Errorf("%w: query keys: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("%w: scan key: %w", ErrUnavailable, err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate keys: %w", ErrUnavailable, err)
	}

	return keys, nil
}

func (n *sqliteNode) Clear(ctx context.Context) error {
	_, err := n.db.ExecContext(ctx, `DELETE FROM prefs WHERE namespace = ?`, n.namespace)
	if err != nil {
		return fmt.Errorf("%w: clear: %w", ErrUnavailable, err)
	}

	n.notify.emit(Change{Namespace: n.namespace, Kind: ChangeClear})
	return nil
}

func (n *sqliteNode) Watch(fn Listener) func() {
	return n.notify.watch(fn)
}
