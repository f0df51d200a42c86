// Package storage provides the optional SQLite content index that
// accelerates keyword content search without spawning git grep.
//
// The index is a pure accelerator: match semantics are the same
// case-insensitive any-keyword substring search the git source performs, and
// a missing or stale index silently falls back to git grep.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"ctxpick/internal/logging"
)

// FileRecord is one indexed file.
type FileRecord struct {
	Path    string
	Content string
}

// ContentIndex stores file contents in SQLite for local substring search.
type ContentIndex struct {
	conn   *sql.DB
	dbPath string
	logger *logging.Logger
}

// Open opens or creates the index database at dbPath.
func Open(dbPath string, logger *logging.Logger) (*ContentIndex, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	ix := &ContentIndex{conn: conn, dbPath: dbPath, logger: logger}
	if err := ix.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return ix, nil
}

// Close closes the database connection.
func (ix *ContentIndex) Close() error {
	return ix.conn.Close()
}

func (ix *ContentIndex) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS files (
			path TEXT PRIMARY KEY,
			content TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := ix.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize index schema: %w", err)
		}
	}
	return nil
}

// Rebuild replaces the whole index in one transaction and records the
// commit it was built from.
func (ix *ContentIndex) Rebuild(ctx context.Context, head string, files []FileRecord) error {
	tx, err := ix.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM files"); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO files (path, content) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range files {
		if _, err := stmt.ExecContext(ctx, f.Path, f.Content); err != nil {
			return fmt.Errorf("failed to index %s: %w", f.Path, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO meta (key, value) VALUES ('head', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		head); err != nil {
		return fmt.Errorf("failed to record head commit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index rebuild: %w", err)
	}

	ix.logger.Info("content index rebuilt", map[string]interface{}{
		"files": len(files),
		"head":  head,
	})
	return nil
}

// Head returns the commit the index was built from, "" when never built.
func (ix *ContentIndex) Head(ctx context.Context) string {
	var head string
	err := ix.conn.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'head'").Scan(&head)
	if err != nil {
		return ""
	}
	return head
}

// Search returns paths whose content contains any keyword, matching the
// case-insensitive substring semantics of git grep. SQLite's LIKE is
// case-insensitive for ASCII, and extracted keywords are ASCII by
// construction.
func (ix *ContentIndex) Search(ctx context.Context, kws []string) (map[string]struct{}, error) {
	matches := make(map[string]struct{})
	if len(kws) == 0 {
		return matches, nil
	}

	var clauses []string
	var args []interface{}
	for _, kw := range kws {
		clauses = append(clauses, "content LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(kw)+"%")
	}
	query := "SELECT path FROM files WHERE " + strings.Join(clauses, " OR ")

	rows, err := ix.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("index search failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		matches[path] = struct{}{}
	}
	return matches, rows.Err()
}

// escapeLike escapes LIKE wildcards. Extracted keywords cannot contain
// them, but the index is also queried with raw config-supplied terms.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
