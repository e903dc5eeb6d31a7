// Package dupeindex provides an optional, persistent content index
// shared across ingest runs. It is strictly supplemental: nothing in
// the ingest core reads it back to decide a FileEntry's status within
// a run, so it cannot violate the in-run dedupe invariants. Its job is
// to let later tooling answer "have I ever imported this content
// before, in any project" across runs.
package dupeindex

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Index wraps a sqlite-backed content table keyed by hash.
type Index struct {
	db *sql.DB
}

// Open creates or attaches to the index database at path, creating
// its schema if needed.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("dupeindex: open: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS content (
		hash TEXT PRIMARY KEY,
		project_name TEXT NOT NULL,
		dst_rel TEXT NOT NULL,
		recorded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_content_project ON content(project_name);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("dupeindex: init schema: %w", err)
	}

	return &Index{db: db}, nil
}

func (idx *Index) Close() error {
	return idx.db.Close()
}

// Record adds an entry for hash. Existing entries for the same hash
// are left untouched; first seen wins.
func (idx *Index) Record(hash, projectName, dstRel string) error {
	_, err := idx.db.Exec(
		`INSERT OR IGNORE INTO content (hash, project_name, dst_rel, recorded_at) VALUES (?, ?, ?, ?)`,
		hash, projectName, dstRel, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("dupeindex: record: %w", err)
	}
	return nil
}

// Lookup reports whether hash has been seen in any prior run, and if
// so which project/dst_rel it first landed at. Callers must treat
// this purely as information — never as a same-run duplicate_of
// reference, since the match may come from a different project root
// entirely.
func (idx *Index) Lookup(hash string) (projectName, dstRel string, found bool, err error) {
	row := idx.db.QueryRow(`SELECT project_name, dst_rel FROM content WHERE hash = ?`, hash)
	err = row.Scan(&projectName, &dstRel)
	if err == sql.ErrNoRows {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("dupeindex: lookup: %w", err)
	}
	return projectName, dstRel, true, nil
}
