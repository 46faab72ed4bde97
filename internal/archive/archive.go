// Package archive persists run results to a local SQLite database so past
// runs can be listed and compared.
package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matheuskafuri/linkcheck/internal/checker"
)

// Run is one archived checker run.
type Run struct {
	ID           int64
	StartedAt    time.Time
	BaseURL      string
	PostsChecked int
	LinksChecked int
	LinksSkipped int
	AutoBroken   int
	CacheHits    int
	Retries      int
	BrokenLinks  int
}

// Archive stores runs and their broken links.
type Archive struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating archive dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	a := &Archive{readDB: readDB, writeDB: writeDB}
	if err := a.init(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) init() error {
	_, err := a.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at    DATETIME NOT NULL,
			base_url      TEXT NOT NULL,
			posts_checked INTEGER NOT NULL DEFAULT 0,
			links_checked INTEGER NOT NULL DEFAULT 0,
			links_skipped INTEGER NOT NULL DEFAULT 0,
			auto_broken   INTEGER NOT NULL DEFAULT 0,
			cache_hits    INTEGER NOT NULL DEFAULT 0,
			retries       INTEGER NOT NULL DEFAULT 0,
			broken_links  INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);

		CREATE TABLE IF NOT EXISTS broken_links (
			run_id     INTEGER NOT NULL REFERENCES runs(id),
			post_title TEXT NOT NULL,
			post_url   TEXT NOT NULL,
			link       TEXT NOT NULL,
			reason     TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_broken_links_run ON broken_links(run_id);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (a *Archive) Close() error {
	var errs []error
	if a.readDB != nil {
		errs = append(errs, a.readDB.Close())
	}
	if a.writeDB != nil {
		errs = append(errs, a.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// RecordRun stores a finished run and its broken links in one transaction,
// returning the run ID.
func (a *Archive) RecordRun(baseURL string, startedAt time.Time, stats checker.Snapshot, broken []checker.BrokenLink) (int64, error) {
	tx, err := a.writeDB.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO runs (started_at, base_url, posts_checked, links_checked, links_skipped, auto_broken, cache_hits, retries, broken_links)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, startedAt, baseURL, stats.PostsChecked, stats.LinksChecked, stats.LinksSkipped,
		stats.AutoBroken, stats.CacheHits, stats.Retries, stats.BrokenLinks)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO broken_links (run_id, post_title, post_url, link, reason)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, b := range broken {
		if _, err := stmt.Exec(runID, b.PostTitle, b.PostURL, b.Link, b.Reason); err != nil {
			return 0, fmt.Errorf("inserting broken link %s: %w", b.Link, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means a
// default of 20.
func (a *Archive) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := a.readDB.Query(`
		SELECT id, started_at, base_url, posts_checked, links_checked, links_skipped, auto_broken, cache_hits, retries, broken_links
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.BaseURL, &r.PostsChecked, &r.LinksChecked,
			&r.LinksSkipped, &r.AutoBroken, &r.CacheHits, &r.Retries, &r.BrokenLinks); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// BrokenLinks returns the broken links recorded for a run.
func (a *Archive) BrokenLinks(runID int64) ([]checker.BrokenLink, error) {
	rows, err := a.readDB.Query(`
		SELECT post_title, post_url, link, reason
		FROM broken_links WHERE run_id = ? ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying broken links: %w", err)
	}
	defer rows.Close()

	var links []checker.BrokenLink
	for rows.Next() {
		var b checker.BrokenLink
		if err := rows.Scan(&b.PostTitle, &b.PostURL, &b.Link, &b.Reason); err != nil {
			return nil, fmt.Errorf("scanning broken link: %w", err)
		}
		links = append(links, b)
	}
	return links, rows.Err()
}
