package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sync_runs (
			id               TEXT PRIMARY KEY,
			started_at       INTEGER NOT NULL,
			finished_at      INTEGER NOT NULL,
			cache_found      INTEGER NOT NULL,
			cache_note       TEXT,
			fetch_from       TEXT,
			watermark_before TEXT,
			watermark_after  TEXT,
			master_rows      INTEGER,
			continuous_rows  INTEGER,
			error            TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON sync_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS symbol_fetches (
			run_id   TEXT NOT NULL REFERENCES sync_runs(id),
			position INTEGER NOT NULL,
			ticker   TEXT NOT NULL,
			col_name TEXT NOT NULL,
			fetched  INTEGER,
			new_rows INTEGER,
			error    TEXT,
			PRIMARY KEY (run_id, position)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = NewRunID()
	}
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO sync_runs
		(id, started_at, finished_at, cache_found, cache_note, fetch_from,
		 watermark_before, watermark_after, master_rows, continuous_rows, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(), run.CacheFound, run.CacheNote,
		run.From, run.WatermarkBefore, run.WatermarkAfter, run.MasterRows, run.ContinuousRows, run.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for i, s := range run.Symbols {
		if _, err := tx.Exec(`INSERT INTO symbol_fetches
			(run_id, position, ticker, col_name, fetched, new_rows, error)
			VALUES (?,?,?,?,?,?,?)`,
			run.ID, i, s.Ticker, s.Column, s.Fetched, s.New, s.Error,
		); err != nil {
			return fmt.Errorf("insert symbol %s: %w", s.Ticker, err)
		}
	}
	return tx.Commit()
}

// LastRun returns the most recently started run, or nil if none was recorded.
func (r *SQLiteRecorder) LastRun() (*RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run := &RunRecord{}
	var started, finished int64
	var cacheNote, from, before, after, runErr sql.NullString
	err := r.db.QueryRow(`SELECT id, started_at, finished_at, cache_found, cache_note, fetch_from,
		watermark_before, watermark_after, master_rows, continuous_rows, error
		FROM sync_runs ORDER BY started_at DESC, id DESC LIMIT 1`).Scan(
		&run.ID, &started, &finished, &run.CacheFound, &cacheNote, &from,
		&before, &after, &run.MasterRows, &run.ContinuousRows, &runErr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}
	run.StartedAt = time.UnixMilli(started)
	run.FinishedAt = time.UnixMilli(finished)
	run.CacheNote, run.From = cacheNote.String, from.String
	run.WatermarkBefore, run.WatermarkAfter = before.String, after.String
	run.Error = runErr.String

	rows, err := r.db.Query(`SELECT ticker, col_name, fetched, new_rows, error
		FROM symbol_fetches WHERE run_id = ? ORDER BY position`, run.ID)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s SymbolRecord
		var symErr sql.NullString
		if err := rows.Scan(&s.Ticker, &s.Column, &s.Fetched, &s.New, &symErr); err != nil {
			return nil, err
		}
		s.Error = symErr.String
		run.Symbols = append(run.Symbols, s)
	}
	return run, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
