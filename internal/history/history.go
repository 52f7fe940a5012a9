// Package history keeps an index of completed transcription runs in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run is one completed transcription.
type Run struct {
	ID          string    `json:"id"`
	Audio       string    `json:"audio"`
	Transcript  string    `json:"transcript"`
	CreatedAt   time.Time `json:"created_at"`
	DurationSec float64   `json:"duration_sec"`
	Words       int       `json:"words"`
	Turns       int       `json:"turns"`
	Chunks      int       `json:"chunks"`
	Speakers    int       `json:"speakers"`
}

// DB is the run index.
type DB struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	audio TEXT NOT NULL,
	transcript TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	duration_sec REAL NOT NULL,
	words INTEGER NOT NULL,
	turns INTEGER NOT NULL,
	chunks INTEGER NOT NULL,
	speakers INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// Open opens (creating if needed) the index at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Record stores r, assigning an id and creation time when unset.
func (h *DB) Record(ctx context.Context, r Run) (Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := h.db.ExecContext(ctx, `
	INSERT INTO runs (id, audio, transcript, created_at, duration_sec, words, turns, chunks, speakers)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Audio, r.Transcript, r.CreatedAt.UnixNano(), r.DurationSec, r.Words, r.Turns, r.Chunks, r.Speakers)
	if err != nil {
		return r, fmt.Errorf("record run: %w", err)
	}
	return r, nil
}

// List returns up to limit runs, newest first.
func (h *DB) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx, `
	SELECT id, audio, transcript, created_at, duration_sec, words, turns, chunks, speakers
	FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			created int64
		)
		if err := rows.Scan(&r.ID, &r.Audio, &r.Transcript, &created, &r.DurationSec, &r.Words, &r.Turns, &r.Chunks, &r.Speakers); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt = time.Unix(0, created)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (h *DB) Close() error {
	return h.db.Close()
}
