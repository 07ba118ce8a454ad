package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating when needed) the history database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		mode TEXT NOT NULL,
		outcome TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		revision TEXT,
		output_hash TEXT,
		error TEXT,
		detail BLOB
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

type detail struct {
	Stages    []StageTiming `json:"stages,omitempty"`
	Artifacts []string      `json:"artifacts,omitempty"`
}

// Append adds a build record.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(detail{Stages: rec.Stages, Artifacts: rec.Artifacts})
	if err != nil {
		return fmt.Errorf("marshal detail: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO builds (id, mode, outcome, started_at, finished_at, revision, output_hash, error, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Mode, rec.Outcome, rec.StartedAt.UnixMilli(), rec.FinishedAt.UnixMilli(),
		rec.Revision, rec.OutputHash, rec.Error, payload,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

const selectColumns = "id, mode, outcome, started_at, finished_at, revision, output_hash, error, detail"

// Get retrieves a build record by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+selectColumns+" FROM builds WHERE id = ?", id)
	if err != nil {
		return Record{}, fmt.Errorf("query build: %w", err)
	}
	defer func() { _ = rows.Close() }()

	recs, err := scanRecords(rows)
	if err != nil {
		return Record{}, err
	}
	if len(recs) == 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return recs[0], nil
}

// Recent returns up to limit records, newest first. limit <= 0 means all.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + selectColumns + " FROM builds ORDER BY seq DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var recs []Record
	for rows.Next() {
		var (
			r                   Record
			started, finished   int64
			revision, hash, msg sql.NullString
			payload             []byte
		)
		if err := rows.Scan(&r.ID, &r.Mode, &r.Outcome, &started, &finished, &revision, &hash, &msg, &payload); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		r.FinishedAt = time.UnixMilli(finished).UTC()
		r.Revision, r.OutputHash, r.Error = revision.String, hash.String, msg.String
		if len(payload) > 0 {
			var d detail
			if err := json.Unmarshal(payload, &d); err != nil {
				return nil, fmt.Errorf("unmarshal detail: %w", err)
			}
			r.Stages, r.Artifacts = d.Stages, d.Artifacts
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return recs, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// IsNotFound reports whether err means the requested build does not exist.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
