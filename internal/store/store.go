// Package store persists a rolling history of Guard.Check decisions to
// a local SQLite database, strictly for operator-facing lookups
// (`cmd/tripline history`) outside the guard's own decision path — the
// core packages never import this one. Grounded on the teacher's
// modernc.org/sqlite dependency (declared in its go.mod but unused by
// any of its packages) and on the nocturne example's
// internal/storage/sqlite.go schema-migration idiom.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	_ "modernc.org/sqlite"

	"github.com/corvid-labs/tripline/internal/model"
)

// Record is one persisted Guard.Check decision.
type Record struct {
	ID                int64
	TraceID           string
	Timestamp         time.Time
	ActionName        string
	Detected          bool
	WasDefended       bool
	DominantSpanIndex int
	DominantDelta     float64
	UserDelta         float64
	FlaggedCount      int
	FinalActionName   string
}

// Age renders how long ago the decision was recorded, e.g. "3 minutes ago".
func (r Record) Age() string {
	return humanize.Time(r.Timestamp)
}

// DB wraps a SQLite-backed decision history.
type DB struct {
	sql *sql.DB
}

// Open opens (or creates) the SQLite database at path and runs schema
// migrations.
func Open(path string) (*DB, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS decisions (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    trace_id            TEXT NOT NULL,
    ts                  INTEGER NOT NULL,
    action_name         TEXT NOT NULL,
    detected            INTEGER NOT NULL,
    was_defended        INTEGER NOT NULL,
    dominant_span_index INTEGER NOT NULL,
    dominant_delta      REAL NOT NULL,
    user_delta          REAL NOT NULL,
    flagged_count       INTEGER NOT NULL,
    final_action_name   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_trace_id ON decisions(trace_id);
CREATE INDEX IF NOT EXISTS idx_decisions_ts ON decisions(ts);
`
	_, err := d.sql.Exec(schema)
	return err
}

// Insert records one Guard.Check decision, keyed by the caller-supplied
// traceID (the same value written to the audit log's AuditEntry.TraceID).
func (d *DB) Insert(traceID string, result model.DefenseResult) error {
	dominantIdx := result.DominantSpanIndex()

	_, err := d.sql.Exec(
		`INSERT INTO decisions (trace_id, ts, action_name, detected, was_defended,
		 dominant_span_index, dominant_delta, user_delta, flagged_count, final_action_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		traceID, time.Now().UTC().Unix(), result.OriginalAction.Name,
		boolToInt(result.Detection.Detected), boolToInt(result.WasDefended),
		dominantIdx, result.Detection.DominantDelta, result.Detection.UserDelta,
		len(result.Detection.FlaggedSpanIndices), result.FinalAction.Name,
	)
	if err != nil {
		return fmt.Errorf("store: insert: %w", err)
	}
	return nil
}

// Recent returns the most recent limit decisions, newest first.
func (d *DB) Recent(limit int) ([]Record, error) {
	rows, err := d.sql.Query(
		`SELECT id, trace_id, ts, action_name, detected, was_defended,
		 dominant_span_index, dominant_delta, user_delta, flagged_count, final_action_name
		 FROM decisions ORDER BY ts DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var ts int64
		var detected, wasDefended int
		if err := rows.Scan(&r.ID, &r.TraceID, &ts, &r.ActionName, &detected, &wasDefended,
			&r.DominantSpanIndex, &r.DominantDelta, &r.UserDelta, &r.FlaggedCount, &r.FinalActionName); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		r.Timestamp = time.Unix(ts, 0).UTC()
		r.Detected = detected == 1
		r.WasDefended = wasDefended == 1
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: rows: %w", err)
	}
	return out, nil
}

// ByTraceID returns every decision recorded under traceID, oldest first.
func (d *DB) ByTraceID(traceID string) ([]Record, error) {
	rows, err := d.sql.Query(
		`SELECT id, trace_id, ts, action_name, detected, was_defended,
		 dominant_span_index, dominant_delta, user_delta, flagged_count, final_action_name
		 FROM decisions WHERE trace_id = ? ORDER BY ts ASC, id ASC`, traceID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: by trace id: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var ts int64
		var detected, wasDefended int
		if err := rows.Scan(&r.ID, &r.TraceID, &ts, &r.ActionName, &detected, &wasDefended,
			&r.DominantSpanIndex, &r.DominantDelta, &r.UserDelta, &r.FlaggedCount, &r.FinalActionName); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		r.Timestamp = time.Unix(ts, 0).UTC()
		r.Detected = detected == 1
		r.WasDefended = wasDefended == 1
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: rows: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
