// Package journal provides the append-only, totally ordered event log
// that the commit protocol writes and replicators replay. SQLite backs
// the log with WAL mode for concurrent read access; any ordered,
// appendable record store keyed by position would serve equally.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/signet/internal/event"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Current: events table
const currentSchemaVersion = 1

// Journal is an append-only sequence of keyed events with strictly
// increasing, contiguous positions starting at 1.
//
// Single-writer, multi-reader: the commit protocol is the only caller
// of Append; subscribers each read at their own cursor and never block
// the writer.
type Journal struct {
	db       *sql.DB
	notifier *notifier
}

// Open creates or opens a journal database at the given path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
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

	return &Journal{db: db, notifier: newNotifier()}, nil
}

// Close closes the database connection. Active subscriptions should be
// cancelled first; their pumps fail on the closed handle otherwise.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Append writes the events in order inside one transaction and returns
// their positions. The returned positions are contiguous: a reader can
// never observe a partially appended batch.
func (j *Journal) Append(ctx context.Context, events []event.Keyed) ([]int64, error) {
	if len(events) == 0 {
		return nil, nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("append: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	positions := make([]int64, 0, len(events))
	for i, ke := range events {
		payload, err := json.Marshal(ke.Event)
		if err != nil {
			return nil, fmt.Errorf("append: marshal event %d: %w", i, err)
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO events (key, type, payload) VALUES (?, ?, ?)
		`, ke.Key, string(ke.Event.Type), string(payload))
		if err != nil {
			return nil, fmt.Errorf("append: insert event %d: %w", i, err)
		}
		pos, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("append: last insert id: %w", err)
		}
		// Contiguity within the batch is an invariant of the
		// single-writer autoincrement table.
		if len(positions) > 0 && pos != positions[len(positions)-1]+1 {
			return nil, fmt.Errorf("append: journal corruption: non-contiguous positions %d after %d",
				pos, positions[len(positions)-1])
		}
		positions = append(positions, pos)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("append: commit: %w", err)
	}

	j.notifier.wake()
	return positions, nil
}

// Read returns up to limit events at position >= from, in order.
// limit <= 0 means no limit.
func (j *Journal) Read(ctx context.Context, from int64, limit int) ([]event.Stamped, error) {
	query := `
		SELECT position, key, payload FROM events
		WHERE position >= ?
		ORDER BY position ASC
	`
	args := []any{from}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read from %d: %w", from, err)
	}
	defer rows.Close()

	var out []event.Stamped
	for rows.Next() {
		var (
			pos     int64
			key     string
			payload string
		)
		if err := rows.Scan(&pos, &key, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var e event.Event
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, fmt.Errorf("journal corruption at position %d: %w", pos, err)
		}
		out = append(out, event.Stamped{
			Position: pos,
			Keyed:    event.Keyed{Key: key, Event: e},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return out, nil
}

// LastPosition returns the position of the newest event, or 0 for an
// empty journal.
func (j *Journal) LastPosition(ctx context.Context) (int64, error) {
	var pos int64
	err := j.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(position), 0) FROM events
	`).Scan(&pos)
	if err != nil {
		return 0, fmt.Errorf("last position: %w", err)
	}
	return pos, nil
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

// applySchema creates tables if they don't exist and records the
// schema version. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	return nil
}
