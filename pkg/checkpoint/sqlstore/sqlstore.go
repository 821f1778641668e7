// Package sqlstore implements executable.CheckpointStore against a
// relational backend, keyed by (run_id, replay_id) with upsert-on-conflict
// semantics (spec §4.2: "a relational implementation keys checkpoints by
// (run_id, replay_id) and upserts on conflict (the latest payload wins)").
//
// Driver selection follows the multi-driver pattern already established
// in pkg/config/dbpool.go: mattn/go-sqlite3, lib/pq, and
// go-sql-driver/mysql are all registered database/sql drivers and the
// caller picks one by DSN, exactly as that connection pool does.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/executable"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect abstracts the small set of SQL differences between the three
// supported drivers: placeholder style and upsert syntax.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// Store is a relational executable.CheckpointStore.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open opens driverName with dsn and ensures the checkpoint schema exists.
func Open(ctx context.Context, driverName string, dsn string, dialect Dialect) (*Store, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driverName, err)
	}
	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS oxy_runs (
			checkpoint_id TEXT NOT NULL,
			run_index INTEGER NOT NULL,
			success INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (checkpoint_id, run_index)
		)`,
		`CREATE TABLE IF NOT EXISTS oxy_run_events (
			checkpoint_id TEXT NOT NULL,
			run_index INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			payload TEXT NOT NULL,
			PRIMARY KEY (checkpoint_id, run_index, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS oxy_checkpoints (
			checkpoint_id TEXT NOT NULL,
			run_index INTEGER NOT NULL,
			replay_id TEXT NOT NULL,
			checkpoint_hash TEXT NOT NULL,
			output BLOB,
			events TEXT NOT NULL,
			PRIMARY KEY (checkpoint_id, run_index, replay_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlstore: migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) CreateRun(ctx context.Context, checkpointID string) (executable.RunInfo, error) {
	var maxIdx sql.NullInt64
	row := s.db.QueryRowContext(ctx,
		`SELECT MAX(run_index) FROM oxy_runs WHERE checkpoint_id = `+s.ph(1), checkpointID)
	if err := row.Scan(&maxIdx); err != nil {
		return executable.RunInfo{}, fmt.Errorf("sqlstore: create_run: %w", err)
	}
	nextIdx := int(maxIdx.Int64) + 1

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO oxy_runs (checkpoint_id, run_index, success) VALUES (`+s.ph(1)+`, `+s.ph(2)+`, 0)`,
		checkpointID, nextIdx)
	if err != nil {
		return executable.RunInfo{}, fmt.Errorf("sqlstore: create_run insert: %w", err)
	}
	return executable.RunInfo{SourceID: checkpointID, RunIndex: nextIdx}, nil
}

func (s *Store) LastRun(ctx context.Context, checkpointID string) (executable.RunInfo, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_index, success FROM oxy_runs WHERE checkpoint_id = `+s.ph(1)+` ORDER BY run_index DESC LIMIT 1`,
		checkpointID)
	var idx int
	var success bool
	if err := row.Scan(&idx, &success); err != nil {
		if err == sql.ErrNoRows {
			return executable.RunInfo{}, false, nil
		}
		return executable.RunInfo{}, false, fmt.Errorf("sqlstore: last_run: %w", err)
	}
	return executable.RunInfo{SourceID: checkpointID, RunIndex: idx, Success: success}, true, nil
}

func (s *Store) WriteEvents(ctx context.Context, run executable.RunInfo, events []execctx.Event) error {
	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), -1) FROM oxy_run_events WHERE checkpoint_id = `+s.ph(1)+` AND run_index = `+s.ph(2),
		run.SourceID, run.RunIndex)
	var seq int
	if err := row.Scan(&seq); err != nil {
		return fmt.Errorf("sqlstore: write_events seq: %w", err)
	}
	for _, e := range events {
		seq++
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("sqlstore: write_events marshal: %w", err)
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO oxy_run_events (checkpoint_id, run_index, seq, payload) VALUES (`+s.ph(1)+`, `+s.ph(2)+`, `+s.ph(3)+`, `+s.ph(4)+`)`,
			run.SourceID, run.RunIndex, seq, string(payload))
		if err != nil {
			return fmt.Errorf("sqlstore: write_events insert: %w", err)
		}
	}
	return nil
}

func (s *Store) ReadEvents(ctx context.Context, run executable.RunInfo) ([]execctx.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM oxy_run_events WHERE checkpoint_id = `+s.ph(1)+` AND run_index = `+s.ph(2)+` ORDER BY seq ASC`,
		run.SourceID, run.RunIndex)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: read_events: %w", err)
	}
	defer rows.Close()

	var out []execctx.Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("sqlstore: read_events scan: %w", err)
		}
		var e execctx.Event
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, fmt.Errorf("sqlstore: read_events decode: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) CreateCheckpoint(ctx context.Context, run executable.RunInfo, data executable.RawCheckpoint) error {
	eventsJSON, err := json.Marshal(data.Events)
	if err != nil {
		return fmt.Errorf("sqlstore: create_checkpoint marshal events: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.upsertCheckpointSQL(),
		run.SourceID, run.RunIndex, data.ReplayID, data.CheckpointHash, data.Output, string(eventsJSON))
	if err != nil {
		return fmt.Errorf("sqlstore: create_checkpoint upsert: %w", err)
	}
	return nil
}

func (s *Store) ReadCheckpoint(ctx context.Context, run executable.RunInfo, replayID string) (executable.RawCheckpoint, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT checkpoint_hash, output, events FROM oxy_checkpoints WHERE checkpoint_id = `+s.ph(1)+` AND run_index = `+s.ph(2)+` AND replay_id = `+s.ph(3),
		run.SourceID, run.RunIndex, replayID)

	var hash string
	var output []byte
	var eventsJSON string
	if err := row.Scan(&hash, &output, &eventsJSON); err != nil {
		if err == sql.ErrNoRows {
			return executable.RawCheckpoint{}, false, nil
		}
		return executable.RawCheckpoint{}, false, fmt.Errorf("sqlstore: read_checkpoint: %w", err)
	}
	var events []execctx.Event
	if err := json.Unmarshal([]byte(eventsJSON), &events); err != nil {
		return executable.RawCheckpoint{}, false, fmt.Errorf("sqlstore: read_checkpoint decode events: %w", err)
	}
	return executable.RawCheckpoint{ReplayID: replayID, CheckpointHash: hash, Output: output, Events: events}, true, nil
}

func (s *Store) WriteSuccessMarker(ctx context.Context, run executable.RunInfo) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE oxy_runs SET success = 1 WHERE checkpoint_id = `+s.ph(1)+` AND run_index = `+s.ph(2),
		run.SourceID, run.RunIndex)
	if err != nil {
		return fmt.Errorf("sqlstore: write_success_marker: %w", err)
	}
	return nil
}

// ph returns the dialect-appropriate placeholder for positional argument n.
func (s *Store) ph(n int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *Store) upsertCheckpointSQL() string {
	switch s.dialect {
	case DialectPostgres:
		return `INSERT INTO oxy_checkpoints (checkpoint_id, run_index, replay_id, checkpoint_hash, output, events)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (checkpoint_id, run_index, replay_id)
			DO UPDATE SET checkpoint_hash = excluded.checkpoint_hash, output = excluded.output, events = excluded.events`
	case DialectMySQL:
		return `INSERT INTO oxy_checkpoints (checkpoint_id, run_index, replay_id, checkpoint_hash, output, events)
			VALUES (?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE checkpoint_hash = VALUES(checkpoint_hash), output = VALUES(output), events = VALUES(events)`
	default: // sqlite3
		return `INSERT INTO oxy_checkpoints (checkpoint_id, run_index, replay_id, checkpoint_hash, output, events)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (checkpoint_id, run_index, replay_id)
			DO UPDATE SET checkpoint_hash = excluded.checkpoint_hash, output = excluded.output, events = excluded.events`
	}
}

// Close releases the underlying *sql.DB.
func (s *Store) Close() error { return s.db.Close() }
