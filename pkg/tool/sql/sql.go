// Package sql adapts config.DBPool into a toolregistry.ToolExecutor
// registered under the "sql" tool type, the executor pkg/fsm.QueryTrigger
// dispatches generated queries through (spec §4.5 scenario 1). Dialect
// differences (Postgres/MySQL/SQLite) stay inside config.DatabaseConfig's
// DSN/DriverName; this package only runs whatever query text it is given
// and flattens the rows into an execctx.Output table (spec §1 Non-goals
// exclude building a SQL dialect of our own).
package sql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oxy-run/oxy/pkg/config"
	"github.com/oxy-run/oxy/pkg/execctx"
)

// Request is the expected JSON shape of a "sql" tool call.
type Request struct {
	SQL string `json:"sql"`
}

// Executor runs queries against one named, pre-configured database.
type Executor struct {
	database string
	cfg      *config.DatabaseConfig
	pool     *config.DBPool
}

// New builds an Executor for the named database, pooling connections
// through pool (shared across every Executor so repeated queries against
// the same DSN reuse one *sql.DB, matching config.DBPool's own contract).
func New(database string, cfg *config.DatabaseConfig, pool *config.DBPool) *Executor {
	return &Executor{database: database, cfg: cfg, pool: pool}
}

// Name identifies this executor in the toolregistry.
func (e *Executor) Name() string { return "sql:" + e.database }

// CanHandle matches only the "sql" tool type (spec §4.5's sqlToolType).
func (e *Executor) CanHandle(toolType string) bool { return toolType == "sql" }

// Execute runs the query carried in rawInput and returns its rows as a
// single execctx.OutputTable.
func (e *Executor) Execute(ctx context.Context, _ execctx.ExecutionContext, _ string, rawInput []byte) (execctx.OutputContainer, error) {
	var req Request
	if err := json.Unmarshal(rawInput, &req); err != nil {
		return execctx.OutputContainer{}, fmt.Errorf("sql: decode request: %w", err)
	}
	if req.SQL == "" {
		return execctx.OutputContainer{}, fmt.Errorf("sql: query is required")
	}

	db, err := e.pool.Get(e.cfg)
	if err != nil {
		return execctx.OutputContainer{}, fmt.Errorf("sql: connect to %q: %w", e.database, err)
	}

	rows, err := db.QueryContext(ctx, req.SQL)
	if err != nil {
		return execctx.OutputContainer{}, fmt.Errorf("sql: query %q: %w", e.database, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return execctx.OutputContainer{}, fmt.Errorf("sql: read columns: %w", err)
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return execctx.OutputContainer{}, fmt.Errorf("sql: read column types: %w", err)
	}

	schema := make([]execctx.ColumnSchema, len(cols))
	for i, ct := range colTypes {
		schema[i] = execctx.ColumnSchema{Name: cols[i], Type: ct.DatabaseTypeName()}
	}

	var tableRows []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return execctx.OutputContainer{}, fmt.Errorf("sql: scan row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i])
		}
		tableRows = append(tableRows, row)
	}
	if err := rows.Err(); err != nil {
		return execctx.OutputContainer{}, fmt.Errorf("sql: iterate rows: %w", err)
	}

	return execctx.SingleOutput(execctx.Output{
		Kind:        execctx.OutputTable,
		TableRows:   tableRows,
		TableSchema: schema,
	}), nil
}

// normalizeValue converts driver-returned []byte (the common representation
// for TEXT/VARCHAR/NUMERIC columns across database/sql drivers) to string
// so results serialize cleanly as JSON.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
