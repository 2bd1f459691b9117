// Package sqltool is the StepDatabase tool: parameterized SQL queries
// and statements against a database/sql handle. The driver choice
// (modernc.org/sqlite, a pure-Go SQLite implementation with no CGO
// dependency) is grounded on 88lin-divinesense and karin478-Apex, which
// both reach for database/sql-backed SQLite storage; modernc's driver
// is used here in place of 88lin-divinesense's mattn/go-sqlite3 since
// this module is never compiled with CGO enabled.
package sqltool

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fenwick-systems/missioncore/registry"
)

// Tool implements registry.Tool for "query" (SELECT, rows returned)
// and "exec" (INSERT/UPDATE/DDL, rows-affected returned) operations
// against a single open *sql.DB.
type Tool struct {
	db *sql.DB
}

// Open opens a modernc.org/sqlite-backed database at dsn (a file path,
// or ":memory:") and returns a ready Tool.
func Open(dsn string) (*Tool, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite dsn %q: %w", dsn, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writers
	return &Tool{db: db}, nil
}

// New wraps an already-open *sql.DB, letting callers share a handle
// across tools or point this tool at a non-SQLite database/sql driver.
func New(db *sql.DB) *Tool { return &Tool{db: db} }

func (t *Tool) Close() error { return t.db.Close() }

func (t *Tool) Name() string        { return "database" }
func (t *Tool) Description() string { return "Runs a parameterized SQL query or statement" }

func (t *Tool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"operation": map[string]interface{}{"type": "string", "enum": []string{"query", "exec"}},
			"sql":       map[string]interface{}{"type": "string", "description": "SQL statement with ? placeholders"},
			"args":      map[string]interface{}{"type": "array", "description": "Positional placeholder values"},
		},
		"required": []string{"operation", "sql"},
	}
}

func (t *Tool) Execute(ctx context.Context, call registry.Call) (registry.Result, error) {
	start := time.Now()
	op, _ := call.Parameters["operation"].(string)
	query, _ := call.Parameters["sql"].(string)
	if op == "" || query == "" {
		return failResult(start, fmt.Errorf("missing 'operation' or 'sql' parameter")), nil
	}
	if err := rejectMultiStatement(query); err != nil {
		return failResult(start, err), nil
	}
	args := argsFrom(call.Parameters["args"])

	switch op {
	case "query":
		rows, err := t.db.QueryContext(ctx, query, args...)
		if err != nil {
			return failResult(start, err), nil
		}
		defer rows.Close()
		results, err := scanRows(rows)
		if err != nil {
			return failResult(start, err), nil
		}
		return okResult(start, map[string]interface{}{"rows": results, "row_count": len(results)}), nil

	case "exec":
		res, err := t.db.ExecContext(ctx, query, args...)
		if err != nil {
			return failResult(start, err), nil
		}
		affected, _ := res.RowsAffected()
		lastID, _ := res.LastInsertId()
		return okResult(start, map[string]interface{}{"rows_affected": affected, "last_insert_id": lastID}), nil

	default:
		return failResult(start, fmt.Errorf("unsupported database operation: %s", op)), nil
	}
}

// rejectMultiStatement blocks stacked queries (";" followed by more
// SQL) the same way the sandbox blocks shell-metacharacter chaining in
// command steps — a mission step gets one statement, not a script.
func rejectMultiStatement(query string) error {
	trimmed := strings.TrimRight(strings.TrimSpace(query), ";")
	if strings.Contains(trimmed, ";") {
		return fmt.Errorf("stacked SQL statements are not permitted")
	}
	return nil
}

func argsFrom(raw interface{}) []interface{} {
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	return list
}

func scanRows(rows *sql.Rows) ([]map[string]interface{}, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func failResult(start time.Time, err error) registry.Result {
	return registry.Result{Success: false, Output: map[string]interface{}{"error": err.Error()}, Error: err.Error(), ExecutionTimeMs: time.Since(start).Milliseconds()}
}

func okResult(start time.Time, output map[string]interface{}) registry.Result {
	return registry.Result{Success: true, Output: output, ExecutionTimeMs: time.Since(start).Milliseconds()}
}
