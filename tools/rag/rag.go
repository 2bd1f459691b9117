// Package rag implements the StepRagAdd/StepRagQuery tools: adding a
// text chunk with its embedding to a pgvector-backed table, and
// nearest-neighbor search over that table. Grounded on
// 88lin-divinesense's store/db/postgres/episodic_memory_embedding.go
// (lib/pq connection, pgvector.Vector column type, cosine/L2 ordering
// via the `<->`/`<=>` operators).
package rag

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/fenwick-systems/missioncore/registry"
)

const createTableStmt = `
CREATE TABLE IF NOT EXISTS mission_rag_chunks (
	id SERIAL PRIMARY KEY,
	collection TEXT NOT NULL,
	content TEXT NOT NULL,
	embedding vector NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store owns the Postgres connection backing both rag tools.
type Store struct {
	db *sql.DB
}

// Open connects to Postgres via lib/pq and ensures the chunk table and
// the pgvector extension exist.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres dsn: %w", err)
	}
	if _, err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return nil, fmt.Errorf("enabling pgvector extension: %w", err)
	}
	if _, err := db.Exec(createTableStmt); err != nil {
		return nil, fmt.Errorf("creating rag chunk table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// AddTool implements registry.Tool for StepRagAdd: inserts a chunk of
// text with a caller-supplied embedding into a named collection.
type AddTool struct{ store *Store }

func NewAddTool(store *Store) *AddTool { return &AddTool{store: store} }

func (t *AddTool) Name() string        { return "rag_add" }
func (t *AddTool) Description() string { return "Adds a text chunk and its embedding to a RAG collection" }

func (t *AddTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"collection": map[string]interface{}{"type": "string"},
			"content":    map[string]interface{}{"type": "string"},
			"embedding":  map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "number"}},
		},
		"required": []string{"collection", "content", "embedding"},
	}
}

func (t *AddTool) Execute(ctx context.Context, call registry.Call) (registry.Result, error) {
	start := time.Now()
	collection, _ := call.Parameters["collection"].(string)
	content, _ := call.Parameters["content"].(string)
	if collection == "" || content == "" {
		return failResult(start, fmt.Errorf("missing 'collection' or 'content' parameter")), nil
	}
	vec, err := embeddingFrom(call.Parameters["embedding"])
	if err != nil {
		return failResult(start, err), nil
	}

	var id int64
	err = t.store.db.QueryRowContext(ctx,
		"INSERT INTO mission_rag_chunks (collection, content, embedding) VALUES ($1, $2, $3) RETURNING id",
		collection, content, pgvector.NewVector(vec)).Scan(&id)
	if err != nil {
		return failResult(start, err), nil
	}
	return okResult(start, map[string]interface{}{"id": id, "collection": collection}), nil
}

// QueryTool implements registry.Tool for StepRagQuery: nearest-
// neighbor search by L2 distance (pgvector's `<->` operator) within a
// collection.
type QueryTool struct{ store *Store }

func NewQueryTool(store *Store) *QueryTool { return &QueryTool{store: store} }

func (t *QueryTool) Name() string        { return "rag_query" }
func (t *QueryTool) Description() string { return "Finds the nearest chunks to a query embedding" }

func (t *QueryTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"collection": map[string]interface{}{"type": "string"},
			"embedding":  map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "number"}},
			"top_k":      map[string]interface{}{"type": "integer", "default": 5},
		},
		"required": []string{"collection", "embedding"},
	}
}

func (t *QueryTool) Execute(ctx context.Context, call registry.Call) (registry.Result, error) {
	start := time.Now()
	collection, _ := call.Parameters["collection"].(string)
	if collection == "" {
		return failResult(start, fmt.Errorf("missing 'collection' parameter")), nil
	}
	vec, err := embeddingFrom(call.Parameters["embedding"])
	if err != nil {
		return failResult(start, err), nil
	}
	topK := 5
	if v, ok := call.Parameters["top_k"].(float64); ok && v > 0 {
		topK = int(v)
	}

	rows, err := t.store.db.QueryContext(ctx,
		"SELECT id, content, embedding <-> $1 AS distance FROM mission_rag_chunks WHERE collection = $2 ORDER BY embedding <-> $1 LIMIT $3",
		pgvector.NewVector(vec), collection, topK)
	if err != nil {
		return failResult(start, err), nil
	}
	defer rows.Close()

	var matches []map[string]interface{}
	for rows.Next() {
		var id int64
		var content string
		var distance float64
		if err := rows.Scan(&id, &content, &distance); err != nil {
			return failResult(start, err), nil
		}
		matches = append(matches, map[string]interface{}{"id": id, "content": content, "distance": distance})
	}
	if err := rows.Err(); err != nil {
		return failResult(start, err), nil
	}
	return okResult(start, map[string]interface{}{"matches": matches, "count": len(matches)}), nil
}

func embeddingFrom(raw interface{}) ([]float32, error) {
	list, ok := raw.([]interface{})
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("missing or empty 'embedding' parameter")
	}
	out := make([]float32, len(list))
	for i, v := range list {
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("embedding element %d is not numeric", i)
		}
		out[i] = float32(f)
	}
	return out, nil
}

func failResult(start time.Time, err error) registry.Result {
	return registry.Result{Success: false, Output: map[string]interface{}{"error": err.Error()}, Error: err.Error(), ExecutionTimeMs: time.Since(start).Milliseconds()}
}

func okResult(start time.Time, output map[string]interface{}) registry.Result {
	return registry.Result{Success: true, Output: output, ExecutionTimeMs: time.Since(start).Milliseconds()}
}
