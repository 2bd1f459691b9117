package rag

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwick-systems/missioncore/registry"
)

func TestEmbeddingFrom_RejectsEmptyOrNonNumeric(t *testing.T) {
	_, err := embeddingFrom([]interface{}{})
	require.Error(t, err)

	_, err = embeddingFrom([]interface{}{"not-a-number"})
	require.Error(t, err)

	vec, err := embeddingFrom([]interface{}{1.0, 2.0, 3.0})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
}

func TestAddTool_MissingParametersFails(t *testing.T) {
	tool := NewAddTool(nil)
	result, err := tool.Execute(context.Background(), registry.Call{ToolName: "rag_add", Parameters: map[string]interface{}{}})
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestQueryTool_MissingParametersFails(t *testing.T) {
	tool := NewQueryTool(nil)
	result, err := tool.Execute(context.Background(), registry.Call{ToolName: "rag_query", Parameters: map[string]interface{}{}})
	require.NoError(t, err)
	assert.False(t, result.Success)
}

// openTestStore connects to a real Postgres+pgvector instance for the
// round-trip test below. Set MISSIONCORE_TEST_POSTGRES_DSN to run it;
// it is skipped otherwise since CI here has no Postgres service.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("MISSIONCORE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MISSIONCORE_TEST_POSTGRES_DSN not set, skipping pgvector integration test")
	}
	store, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAddAndQuery_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	addTool := NewAddTool(store)
	result, err := addTool.Execute(ctx, registry.Call{
		ToolName: "rag_add",
		Parameters: map[string]interface{}{
			"collection": "test-collection", "content": "hello world",
			"embedding": []interface{}{1.0, 0.0, 0.0},
		},
	})
	require.NoError(t, err)
	require.True(t, result.Success)

	queryTool := NewQueryTool(store)
	result, err = queryTool.Execute(ctx, registry.Call{
		ToolName: "rag_query",
		Parameters: map[string]interface{}{
			"collection": "test-collection", "embedding": []interface{}{1.0, 0.0, 0.0}, "top_k": float64(1),
		},
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.EqualValues(t, 1, result.Output["count"])
}
