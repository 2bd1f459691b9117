package sqltool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwick-systems/missioncore/registry"
)

func openTestTool(t *testing.T) *Tool {
	t.Helper()
	tool, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = tool.Close() })
	return tool
}

func TestTool_ExecCreatesTableThenQueryReturnsRows(t *testing.T) {
	tool := openTestTool(t)
	ctx := context.Background()

	result, err := tool.Execute(ctx, registry.Call{
		ToolName:   "database",
		Parameters: map[string]interface{}{"operation": "exec", "sql": "CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)"},
	})
	require.NoError(t, err)
	require.True(t, result.Success)

	result, err = tool.Execute(ctx, registry.Call{
		ToolName:   "database",
		Parameters: map[string]interface{}{"operation": "exec", "sql": "INSERT INTO widgets (name) VALUES (?)", "args": []interface{}{"gear"}},
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.EqualValues(t, 1, result.Output["rows_affected"])

	result, err = tool.Execute(ctx, registry.Call{
		ToolName:   "database",
		Parameters: map[string]interface{}{"operation": "query", "sql": "SELECT id, name FROM widgets WHERE name = ?", "args": []interface{}{"gear"}},
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.EqualValues(t, 1, result.Output["row_count"])
}

func TestTool_RejectsStackedStatements(t *testing.T) {
	tool := openTestTool(t)
	result, err := tool.Execute(context.Background(), registry.Call{
		ToolName:   "database",
		Parameters: map[string]interface{}{"operation": "exec", "sql": "DROP TABLE widgets; DROP TABLE users"},
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestTool_InvalidSQLFails(t *testing.T) {
	tool := openTestTool(t)
	result, err := tool.Execute(context.Background(), registry.Call{
		ToolName:   "database",
		Parameters: map[string]interface{}{"operation": "query", "sql": "SELECT * FROM nonexistent_table"},
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestTool_MissingParametersFails(t *testing.T) {
	tool := openTestTool(t)
	result, err := tool.Execute(context.Background(), registry.Call{ToolName: "database", Parameters: map[string]interface{}{}})
	require.NoError(t, err)
	assert.False(t, result.Success)
}
