package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwick-systems/missioncore/registry"
)

func TestTool_CommitOnExistingRepoSucceeds(t *testing.T) {
	root := t.TempDir()
	repoPath := "repo"
	full := filepath.Join(root, repoPath)
	require.NoError(t, os.MkdirAll(full, 0o755))

	_, err := gogit.PlainInit(full, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(full, "a.txt"), []byte("hi"), 0o644))

	tool := New(root)
	result, err := tool.Execute(context.Background(), registry.Call{
		ToolName: "git",
		Parameters: map[string]interface{}{
			"operation": "commit", "path": repoPath, "message": "initial", "author": "tester", "email": "t@example.com",
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.Output["commit"])
}

func TestTool_RejectsEscapingPath(t *testing.T) {
	tool := New(t.TempDir())
	result, err := tool.Execute(context.Background(), registry.Call{
		ToolName:   "git",
		Parameters: map[string]interface{}{"operation": "commit", "path": "../outside"},
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestTool_UnsupportedOperationFails(t *testing.T) {
	tool := New(t.TempDir())
	result, err := tool.Execute(context.Background(), registry.Call{
		ToolName:   "git",
		Parameters: map[string]interface{}{"operation": "rebase", "path": "repo"},
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestTool_MissingOperationFails(t *testing.T) {
	tool := New(t.TempDir())
	result, err := tool.Execute(context.Background(), registry.Call{ToolName: "git", Parameters: map[string]interface{}{}})
	require.NoError(t, err)
	assert.False(t, result.Success)
}
