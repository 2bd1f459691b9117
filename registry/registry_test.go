package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_LookupAndSchema(t *testing.T) {
	r := New(nil)
	r.Register(NewCreateFileTool(t.TempDir()))

	tool, ok := r.Lookup("create_file")
	require.True(t, ok)
	assert.Equal(t, "create_file", tool.Name())

	schema, ok := r.Schema("create_file")
	require.True(t, ok)
	assert.Equal(t, "object", schema["type"])
}

func TestRegistry_ExecuteUnknownToolFails(t *testing.T) {
	r := New(nil)
	result := r.Execute(context.Background(), Call{ToolName: "nope"})
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestCreateFileTool_WritesUnderRoot(t *testing.T) {
	root := t.TempDir()
	r := New(nil)
	r.Register(NewCreateFileTool(root))

	result := r.Execute(context.Background(), Call{ToolName: "create_file", Parameters: map[string]interface{}{
		"path": "out/hello.txt", "content": "hi there",
	}})
	require.True(t, result.Success)
	assert.FileExists(t, filepath.Join(root, "out/hello.txt"))
}

func TestCreateFileTool_RejectsEscapingPath(t *testing.T) {
	root := t.TempDir()
	r := New(nil)
	r.Register(NewCreateFileTool(root))

	result := r.Execute(context.Background(), Call{ToolName: "create_file", Parameters: map[string]interface{}{
		"path": "../escape.txt", "content": "x",
	}})
	assert.False(t, result.Success)
}

func TestCreateFileTool_MissingPathFails(t *testing.T) {
	r := New(nil)
	r.Register(NewCreateFileTool(t.TempDir()))

	result := r.Execute(context.Background(), Call{ToolName: "create_file", Parameters: map[string]interface{}{}})
	assert.False(t, result.Success)
}

func TestHTTPTool_SuccessAndFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/ok" {
			w.WriteHeader(200)
			w.Write([]byte("ok"))
			return
		}
		w.WriteHeader(500)
	}))
	defer srv.Close()

	r := New(nil)
	r.Register(NewHTTPTool())

	ok := r.Execute(context.Background(), Call{ToolName: "http", Parameters: map[string]interface{}{"url": srv.URL + "/ok"}})
	assert.True(t, ok.Success)

	fail := r.Execute(context.Background(), Call{ToolName: "http", Parameters: map[string]interface{}{"url": srv.URL + "/bad"}})
	assert.False(t, fail.Success)
}

func TestCommandTool_RunsSafeCommand(t *testing.T) {
	r := New(nil)
	r.Register(NewCommandTool())

	result := r.Execute(context.Background(), Call{ToolName: "command", Parameters: map[string]interface{}{
		"command": "echo", "args": []interface{}{"hi"},
	}})
	require.True(t, result.Success)
	assert.Contains(t, result.Output["stdout"], "hi")
}

func TestCommandTool_RejectsDangerousCommand(t *testing.T) {
	r := New(nil)
	r.Register(NewCommandTool())

	result := r.Execute(context.Background(), Call{ToolName: "command", Parameters: map[string]interface{}{
		"command": "rm", "args": []interface{}{"-rf", "/"},
	}})
	assert.False(t, result.Success)
}
