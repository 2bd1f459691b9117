package registry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fenwick-systems/missioncore/sandbox"
)

// CreateFileTool writes a file under rootDir, admitting the declared
// path through sandbox.Validate first. Grounded on rustchain's
// FileCreateTool.
type CreateFileTool struct {
	rootDir string
}

// NewCreateFileTool roots file writes at rootDir.
func NewCreateFileTool(rootDir string) *CreateFileTool { return &CreateFileTool{rootDir: rootDir} }

func (t *CreateFileTool) Name() string        { return "create_file" }
func (t *CreateFileTool) Description() string { return "Creates a new file with the specified content" }
func (t *CreateFileTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path":    map[string]interface{}{"type": "string", "description": "The file path to create"},
			"content": map[string]interface{}{"type": "string", "description": "The content to write to the file"},
		},
		"required": []string{"path"},
	}
}

func (t *CreateFileTool) Execute(ctx context.Context, call Call) (Result, error) {
	start := time.Now()
	path, ok := call.Parameters["path"].(string)
	if !ok || path == "" {
		return failResult(start, fmt.Errorf("missing 'path' parameter")), nil
	}
	content, _ := call.Parameters["content"].(string)

	if err := sandbox.Validate(sandbox.ActionDescriptor{Path: path}); err != nil {
		return failResult(start, fmt.Errorf("create_file blocked by sandbox: %w", err)), nil
	}

	full := filepath.Join(t.rootDir, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return failResult(start, err), nil
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return failResult(start, err), nil
	}
	return okResult(start, map[string]interface{}{"path": path, "size": len(content)}), nil
}

// HTTPTool makes outbound HTTP requests, grounded on rustchain's
// HttpTool (GET/POST/PUT/DELETE against a url parameter).
type HTTPTool struct {
	client *http.Client
}

// NewHTTPTool creates an HTTPTool with a bounded default client.
func NewHTTPTool() *HTTPTool {
	return &HTTPTool{client: &http.Client{Timeout: 30 * time.Second}}
}

func (t *HTTPTool) Name() string        { return "http" }
func (t *HTTPTool) Description() string { return "Makes HTTP requests" }
func (t *HTTPTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url":    map[string]interface{}{"type": "string", "description": "The URL to request"},
			"method": map[string]interface{}{"type": "string", "enum": []string{"GET", "POST", "PUT", "DELETE"}},
			"body":   map[string]interface{}{"description": "Request body for POST/PUT requests"},
		},
		"required": []string{"url"},
	}
}

func (t *HTTPTool) Execute(ctx context.Context, call Call) (Result, error) {
	start := time.Now()
	url, ok := call.Parameters["url"].(string)
	if !ok || url == "" {
		return failResult(start, fmt.Errorf("missing 'url' parameter")), nil
	}
	method, _ := call.Parameters["method"].(string)
	if method == "" {
		method = "GET"
	}
	method = strings.ToUpper(method)

	var body io.Reader
	if b, ok := call.Parameters["body"].(string); ok && (method == "POST" || method == "PUT") {
		body = strings.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return failResult(start, err), nil
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return failResult(start, err), nil
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return failResult(start, err), nil
	}

	success := resp.StatusCode < 400
	output := map[string]interface{}{"status": resp.StatusCode, "body": string(data)}
	if !success {
		return Result{Success: false, Output: output, Error: fmt.Sprintf("HTTP %d", resp.StatusCode), ExecutionTimeMs: time.Since(start).Milliseconds()}, nil
	}
	return okResult(start, output), nil
}

// CommandTool runs an allow-checked external command, grounded on
// rustchain's CommandTool.
type CommandTool struct{}

func NewCommandTool() *CommandTool { return &CommandTool{} }

func (t *CommandTool) Name() string        { return "command" }
func (t *CommandTool) Description() string { return "Executes a shell command" }
func (t *CommandTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"command": map[string]interface{}{"type": "string", "description": "The command to execute"},
			"args":    map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		},
		"required": []string{"command"},
	}
}

func (t *CommandTool) Execute(ctx context.Context, call Call) (Result, error) {
	start := time.Now()
	command, ok := call.Parameters["command"].(string)
	if !ok || command == "" {
		return failResult(start, fmt.Errorf("missing 'command' parameter")), nil
	}
	var args []string
	if raw, ok := call.Parameters["args"].([]interface{}); ok {
		for _, a := range raw {
			if s, ok := a.(string); ok {
				args = append(args, s)
			}
		}
	}

	if err := sandbox.Validate(sandbox.ActionDescriptor{Command: strings.Join(append([]string{command}, args...), " ")}); err != nil {
		return failResult(start, fmt.Errorf("command blocked by sandbox: %w", err)), nil
	}

	cmd := exec.CommandContext(ctx, command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	exitCode := 0
	success := true
	if err != nil {
		success = false
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return failResult(start, err), nil
		}
	}

	output := map[string]interface{}{"stdout": stdout.String(), "stderr": stderr.String(), "exit_code": exitCode}
	if !success {
		return Result{Success: false, Output: output, Error: stderr.String(), ExecutionTimeMs: time.Since(start).Milliseconds()}, nil
	}
	return okResult(start, output), nil
}
