// Package registry is the tool registry: name-addressed dispatch to
// Tool implementations, each describing its parameters with a JSON
// Schema and never raising — failures come back as a ToolResult.
// Grounded on rustchain's tools/mod.rs (ToolExecutor trait, ToolManager,
// FileCreateTool/HttpTool/CommandTool built-ins).
package registry

import (
	"context"
	"time"
)

// Call is one invocation request against a registered tool.
type Call struct {
	ToolName        string                 `json:"tool_name"`
	Parameters      map[string]interface{} `json:"parameters"`
	TimeoutMs       *int64                 `json:"timeout_ms,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	ContinueOnError bool                   `json:"continue_on_error"`
}

// Timeout returns the call's declared timeout, or fallback if unset.
func (c Call) Timeout(fallback time.Duration) time.Duration {
	if c.TimeoutMs == nil || *c.TimeoutMs <= 0 {
		return fallback
	}
	return time.Duration(*c.TimeoutMs) * time.Millisecond
}

// Result is the outcome of a tool call. A failed tool execution is
// still a successful Execute call at the Go level — Result.Success
// carries the semantic outcome so callers never have to type-assert an
// error to learn what happened.
type Result struct {
	Success         bool                   `json:"success"`
	Output          map[string]interface{} `json:"output"`
	Error           string                 `json:"error,omitempty"`
	ExecutionTimeMs int64                  `json:"execution_time_ms"`
}

func failResult(start time.Time, err error) Result {
	return Result{
		Success:         false,
		Output:          map[string]interface{}{"error": err.Error()},
		Error:           err.Error(),
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}
}

func okResult(start time.Time, output map[string]interface{}) Result {
	return Result{Success: true, Output: output, ExecutionTimeMs: time.Since(start).Milliseconds()}
}

// Tool is a named, schema-describing executor. Execute must never
// panic or return a Go error for a domain-level failure (a missing
// parameter, a blocked command) — those map onto Result.Success=false.
// Execute may still return an error for conditions outside the tool's
// own control (ctx cancellation, an internal bug); the Registry treats
// any such error as a Result with Success=false, too.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]interface{}
	Execute(ctx context.Context, call Call) (Result, error)
}
