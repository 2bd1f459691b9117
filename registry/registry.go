package registry

import (
	"context"
	"sync"
	"time"

	"github.com/fenwick-systems/missioncore/runtime"
)

// defaultCallTimeout mirrors rustchain's ToolCall::new default of a
// 30-second timeout when a call doesn't declare one.
const defaultCallTimeout = 30 * time.Second

// Registry is the name -> Tool dispatch table. Registration is rare
// (startup wiring); lookup and execution are the hot path, so reads
// take the shared lock.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger runtime.Logger
}

// New creates an empty Registry.
func New(logger runtime.Logger) *Registry {
	if logger == nil {
		logger = runtime.NoOpLogger{}
	}
	return &Registry{tools: make(map[string]Tool), logger: logger}
}

// Register adds or replaces a tool under its own Name().
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Info("registering tool", map[string]interface{}{"tool": tool.Name()})
	r.tools[tool.Name()] = tool
}

// Lookup returns the tool registered under name, if any.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns every registered tool name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.tools))
	for name := range r.tools {
		out = append(out, name)
	}
	return out
}

// Schema returns the JSON Schema a registered tool describes its
// parameters with.
func (r *Registry) Schema(name string) (map[string]interface{}, bool) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, false
	}
	return t.Schema(), true
}

// Execute dispatches call to its named tool. An unknown tool name, a
// context cancellation, or a tool-internal error all come back as a
// Result with Success=false; Execute has no error return of its own.
func (r *Registry) Execute(ctx context.Context, call Call) Result {
	start := time.Now()
	tool, ok := r.Lookup(call.ToolName)
	if !ok {
		return failResult(start, runtime.NewMissionError("registry.Execute", runtime.KindTool, "", runtime.ErrToolNotFound))
	}

	cctx, cancel := context.WithTimeout(ctx, call.Timeout(defaultCallTimeout))
	defer cancel()

	result, err := tool.Execute(cctx, call)
	if err != nil {
		if cctx.Err() != nil {
			return failResult(start, runtime.NewMissionError("registry.Execute", runtime.KindTimeout, "", runtime.ErrTimeout))
		}
		return failResult(start, runtime.NewMissionError("registry.Execute", runtime.KindTool, "", err))
	}
	return result
}
