package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fenwick-systems/missioncore/registry"
)

// Tool is the StepHttp/StepNetwork registry.Tool: an outbound HTTP
// client with a per-host circuit breaker. Grounded on rustchain's
// HttpTool (method/url/body parameter shape) plus the breaker pattern
// in circuitbreaker.go.
type Tool struct {
	client *http.Client

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// New creates a Tool with a bounded default client.
func New() *Tool {
	return &Tool{
		client:   &http.Client{Timeout: 30 * time.Second},
		breakers: make(map[string]*CircuitBreaker),
	}
}

func (t *Tool) Name() string        { return "http" }
func (t *Tool) Description() string { return "Makes HTTP requests with per-host circuit breaking" }

func (t *Tool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url":     map[string]interface{}{"type": "string", "description": "The URL to request"},
			"method":  map[string]interface{}{"type": "string", "enum": []string{"GET", "POST", "PUT", "DELETE", "PATCH"}},
			"body":    map[string]interface{}{"description": "Request body for POST/PUT/PATCH requests"},
			"headers": map[string]interface{}{"type": "object", "description": "Extra request headers"},
		},
		"required": []string{"url"},
	}
}

func (t *Tool) breakerFor(host string) *CircuitBreaker {
	t.mu.Lock()
	defer t.mu.Unlock()
	cb, ok := t.breakers[host]
	if !ok {
		cb = NewCircuitBreaker(DefaultCircuitBreakerConfig(host))
		t.breakers[host] = cb
	}
	return cb
}

func (t *Tool) Execute(ctx context.Context, call registry.Call) (registry.Result, error) {
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
	if b, ok := call.Parameters["body"].(string); ok && (method == "POST" || method == "PUT" || method == "PATCH") {
		body = strings.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return failResult(start, err), nil
	}
	if headers, ok := call.Parameters["headers"].(map[string]interface{}); ok {
		for k, v := range headers {
			if s, ok := v.(string); ok {
				req.Header.Set(k, s)
			}
		}
	}

	cb := t.breakerFor(req.URL.Host)

	var resp *http.Response
	execErr := cb.Execute(func() error {
		var doErr error
		resp, doErr = t.client.Do(req)
		if doErr != nil {
			return doErr
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		return nil
	})

	if execErr != nil && execErr == ErrCircuitOpen {
		return failResult(start, fmt.Errorf("circuit open for host %s: %w", req.URL.Host, execErr)), nil
	}
	if resp == nil {
		return failResult(start, execErr), nil
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return failResult(start, err), nil
	}

	success := resp.StatusCode < 400
	output := map[string]interface{}{"status": resp.StatusCode, "body": string(data), "circuit_state": cb.State().String()}
	if !success {
		return registry.Result{Success: false, Output: output, Error: fmt.Sprintf("HTTP %d", resp.StatusCode), ExecutionTimeMs: time.Since(start).Milliseconds()}, nil
	}
	return registry.Result{Success: true, Output: output, ExecutionTimeMs: time.Since(start).Milliseconds()}, nil
}

func failResult(start time.Time, err error) registry.Result {
	return registry.Result{Success: false, Output: map[string]interface{}{"error": err.Error()}, Error: err.Error(), ExecutionTimeMs: time.Since(start).Milliseconds()}
}
