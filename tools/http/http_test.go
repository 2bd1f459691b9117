package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwick-systems/missioncore/registry"
)

func TestTool_SuccessfulGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tool := New()
	result, err := tool.Execute(context.Background(), registry.Call{
		ToolName:   "http",
		Parameters: map[string]interface{}{"url": srv.URL},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestTool_MissingURLFails(t *testing.T) {
	tool := New()
	result, err := tool.Execute(context.Background(), registry.Call{ToolName: "http", Parameters: map[string]interface{}{}})
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestTool_ServerErrorTripsBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	parsed, err := url.Parse(srv.URL)
	require.NoError(t, err)

	tool := New()
	tool.breakers[parsed.Host] = NewCircuitBreaker(CircuitBreakerConfig{
		ErrorThreshold: 0.1, VolumeThreshold: 1, SleepWindow: time.Hour, HalfOpenTrials: 2, WindowSize: time.Hour,
	})

	result, err := tool.Execute(context.Background(), registry.Call{
		ToolName:   "http",
		Parameters: map[string]interface{}{"url": srv.URL},
	})
	require.NoError(t, err)
	assert.False(t, result.Success)

	result, err = tool.Execute(context.Background(), registry.Call{
		ToolName:   "http",
		Parameters: map[string]interface{}{"url": srv.URL},
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "circuit open")
}
