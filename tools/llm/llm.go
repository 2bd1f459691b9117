// Package llm is the StepLlm tool: a single-turn chat completion
// call against an OpenAI-compatible endpoint. Grounded on
// 88lin-divinesense's ai/llm.go llmService.Chat (client construction
// via openai.DefaultConfig/NewClientWithConfig, ChatCompletionRequest
// shape, token-usage stats extracted from the response).
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/fenwick-systems/missioncore/registry"
)

// Tool implements registry.Tool for StepLlm, sending the step's
// messages to a configured OpenAI-compatible chat completion endpoint.
type Tool struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// Config configures the underlying OpenAI-compatible client.
type Config struct {
	APIKey      string
	BaseURL     string // empty uses the default OpenAI API endpoint
	Model       string
	MaxTokens   int
	Temperature float32
}

// New constructs a Tool from cfg, following 88lin-divinesense's
// provider-switch pattern trimmed to a single OpenAI-compatible branch
// (base URL override covers self-hosted/compatible gateways).
func New(cfg Config) *Tool {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Tool{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (t *Tool) Name() string        { return "llm" }
func (t *Tool) Description() string { return "Runs a chat completion against the configured LLM" }

func (t *Tool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"prompt": map[string]interface{}{"type": "string", "description": "User prompt"},
			"system": map[string]interface{}{"type": "string", "description": "Optional system prompt"},
		},
		"required": []string{"prompt"},
	}
}

func (t *Tool) Execute(ctx context.Context, call registry.Call) (registry.Result, error) {
	start := time.Now()
	prompt, ok := call.Parameters["prompt"].(string)
	if !ok || prompt == "" {
		return failResult(start, fmt.Errorf("missing 'prompt' parameter")), nil
	}
	system, _ := call.Parameters["system"].(string)

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       t.model,
		MaxTokens:   t.maxTokens,
		Temperature: t.temperature,
		Messages:    messages,
	})
	if err != nil {
		return failResult(start, fmt.Errorf("llm chat failed: %w", err)), nil
	}
	if len(resp.Choices) == 0 {
		return failResult(start, fmt.Errorf("empty response from llm")), nil
	}

	return okResult(start, map[string]interface{}{
		"content":           resp.Choices[0].Message.Content,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"total_tokens":      resp.Usage.TotalTokens,
	}), nil
}

func failResult(start time.Time, err error) registry.Result {
	return registry.Result{Success: false, Output: map[string]interface{}{"error": err.Error()}, Error: err.Error(), ExecutionTimeMs: time.Since(start).Milliseconds()}
}

func okResult(start time.Time, output map[string]interface{}) registry.Result {
	return registry.Result{Success: true, Output: output, ExecutionTimeMs: time.Since(start).Milliseconds()}
}
