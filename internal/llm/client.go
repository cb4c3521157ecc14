// Package llm provides the chat-model client seam shared by the analysis,
// filing, and fund-matching components.
package llm

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the minimal chat-completion interface the service needs. Any
// OpenAI-compatible backend satisfies it; tests substitute stubs.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config selects the backend and model.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// New builds an OpenAI client for the configured backend.
func New(cfg Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}

// StripFences removes a markdown code fence wrapper (``` or ```json) that
// chat models often emit around JSON payloads.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	parts := strings.SplitN(s, "```", 3)
	if len(parts) < 2 {
		return s
	}
	body := parts[1]
	body = strings.TrimPrefix(body, "json")
	return strings.TrimSpace(body)
}
