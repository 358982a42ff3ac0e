// Package llm asks a language model to annotate article text with a user
// need label and impact scores.
package llm

import (
	"context"

	"github.com/ppiankov/needscore/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one prompt and returns the raw completion text
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)

	// IsAvailable checks if the provider is reachable
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest is one prompt. Zero fields fall back to the provider Config.
type CompletionRequest struct {
	System    string
	Prompt    string
	Model     string
	MaxTokens int
}

// Completion is the model output
type Completion struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai" (also vLLM and other compatible servers) or "ollama"
	Provider string

	Model   string
	APIKey  string
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	MaxTokens   int
	Temperature float32
	TopP        float32
	Seed        int

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ConfigFromModel converts the application config to a provider Config
func ConfigFromModel(llmCfg model.LLMConfig, httpCfg model.HTTPConfig) Config {
	return Config{
		Provider:    llmCfg.Provider,
		Model:       llmCfg.Model,
		APIKey:      llmCfg.APIKey,
		BaseURL:     llmCfg.BaseURL,
		Timeout:     llmCfg.Timeout,
		MaxTokens:   llmCfg.MaxTokens,
		Temperature: llmCfg.Temperature,
		TopP:        llmCfg.TopP,
		Seed:        llmCfg.Seed,
		HTTPProxy:   httpCfg.HTTPProxy,
		HTTPSProxy:  httpCfg.HTTPSProxy,
		NoProxy:     httpCfg.NoProxy,
	}
}
