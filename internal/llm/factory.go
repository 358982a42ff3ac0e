package llm

import (
	"fmt"
	"strings"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai", "vllm":
		return NewOpenAIProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, fmt.Errorf("no LLM provider configured (set llm.provider)")

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, vllm, ollama)", config.Provider)
	}
}
