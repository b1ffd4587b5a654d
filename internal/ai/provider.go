// Package ai provides the language-model gateway used for news-based
// portfolio analysis, plus the pure prompt builder that assembles the
// analysis request text.
package ai

import (
	"context"
	"fmt"
)

// Provider is the interface all language-model providers implement. Complete
// sends the analysis prompt and returns the raw response text. Callers never
// inspect failures beyond "the call failed": a gateway error aborts the
// current pass without mutating any state.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProviderConfig holds the configuration needed to create a provider.
type ProviderConfig struct {
	Provider string // "openai" | "anthropic"
	APIKey   string
	Model    string
}

// systemPrompt frames every analysis request regardless of provider.
const systemPrompt = "You are a professional financial advisor and investment analyst. " +
	"Provide detailed, well-reasoned investment recommendations based on portfolio data and market news. " +
	"Always format your recommendations as JSON objects within markdown code blocks."

// NewProvider creates the appropriate provider based on config.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg.APIKey, cfg.Model), nil
	case "anthropic":
		return NewAnthropicProvider(cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}
