package generator

import (
	"fmt"

	"github.com/1amageek/Wisdom/internal/config"
)

// NewClient creates a provider client from configuration.
func NewClient(cfg *config.Config) (Client, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return NewAnthropicClient(cfg.APIKey, cfg.Model), nil
	case config.ProviderOpenAI:
		if cfg.APIKey == "" && cfg.BaseURL == "" {
			return nil, fmt.Errorf("openai provider requires an API key or a custom base URL")
		}
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
