// Package generate provides the external text-generation capability used by
// the extraction pipeline. Callers are plain functions so tests can inject
// a mock without standing up a provider.
package generate

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	providerAnthropic = "anthropic"
	providerOpenAI    = "openai"
	providerOllama    = "ollama"
)

// CallFunc is the signature for one generation call: a fixed system
// instruction plus a user message, returning the raw response text.
type CallFunc func(ctx context.Context, system, user string) (string, error)

// CallerConfig holds configuration for creating a generation caller.
type CallerConfig struct {
	Provider string        // "anthropic", "openai", or "ollama"
	Model    string        // e.g. "claude-haiku-4-5-20251001", "gpt-4o-mini"
	APIKey   string        // explicit API key (highest priority)
	BaseURL  string        // override base URL
	Timeout  time.Duration // per-call timeout, defaults to 120s
}

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 120 * time.Second

// NewCaller creates a CallFunc based on the provided configuration.
// API key resolution order: explicit key in config, then environment
// variables (ANTHROPIC_API_KEY / OPENAI_API_KEY). When no key can be
// resolved and the provider is not explicitly ollama, the caller falls
// back to Ollama at localhost:11434.
func NewCaller(cfg CallerConfig) (CallFunc, error) {
	provider := strings.ToLower(cfg.Provider)
	model := cfg.Model

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = resolveAPIKeyFromEnv(provider)
	}

	if apiKey == "" && provider != providerOllama {
		provider = providerOllama
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	switch provider {
	case providerAnthropic, "":
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.anthropic.com"
		}
		return newAnthropicCaller(apiKey, model, baseURL, timeout), nil

	case providerOpenAI:
		if model == "" {
			model = "gpt-4o-mini"
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com"
		}
		return newOpenAICaller(apiKey, model, baseURL, timeout), nil

	case providerOllama:
		if model == "" {
			model = "llama3.2"
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return newOllamaCaller(model, baseURL, timeout), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

func resolveAPIKeyFromEnv(provider string) string {
	switch provider {
	case providerAnthropic, "":
		return os.Getenv("ANTHROPIC_API_KEY")
	case providerOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	default:
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("OPENAI_API_KEY")
	}
}
