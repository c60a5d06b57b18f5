package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

type Options struct {
	Provider        string
	Model           string
	Timeout         time.Duration
	OllamaBin       string
	AnthropicAPIKey string
	GeminiAPIKey    string
}

// New builds the configured generator wrapped with logging and the timeout.
func New(ctx context.Context, opts Options) (Generator, error) {
	provider := strings.ToLower(opts.Provider)
	if provider == "" {
		provider = ProviderOllama
	}

	var (
		g     Generator
		model string
	)
	switch provider {
	case ProviderOllama:
		o := NewOllama(opts.OllamaBin, opts.Model)
		g, model = o, o.model
	case ProviderAnthropic:
		a, err := NewAnthropic(opts.AnthropicAPIKey, opts.Model)
		if err != nil {
			return nil, err
		}
		g, model = a, a.model
	case ProviderGemini:
		gm, err := NewGemini(ctx, opts.GeminiAPIKey, opts.Model)
		if err != nil {
			return nil, err
		}
		g, model = gm, gm.model
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", opts.Provider)
	}
	return WithTimeout(WithLogging(g, provider, model), opts.Timeout), nil
}
