// Package llm wraps the language models that answer free-form questions and
// write advice.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultSystem is used when a caller passes no system instruction.
const DefaultSystem = "You are a helpful, concise financial advisor. Provide practical advice about personal finance, budgeting, saving, and investing."

// FailurePrefix marks replies that carry an error instead of model output.
const FailurePrefix = "❌"

// Generator produces a completion for prompt under the given system
// instruction.
type Generator interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt, system string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt, system string) (string, error) {
	return f(ctx, prompt, system)
}

// ErrEmptyResponse is reported when a model answers with only whitespace.
var ErrEmptyResponse = errors.New("the model returned an empty response")

// ProviderError is a failure reported by the model backend itself, such as a
// non-zero exit from the ollama binary or an API error body.
type ProviderError struct {
	Provider string
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s Error: %s", e.Provider, e.Message)
}

// Ask calls g and never fails: any error is rendered as text starting with
// FailurePrefix, and so is blank output. An empty system falls back to
// DefaultSystem.
func Ask(ctx context.Context, g Generator, prompt, system string) string {
	if system == "" {
		system = DefaultSystem
	}
	out, err := g.Generate(ctx, prompt, system)
	if err != nil {
		slog.WarnContext(ctx, "Language model call failed", "error", err)
		return FailureText(err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		slog.WarnContext(ctx, "Language model returned no text")
		return FailureText(ErrEmptyResponse)
	}
	return out
}

// FailureText renders err the way Ask does.
func FailureText(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return FailurePrefix + " " + pe.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailurePrefix + " Unexpected error: the model did not answer in time"
	}
	return FailurePrefix + " Unexpected error: " + err.Error()
}

// IsFailure reports whether text was produced by FailureText.
func IsFailure(text string) bool {
	return strings.HasPrefix(text, FailurePrefix)
}

type timeoutGenerator struct {
	next    Generator
	timeout time.Duration
}

// WithTimeout bounds every call to g by d. A non-positive d returns g as is.
func WithTimeout(g Generator, d time.Duration) Generator {
	if d <= 0 {
		return g
	}
	return &timeoutGenerator{next: g, timeout: d}
}

func (t *timeoutGenerator) Generate(ctx context.Context, prompt, system string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := t.next.Generate(ctx, prompt, system)
		done <- result{out, err}
	}()

	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("generate: %w", ctx.Err())
	}
}

type loggingGenerator struct {
	next     Generator
	provider string
	model    string
}

// WithLogging logs the provider, model and latency of every call.
func WithLogging(g Generator, provider, model string) Generator {
	return &loggingGenerator{next: g, provider: provider, model: model}
}

func (l *loggingGenerator) Generate(ctx context.Context, prompt, system string) (string, error) {
	start := time.Now()
	out, err := l.next.Generate(ctx, prompt, system)
	attrs := []any{
		"provider", l.provider,
		"model", l.model,
		"prompt_chars", len(prompt),
		"duration", time.Since(start),
	}
	if err != nil {
		slog.ErrorContext(ctx, "Generation failed", append(attrs, "error", err)...)
		return "", err
	}
	slog.DebugContext(ctx, "Generation completed", append(attrs, "output_chars", len(out))...)
	return out, nil
}
