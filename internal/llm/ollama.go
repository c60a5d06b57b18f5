package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const (
	DefaultOllamaBin   = "ollama"
	DefaultOllamaModel = "granite3.1-moe:3b"
)

// Ollama runs a local model through the ollama command line.
type Ollama struct {
	bin   string
	model string
}

func NewOllama(bin, model string) *Ollama {
	if bin == "" {
		bin = DefaultOllamaBin
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	return &Ollama{bin: bin, model: model}
}

// ChatPrompt is the single-turn transcript handed to models that take one
// block of text.
func ChatPrompt(prompt, system string) string {
	return fmt.Sprintf("System: %s\nUser: %s\nAssistant:", system, prompt)
}

func (o *Ollama) Generate(ctx context.Context, prompt, system string) (string, error) {
	cmd := exec.CommandContext(ctx, o.bin, "run", o.model, ChatPrompt(prompt, system))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return "", fmt.Errorf("ollama run: %w", ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return "", &ProviderError{Provider: "Ollama", Message: strings.TrimSpace(stderr.String())}
	}
	if err != nil {
		return "", fmt.Errorf("ollama run: %w", err)
	}
	return strings.TrimSpace(stdout.String()), nil
}
