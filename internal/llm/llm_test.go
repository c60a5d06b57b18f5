package llm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAskReturnsTrimmedOutput(t *testing.T) {
	var gotSystem string
	g := GeneratorFunc(func(_ context.Context, prompt, system string) (string, error) {
		gotSystem = system
		return "  answer to " + prompt + "\n", nil
	})
	if got := Ask(context.Background(), g, "hi", ""); got != "answer to hi" {
		t.Fatalf("unexpected answer %q", got)
	}
	if gotSystem != DefaultSystem {
		t.Fatalf("expected default system instruction, got %q", gotSystem)
	}
	Ask(context.Background(), g, "hi", "custom")
	if gotSystem != "custom" {
		t.Fatalf("expected custom system instruction, got %q", gotSystem)
	}
}

func TestAskBlankOutputIsFailure(t *testing.T) {
	for _, out := range []string{"", "   ", "\n\t"} {
		g := GeneratorFunc(func(context.Context, string, string) (string, error) { return out, nil })
		got := Ask(context.Background(), g, "q", "")
		if got != "❌ Unexpected error: the model returned an empty response" || !IsFailure(got) {
			t.Errorf("Ask with output %q = %q", out, got)
		}
	}
}

func TestAskRendersFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"provider", &ProviderError{Provider: "Ollama", Message: "model not found"}, "❌ Ollama Error: model not found"},
		{"wrapped provider", errors.Join(errors.New("ctx"), &ProviderError{Provider: "Claude", Message: "overloaded"}), "❌ Claude Error: overloaded"},
		{"timeout", context.DeadlineExceeded, "❌ Unexpected error: the model did not answer in time"},
		{"other", errors.New("exec: not found"), "❌ Unexpected error: exec: not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := GeneratorFunc(func(context.Context, string, string) (string, error) { return "", tt.err })
			got := Ask(context.Background(), g, "q", "")
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			if !IsFailure(got) {
				t.Fatalf("IsFailure(%q) = false", got)
			}
		})
	}
}

func TestWithTimeoutBoundsSlowGenerators(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	slow := GeneratorFunc(func(ctx context.Context, _, _ string) (string, error) {
		select {
		case <-block:
		case <-time.After(5 * time.Second):
		}
		return "late", nil
	})

	start := time.Now()
	_, err := WithTimeout(slow, 20*time.Millisecond).Generate(context.Background(), "q", "s")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("timeout was not enforced")
	}
}

func TestWithTimeoutPassesThrough(t *testing.T) {
	g := GeneratorFunc(func(context.Context, string, string) (string, error) { return "ok", nil })
	if WithTimeout(g, 0) == nil {
		t.Fatalf("expected generator")
	}
	out, err := WithTimeout(g, time.Second).Generate(context.Background(), "q", "s")
	if err != nil || out != "ok" {
		t.Fatalf("got %q, %v", out, err)
	}
}

func TestChatPrompt(t *testing.T) {
	want := "System: be brief\nUser: how do I save?\nAssistant:"
	if got := ChatPrompt("how do I save?", "be brief"); got != want {
		t.Fatalf("got %q", got)
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-ollama")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOllamaRunsBinary(t *testing.T) {
	bin := writeScript(t, `echo "model=$2"; echo "$3"`)
	out, err := NewOllama(bin, "tiny").Generate(context.Background(), "hello", "sys")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(out, "model=tiny\nSystem: sys\nUser: hello") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestOllamaNonZeroExit(t *testing.T) {
	bin := writeScript(t, `echo "pull model first" >&2; exit 1`)
	got := Ask(context.Background(), NewOllama(bin, ""), "hello", "")
	if got != "❌ Ollama Error: pull model first" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestOllamaMissingBinary(t *testing.T) {
	got := Ask(context.Background(), NewOllama(filepath.Join(t.TempDir(), "nope"), ""), "hello", "")
	if !strings.HasPrefix(got, "❌ Unexpected error:") {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New(context.Background(), Options{Provider: "watson"}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := New(context.Background(), Options{Provider: "anthropic"}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
	if g, err := New(context.Background(), Options{}); err != nil || g == nil {
		t.Fatalf("default provider: %v", err)
	}
}
