// Package embed turns text into vectors for similarity search.
package embed

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Embedder returns one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

const (
	ProviderOllama  = "ollama"
	ProviderGemini  = "gemini"
	ProviderHashing = "hashing"
)

// Options selects and configures an embedding provider.
type Options struct {
	Provider     string
	Model        string
	OllamaHost   string
	GeminiAPIKey string
}

// New builds the embedder named by opts.Provider.
func New(ctx context.Context, opts Options) (Embedder, error) {
	switch strings.ToLower(opts.Provider) {
	case "", ProviderHashing:
		return NewHashing(DefaultHashingDim), nil
	case ProviderOllama:
		return NewOllama(opts.OllamaHost, opts.Model, nil), nil
	case ProviderGemini:
		return NewGemini(ctx, opts.GeminiAPIKey, opts.Model)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", opts.Provider)
	}
}

// Cosine returns the cosine similarity of a and b, or 0 when either vector
// has zero norm or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func checkCount(provider string, got, want int) error {
	if got != want {
		return fmt.Errorf("%s returned %d embeddings for %d inputs", provider, got, want)
	}
	return nil
}
