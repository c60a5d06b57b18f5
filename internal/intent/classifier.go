// Package intent maps a chat message to the closest known intent by cosine
// similarity against example phrases.
package intent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"finchat/internal/cache"
	"finchat/internal/embed"
)

// Classification is the best-matching intent and its similarity score.
type Classification struct {
	Intent Intent
	Score  float64
}

type Options struct {
	// Concurrency bounds how many intents are embedded at once during
	// construction. Zero means 4.
	Concurrency int
	// Cache holds message embeddings. Nil disables caching.
	Cache cache.Cache[[]float32]
}

// Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	embedder embed.Embedder
	intents  []Intent
	vectors  [][][]float32 // per intent, per example
	cache    cache.Cache[[]float32]
}

// NewClassifier embeds every example phrase once. It fails if any embedding
// call fails.
func NewClassifier(ctx context.Context, embedder embed.Embedder, table Table, opts Options) (*Classifier, error) {
	if len(table) == 0 {
		return nil, errors.New("intent table is empty")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}

	start := time.Now()
	c := &Classifier{
		embedder: embedder,
		intents:  make([]Intent, len(table)),
		vectors:  make([][][]float32, len(table)),
		cache:    opts.Cache,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, entry := range table {
		c.intents[i] = entry.Name
		g.Go(func() error {
			vecs, err := embedder.Embed(gctx, entry.Examples)
			if err != nil {
				return fmt.Errorf("embed examples for %q: %w", entry.Name, err)
			}
			if len(vecs) != len(entry.Examples) {
				return fmt.Errorf("embed examples for %q: got %d vectors for %d examples", entry.Name, len(vecs), len(entry.Examples))
			}
			c.vectors[i] = vecs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Intent classifier ready",
		"intents", len(c.intents),
		"duration", time.Since(start))
	return c, nil
}

// Intents returns the intent names in table order.
func (c *Classifier) Intents() []Intent {
	out := make([]Intent, len(c.intents))
	copy(out, c.intents)
	return out
}

// Classify returns the intent whose best example is most similar to message.
// Equal scores go to the intent listed first.
func (c *Classifier) Classify(ctx context.Context, message string) (Classification, error) {
	vec, err := c.messageVector(ctx, message)
	if err != nil {
		return Classification{}, err
	}

	best := -1
	var bestScore float64
	for i, examples := range c.vectors {
		score := maxSimilarity(vec, examples)
		if best < 0 || score > bestScore {
			best, bestScore = i, score
		}
	}
	return Classification{Intent: c.intents[best], Score: bestScore}, nil
}

func (c *Classifier) messageVector(ctx context.Context, message string) ([]float32, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(message); ok {
			return v, nil
		}
	}
	vecs, err := c.embedder.Embed(ctx, []string{message})
	if err != nil {
		return nil, fmt.Errorf("embed message: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed message: got %d vectors", len(vecs))
	}
	if c.cache != nil {
		c.cache.Set(message, vecs[0])
	}
	return vecs[0], nil
}

func maxSimilarity(v []float32, examples [][]float32) float64 {
	best := -1.0
	for _, ex := range examples {
		if s := embed.Cosine(v, ex); s > best {
			best = s
		}
	}
	return best
}
