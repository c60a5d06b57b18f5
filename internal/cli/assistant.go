package cli

import (
	"context"
	"fmt"
	"time"

	"finchat/internal/advice"
	"finchat/internal/cache"
	"finchat/internal/chat"
	"finchat/internal/config"
	"finchat/internal/embed"
	"finchat/internal/intent"
	"finchat/internal/ledger"
	"finchat/internal/llm"
	"finchat/internal/log"
)

const (
	embeddingCacheSize = 512
	embeddingCacheTTL  = 30 * time.Minute
)

// Assistant is the chat pipeline shared by the web server and the terminal.
type Assistant struct {
	Router  *chat.Router
	Advisor *advice.Advisor
	Model   llm.Generator
}

// BuildAssistant wires embedder, classifier, model, advisor and router over
// store. When the configured embedder cannot embed the intent table, the
// classifier falls back to the offline hashing embedder. caches may be nil.
func BuildAssistant(ctx context.Context, cfg *config.Config, store ledger.Store, caches *cache.Manager, logger *log.Logger) (*Assistant, error) {
	table, err := intent.LoadTable(cfg.IntentsFile)
	if err != nil {
		return nil, err
	}

	embeddings := cache.NewLRUCache[[]float32](embeddingCacheSize, embeddingCacheTTL)
	if caches != nil {
		caches.Register("message_embeddings", embeddings)
	}

	classifier, err := buildClassifier(ctx, cfg, table, embeddings, logger)
	if err != nil {
		return nil, err
	}

	model, err := llm.New(ctx, llm.Options{
		Provider:        cfg.LLMProvider,
		Model:           cfg.LLMModel,
		Timeout:         cfg.LLMTimeout,
		OllamaBin:       cfg.OllamaBin,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		GeminiAPIKey:    cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("language model: %w", err)
	}

	advisor := advice.NewAdvisor(store, model, cfg.CurrencySymbol)
	router := chat.NewRouter(classifier, store, advisor, model, chat.Options{
		Threshold: cfg.IntentThreshold,
		Currency:  cfg.CurrencySymbol,
	}, logger)

	logger.InfoContext(ctx, "Assistant ready",
		log.FieldProvider, cfg.LLMProvider,
		"embedder", cfg.EmbedProvider,
		"intents", len(classifier.Intents()))
	return &Assistant{Router: router, Advisor: advisor, Model: model}, nil
}

func buildClassifier(ctx context.Context, cfg *config.Config, table intent.Table, embeddings cache.Cache[[]float32], logger *log.Logger) (*intent.Classifier, error) {
	opts := intent.Options{Cache: embeddings}

	embedder, err := embed.New(ctx, embed.Options{
		Provider:     cfg.EmbedProvider,
		Model:        cfg.EmbedModel,
		OllamaHost:   cfg.OllamaHost,
		GeminiAPIKey: cfg.GeminiAPIKey,
	})
	if err == nil {
		classifier, cerr := intent.NewClassifier(ctx, embedder, table, opts)
		if cerr == nil {
			return classifier, nil
		}
		err = cerr
	}
	if cfg.EmbedProvider == embed.ProviderHashing {
		return nil, fmt.Errorf("intent classifier: %w", err)
	}

	logger.WarnContext(ctx, "Embedding provider unavailable, falling back to hashing embedder",
		"embedder", cfg.EmbedProvider,
		log.FieldError, err)
	classifier, err := intent.NewClassifier(ctx, embed.NewHashing(embed.DefaultHashingDim), table, opts)
	if err != nil {
		return nil, fmt.Errorf("intent classifier: %w", err)
	}
	return classifier, nil
}
