// Package cmd implements the taskcortex CLI commands.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/taskcortex/internal/config"
	"github.com/taskcortex/internal/database"
	"github.com/taskcortex/internal/embedding"
	"github.com/taskcortex/internal/llm"
	"github.com/taskcortex/internal/resolver"
	"github.com/taskcortex/internal/templates"
)

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildStore returns the configured template store and a cleanup func.
func buildStore(ctx context.Context, cfg *config.Config) (templates.Store, func(), error) {
	switch cfg.Store.Backend {
	case "postgres":
		pool, err := database.NewPool(ctx, cfg.Store.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return templates.NewPostgresStore(pool), pool.Close, nil
	default:
		return templates.NewMemoryStore(), func() {}, nil
	}
}

func buildEmbedder(ctx context.Context, cfg *config.Config) (embedding.Embedder, error) {
	base, err := embedding.NewLangchainEmbedder(ctx, embedding.Options{
		Provider: cfg.Embedding.Provider,
		APIKey:   cfg.Embedding.APIKey,
		Model:    cfg.Embedding.Model,
		BaseURL:  cfg.Embedding.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	if !cfg.Cache.Enabled {
		return base, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	return embedding.NewCachedEmbedder(base, rdb, ttl), nil
}

func buildLLMClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	base, err := llm.NewLangchainClient(ctx, llm.Options{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	return llm.NewResilientClient(base), nil
}

func resolverConfig(cfg *config.Config) resolver.Config {
	return resolver.Config{
		SimilarityThreshold:   cfg.Resolver.SimilarityThreshold,
		NamePriorityThreshold: cfg.Resolver.NamePriorityThreshold,
		TopK:                  cfg.Resolver.TopK,
		VectorSearchEnabled:   cfg.Resolver.VectorSearchEnabled,
	}
}
