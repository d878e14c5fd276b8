// Package embedding provides vector embedding generation for template
// retrieval, with query/document task modes and an optional cache.
package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Mode selects how the embedding is optimized. Queries and documents are
// embedded differently by retrieval-tuned models; mixing them up quietly
// degrades similarity scores.
type Mode string

const (
	ModeQuery    Mode = "query"
	ModeDocument Mode = "document"
)

// Embedder produces a fixed-dimensionality vector for text.
type Embedder interface {
	Embed(ctx context.Context, text string, mode Mode) ([]float32, error)
}

// Options configures the langchain-backed embedder.
type Options struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// LangchainEmbedder implements Embedder on top of langchaingo embeddings.
type LangchainEmbedder struct {
	embedder *embeddings.EmbedderImpl
}

// NewLangchainEmbedder creates an embedder for the configured provider.
func NewLangchainEmbedder(ctx context.Context, opts Options) (*LangchainEmbedder, error) {
	var client embeddings.EmbedderClient
	var err error

	log.Debug().
		Str("provider", opts.Provider).
		Str("model", opts.Model).
		Msg("Creating embedding client")

	switch opts.Provider {
	case "openai":
		client, err = openai.New(
			openai.WithModel(opts.Model),
			openai.WithToken(opts.APIKey),
		)
	case "gemini":
		client, err = googleai.New(ctx,
			googleai.WithAPIKey(opts.APIKey),
			googleai.WithDefaultEmbeddingModel(opts.Model),
		)
	case "ollama":
		client, err = ollama.New(
			ollama.WithServerURL(opts.BaseURL),
			ollama.WithModel(opts.Model),
		)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", opts.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client for %s: %w", opts.Provider, err)
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &LangchainEmbedder{embedder: embedder}, nil
}

// Embed generates one vector for text in the given mode.
func (e *LangchainEmbedder) Embed(ctx context.Context, text string, mode Mode) ([]float32, error) {
	if mode == ModeQuery {
		vec, err := e.embedder.EmbedQuery(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("query embedding failed: %w", err)
		}
		return vec, nil
	}

	vecs, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("document embedding failed: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("document embedding returned no vectors")
	}
	return vecs[0], nil
}

// CosineSimilarity calculates the cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical direction.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimension mismatch: %d != %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("empty vectors")
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("zero-magnitude vector")
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
