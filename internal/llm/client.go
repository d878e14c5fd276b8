// Package llm wraps the external language-model extraction call and the
// deterministic repair of its JSON output.
package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// CompleteOptions bounds a single extraction call. Temperature stays low so
// extraction is as deterministic as the model allows.
type CompleteOptions struct {
	Temperature     float64
	MaxOutputTokens int
}

// Client is the extraction-call contract. The returned text is expected to
// contain exactly one JSON object, possibly wrapped in prose or code fences.
type Client interface {
	Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error)
}

// Options configures the langchain-backed client.
type Options struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// LangchainClient implements Client on top of a langchaingo model.
type LangchainClient struct {
	model     llms.Model
	modelName string
}

// NewLangchainClient creates a client for the configured provider.
func NewLangchainClient(ctx context.Context, opts Options) (*LangchainClient, error) {
	var model llms.Model
	var err error

	log.Debug().
		Str("provider", opts.Provider).
		Str("model", opts.Model).
		Msg("Creating LLM client")

	switch opts.Provider {
	case "openai":
		model, err = openai.New(
			openai.WithModel(opts.Model),
			openai.WithToken(opts.APIKey),
		)
	case "gemini":
		model, err = googleai.New(ctx,
			googleai.WithAPIKey(opts.APIKey),
		)
	case "ollama":
		model, err = ollama.New(
			ollama.WithServerURL(opts.BaseURL),
			ollama.WithModel(opts.Model),
		)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", opts.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create model for provider %s: %w", opts.Provider, err)
	}

	return &LangchainClient{model: model, modelName: opts.Model}, nil
}

// Complete runs one prompt through the model with bounded output.
func (c *LangchainClient) Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	callOpts := []llms.CallOption{
		llms.WithTemperature(opts.Temperature),
	}
	if opts.MaxOutputTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxOutputTokens))
	}
	if c.modelName != "" {
		callOpts = append(callOpts, llms.WithModel(c.modelName))
	}

	response, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, callOpts...)
	if err != nil {
		return "", fmt.Errorf("llm completion failed: %w", err)
	}
	return response, nil
}
