package llm

import (
	"context"

	"github.com/taskcortex/internal/retry"
)

// ResilientClient wraps a Client with backoff on transient provider
// failures. Non-transient errors pass straight through so the caller's
// fallback path runs without delay.
type ResilientClient struct {
	inner Client
	cfg   retry.Config
}

// NewResilientClient wraps inner with LLM-tuned retry settings.
func NewResilientClient(inner Client) *ResilientClient {
	return &ResilientClient{inner: inner, cfg: retry.LLMConfig()}
}

func (c *ResilientClient) Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	var response string
	err := retry.Do(ctx, c.cfg, "llm_complete", func() error {
		var opErr error
		response, opErr = c.inner.Complete(ctx, prompt, opts)
		return opErr
	})
	return response, err
}
