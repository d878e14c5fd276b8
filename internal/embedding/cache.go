package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// CachedEmbedder wraps an Embedder with a Redis cache keyed by mode and text
// hash. A cache failure is never fatal; the call falls through to the inner
// embedder.
type CachedEmbedder struct {
	inner Embedder
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachedEmbedder creates a caching decorator around inner.
func NewCachedEmbedder(inner Embedder, rdb *redis.Client, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, rdb: rdb, ttl: ttl}
}

func cacheKey(text string, mode Mode) string {
	sum := sha256.Sum256([]byte(text))
	return "taskcortex:emb:" + string(mode) + ":" + hex.EncodeToString(sum[:])
}

// Embed returns a cached vector when available, otherwise delegates and
// stores the result.
func (c *CachedEmbedder) Embed(ctx context.Context, text string, mode Mode) ([]float32, error) {
	key := cacheKey(text, mode)

	cached, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		var vec []float32
		if json.Unmarshal([]byte(cached), &vec) == nil && len(vec) > 0 {
			return vec, nil
		}
		// Corrupt cache entry; fall through and overwrite it.
		log.Warn().Str("key", key).Msg("Dropping corrupt embedding cache entry")
	} else if err != redis.Nil {
		log.Warn().Err(err).Msg("Embedding cache read failed, falling through")
	}

	vec, err := c.inner.Embed(ctx, text, mode)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(vec)
	if err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Msg("Embedding cache write failed")
		}
	}

	return vec, nil
}
