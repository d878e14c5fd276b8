package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// countingEmbedder returns a fixed vector and counts calls.
type countingEmbedder struct {
	calls int
	vec   []float32
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, mode Mode) ([]float32, error) {
	c.calls++
	return c.vec, nil
}

func newTestCache(t *testing.T) (*CachedEmbedder, *countingEmbedder, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inner := &countingEmbedder{vec: []float32{0.1, 0.2, 0.3}}
	return NewCachedEmbedder(inner, rdb, time.Hour), inner, mr
}

func TestCachedEmbedder_HitSkipsInner(t *testing.T) {
	cache, inner, _ := newTestCache(t)
	ctx := context.Background()

	first, err := cache.Embed(ctx, "quarterly report", ModeQuery)
	if err != nil {
		t.Fatalf("first embed failed: %v", err)
	}
	second, err := cache.Embed(ctx, "quarterly report", ModeQuery)
	if err != nil {
		t.Fatalf("second embed failed: %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.calls)
	}
	if len(first) != len(second) {
		t.Fatalf("vector length changed between calls")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("cached vector differs at %d: %f != %f", i, first[i], second[i])
		}
	}
}

func TestCachedEmbedder_ModeSeparatesKeys(t *testing.T) {
	cache, inner, _ := newTestCache(t)
	ctx := context.Background()

	if _, err := cache.Embed(ctx, "same text", ModeQuery); err != nil {
		t.Fatalf("query embed failed: %v", err)
	}
	if _, err := cache.Embed(ctx, "same text", ModeDocument); err != nil {
		t.Fatalf("document embed failed: %v", err)
	}

	// Query and document vectors differ in general; they must not share a key.
	if inner.calls != 2 {
		t.Errorf("expected 2 inner calls for different modes, got %d", inner.calls)
	}
}

func TestCachedEmbedder_CorruptEntryFallsThrough(t *testing.T) {
	cache, inner, mr := newTestCache(t)
	ctx := context.Background()

	mr.Set(cacheKey("poisoned", ModeQuery), "not a vector")

	vec, err := cache.Embed(ctx, "poisoned", ModeQuery)
	if err != nil {
		t.Fatalf("embed failed on corrupt cache: %v", err)
	}
	if inner.calls != 1 || len(vec) != 3 {
		t.Errorf("expected fallthrough to inner embedder, calls=%d", inner.calls)
	}
}
