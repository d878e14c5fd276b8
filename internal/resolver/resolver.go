// Package resolver decides whether an existing task template satisfies a
// request or a new one must be generated.
package resolver

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/taskcortex/internal/embedding"
	"github.com/taskcortex/internal/templates"
	"github.com/taskcortex/pkg/models"
)

// Config carries the retrieval thresholds. These are tuned values, not
// derived invariants; see the configuration defaults.
type Config struct {
	// SimilarityThreshold rejects any match below it. A weak reuse is worse
	// than generating a fresh template.
	SimilarityThreshold float64

	// NamePriorityThreshold is the score above which a name-embedding match
	// wins outright: short or exact-name queries are name-dominated.
	NamePriorityThreshold float64

	// TopK is the nearest-neighbor search depth per vector field.
	TopK int

	// VectorSearchEnabled switches between embedding retrieval and the
	// trigger-pattern fallback.
	VectorSearchEnabled bool
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold:   0.70,
		NamePriorityThreshold: 0.85,
		TopK:                  5,
		VectorSearchEnabled:   true,
	}
}

// Resolver finds, validates, and gates a reusable template for a request.
// It holds no state beyond its collaborators: identical inputs against the
// same store contents always resolve identically.
type Resolver struct {
	store    templates.Store
	embedder embedding.Embedder
	cfg      Config
}

// New creates a Resolver.
func New(store templates.Store, embedder embedding.Embedder, cfg Config) *Resolver {
	return &Resolver{store: store, embedder: embedder, cfg: cfg}
}

// Resolve returns the matched template, or nil when the caller should
// generate a new one. A nil template with a nil error is a decision, not a
// failure.
func (r *Resolver) Resolve(ctx context.Context, req models.TaskRequest) (*models.Template, error) {
	// An explicit "define a new capability" signal always bypasses
	// retrieval, even when a near-perfect match exists.
	if req.UserIntent == models.IntentCreateNewTask {
		log.Debug().Msg("Resolver bypassed: user intent is CREATE_NEW_TASK")
		return nil, nil
	}

	if !r.cfg.VectorSearchEnabled {
		return r.resolveByTriggerPatterns(ctx, req)
	}

	queryVec, err := r.embedder.Embed(ctx, req.Description, embedding.ModeQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed request description: %w", err)
	}

	nameHits, err := r.store.NearestNeighbors(ctx, templates.FieldNameEmbedding, queryVec, r.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("name-embedding search failed: %w", err)
	}
	fullHits, err := r.store.NearestNeighbors(ctx, templates.FieldEmbedding, queryVec, r.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("full-embedding search failed: %w", err)
	}

	selected, ok := selectCandidate(nameHits, fullHits, r.cfg.NamePriorityThreshold)
	if !ok {
		log.Debug().Msg("Resolver found no candidates; forcing template generation")
		return nil, nil
	}

	// Data-integrity gate: a search hit with no usable distance means the
	// stored vector is corrupted or missing. Reject rather than guess.
	if math.IsNaN(selected.SimilarityScore) {
		log.Warn().
			Str("template_id", selected.TemplateID).
			Msg("Similarity result has no usable distance; rejecting match")
		return nil, nil
	}

	if selected.SimilarityScore < r.cfg.SimilarityThreshold {
		log.Debug().
			Str("template_id", selected.TemplateID).
			Float64("similarity", selected.SimilarityScore).
			Float64("threshold", r.cfg.SimilarityThreshold).
			Msg("Best match below similarity threshold; forcing template generation")
		return nil, nil
	}

	tmpl, err := r.store.GetTemplate(ctx, selected.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matched template %s: %w", selected.TemplateID, err)
	}

	// Entity-scope gate: a template that operates on one record must not be
	// matched to an aggregate request. Mismatched cardinality is worse than
	// a missed reuse.
	if templateRequiresEntityID(tmpl) && requestIsAggregate(req) && !hasSpecificEntityReference(req) {
		log.Info().
			Str("template_id", tmpl.TemplateID).
			Float64("similarity", selected.SimilarityScore).
			Msg("Rejecting match: template requires an entity id but request is aggregate")
		return nil, nil
	}

	log.Debug().
		Str("template_id", tmpl.TemplateID).
		Str("match_method", string(selected.MatchMethod)).
		Float64("similarity", selected.SimilarityScore).
		Msg("Template resolved")

	return tmpl, nil
}

// selectCandidate applies the tie-break between the two searches: a strong
// name match wins outright, otherwise the full-text match, otherwise
// whatever name match exists.
func selectCandidate(nameHits, fullHits []templates.Neighbor, namePriority float64) (models.SimilarityResult, bool) {
	var nameBest, fullBest *templates.Neighbor
	if len(nameHits) > 0 {
		nameBest = &nameHits[0]
	}
	if len(fullHits) > 0 {
		fullBest = &fullHits[0]
	}

	if nameBest == nil && fullBest == nil {
		return models.SimilarityResult{}, false
	}

	if nameBest != nil {
		if sim := 1 - nameBest.Distance; sim > namePriority {
			return models.SimilarityResult{
				TemplateID:      nameBest.TemplateID,
				SimilarityScore: sim,
				MatchMethod:     models.MatchByName,
			}, true
		}
	}

	if fullBest != nil {
		return models.SimilarityResult{
			TemplateID:      fullBest.TemplateID,
			SimilarityScore: 1 - fullBest.Distance,
			MatchMethod:     models.MatchByFullText,
		}, true
	}

	return models.SimilarityResult{
		TemplateID:      nameBest.TemplateID,
		SimilarityScore: 1 - nameBest.Distance,
		MatchMethod:     models.MatchByName,
	}, true
}
