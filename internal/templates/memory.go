package templates

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/taskcortex/internal/embedding"
	"github.com/taskcortex/pkg/models"
)

// MemoryStore is an in-memory Store with brute-force cosine search. It backs
// tests and single-process deployments.
type MemoryStore struct {
	mu        sync.RWMutex
	templates map[string]*models.Template
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{templates: make(map[string]*models.Template)}
}

// Put inserts or replaces a template. Test/seed helper; the decision core
// itself never writes templates. The stored value is a copy, detached from
// the caller's struct.
func (s *MemoryStore) Put(tmpl *models.Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *tmpl
	s.templates[cp.TemplateID] = &cp
}

// GetTemplate returns a snapshot of the template. Reads and the repair
// counter increment must not share a struct, or callers would race with
// IncrementRepairAttempts.
func (s *MemoryStore) GetTemplate(ctx context.Context, templateID string) (*models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tmpl, ok := s.templates[templateID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *tmpl
	return &cp, nil
}

func (s *MemoryStore) ListEnabled(ctx context.Context) ([]*models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Template
	for _, tmpl := range s.templates {
		if tmpl.Enabled {
			cp := *tmpl
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TemplateID < out[j].TemplateID })
	return out, nil
}

func (s *MemoryStore) NearestNeighbors(ctx context.Context, field SearchField, query []float32, k int) ([]Neighbor, error) {
	enabled, err := s.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}

	var neighbors []Neighbor
	for _, tmpl := range enabled {
		vec := tmpl.Embedding
		if field == FieldNameEmbedding {
			vec = tmpl.NameEmbedding
		}

		sim, err := embedding.CosineSimilarity(query, vec)
		if err != nil {
			// Corrupted or missing vector data: surface it as a NaN distance
			// instead of silently dropping the template, so the caller can
			// apply its data-integrity gate.
			neighbors = append(neighbors, Neighbor{TemplateID: tmpl.TemplateID, Distance: math.NaN()})
			continue
		}
		neighbors = append(neighbors, Neighbor{TemplateID: tmpl.TemplateID, Distance: 1 - sim})
	}

	sortNeighbors(neighbors)

	if k > 0 && len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

func (s *MemoryStore) IncrementRepairAttempts(ctx context.Context, templateID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmpl, ok := s.templates[templateID]
	if !ok {
		return 0, ErrNotFound
	}
	tmpl.RepairAttempts++
	return tmpl.RepairAttempts, nil
}
