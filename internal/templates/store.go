// Package templates provides read access to the task template store and the
// nearest-neighbor searches the resolver runs over it.
package templates

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/taskcortex/pkg/models"
)

// SearchField selects which stored vector a nearest-neighbor search runs
// against.
type SearchField string

const (
	FieldNameEmbedding SearchField = "name_embedding"
	FieldEmbedding     SearchField = "embedding"
)

// Neighbor is one hit from a nearest-neighbor search. Distance is cosine
// distance (similarity = 1 - distance); NaN marks corrupted or missing
// vector data and must be treated as a data-integrity fault by callers.
type Neighbor struct {
	TemplateID string
	Distance   float64
}

// ErrNotFound is returned when a template id does not exist.
var ErrNotFound = errors.New("template not found")

// Store is the template store contract. The decision core reads templates
// and increments the repair-attempt counter; all other writes belong to the
// generation and repair flows.
type Store interface {
	// GetTemplate returns a template by id.
	GetTemplate(ctx context.Context, templateID string) (*models.Template, error)

	// ListEnabled returns all enabled templates.
	ListEnabled(ctx context.Context) ([]*models.Template, error)

	// NearestNeighbors runs a top-k cosine search over enabled templates on
	// the given vector field, ordered by ascending distance. Entries with
	// unusable vector data sort last with a NaN distance.
	NearestNeighbors(ctx context.Context, field SearchField, query []float32, k int) ([]Neighbor, error)

	// IncrementRepairAttempts atomically increments a template's repair
	// counter and returns the new value. Atomicity is what keeps the repair
	// budget hard under concurrent executions of the same template.
	IncrementRepairAttempts(ctx context.Context, templateID string) (int, error)
}

// sortNeighbors orders by ascending distance with NaN last; template id is
// the deterministic tie-break.
func sortNeighbors(neighbors []Neighbor) {
	sort.SliceStable(neighbors, func(i, j int) bool {
		di, dj := neighbors[i].Distance, neighbors[j].Distance
		switch {
		case math.IsNaN(di) && math.IsNaN(dj):
			return neighbors[i].TemplateID < neighbors[j].TemplateID
		case math.IsNaN(di):
			return false
		case math.IsNaN(dj):
			return true
		case di != dj:
			return di < dj
		default:
			return neighbors[i].TemplateID < neighbors[j].TemplateID
		}
	})
}
