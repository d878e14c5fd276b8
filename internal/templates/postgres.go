package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskcortex/internal/embedding"
	"github.com/taskcortex/pkg/models"
)

// PostgresStore is a Store backed by Postgres via pgx. Vectors are stored as
// float4 arrays and ranked in-process; the store contract hides whether
// ranking happens in SQL or here.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a store to an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const templateColumns = `template_id, name, description, parameter_schema, embedding, name_embedding,
	enabled, repair_attempts, testing, trigger_patterns`

func scanTemplate(row pgx.Row) (*models.Template, error) {
	var tmpl models.Template
	var schemaJSON []byte

	err := row.Scan(
		&tmpl.TemplateID,
		&tmpl.Name,
		&tmpl.Description,
		&schemaJSON,
		&tmpl.Embedding,
		&tmpl.NameEmbedding,
		&tmpl.Enabled,
		&tmpl.RepairAttempts,
		&tmpl.Testing,
		&tmpl.TriggerPatterns,
	)
	if err != nil {
		return nil, err
	}

	if len(schemaJSON) > 0 {
		var schema models.ParameterSchema
		if err := json.Unmarshal(schemaJSON, &schema); err == nil {
			tmpl.Definition.ParameterSchema = &schema
		}
		// A schema that fails to decode is left nil; the resolver's
		// name-heuristic fallback covers that degraded case.
	}

	return &tmpl, nil
}

func (s *PostgresStore) GetTemplate(ctx context.Context, templateID string) (*models.Template, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM task_templates WHERE template_id = $1`, templateID)

	tmpl, err := scanTemplate(row)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", templateID, err)
	}
	return tmpl, nil
}

func (s *PostgresStore) ListEnabled(ctx context.Context) ([]*models.Template, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+templateColumns+` FROM task_templates WHERE enabled ORDER BY template_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var out []*models.Template
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		out = append(out, tmpl)
	}
	return out, rows.Err()
}

func (s *PostgresStore) NearestNeighbors(ctx context.Context, field SearchField, query []float32, k int) ([]Neighbor, error) {
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

// IncrementRepairAttempts bumps the counter in a single UPDATE so concurrent
// executions of the same template cannot race past the repair budget.
func (s *PostgresStore) IncrementRepairAttempts(ctx context.Context, templateID string) (int, error) {
	var attempts int
	err := s.pool.QueryRow(ctx,
		`UPDATE task_templates
		 SET repair_attempts = repair_attempts + 1
		 WHERE template_id = $1
		 RETURNING repair_attempts`, templateID).Scan(&attempts)
	if err == pgx.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment repair attempts for %s: %w", templateID, err)
	}
	return attempts, nil
}
