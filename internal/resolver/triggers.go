package resolver

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/taskcortex/pkg/models"
)

// resolveByTriggerPatterns matches the request against each enabled
// template's trigger patterns. Used when vector search is disabled or
// unavailable; there is no similarity score on this path, a pattern hit is
// accepted as-is.
func (r *Resolver) resolveByTriggerPatterns(ctx context.Context, req models.TaskRequest) (*models.Template, error) {
	enabled, err := r.store.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates for trigger matching: %w", err)
	}

	// ListEnabled returns templates ordered by id, so the first hit is
	// stable across calls.
	for _, tmpl := range enabled {
		for _, pattern := range tmpl.TriggerPatterns {
			if !matchesTrigger(pattern, req.Description) {
				continue
			}
			if templateRequiresEntityID(tmpl) && requestIsAggregate(req) && !hasSpecificEntityReference(req) {
				log.Info().
					Str("template_id", tmpl.TemplateID).
					Msg("Rejecting trigger match: template requires an entity id but request is aggregate")
				break
			}
			log.Debug().
				Str("template_id", tmpl.TemplateID).
				Str("pattern", pattern).
				Str("match_method", string(models.MatchByTrigger)).
				Msg("Template resolved by trigger pattern")
			return tmpl, nil
		}
	}

	log.Debug().Msg("No trigger pattern matched; forcing template generation")
	return nil, nil
}

// matchesTrigger tries the pattern as a regular expression first; a pattern
// that does not compile is treated as a plain case-insensitive keyword.
func matchesTrigger(pattern, description string) bool {
	if re, err := regexp.Compile(`(?i)` + pattern); err == nil {
		return re.MatchString(description)
	}
	return strings.Contains(strings.ToLower(description), strings.ToLower(pattern))
}
