package resolver

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/taskcortex/pkg/models"
)

// entityIDFields are the schema fields whose presence in `required` marks a
// template as single-record.
var entityIDFields = []string{"customerId", "contactId", "companyId", "dealId", "leadId"}

var (
	singleEntityNamePattern = regexp.MustCompile(`(?i)\b(?:single|specific|one)[ _-](?:customer|contact|company|deal|lead|entity|record)\b`)

	aggregatePattern = regexp.MustCompile(`(?i)\b(?:all|every)\s+\w+|\baggregate\b|\btotal\b`)

	// Specific-entity references: an explicit id ("customer 4821",
	// "id: CUST-123", a UUID) or a deictic "this customer".
	explicitIDPattern = regexp.MustCompile(`(?i)\b(?:customer|contact|company|deal|lead)\s*#?\s*[A-Za-z0-9][A-Za-z0-9_-]*\d|\bid\s*[:#=]?\s*[A-Za-z0-9][A-Za-z0-9_-]{2,}|\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)
	deicticPattern    = regexp.MustCompile(`(?i)\bthis\s+(?:customer|contact|company|deal|lead|entity|record)\b`)
)

// templateRequiresEntityID reports whether the template operates on exactly
// one record. The schema is authoritative; a missing or undecodable schema
// drops to a name heuristic, which is a degraded lower-confidence mode and is
// logged as such.
func templateRequiresEntityID(tmpl *models.Template) bool {
	if tmpl.Definition.ParameterSchema != nil {
		for _, field := range entityIDFields {
			if tmpl.RequiresField(field) {
				return true
			}
		}
		return false
	}

	if singleEntityNamePattern.MatchString(tmpl.Name) {
		log.Warn().
			Str("template_id", tmpl.TemplateID).
			Str("name", tmpl.Name).
			Msg("Template schema missing; entity-id requirement inferred from name heuristic")
		return true
	}
	return false
}

// requestIsAggregate reports whether the request targets a collection. A
// declared scope wins; AUTO falls back to description wording.
func requestIsAggregate(req models.TaskRequest) bool {
	switch req.EntityScope {
	case models.ScopeAggregate:
		return true
	case models.ScopeSpecificEntity:
		return false
	}
	return aggregatePattern.MatchString(req.Description)
}

// hasSpecificEntityReference reports whether the request names a concrete
// record, either through declared scope, an explicit parameter carrying an
// entity id, or wording in the description.
func hasSpecificEntityReference(req models.TaskRequest) bool {
	if req.EntityScope == models.ScopeSpecificEntity {
		return true
	}
	for _, field := range entityIDFields {
		if v, ok := req.ExplicitParameters[field]; ok && v != nil && v != "" {
			return true
		}
	}
	desc := strings.TrimSpace(req.Description)
	return explicitIDPattern.MatchString(desc) || deicticPattern.MatchString(desc)
}
