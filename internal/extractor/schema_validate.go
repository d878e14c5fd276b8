package extractor

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"

	"github.com/taskcortex/pkg/models"
)

// validateAgainstSchema checks the final parameters against the template's
// declared schema. Findings are advisory: extraction output is returned to
// the caller either way, the template's own execution validates for real.
func validateAgainstSchema(params map[string]interface{}, schema *models.ParameterSchema) []string {
	doc := map[string]interface{}{
		"type":       "object",
		"properties": schema.Properties,
		"required":   schema.Required,
	}
	schemaJSON, err := json.Marshal(doc)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to build validation schema")
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(params),
	)
	if err != nil {
		log.Warn().Err(err).Msg("Schema validation failed to run")
		return nil
	}
	if result.Valid() {
		return nil
	}

	warnings := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		warnings = append(warnings, desc.String())
	}
	log.Warn().
		Strs("violations", warnings).
		Msg("Extracted parameters do not satisfy the template schema")
	return warnings
}
