// Package extractor turns a free-text task description into structured
// parameters via a privacy-preserving language-model call.
package extractor

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/taskcortex/internal/llm"
	"github.com/taskcortex/internal/pii"
	"github.com/taskcortex/internal/sanitize"
	"github.com/taskcortex/pkg/models"
)

// Outcome classifies how the parameters were produced, for observability.
// All three outcomes are successes from the caller's point of view.
type Outcome string

const (
	// OutcomeClean means the model response parsed on the first attempt.
	OutcomeClean Outcome = "clean"
	// OutcomeRepaired means the response needed the deterministic repair pass.
	OutcomeRepaired Outcome = "repaired"
	// OutcomeDefaulted means extraction failed and base parameters plus the
	// default date range were returned instead.
	OutcomeDefaulted Outcome = "defaulted"
)

// Result carries the extracted parameters and how they were obtained.
type Result struct {
	Parameters map[string]interface{}
	Outcome    Outcome
	HadPII     bool
	// Warnings holds schema-validation findings. Advisory only; parameters
	// are returned regardless.
	Warnings []string
}

// Options bounds the extraction call.
type Options struct {
	Temperature     float64
	MaxOutputTokens int
	// Now supplies the clock for the default date range. Nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns the production extraction settings.
func DefaultOptions() Options {
	return Options{Temperature: 0.1, MaxOutputTokens: 1024}
}

// defaultDateRangeDays is the span of the fallback date range.
const defaultDateRangeDays = 90

// Extractor produces structured parameters from a task description. PII is
// masked before the text reaches the model and restored afterwards; the
// original values never leave the process.
type Extractor struct {
	client    llm.Client
	sanitizer sanitize.Sanitizer
	opts      Options
}

// New creates an Extractor.
func New(client llm.Client, sanitizer sanitize.Sanitizer, opts Options) *Extractor {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Extractor{client: client, sanitizer: sanitizer, opts: opts}
}

// Extract returns parameters for the description. It never fails: any
// extraction problem degrades to base parameters plus a default date range,
// reported through Outcome rather than an error.
func (e *Extractor) Extract(ctx context.Context, description string, baseParams map[string]interface{}, schema *models.ParameterSchema) Result {
	// Correlation id for this extraction's log events. Never the description
	// itself: that may contain PII.
	extractionID := uuid.NewString()

	tokenized := pii.Tokenize(description)

	sanitized := e.sanitizer.Sanitize(tokenized.TokenizedText, "parameter_extraction")
	if sanitized != tokenized.TokenizedText {
		log.Warn().Str("extraction_id", extractionID).Msg("Task description changed by sanitizer before extraction")
	}

	var prompt string
	if schema != nil {
		prompt = buildSchemaPrompt(sanitized, schema)
	} else {
		prompt = buildGenericPrompt(sanitized)
	}

	response, err := e.client.Complete(ctx, prompt, llm.CompleteOptions{
		Temperature:     e.opts.Temperature,
		MaxOutputTokens: e.opts.MaxOutputTokens,
	})
	if err != nil {
		log.Warn().Str("extraction_id", extractionID).Err(err).Msg("Extraction call failed; falling back to base parameters")
		return e.defaulted(baseParams, tokenized.HasPII)
	}

	extracted, outcome := e.parseResponse(response)
	if extracted == nil {
		return e.defaulted(baseParams, tokenized.HasPII)
	}

	params := mergeParams(baseParams, extracted)
	params = dropUnusable(params)

	restored, ok := pii.Restore(params, tokenized.Map).(map[string]interface{})
	if !ok {
		// Restore preserves the input shape; a map in is a map out.
		restored = params
	}

	if schema != nil {
		normalizeAliases(restored, schema)
	}
	e.ensureDateRange(restored)

	result := Result{
		Parameters: restored,
		Outcome:    outcome,
		HadPII:     tokenized.HasPII,
	}
	if schema != nil {
		result.Warnings = validateAgainstSchema(restored, schema)
	}

	log.Debug().
		Str("extraction_id", extractionID).
		Str("outcome", string(outcome)).
		Int("param_count", len(restored)).
		Bool("had_pii", tokenized.HasPII).
		Msg("Parameter extraction complete")

	return result
}

// parseResponse pulls the JSON object out of the raw model response, with one
// repair pass on malformed output. A nil map means the response was unusable.
func (e *Extractor) parseResponse(response string) (map[string]interface{}, Outcome) {
	candidate := llm.ExtractJSONObject(response)
	if candidate == "" {
		log.Warn().Msg("Model response contained no JSON object")
		return nil, OutcomeDefaulted
	}

	repaired, stats, err := llm.RepairJSON(candidate)
	if err != nil {
		log.Warn().Err(err).Msg("Model response unparsable after repair pass")
		return nil, OutcomeDefaulted
	}

	var parsed map[string]interface{}
	if jsonErr := json.Unmarshal([]byte(repaired), &parsed); jsonErr != nil {
		// RepairJSON accepts top-level arrays too, but extraction needs an
		// object.
		log.Warn().Msg("Model returned non-object JSON")
		return nil, OutcomeDefaulted
	}

	if stats.WasRepaired {
		log.Debug().Strs("strategies", stats.Strategies).Msg("Model response repaired")
		return parsed, OutcomeRepaired
	}
	return parsed, OutcomeClean
}

func (e *Extractor) defaulted(baseParams map[string]interface{}, hadPII bool) Result {
	params := make(map[string]interface{}, len(baseParams)+1)
	for k, v := range baseParams {
		params[k] = v
	}
	e.ensureDateRange(params)
	return Result{Parameters: params, Outcome: OutcomeDefaulted, HadPII: hadPII}
}

// ensureDateRange guarantees a usable dateRange: when absent, the last 90
// days ending today.
func (e *Extractor) ensureDateRange(params map[string]interface{}) {
	if _, ok := params["dateRange"]; ok {
		return
	}
	end := e.opts.Now()
	start := end.AddDate(0, 0, -defaultDateRangeDays)
	params["dateRange"] = map[string]interface{}{
		"start": start.Format("2006-01-02"),
		"end":   end.Format("2006-01-02"),
	}
}

// mergeParams overlays extracted values on the base parameters. Explicit
// caller-supplied values are the floor, extraction refines on top.
func mergeParams(base, extracted map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(extracted))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extracted {
		out[k] = v
	}
	return out
}

// dropUnusable removes the model's free-text detected field and any null
// values.
func dropUnusable(params map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		if k == "detected" || v == nil {
			continue
		}
		out[k] = v
	}
	return out
}

// aliasTable maps canonical schema property names to model-favored variants.
// Keys already present under their canonical name are never overwritten.
var aliasTable = map[string][]string{
	"csvData":    {"customer_list_csv", "csv_data", "csv"},
	"customerId": {"customer_id", "customerID"},
	"contactId":  {"contact_id", "contactID"},
	"companyId":  {"company_id", "companyID"},
	"dealId":     {"deal_id", "dealID"},
	"leadId":     {"lead_id", "leadID"},
	"dateRange":  {"date_range", "daterange"},
}

// normalizeAliases renames alias keys to the canonical schema property names.
// Only properties missing from the result are considered.
func normalizeAliases(params map[string]interface{}, schema *models.ParameterSchema) {
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, canonical := range names {
		if _, ok := params[canonical]; ok {
			continue
		}
		for _, alias := range aliasTable[canonical] {
			if v, ok := params[alias]; ok {
				params[canonical] = v
				delete(params, alias)
				break
			}
		}
	}
}
