package extractor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/taskcortex/pkg/models"
)

// buildSchemaPrompt enumerates the template's declared properties so the
// model returns exactly those names. Properties are listed in sorted order to
// keep the prompt, and therefore the low-temperature output, stable.
func buildSchemaPrompt(description string, schema *models.ParameterSchema) string {
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Extract parameter values from the task description below.\n\n")
	b.WriteString("Expected parameters:\n")
	for _, name := range names {
		prop := schema.Properties[name]
		b.WriteString(fmt.Sprintf("- %s (%s", name, propType(prop)))
		if required[name] {
			b.WriteString(", required")
		}
		b.WriteString(")")
		if prop.Description != "" {
			b.WriteString(": " + prop.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString(`
Rules:
- Use exactly the parameter names listed above.
- For array parameters, split comma, newline, or space separated values into an array of the declared item type.
- Omit any parameter whose value is not present in the description.
- Respond with a single JSON object and nothing else. No explanation, no code fences.

Task description:
`)
	b.WriteString(description)
	return b.String()
}

func propType(prop models.PropertySpec) string {
	if prop.Type == "array" && prop.Items != nil {
		return "array of " + prop.Items.Type
	}
	if prop.Type == "" {
		return "string"
	}
	return prop.Type
}

// buildGenericPrompt is used when the template carries no schema. It asks for
// a fixed set of commonly needed fields; the free-text "detected" field is
// discarded before use.
func buildGenericPrompt(description string) string {
	return `Extract any task parameters from the description below.

Look for these fields when present:
- customerId, contactId, companyId, dealId, leadId: entity identifiers
- email, phone, name: contact fields
- dateRange: an object {"start": "YYYY-MM-DD", "end": "YYYY-MM-DD"}
- detected: a short free-text note of anything else that looks like a parameter

Rules:
- Omit any field whose value is not present in the description.
- Respond with a single JSON object and nothing else. No explanation, no code fences.

Task description:
` + description
}
