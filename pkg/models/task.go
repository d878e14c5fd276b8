package models

// UserIntent is the caller's declared intent for a task request.
type UserIntent string

const (
	IntentCreateNewTask         UserIntent = "CREATE_NEW_TASK"
	IntentReuseExistingTemplate UserIntent = "REUSE_EXISTING_TEMPLATE"
)

// EntityScope describes whether a request targets one record or a collection.
type EntityScope string

const (
	ScopeAggregate      EntityScope = "AGGREGATE"
	ScopeSpecificEntity EntityScope = "SPECIFIC_ENTITY"
	ScopeAuto           EntityScope = "AUTO"
)

// ParameterSchema is the JSON-Schema-like shape stored on a template definition.
type ParameterSchema struct {
	Properties map[string]PropertySpec `json:"properties"`
	Required   []string                `json:"required"`
}

// PropertySpec describes a single schema property.
type PropertySpec struct {
	Type        string        `json:"type"`
	Description string        `json:"description,omitempty"`
	Items       *PropertySpec `json:"items,omitempty"`
}

// TemplateDefinition holds the executable definition of a template. Only the
// parameter schema is read by the decision core; everything else belongs to
// the generation and execution flows.
type TemplateDefinition struct {
	ParameterSchema *ParameterSchema `json:"parameterSchema,omitempty"`
}

// Template is a reusable task definition. The decision core treats templates
// as read-only; creation and mutation happen in the generation/repair flows.
type Template struct {
	TemplateID      string             `json:"templateId"`
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	Definition      TemplateDefinition `json:"definition"`
	Embedding       []float32          `json:"embedding,omitempty"`
	NameEmbedding   []float32          `json:"nameEmbedding,omitempty"`
	Enabled         bool               `json:"enabled"`
	RepairAttempts  int                `json:"repairAttempts"`
	Testing         bool               `json:"testing"`
	TriggerPatterns []string           `json:"triggerPatterns,omitempty"`
}

// RequiresField reports whether the template schema marks name as required.
func (t *Template) RequiresField(name string) bool {
	schema := t.Definition.ParameterSchema
	if schema == nil {
		return false
	}
	for _, field := range schema.Required {
		if field == name {
			return true
		}
	}
	return false
}

// TaskRequest is the ephemeral per-call request handed to the resolver and
// extractor.
type TaskRequest struct {
	Description        string                 `json:"description"`
	ExplicitParameters map[string]interface{} `json:"explicitParameters,omitempty"`
	UserIntent         UserIntent             `json:"userIntent"`
	EntityScope        EntityScope            `json:"entityScope"`
}

// MatchMethod identifies which retrieval path produced a similarity result.
type MatchMethod string

const (
	MatchByName     MatchMethod = "name_embedding"
	MatchByFullText MatchMethod = "full_embedding"
	MatchByTrigger  MatchMethod = "trigger_pattern"
)

// SimilarityResult is one candidate from a nearest-neighbor search.
type SimilarityResult struct {
	TemplateID      string      `json:"templateId"`
	SimilarityScore float64     `json:"similarityScore"`
	MatchMethod     MatchMethod `json:"matchMethod"`
}

// ExecutionError is the minimal error shape reported by the execution layer.
// Any of the fields may be empty.
type ExecutionError struct {
	Name    string `json:"name,omitempty"`
	Message string `json:"message,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// RepairDecision is the classifier's verdict on a failed execution.
type RepairDecision struct {
	ShouldRepair bool   `json:"shouldRepair"`
	Reason       string `json:"reason"`
}
