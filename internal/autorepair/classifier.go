// Package autorepair decides whether a failed template execution is worth an
// automated repair attempt. The classifier is a pure function over the error
// shape and the template's repair history; the repair itself happens in an
// external collaborator.
package autorepair

import (
	"fmt"
	"strings"

	"github.com/taskcortex/pkg/models"
)

// DefaultMaxAttempts is the hard repair budget per template.
const DefaultMaxAttempts = 50

// transientErrorNames are infrastructure failures. Repairing the template
// cannot fix the network.
var transientErrorNames = map[string]bool{
	"AxiosError":          true,
	"TimeoutError":        true,
	"NetworkError":        true,
	"AuthenticationError": true,
	"PermissionError":     true,
	"TaskCancelledError":  true,
}

// codeDefectNames mark failures inside the template's own code, the exact
// thing repair exists for.
var codeDefectNames = map[string]bool{
	"ReferenceError": true,
	"TypeError":      true,
	"SyntaxError":    true,
}

// transientMessageFragments is the curated transient-failure vocabulary.
// Matched case-insensitively against the error message.
var transientMessageFragments = []string{
	"timeout",
	"timed out",
	"rate limit",
	"too many requests",
	"429",
	"502",
	"503",
	"504",
	"econnrefused",
	"econnreset",
	"etimedout",
	"socket hang up",
	"service unavailable",
}

// repairFrameMarkers identify the repair subsystem's own call frames in a
// stack trace. A failure originating there must never trigger another repair.
var repairFrameMarkers = []string{
	"autorepair",
	"repairTemplate",
	"template_repair",
}

// Classifier applies the eligibility rules in order; the first match wins.
type Classifier struct {
	maxAttempts int
}

// New creates a Classifier. A non-positive maxAttempts falls back to the
// default budget.
func New(maxAttempts int) *Classifier {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Classifier{maxAttempts: maxAttempts}
}

// ShouldRepair returns the repair verdict for a failed execution. It never
// panics: any combination of empty name, message, and stack evaluates
// normally, and unrecognized shapes default to repairable.
func (c *Classifier) ShouldRepair(execErr models.ExecutionError, tmpl *models.Template) models.RepairDecision {
	attempts := 0
	if tmpl != nil {
		attempts = tmpl.RepairAttempts
	}

	if attempts >= c.maxAttempts {
		return models.RepairDecision{
			ShouldRepair: false,
			Reason:       fmt.Sprintf("attempt budget exhausted (%d/%d)", attempts, c.maxAttempts),
		}
	}

	if marker := repairFrameIn(execErr.Stack); marker != "" {
		return models.RepairDecision{
			ShouldRepair: false,
			Reason:       "error originated in the repair subsystem (" + marker + ")",
		}
	}

	if transientErrorNames[execErr.Name] {
		return models.RepairDecision{
			ShouldRepair: false,
			Reason:       "transient error type: " + execErr.Name,
		}
	}

	if fragment := transientFragmentIn(execErr.Message); fragment != "" {
		return models.RepairDecision{
			ShouldRepair: false,
			Reason:       "transient failure message (" + fragment + ")",
		}
	}

	if codeDefectNames[execErr.Name] {
		return models.RepairDecision{
			ShouldRepair: true,
			Reason:       "known code defect: " + execErr.Name,
		}
	}

	// Unknown failures are treated as repairable code defects; the budget in
	// rule 1 bounds the optimism.
	return models.RepairDecision{
		ShouldRepair: true,
		Reason:       "unrecognized error, attempting repair",
	}
}

func repairFrameIn(stack string) string {
	if stack == "" {
		return ""
	}
	lower := strings.ToLower(stack)
	for _, marker := range repairFrameMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return marker
		}
	}
	return ""
}

func transientFragmentIn(message string) string {
	if message == "" {
		return ""
	}
	lower := strings.ToLower(message)
	for _, fragment := range transientMessageFragments {
		if strings.Contains(lower, fragment) {
			return fragment
		}
	}
	return ""
}
