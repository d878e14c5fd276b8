// Package sanitize neutralizes prompt-injection payloads in user-supplied
// text before it reaches a language model.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Sanitizer strips or neutralizes prompt-injection markers. Implementations
// must be idempotent: sanitizing already-sanitized text is a no-op.
type Sanitizer interface {
	Sanitize(text, context string) string
}

const filteredMarker = "[filtered]"

// Injection phrasings and control tokens seen in the wild. Matching is
// case-insensitive; each hit is replaced with a neutral marker so the
// surrounding request text keeps its shape.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(?:all\s+)?(?:previous|prior|above)\s+(?:instructions|prompts|rules)`),
	regexp.MustCompile(`(?i)disregard\s+(?:all\s+)?(?:previous|prior|above)\s+(?:instructions|prompts|rules)`),
	regexp.MustCompile(`(?i)forget\s+(?:everything|all)\s+(?:you|above)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+(?:a|an|in)\s+`),
	regexp.MustCompile(`(?i)\bnew\s+system\s+prompt\b`),
	regexp.MustCompile(`(?im)^\s*(?:system|assistant|developer)\s*:`),
	regexp.MustCompile(`<\|im_start\|>|<\|im_end\|>|<\|endoftext\|>`),
	regexp.MustCompile(`(?i)\[/?(?:INST|SYS)\]`),
}

// Heuristic is the default Sanitizer. It has no external dependencies and
// never fails; a changed result is logged by the caller, not treated as an
// error.
type Heuristic struct{}

// NewHeuristic returns the default sanitizer.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Sanitize replaces injection markers with a neutral placeholder. The context
// string identifies the call site for diagnostics only; it never alters the
// result.
func (h *Heuristic) Sanitize(text, context string) string {
	out := text
	for _, pattern := range injectionPatterns {
		out = pattern.ReplaceAllString(out, filteredMarker)
	}

	if out != text {
		log.Debug().
			Str("context", context).
			Int("original_len", len(text)).
			Int("sanitized_len", len(out)).
			Msg("Sanitizer neutralized prompt-injection markers")
	}

	// Collapse marker runs left by overlapping patterns so repeated
	// sanitization stays stable.
	for strings.Contains(out, filteredMarker+filteredMarker) {
		out = strings.ReplaceAll(out, filteredMarker+filteredMarker, filteredMarker)
	}

	return out
}
