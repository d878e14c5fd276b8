package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// RepairStats records which repair strategies ran on a malformed response.
type RepairStats struct {
	WasRepaired bool     `json:"was_repaired"`
	Strategies  []string `json:"strategies,omitempty"`
}

var (
	trailingCommaBrace   = regexp.MustCompile(`,\s*}`)
	trailingCommaBracket = regexp.MustCompile(`,\s*]`)
	bareKey              = regexp.MustCompile(`([{,]\s*)([a-zA-Z_][a-zA-Z0-9_]*)(\s*:)`)
)

// RepairJSON applies one deterministic repair pass to malformed JSON:
// quote bare property names, strip trailing commas, close unbalanced
// braces/brackets, with the jsonrepair library as the final strategy.
// All strategies are deterministic, so repeated calls converge.
func RepairJSON(raw string) (string, RepairStats, error) {
	var stats RepairStats

	if parsesStructured(raw) {
		return raw, stats, nil
	}

	stats.WasRepaired = true
	repaired := raw

	if bareKey.MatchString(repaired) {
		repaired = bareKey.ReplaceAllString(repaired, `$1"$2"$3`)
		stats.Strategies = append(stats.Strategies, "key_quotes")
	}

	if trailingCommaBrace.MatchString(repaired) || trailingCommaBracket.MatchString(repaired) {
		repaired = trailingCommaBrace.ReplaceAllString(repaired, "}")
		repaired = trailingCommaBracket.ReplaceAllString(repaired, "]")
		stats.Strategies = append(stats.Strategies, "trailing_commas")
	}

	if closed := closeUnbalanced(repaired); closed != repaired {
		repaired = closed
		stats.Strategies = append(stats.Strategies, "completion")
	}

	if parsesStructured(repaired) {
		return repaired, stats, nil
	}

	// Hand-rolled strategies were not enough; let the library take a pass.
	libRepaired, libErr := jsonrepair.JSONRepair(repaired)
	if libErr == nil && parsesStructured(libRepaired) {
		stats.Strategies = append(stats.Strategies, "jsonrepair_library")
		return libRepaired, stats, nil
	}

	return repaired, stats, &ParseFault{Raw: raw, Strategies: stats.Strategies}
}

// ParseFault reports that a response stayed unparsable after the repair pass.
// Callers fall back to defaults instead of surfacing it to the end user.
type ParseFault struct {
	Raw        string
	Strategies []string
}

func (f *ParseFault) Error() string {
	if len(f.Strategies) == 0 {
		return "JSON repair failed: no applicable strategy"
	}
	return "JSON repair failed after " + strings.Join(f.Strategies, ", ")
}

// parsesStructured reports whether s is valid JSON whose top level is an
// object or array. Extraction always expects an object; bare scalars coming
// back from an over-eager repair do not count as success.
func parsesStructured(s string) bool {
	var probe interface{}
	if json.Unmarshal([]byte(s), &probe) != nil {
		return false
	}
	switch probe.(type) {
	case map[string]interface{}, []interface{}:
		return true
	default:
		return false
	}
}

// closeUnbalanced appends missing closing braces/brackets in reverse opening
// order. Openers inside string literals are skipped.
func closeUnbalanced(s string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				stack = append(stack, '}')
			}
		case '[':
			if !inString {
				stack = append(stack, ']')
			}
		case '}', ']':
			if !inString && len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	// A dangling string has to be terminated before anything can close.
	if inString {
		s += `"`
	}
	for i := len(stack) - 1; i >= 0; i-- {
		s += string(stack[i])
	}
	return s
}
