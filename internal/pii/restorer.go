package pii

import "strings"

// maxRestoreDepth bounds recursion over extracted structures. LLM output is
// shallow in practice; anything deeper than this is malformed and passed
// through untouched rather than risking stack growth.
const maxRestoreDepth = 64

// Restore walks extracted data and substitutes every placeholder in piiMap
// back to its original value. Strings are rewritten, maps and slices are
// restored element-by-element, and non-string scalars pass through unchanged.
func Restore(data interface{}, piiMap map[string]Entry) interface{} {
	if len(piiMap) == 0 {
		return data
	}
	return restore(data, piiMap, 0)
}

// RestoreText rewrites a single string. Placeholder tokens are unique and
// cannot be substrings of one another (the closing bracket terminates each
// token), so replacement order does not matter.
func RestoreText(text string, piiMap map[string]Entry) string {
	for token, entry := range piiMap {
		text = strings.ReplaceAll(text, token, entry.OriginalValue)
	}
	return text
}

func restore(data interface{}, piiMap map[string]Entry, depth int) interface{} {
	if depth > maxRestoreDepth {
		return data
	}

	switch v := data.(type) {
	case string:
		return RestoreText(v, piiMap)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, val := range v {
			out[key] = restore(val, piiMap, depth+1)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = restore(val, piiMap, depth+1)
		}
		return out
	default:
		return data
	}
}
