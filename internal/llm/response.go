package llm

import "strings"

// ExtractJSONObject pulls the first JSON object substring out of a raw model
// response, tolerating explanatory prose and ```json code fences around it.
// Returns "" when no object is present.
func ExtractJSONObject(raw string) string {
	raw = strings.TrimSpace(raw)

	// Prefer fenced content when the model wrapped its answer.
	if strings.Contains(raw, "```") {
		if fenced := extractFenced(raw); fenced != "" {
			raw = fenced
		}
	}

	start := strings.Index(raw, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
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
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return raw[start : i+1]
				}
			}
		}
	}

	// Truncated object: return what is there and let the repair pass close it.
	return raw[start:]
}

func extractFenced(raw string) string {
	lines := strings.Split(raw, "\n")
	var body []string
	inFence := false

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inFence {
				break
			}
			inFence = true
			continue
		}
		if inFence {
			body = append(body, line)
		}
	}

	return strings.TrimSpace(strings.Join(body, "\n"))
}
