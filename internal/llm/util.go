package llm

import "strings"

// CleanJSONBlock removes markdown code block wrappers from JSON responses.
// Models often wrap JSON in ```json ... ``` blocks even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	// Skip a language identifier on the fence line
	if idx := strings.Index(text, "\n"); idx >= 0 {
		firstLine := text[:idx]
		if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
			text = text[idx+1:]
		}
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// SalvageJSONObject looks for an embedded JSON object in free text. Starting at the first '{',
// it tries every '}' from the end of the text backward and returns the first candidate that
// accept approves. It returns "" when nothing is accepted.
func SalvageJSONObject(text string, accept func(candidate string) bool) string {
	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(text, "}")
	for end > start {
		candidate := text[start : end+1]
		if accept(candidate) {
			return candidate
		}
		end = strings.LastIndex(text[:end], "}")
	}
	return ""
}
