package analyzer

import "strings"

// stripCodeFence removes a surrounding markdown code fence from model output.
// Models frequently wrap JSON in ```json ... ``` despite being asked not to.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if rest, ok := strings.CutPrefix(trimmed, "json"); ok {
		trimmed = rest
	} else if rest, ok := strings.CutPrefix(trimmed, "JSON"); ok {
		trimmed = rest
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
