package sanitize

import "strings"

// ExtractJSON returns the text between the first '{' and the last '}' of a model reply,
// inclusive. Models sometimes wrap the object in prose or markdown code fences.
//
// When there is no '{' (or no '}' after it) the trimmed reply is returned unchanged so that
// decoding fails with a clear "not JSON" error instead of producing empty data.
// This is a heuristic, not a parser: it assumes at most one top-level object and no
// braces in trailing prose.
func ExtractJSON(raw string) string {
	start := strings.Index(raw, "{")
	if start == -1 {
		return strings.TrimSpace(raw)
	}
	end := strings.LastIndex(raw, "}")
	if end < start {
		return strings.TrimSpace(raw)
	}
	return raw[start : end+1]
}
