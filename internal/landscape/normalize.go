package landscape

import "strings"

var aliases = map[string]string{
	"one_max":     "onemax",
	"leadingones": "leading_ones",
	"lo":          "leading_ones",
	"de_jong":     "sphere",
	"target":      "target_match",
	"targetmatch": "target_match",
	"himmelblaus": "himmelblau",
}

// Normalize canonicalizes landscape names and known aliases. Case, hyphens
// and spaces are folded so that "Leading-Ones" resolves to leading_ones.
func Normalize(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.Trim(normalized, "_")
	if canonical, ok := aliases[normalized]; ok {
		return canonical
	}
	return normalized
}
