package config

import "strings"

// SanitizeKeyword reduces a keyword to the characters safe for slot file
// names and scheduler task names: ASCII letters only. The reduction is
// deterministic and stable under repeated application, so the slot a
// keyword maps to never drifts between runs.
func SanitizeKeyword(keyword string) string {
	var b strings.Builder
	b.Grow(len(keyword))
	for _, r := range keyword {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
