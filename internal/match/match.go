// Package match implements the keyword test applied to candidate entries.
package match

import "strings"

// Matcher tests entry messages for the configured keyword. The keyword is
// operator input, never a pattern: matching is literal substring
// containment, case-insensitive unless CaseSensitive is set.
type Matcher struct {
	Keyword       string
	CaseSensitive bool
}

// Matches reports whether msg contains the keyword. An empty keyword never
// matches, so a dispatch can never ride on a vacuous containment test.
func (m Matcher) Matches(msg string) bool {
	if m.Keyword == "" {
		return false
	}
	if m.CaseSensitive {
		return strings.Contains(msg, m.Keyword)
	}
	return strings.Contains(strings.ToLower(msg), strings.ToLower(m.Keyword))
}
