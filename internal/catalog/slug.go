package catalog

import (
	"strings"
	"unicode"
)

// Slugify lower-cases s and joins runs of letters and digits with hyphens.
// Non-Latin letters are kept so Arabic names produce readable slugs.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
