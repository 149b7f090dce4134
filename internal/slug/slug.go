// internal/slug/slug.go
//
// Slug derivation for subdomain allocation.
//
// • Make(name) ─ converts a human business name into a URL-safe slug
//   restricted to ASCII a-z, 0-9 and “-”, suitable as a subdomain label.
//
// Rules (Make)
// ------------
// 1. NFD-decompose and drop combining marks, so “Café” → “Cafe”.
// 2. Lower-case everything.
// 3. Convert any run of non-[a-z0-9] characters to one “-”.  That strips
//    spaces, punctuation, emoji, and any non-ASCII that survived step 1.
// 4. Collapse consecutive “-” to a single “-”.
// 5. Trim leading / trailing “-”.
// 6. If the result is empty, return "site".
//
// Notes
// -----
// • Slugs are capped at 45 characters because the upstream host limits
//   subdomain labels; the cut never leaves a trailing dash.

package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxLen is the longest slug Make will return.  Subdomain labels beyond
// this are rejected by the upstream host.
const MaxLen = 45

// Make converts name → lower-kebab ASCII.
func Make(name string) string {
	// Decompose accented characters and drop the combining marks.
	decomposed := norm.NFD.String(name)

	var b strings.Builder
	b.Grow(len(decomposed))

	lastWasDash := false
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue // combining mark from NFD, e.g. the acute on “é”
		}
		r = unicode.ToLower(r)
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasDash = false
		default:
			// any remaining non-ASCII or punctuation becomes a single dash
			if !lastWasDash {
				b.WriteRune('-')
				lastWasDash = true
			}
		}
	}

	s := strings.Trim(b.String(), "-")
	if s == "" {
		return "site"
	}
	if len(s) > MaxLen {
		s = s[:MaxLen]
		// trim trailing dash if the cut landed on one
		s = strings.TrimRightFunc(s, func(r rune) bool { return r == '-' })
	}
	return s
}
