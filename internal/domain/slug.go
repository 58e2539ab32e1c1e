package domain

import (
	"strings"
	"unicode"
)

// Slugify derives a URL slug from a product title: lowercase letters
// and digits, with any other runs collapsed into single hyphens.
// "Blue Running Shoes, Size 10" becomes "blue-running-shoes-size-10".
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	pendingSep := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}

	return b.String()
}
