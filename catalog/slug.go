package catalog

import (
	"strings"
	"unicode"

	"github.com/gosimple/slug"
)

// Slugify derives a URL-safe identity from free text: lower-cased, runs of
// anything but letters and digits collapsed to a single "-", no leading or
// trailing "-". Non-ASCII letters are transliterated. Blank input gives "".
func Slugify(text string) string {
	// slug.Make keeps "_" and drops quotes; both must separate words here.
	words := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, text)
	if strings.TrimSpace(words) == "" {
		return ""
	}
	return slug.Make(words)
}
