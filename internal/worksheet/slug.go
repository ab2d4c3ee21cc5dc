package worksheet

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const maxSlugWords = 8

// Slugify lower-cases title and joins its letter/digit runs with hyphens.
func Slugify(title string) string {
	lower := cases.Lower(language.English).String(title)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
	})
	if len(words) > maxSlugWords {
		words = words[:maxSlugWords]
	}
	return strings.Join(words, "-")
}

// NewSlug builds a unique, stable slug from a title and worksheet id.
func NewSlug(title, id string) string {
	short := strings.ReplaceAll(id, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	base := Slugify(title)
	if base == "" {
		return "worksheet-" + short
	}
	return base + "-" + short
}
