package util

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength leaves room for a collision suffix within the column size.
const MaxSlugLength = 200

// stripMarks drops combining marks after canonical decomposition, so "é" folds to "e".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func isSlugByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

// Slugify folds s to lowercase ASCII words joined by single hyphens.
// Text outside Latin script is transliterated before folding.
func Slugify(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(unidecode.Unidecode(folded))

	var b strings.Builder
	b.Grow(len(folded))
	gap := false
	for i := 0; i < len(folded) && b.Len() < MaxSlugLength; i++ {
		c := folded[i]
		if !isSlugByte(c) {
			gap = b.Len() > 0
			continue
		}
		if gap {
			if b.Len()+1 >= MaxSlugLength {
				break
			}
			b.WriteByte('-')
			gap = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

// IsValidSlug reports whether s could have come out of Slugify, allowing a
// numeric collision suffix past MaxSlugLength.
func IsValidSlug(s string) bool {
	if s == "" || len(s) > MaxSlugLength+10 {
		return false
	}
	prev := byte('-')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isSlugByte(c):
		case c == '-' && prev != '-':
		default:
			return false
		}
		prev = c
	}
	return prev != '-'
}
