// Package matching maps fantasy rider names onto results-site identifiers
// and finds the closest name among candidates.
package matching

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// slugOverrides holds names whose results-site slug does not follow the
// surname rule.
var slugOverrides = map[string]string{
	"LE COURT PIENAAR Kimberley": "kimberley-le-court",
}

var foldReplacer = strings.NewReplacer("ß", "ss", "ẞ", "ss", "Æ", "ae", "æ", "ae", "Ø", "o", "ø", "o", "Đ", "d", "đ", "d", "Ł", "l", "ł", "l")

// Slug converts a fantasy name such as "KOPECKY Lotte" (uppercase surname
// block followed by given names) into "lotte-kopecky". Diacritics are
// folded to ASCII. Names that do not follow the surname rule fall back to a
// hyphenated ASCII form of the whole name.
func Slug(fullName string) string {
	fullName = strings.TrimSpace(fullName)
	if s, ok := slugOverrides[fullName]; ok {
		return s
	}

	parts, err := splitSurname(fullName)
	if err != nil {
		return asciiLower(strings.Join(strings.Fields(fullName), "-"))
	}
	return asciiLower(strings.Join(parts, "-"))
}

// splitSurname returns the given names followed by the surname parts.
func splitSurname(fullName string) ([]string, error) {
	fields := strings.Fields(fullName)
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedName, fullName)
	}

	var last, first []string
	for i, f := range fields {
		if isUpper(f) {
			last = append(last, f)
			continue
		}
		first = fields[i:]
		break
	}
	if len(last) == 0 || len(first) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedName, fullName)
	}
	return append(append([]string{}, first...), last...), nil
}

// isUpper reports whether s has at least one cased letter and no lowercase
// ones. ß has no single-rune uppercase form and is ignored.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if r == 'ß' {
			continue
		}
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// asciiLower folds s to lowercase ASCII, dropping what cannot be folded.
func asciiLower(s string) string {
	s = foldReplacer.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}
