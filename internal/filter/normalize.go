package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases str, strips diacritics and collapses whitespace so
// "Ứng tuyển  nhanh" and "ung tuyen nhanh" compare equal.
func Normalize(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, str)
	if err != nil {
		result = str
	}
	// đ has no combining form
	result = strings.NewReplacer("đ", "d", "Đ", "D").Replace(result)
	return strings.Join(strings.Fields(strings.ToLower(result)), " ")
}
