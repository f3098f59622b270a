package shopping

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldName lower-cases s and strips diacritics ("Azúcar" -> "azucar").
func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}

// SameIngredient reports whether two ingredient names refer to the same
// thing for pantry purposes. After folding case and accents the names match
// when equal or when either contains the other, so "pan" matches
// "pan rallado". Only pantry reconciliation uses it; plan aggregation keys
// on the exact lower-cased name.
func SameIngredient(a, b string) bool {
	fa, fb := foldName(a), foldName(b)
	if fa == fb {
		return true
	}
	return strings.Contains(fa, fb) || strings.Contains(fb, fa)
}
