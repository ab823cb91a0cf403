package deflect

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize case-folds s and strips combining diacritical marks so accented
// and unaccented forms compare equal: "ΔΟΥ", "δου" and "δοῦ" all normalize to
// "δου". Folding runs before decomposition so that fold outputs carrying
// combining marks (e.g. U+0130) are also stripped, which makes Normalize
// idempotent.
func Normalize(s string) string {
	t := transform.Chain(cases.Fold(), norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		// Transform only fails on invalid UTF-8; degrade to plain lowering.
		return strings.ToLower(s)
	}
	return out
}
