package shared

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FoldSearch lowercases s using Turkish casing rules and collapses
// whitespace. Order numbers and customer names come from Turkish input;
// ASCII lowering maps İ and I incorrectly, so both the stored search
// text and incoming search terms go through the same fold.
func FoldSearch(s string) string {
	folded := cases.Lower(language.Turkish).String(s)
	return strings.Join(strings.Fields(folded), " ")
}

// SearchText builds the stored search text for a set of fields.
func SearchText(fields ...string) string {
	return FoldSearch(strings.Join(fields, " "))
}
