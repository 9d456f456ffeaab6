package parser

import "strings"

// dashReplacer folds typographic dashes and minus signs to ASCII '-'.
var dashReplacer = strings.NewReplacer("\u2012", "-", "\u2013", "-", "\u2014", "-", "\u2212", "-")

// Normalize collapses every run of whitespace, newlines included, into a
// single space. All extraction patterns work on this free-form text and
// none of them are line-anchored.
func Normalize(text string) string {
	text = sanitizeOCRAmounts(text)
	text = dashReplacer.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}
