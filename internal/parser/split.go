package parser

import (
	"iter"
	"regexp"
	"strings"
)

var (
	// depositStartPattern finds the "Deposit 03/15/2024" line that opens a
	// deposit. Group 1 is the date token.
	depositStartPattern = regexp.MustCompile(`(?i)\bdeposit(?:\s+date)?\s*:?\s+(\d{1,2}/\d{1,2}/\d{2,4})\b`)

	// distributionStartPattern is the "Distribution ID" label the platform
	// prints at the top of each deposit block.
	distributionStartPattern = regexp.MustCompile(`(?i)\bdistribution\s+id\b`)

	grossMarkerPattern = regexp.MustCompile(`(?i)\btotal\s+collected\b`)
)

// Section is the text of one deposit event.
type Section struct {
	// Index counts section boundaries in source order, starting at 1,
	// including candidates that were discarded.
	Index int
	Text  string
}

// Sections splits normalized statement text into deposit sections.
//
// When the statement carries "Distribution ID" labels, each label opens a
// section that runs to the next label, whatever sits between the label and
// its deposit line. A second deposit line inside one label block starts an
// unlabeled section of its own. Without labels, sections run from one
// "Deposit <date>" marker to the next.
//
// Text before the first boundary is statement header. Candidates without a
// "total collected" figure are fragments (repeated headers, summaries) and
// are skipped. The sequence is lazy: each boundary is located only when the
// consumer asks for the next section.
func Sections(text string) iter.Seq[Section] {
	return func(yield func(Section) bool) {
		labeled := distributionStartPattern.MatchString(text)
		start := firstBoundary(text, labeled)
		index := 0
		for start >= 0 {
			index++
			end := sectionEnd(text, start, labeled)

			chunk := strings.TrimSpace(text[start:end])
			if grossMarkerPattern.MatchString(chunk) {
				if !yield(Section{Index: index, Text: chunk}) {
					return
				}
			}
			if end <= start || end >= len(text) {
				return
			}
			start = end
		}
	}
}

func firstBoundary(text string, labeled bool) int {
	first := -1
	if loc := depositStartPattern.FindStringIndex(text); loc != nil {
		first = loc[0]
	}
	if labeled {
		if loc := distributionStartPattern.FindStringIndex(text); loc != nil && (first < 0 || loc[0] < first) {
			first = loc[0]
		}
	}
	return first
}

// sectionEnd returns where the section opened at start stops: the next
// label, or a second deposit line before it, or the end of text.
func sectionEnd(text string, start int, labeled bool) int {
	from, limit := start, len(text)
	if labeled {
		if loc := distributionStartPattern.FindStringIndex(text[start:]); loc != nil {
			if loc[0] == 0 {
				from = start + loc[1]
				loc = distributionStartPattern.FindStringIndex(text[from:])
				if loc != nil {
					limit = from + loc[0]
				}
			} else {
				limit = start + loc[0]
			}
		}
	}

	own := depositStartPattern.FindStringIndex(text[from:limit])
	if own == nil {
		return limit
	}
	rest := from + own[1]
	if next := depositStartPattern.FindStringIndex(text[rest:limit]); next != nil {
		return rest + next[0]
	}
	return limit
}
