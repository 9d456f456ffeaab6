package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// datePatternShort is M/D with an optional year, as printed in order
// periods ("3/8 to 3/14").
const datePatternShort = `\d{1,2}/\d{1,2}(?:/\d{2,4})?`

// amountPattern matches money tokens such as "$1,234.56", "($25.00)",
// "-$3" or "435.00". Group 1 is an opening parenthesis, group 2 a minus
// sign, group 3 the currency symbol, groups 4 and 5 the integer and
// fractional digits.
var amountPattern = regexp.MustCompile(`(\(\s*)?(-)?(\$\s*)?(\d{1,3}(?:,\d{3})+|\d+)(\.\d{1,2})?`)

// amountToken is one money figure located in section text.
type amountToken struct {
	Value     decimal.Decimal // always non-negative
	Deduction bool            // parenthesized or minus-signed
	Start     int
	End       int
}

// scanAmounts returns every money token in text, in order. Bare integers
// without a currency symbol or decimal part are dates, counts or
// identifiers and are skipped.
func scanAmounts(text string) []amountToken {
	var tokens []amountToken
	for _, m := range amountPattern.FindAllStringSubmatchIndex(text, -1) {
		hasParen := m[2] >= 0
		hasMinus := m[4] >= 0
		hasDollar := m[6] >= 0
		hasFrac := m[10] >= 0
		if !hasDollar && !hasFrac {
			continue
		}
		// "12345678.00" glued to letters is an identifier, not money
		if m[1] < len(text) && isIdentRune(text[m[1]]) {
			continue
		}
		value, err := parseAmount(text[m[8]:m[1]])
		if err != nil {
			continue
		}
		tokens = append(tokens, amountToken{
			Value:     value.Abs(),
			Deduction: hasParen || hasMinus,
			Start:     m[0],
			End:       m[1],
		})
	}
	return tokens
}

func isIdentRune(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

// parseAmount converts a string like "1,234.56", "$1,234.56" or "($25.00)"
// to a decimal. Parentheses are stripped; a leading minus is kept.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "()")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "") // non-breaking space

	if s == "" || s == "-" {
		return decimal.Zero, nil
	}

	return decimal.NewFromString(s)
}

// parseDate reads a month/day/year token. Two-digit years are accepted.
func parseDate(s string) (time.Time, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("date %q: want month/day/year", s)
	}
	switch len(parts[2]) {
	case 4:
		return time.Parse("1/2/2006", s)
	case 2:
		return time.Parse("1/2/06", s)
	}
	return time.Time{}, fmt.Errorf("date %q: year must have 2 or 4 digits", s)
}

// OCR fixes for amount punctuation. Tesseract often misreads the decimal
// point as a semicolon or colon, e.g. "19,720; 15:" for "19,720.15". Only
// figures that are already money ("$" prefix or thousands groups) are
// repaired, so clock times such as "10:45" stay as they are.
var (
	ocrMisreadDecimal = regexp.MustCompile(`(\$\s*\d[\d,]*|\b\d{1,3}(?:,\d{3})+)[;:]\s?(\d{2})\b`)
	ocrTrailingColon  = regexp.MustCompile(`(\d\.\d{2}):(\s|$)`)
)

// sanitizeOCRAmounts fixes common OCR errors in amount strings.
func sanitizeOCRAmounts(text string) string {
	text = ocrMisreadDecimal.ReplaceAllString(text, "$1.$2")
	text = ocrTrailingColon.ReplaceAllString(text, "$1$2")
	return text
}
