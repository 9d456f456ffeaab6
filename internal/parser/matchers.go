package parser

import (
	"regexp"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/payout-ledger/internal/models"
)

// selector decides which amount in a matcher's region the matcher claims.
type selector int

const (
	selectFirst            selector = iota // first amount of any kind
	selectFirstDeduction                   // first parenthesized amount
	selectFirstPlain                       // first amount that is not a deduction
	selectDeductionOrFirst                 // first deduction, else first amount
)

// Matcher binds a statement phrase to the field whose amount follows it.
// The region of an anchor runs from its end to the start of the next
// anchor found in the section, by any matcher.
type Matcher struct {
	Name     string
	Field    models.FieldName
	Category models.FeeCategory // fee matchers only
	Anchor   *regexp.Regexp
	Select   selector
	// Repeat sums every occurrence of the phrase. Without it only the
	// first occurrence that yields an amount counts.
	Repeat bool
}

// Matchers is the ordered rule list used by ExtractFields. When two anchors
// start at the same offset the longer one wins, then the earlier entry.
var Matchers = []Matcher{
	{
		Name:   "gross_collected",
		Field:  models.FieldGrossCollected,
		Anchor: regexp.MustCompile(`(?i)\btotal\s+collected\b`),
		Select: selectFirst,
	},
	{
		Name:   "withheld_tax",
		Field:  models.FieldWithheldTax,
		Anchor: regexp.MustCompile(`(?i)\b(?:withheld\s+(?:sales\s+)?tax|(?:sales\s+)?tax\s+withheld)\b`),
		Select: selectDeductionOrFirst,
		Repeat: true,
	},
	{
		Name:   "collected_tax",
		Field:  models.FieldCollectedTax,
		Anchor: regexp.MustCompile(`(?i)\b(?:sales\s+tax|tax\s+collected|collected\s+tax)\b`),
		Select: selectFirstPlain,
		Repeat: true,
	},
	{
		Name:   "total_fees",
		Field:  models.FieldTotalFees,
		Anchor: regexp.MustCompile(`(?i)\btotal\s+fees\b`),
		Select: selectFirst,
	},
	{
		Name:     "marketing_fee",
		Field:    models.FieldFees,
		Category: models.FeeMarketing,
		Anchor:   regexp.MustCompile(`(?i)\bmarketing\b`),
		Select:   selectFirstDeduction,
		Repeat:   true,
	},
	{
		Name:     "delivery_fee",
		Field:    models.FieldFees,
		Category: models.FeeDelivery,
		Anchor:   regexp.MustCompile(`(?i)\bdeliver(?:y|ed)(?:\s+by\s+\w+|\s+fees?|\s+commission)?\b`),
		Select:   selectFirstDeduction,
		Repeat:   true,
	},
	{
		Name:     "processing_fee",
		Field:    models.FieldFees,
		Category: models.FeeProcessing,
		Anchor:   regexp.MustCompile(`(?i)\bprocessing(?:\s+fees?)?\b`),
		Select:   selectFirstDeduction,
		Repeat:   true,
	},
	{
		Name:     "other_fee",
		Field:    models.FieldFees,
		Category: models.FeeOther,
		Anchor:   regexp.MustCompile(`(?i)\b(?:commissions?|service\s+fees?|adjustments?|deductions?|other\s+fees?)\b`),
		Select:   selectFirstDeduction,
		Repeat:   true,
	},
	{
		Name:   "net_deposit",
		Field:  models.FieldNetDeposit,
		Anchor: regexp.MustCompile(`(?i)\b(?:pay\s*me\s*now(?:\s+fee)?|net\s+(?:deposit|payout)|payout\s+amount|deposit\s+amount|amount\s+deposited)\b`),
		Select: selectFirstPlain,
	},
}

// pick returns the index of the token m claims from tokens[lo:hi], skipping
// tokens already claimed.
func (m Matcher) pick(tokens []amountToken, lo, hi int, claimed []bool) (int, bool) {
	first := -1
	for i := lo; i < hi; i++ {
		if claimed[i] {
			continue
		}
		t := tokens[i]
		switch m.Select {
		case selectFirst:
			return i, true
		case selectFirstDeduction:
			if t.Deduction {
				return i, true
			}
		case selectFirstPlain:
			if !t.Deduction {
				return i, true
			}
		case selectDeductionOrFirst:
			if t.Deduction {
				return i, true
			}
			if first < 0 {
				first = i
			}
		}
	}
	if first >= 0 {
		return first, true
	}
	return -1, false
}

// Apply runs m on its own over text and returns the amount it would
// extract. Regions are bounded only by m's own anchors.
func (m Matcher) Apply(text string) models.AmountField {
	out := models.AmountField{Confidence: models.Absent}
	tokens := scanAmounts(text)
	claimed := make([]bool, len(tokens))
	hits := findHits(text, []Matcher{m})
	for i, h := range hits {
		if out.Found() && !m.Repeat {
			break
		}
		lo, hi := regionTokens(tokens, h, hits, i, len(text))
		idx, ok := m.pick(tokens, lo, hi, claimed)
		if !ok {
			continue
		}
		claimed[idx] = true
		addAmount(&out, tokens[idx].Value)
	}
	return out
}

// hit is one anchor occurrence.
type hit struct {
	matcher int
	start   int
	end     int
}

// findHits locates every anchor of every matcher and drops hits nested in
// an earlier or longer one, so "withheld sales tax" hides its inner
// "sales tax".
func findHits(text string, matchers []Matcher) []hit {
	var all []hit
	for mi, m := range matchers {
		for _, loc := range m.Anchor.FindAllStringIndex(text, -1) {
			all = append(all, hit{matcher: mi, start: loc[0], end: loc[1]})
		}
	}
	sort.SliceStable(all, func(a, b int) bool {
		if all[a].start != all[b].start {
			return all[a].start < all[b].start
		}
		la, lb := all[a].end-all[a].start, all[b].end-all[b].start
		if la != lb {
			return la > lb
		}
		return all[a].matcher < all[b].matcher
	})

	var kept []hit
	lastEnd := -1
	for _, h := range all {
		if h.start < lastEnd {
			continue
		}
		kept = append(kept, h)
		lastEnd = h.end
	}
	return kept
}

// regionTokens returns the token index range [lo, hi) that lies between
// hits[i] and the next hit.
func regionTokens(tokens []amountToken, h hit, hits []hit, i, textLen int) (int, int) {
	end := textLen
	if i+1 < len(hits) {
		end = hits[i+1].start
	}
	lo := sort.Search(len(tokens), func(k int) bool { return tokens[k].Start >= h.end })
	hi := sort.Search(len(tokens), func(k int) bool { return tokens[k].Start >= end })
	return lo, hi
}

func addAmount(f *models.AmountField, v decimal.Decimal) {
	f.Value = f.Value.Add(v)
	f.Matches++
	f.Confidence = models.Found
}
