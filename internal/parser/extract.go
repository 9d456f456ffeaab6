package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/payout-ledger/internal/models"
)

var (
	// distributionIDPattern is the platform's fixed identifier format,
	// e.g. "12345678JV-UBOK".
	distributionIDPattern = regexp.MustCompile(`\b\d{8}[A-Z]{2}-[A-Z]{4}\b`)

	// distributionLabelPattern catches identifiers in other formats when
	// they are labeled.
	distributionLabelPattern = regexp.MustCompile(`(?i)\bdistribution\s+id\s*[:#]?\s*([a-z0-9][a-z0-9-]{3,})`)

	orderPeriodPattern = regexp.MustCompile(`(?i)\borders?\s+(?:from\s+)?(` + datePatternShort + `)\s*(?:to|through|-)\s*(` + datePatternShort + `)`)
)

// ExtractFields pulls every deposit field out of one section of
// normalized text. It never fails: fields it cannot find are marked absent.
func ExtractFields(section int, text string) models.Fields {
	f := models.NewFields(section)

	extractDate(&f, text)
	extractDistributionID(&f, text)
	extractOrderPeriod(&f, text)
	extractAmounts(&f, text, Matchers)

	return f
}

func extractDate(f *models.Fields, text string) {
	m := depositStartPattern.FindStringSubmatch(text)
	if m == nil {
		return
	}
	f.Date.Raw = m[1]
	d, err := parseDate(m[1])
	if err != nil {
		return
	}
	f.Date.Value = d
	f.Date.Confidence = models.Found
}

func extractDistributionID(f *models.Fields, text string) {
	if id := distributionIDPattern.FindString(text); id != "" {
		f.DistributionID = models.TextField{Value: id, Confidence: models.Found}
		return
	}
	for _, m := range distributionLabelPattern.FindAllStringSubmatch(text, -1) {
		if strings.ContainsAny(m[1], "0123456789") {
			f.DistributionID = models.TextField{Value: m[1], Confidence: models.Found}
			return
		}
	}
}

func extractOrderPeriod(f *models.Fields, text string) {
	m := orderPeriodPattern.FindStringSubmatch(text)
	if m == nil {
		return
	}
	f.OrderPeriod = models.TextField{Value: m[1] + " to " + m[2], Confidence: models.Found}
}

// extractAmounts runs the matcher list over text. Each anchor claims at
// most one amount from its region. Deductions nobody claims are counted as
// other fees. If no payout line was found, the last unclaimed plain amount
// becomes an inferred net deposit.
func extractAmounts(f *models.Fields, text string, matchers []Matcher) {
	tokens := scanAmounts(text)
	claimed := make([]bool, len(tokens))
	hits := findHits(text, matchers)
	done := make([]bool, len(matchers))

	for i, h := range hits {
		m := matchers[h.matcher]
		if done[h.matcher] {
			continue
		}
		lo, hi := regionTokens(tokens, h, hits, i, len(text))
		idx, ok := m.pick(tokens, lo, hi, claimed)
		if !ok {
			continue
		}
		claimed[idx] = true
		if !m.Repeat {
			done[h.matcher] = true
		}
		assign(f, m, tokens[idx].Value)
	}

	for i, t := range tokens {
		if t.Deduction && !claimed[i] {
			claimed[i] = true
			assign(f, Matcher{Field: models.FieldFees, Category: models.FeeOther}, t.Value)
		}
	}

	fees := models.AmountField{Confidence: models.Absent}
	for _, c := range models.FeeCategories {
		if item, ok := f.FeeBreakdown[c]; ok {
			fees.Value = fees.Value.Add(item.Value)
			fees.Matches += item.Matches
			fees.Confidence = models.Found
		}
	}
	f.Fees = fees

	if !f.NetDeposit.Found() {
		for i := len(tokens) - 1; i >= 0; i-- {
			if !tokens[i].Deduction && !claimed[i] {
				f.NetDeposit = models.AmountField{
					Value:      tokens[i].Value,
					Confidence: models.Inferred,
					Matches:    1,
				}
				break
			}
		}
	}
}

func assign(f *models.Fields, m Matcher, v decimal.Decimal) {
	switch m.Field {
	case models.FieldGrossCollected:
		addAmount(&f.GrossCollected, v)
	case models.FieldTotalFees:
		addAmount(&f.TotalFees, v)
	case models.FieldCollectedTax:
		addAmount(&f.CollectedTax, v)
	case models.FieldWithheldTax:
		addAmount(&f.WithheldTax, v)
	case models.FieldNetDeposit:
		addAmount(&f.NetDeposit, v)
	case models.FieldFees:
		item := f.FeeBreakdown[m.Category]
		addAmount(&item, v)
		f.FeeBreakdown[m.Category] = item
	}
}
