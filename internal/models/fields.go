package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Confidence describes how a field value was obtained.
type Confidence string

const (
	Found    Confidence = "found"
	Inferred Confidence = "inferred" // heuristic, surfaced as low confidence
	Absent   Confidence = "absent"
)

// FieldName identifies a Deposit attribute produced by extraction.
type FieldName string

const (
	FieldDate           FieldName = "date"
	FieldDistributionID FieldName = "distribution_id"
	FieldOrderPeriod    FieldName = "order_period"
	FieldGrossCollected FieldName = "gross_collected"
	FieldFees           FieldName = "fees"
	FieldTotalFees      FieldName = "total_fees"
	FieldCollectedTax   FieldName = "collected_tax"
	FieldWithheldTax    FieldName = "withheld_tax"
	FieldNetDeposit     FieldName = "net_deposit"
)

// AmountField is an extracted money value. Matches counts the statement
// phrases that contributed to Value.
type AmountField struct {
	Value      decimal.Decimal `json:"value"`
	Confidence Confidence      `json:"confidence"`
	Matches    int             `json:"matches"`
}

func (f AmountField) Found() bool { return f.Confidence == Found }

// TextField is an extracted string value.
type TextField struct {
	Value      string     `json:"value"`
	Confidence Confidence `json:"confidence"`
}

// DateField is an extracted calendar date. Raw keeps the token as printed.
type DateField struct {
	Value      time.Time  `json:"value"`
	Raw        string     `json:"raw,omitempty"`
	Confidence Confidence `json:"confidence"`
}

// Fields is the result of running the field extractor over one section.
type Fields struct {
	Section        int                         `json:"section"`
	Date           DateField                   `json:"date"`
	DistributionID TextField                   `json:"distributionId"`
	OrderPeriod    TextField                   `json:"orderPeriod"`
	GrossCollected AmountField                 `json:"grossCollected"`
	Fees           AmountField                 `json:"fees"`
	FeeBreakdown   map[FeeCategory]AmountField `json:"feeBreakdown,omitempty"`
	TotalFees      AmountField                 `json:"totalFees"`
	CollectedTax   AmountField                 `json:"collectedTax"`
	WithheldTax    AmountField                 `json:"withheldTax"`
	NetDeposit     AmountField                 `json:"netDeposit"`
}

// NewFields returns a Fields value with every slot marked absent.
func NewFields(section int) Fields {
	absent := AmountField{Confidence: Absent}
	return Fields{
		Section:        section,
		Date:           DateField{Confidence: Absent},
		DistributionID: TextField{Confidence: Absent},
		OrderPeriod:    TextField{Confidence: Absent},
		GrossCollected: absent,
		Fees:           absent,
		FeeBreakdown:   map[FeeCategory]AmountField{},
		TotalFees:      absent,
		CollectedTax:   absent,
		WithheldTax:    absent,
		NetDeposit:     absent,
	}
}

// Confidence returns the confidence recorded for the named field.
func (f Fields) Confidence(name FieldName) Confidence {
	switch name {
	case FieldDate:
		return f.Date.Confidence
	case FieldDistributionID:
		return f.DistributionID.Confidence
	case FieldOrderPeriod:
		return f.OrderPeriod.Confidence
	case FieldGrossCollected:
		return f.GrossCollected.Confidence
	case FieldFees:
		return f.Fees.Confidence
	case FieldTotalFees:
		return f.TotalFees.Confidence
	case FieldCollectedTax:
		return f.CollectedTax.Confidence
	case FieldWithheldTax:
		return f.WithheldTax.Confidence
	case FieldNetDeposit:
		return f.NetDeposit.Confidence
	}
	return Absent
}

var depositFieldNames = []FieldName{
	FieldDate, FieldDistributionID, FieldOrderPeriod, FieldGrossCollected,
	FieldFees, FieldCollectedTax, FieldWithheldTax, FieldNetDeposit,
}

// Missing lists the Deposit attributes that were not found outright.
func (f Fields) Missing() []FieldName {
	var out []FieldName
	for _, name := range depositFieldNames {
		if f.Confidence(name) != Found {
			out = append(out, name)
		}
	}
	return out
}
