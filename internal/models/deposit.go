package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeCategory names a deduction line on a payout statement.
type FeeCategory string

const (
	FeeMarketing  FeeCategory = "marketing"
	FeeDelivery   FeeCategory = "delivery"
	FeeProcessing FeeCategory = "processing"
	FeeOther      FeeCategory = "other"
)

// FeeCategories is the display order used for fee breakdowns.
var FeeCategories = []FeeCategory{FeeMarketing, FeeDelivery, FeeProcessing, FeeOther}

// FeeItem is one category's share of a deposit's fees.
type FeeItem struct {
	Category FeeCategory     `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// NetSource records which rule produced a deposit's net amount.
type NetSource string

const (
	NetExplicit   NetSource = "explicit"   // payout line on the statement
	NetDerived    NetSource = "derived"    // gross - fees - taxes
	NetPositional NetSource = "positional" // last unclaimed amount in the section
	NetDefault    NetSource = "default"
)

// Deposit is one payout event reconstructed from statement text.
type Deposit struct {
	Section        int             `json:"section"`
	Date           time.Time       `json:"date"`
	DistributionID string          `json:"distributionId,omitempty"`
	OrderPeriod    string          `json:"orderPeriod,omitempty"`
	GrossCollected decimal.Decimal `json:"grossCollected"`
	Fees           decimal.Decimal `json:"fees"`
	FeeBreakdown   []FeeItem       `json:"feeBreakdown,omitempty"`
	CollectedTax   decimal.Decimal `json:"collectedTax"`
	WithheldTax    decimal.Decimal `json:"withheldTax"`
	NetDeposit     decimal.Decimal `json:"netDeposit"`
	NetSource      NetSource       `json:"netSource"`

	// Balanced reports whether NetDeposit matches ExpectedNet to the cent.
	Balanced    bool            `json:"balanced"`
	Discrepancy decimal.Decimal `json:"discrepancy"`
}

// ExpectedNet is gross collected minus fees and both taxes.
func (d Deposit) ExpectedNet() decimal.Decimal {
	return d.GrossCollected.Sub(d.Fees).Sub(d.CollectedTax).Sub(d.WithheldTax)
}

// LowConfidence is true when the net amount came from the positional heuristic.
func (d Deposit) LowConfidence() bool {
	return d.NetSource == NetPositional
}
