// Package deposit turns extracted statement fields into Deposit records.
//
// Fallbacks for missing figures are ordered rule lists rather than nested
// conditionals; the first rule that applies wins.
package deposit

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/payout-ledger/internal/models"
)

// ErrMissingDate rejects a section whose deposit date could not be read.
var ErrMissingDate = errors.New("deposit date not found")

// RejectionError explains why a section produced no deposit.
type RejectionError struct {
	Section int
	Raw     string // date token as printed, if any
	Err     error
}

func (e *RejectionError) Error() string {
	if e.Raw != "" {
		return fmt.Sprintf("section %d rejected: %v (got %q)", e.Section, e.Err, e.Raw)
	}
	return fmt.Sprintf("section %d rejected: %v", e.Section, e.Err)
}

func (e *RejectionError) Unwrap() error { return e.Err }

// netRule yields a net deposit when its preconditions hold.
type netRule struct {
	source models.NetSource
	apply  func(f models.Fields, fees decimal.Decimal) (decimal.Decimal, bool)
}

// netRules in priority order.
var netRules = []netRule{
	{models.NetExplicit, func(f models.Fields, _ decimal.Decimal) (decimal.Decimal, bool) {
		return f.NetDeposit.Value, f.NetDeposit.Found()
	}},
	{models.NetDerived, func(f models.Fields, fees decimal.Decimal) (decimal.Decimal, bool) {
		if !f.GrossCollected.Found() || !f.Fees.Found() || !f.CollectedTax.Found() || !f.WithheldTax.Found() {
			return decimal.Zero, false
		}
		return f.GrossCollected.Value.Sub(fees).Sub(f.CollectedTax.Value).Sub(f.WithheldTax.Value), true
	}},
	{models.NetPositional, func(f models.Fields, _ decimal.Decimal) (decimal.Decimal, bool) {
		return f.NetDeposit.Value, f.NetDeposit.Confidence == models.Inferred
	}},
	{models.NetDefault, func(models.Fields, decimal.Decimal) (decimal.Decimal, bool) {
		return decimal.Zero, true
	}},
}

// feeRules in priority order. Fees are never backed out of the net amount.
var feeRules = []func(f models.Fields) (decimal.Decimal, bool){
	func(f models.Fields) (decimal.Decimal, bool) { return f.Fees.Value, f.Fees.Found() },
	func(f models.Fields) (decimal.Decimal, bool) { return f.TotalFees.Value, f.TotalFees.Found() },
	func(models.Fields) (decimal.Decimal, bool) { return decimal.Zero, true },
}

// Build assembles a Deposit from extracted fields. The only failure is a
// missing date, reported as a *RejectionError wrapping ErrMissingDate.
func Build(f models.Fields) (models.Deposit, error) {
	if f.Date.Confidence != models.Found {
		return models.Deposit{}, &RejectionError{Section: f.Section, Raw: f.Date.Raw, Err: ErrMissingDate}
	}

	var fees decimal.Decimal
	for _, rule := range feeRules {
		if v, ok := rule(f); ok {
			fees = v
			break
		}
	}

	d := models.Deposit{
		Section:        f.Section,
		Date:           f.Date.Value,
		DistributionID: f.DistributionID.Value,
		OrderPeriod:    f.OrderPeriod.Value,
		GrossCollected: f.GrossCollected.Value,
		Fees:           fees,
		FeeBreakdown:   feeBreakdown(f),
		CollectedTax:   f.CollectedTax.Value,
		WithheldTax:    f.WithheldTax.Value,
	}

	for _, rule := range netRules {
		if v, ok := rule.apply(f, fees); ok {
			d.NetDeposit = v
			d.NetSource = rule.source
			break
		}
	}

	d.Discrepancy = d.NetDeposit.Round(2).Sub(d.ExpectedNet().Round(2))
	d.Balanced = d.Discrepancy.IsZero()
	return d, nil
}

func feeBreakdown(f models.Fields) []models.FeeItem {
	var items []models.FeeItem
	for _, c := range models.FeeCategories {
		if item, ok := f.FeeBreakdown[c]; ok && item.Found() {
			items = append(items, models.FeeItem{Category: c, Amount: item.Value})
		}
	}
	return items
}
