// Package ledger maps deposits onto double-entry journal entries.
package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/payout-ledger/internal/models"
)

type side int

const (
	debit side = iota
	credit
)

// posting is one rule of the journal template.
type posting struct {
	role        models.AccountRole
	side        side
	amount      func(d models.Deposit) decimal.Decimal
	description func(d models.Deposit) string
}

// postings is the journal template, in display order. Collected sales tax
// is remitted by the platform and never reaches the bank, so sales are
// credited net of it. Withheld tax is posted to the tax account.
var postings = []posting{
	{
		role:   models.RoleBank,
		side:   debit,
		amount: func(d models.Deposit) decimal.Decimal { return d.NetDeposit },
		description: func(d models.Deposit) string {
			return "Net deposit"
		},
	},
	{
		role:        models.RoleFees,
		side:        debit,
		amount:      func(d models.Deposit) decimal.Decimal { return d.Fees },
		description: feeDescription,
	},
	{
		role:   models.RoleTax,
		side:   debit,
		amount: func(d models.Deposit) decimal.Decimal { return d.WithheldTax },
		description: func(d models.Deposit) string {
			return "Sales tax withheld by platform"
		},
	},
	{
		role:   models.RoleSales,
		side:   credit,
		amount: func(d models.Deposit) decimal.Decimal { return d.GrossCollected.Sub(d.CollectedTax) },
		description: func(d models.Deposit) string {
			if d.CollectedTax.IsZero() {
				return "Gross sales"
			}
			return fmt.Sprintf("Gross sales %s less sales tax collected %s",
				d.GrossCollected.StringFixed(2), d.CollectedTax.StringFixed(2))
		},
	},
}

// Generate builds the journal entry for d against chart. Amounts are
// rounded to cents here and nowhere earlier. Zero lines are left out, and a
// negative amount is posted on the opposite side, so every line carries
// exactly one non-zero figure. An entry whose sides differ is returned with
// Balanced unset; it is never adjusted.
func Generate(d models.Deposit, chart models.Chart) models.JournalEntry {
	entry := models.JournalEntry{
		Date: d.Date,
		Memo: Memo(d),
	}

	for _, p := range postings {
		amount := p.amount(d).Round(2)
		if amount.IsZero() {
			continue
		}
		s := p.side
		if amount.IsNegative() {
			amount = amount.Neg()
			s = 1 - s
		}
		line := models.LineItem{
			Account:     chart.Account(p.role),
			Debit:       decimal.Zero,
			Credit:      decimal.Zero,
			Description: p.description(d),
		}
		if s == debit {
			line.Debit = amount
		} else {
			line.Credit = amount
		}
		entry.Lines = append(entry.Lines, line)
	}

	entry.Difference = entry.TotalDebit().Sub(entry.TotalCredit())
	entry.Balanced = entry.Difference.IsZero()
	return entry
}

// Memo describes the deposit for the journal header.
func Memo(d models.Deposit) string {
	var b strings.Builder
	b.WriteString("Delivery platform deposit")
	if d.DistributionID != "" {
		b.WriteString(" ")
		b.WriteString(d.DistributionID)
	}
	if d.OrderPeriod != "" {
		b.WriteString(" (orders ")
		b.WriteString(d.OrderPeriod)
		b.WriteString(")")
	}
	return b.String()
}

func feeDescription(d models.Deposit) string {
	if len(d.FeeBreakdown) == 0 {
		return "Platform fees"
	}
	parts := make([]string, 0, len(d.FeeBreakdown))
	for _, item := range d.FeeBreakdown {
		parts = append(parts, string(item.Category)+" "+item.Amount.StringFixed(2))
	}
	return "Platform fees: " + strings.Join(parts, ", ")
}
