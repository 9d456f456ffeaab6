// Package pipeline runs a statement through normalization, splitting,
// extraction, deposit building and journal generation.
package pipeline

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/insightdelivered/payout-ledger/internal/deposit"
	"github.com/insightdelivered/payout-ledger/internal/ledger"
	"github.com/insightdelivered/payout-ledger/internal/models"
	"github.com/insightdelivered/payout-ledger/internal/parser"
)

// Result holds everything recovered from one statement. Deposits and
// Entries are parallel: Entries[i] was generated from Deposits[i].
type Result struct {
	Deposits []models.Deposit
	Entries  []models.JournalEntry
	Warnings []models.Warning
	Sections int // sections that reached extraction
}

// Unbalanced returns the entries whose debits and credits differ.
func (r Result) Unbalanced() []models.JournalEntry {
	var out []models.JournalEntry
	for _, e := range r.Entries {
		if !e.Balanced {
			out = append(out, e)
		}
	}
	return out
}

// Run processes one statement. It keeps no state between calls and never
// fails: rejected sections and imbalances become warnings, and text with no
// deposits yields an empty Result. log may be nil.
func Run(text string, chart models.Chart, log *zap.Logger) Result {
	if log == nil {
		log = zap.NewNop()
	}

	res := Result{
		Deposits: []models.Deposit{},
		Entries:  []models.JournalEntry{},
		Warnings: []models.Warning{},
	}

	for sec := range parser.Sections(parser.Normalize(text)) {
		res.Sections++
		fields := parser.ExtractFields(sec.Index, sec.Text)
		log.Debug("section extracted",
			zap.Int("section", sec.Index),
			zap.String("date", fields.Date.Raw),
			zap.String("distribution_id", fields.DistributionID.Value),
			zap.String("gross_collected", fields.GrossCollected.Value.StringFixed(2)),
			zap.String("fees", fields.Fees.Value.StringFixed(2)),
			zap.String("collected_tax", fields.CollectedTax.Value.StringFixed(2)),
			zap.String("withheld_tax", fields.WithheldTax.Value.StringFixed(2)),
			zap.String("net_deposit", fields.NetDeposit.Value.StringFixed(2)),
			zap.Any("missing", fields.Missing()),
		)

		d, err := deposit.Build(fields)
		if err != nil {
			var rej *deposit.RejectionError
			if !errors.As(err, &rej) {
				rej = &deposit.RejectionError{Section: sec.Index, Err: err}
			}
			res.warn(log, sec.Index, models.WarnSectionRejected, rej.Error())
			continue
		}

		if d.LowConfidence() {
			res.warn(log, sec.Index, models.WarnLowConfidence, fmt.Sprintf(
				"net deposit %s taken from the last amount in the section; no payout line found",
				d.NetDeposit.StringFixed(2)))
		}
		if !d.Balanced {
			res.warn(log, sec.Index, models.WarnDepositDiscrepancy, fmt.Sprintf(
				"net deposit %s differs from gross - fees - taxes %s by %s",
				d.NetDeposit.StringFixed(2), d.ExpectedNet().StringFixed(2), d.Discrepancy.StringFixed(2)))
		}

		entry := ledger.Generate(d, chart)
		if !entry.Balanced {
			res.warn(log, sec.Index, models.WarnUnbalancedEntry, fmt.Sprintf(
				"journal entry debits %s, credits %s",
				entry.TotalDebit().StringFixed(2), entry.TotalCredit().StringFixed(2)))
		}

		res.Deposits = append(res.Deposits, d)
		res.Entries = append(res.Entries, entry)
	}

	log.Info("statement processed",
		zap.Int("sections", res.Sections),
		zap.Int("deposits", len(res.Deposits)),
		zap.Int("warnings", len(res.Warnings)),
	)
	return res
}

func (r *Result) warn(log *zap.Logger, section int, kind models.WarningKind, msg string) {
	r.Warnings = append(r.Warnings, models.Warning{Section: section, Kind: kind, Message: msg})
	log.Warn(msg, zap.Int("section", section), zap.String("kind", string(kind)))
}
