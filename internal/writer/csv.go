package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/payout-ledger/internal/models"
)

// DateFormat is the month/day/year layout used in the Date column.
const DateFormat = "01/02/2006"

// Columns is the ledger import header.
var Columns = []string{"Date", "Journal Number", "Memo", "Account", "Debit", "Credit", "Description"}

// LedgerWriter writes journal entries as ledger import rows, one row per
// line item.
type LedgerWriter struct {
	IncludeHeader bool
}

// WriteToFile writes entries to a CSV file at the given path.
func (w *LedgerWriter) WriteToFile(path string, entries []models.JournalEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	if err := w.Write(f, entries); err != nil {
		return err
	}
	return f.Close()
}

// Write writes entries in CSV format to the given writer.
func (w *LedgerWriter) Write(out io.Writer, entries []models.JournalEntry) error {
	writer := csv.NewWriter(out)

	if w.IncludeHeader {
		if err := writer.Write(Columns); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for _, row := range Rows(entries) {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Rows flattens entries into table rows matching Columns. The journal
// number is left for the importing system to assign.
func Rows(entries []models.JournalEntry) [][]string {
	var rows [][]string
	for _, e := range entries {
		for _, line := range e.Lines {
			rows = append(rows, []string{
				e.Date.Format(DateFormat),
				"",
				e.Memo,
				line.Account,
				formatAmount(line.Debit),
				formatAmount(line.Credit),
				line.Description,
			})
		}
	}
	return rows
}

func formatAmount(amount decimal.Decimal) string {
	if amount.IsZero() {
		return ""
	}
	return amount.StringFixed(2)
}
