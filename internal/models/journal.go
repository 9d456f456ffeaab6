package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// AccountRole is a logical slot in the chart of accounts.
type AccountRole string

const (
	RoleSales AccountRole = "sales"
	RoleFees  AccountRole = "fees"
	RoleTax   AccountRole = "tax"
	RoleBank  AccountRole = "bank"
)

// Chart binds each account role to a ledger account identifier.
// It is a plain value: load it once and pass it to the generator.
type Chart struct {
	Sales string `json:"sales" mapstructure:"sales"`
	Fees  string `json:"fees" mapstructure:"fees"`
	Tax   string `json:"tax" mapstructure:"tax"`
	Bank  string `json:"bank" mapstructure:"bank"`
}

// Account returns the identifier bound to role.
func (c Chart) Account(role AccountRole) string {
	switch role {
	case RoleSales:
		return c.Sales
	case RoleFees:
		return c.Fees
	case RoleTax:
		return c.Tax
	case RoleBank:
		return c.Bank
	}
	return ""
}

// Validate checks that every role has an account.
func (c Chart) Validate() error {
	var errs []error
	for _, role := range []AccountRole{RoleSales, RoleFees, RoleTax, RoleBank} {
		if c.Account(role) == "" {
			errs = append(errs, errors.New("accounts."+string(role)+" cannot be empty"))
		}
	}
	return errors.Join(errs...)
}

// LineItem is one side of an accounting movement. Exactly one of Debit or
// Credit is non-zero.
type LineItem struct {
	Account     string          `json:"account"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

// JournalEntry is the double-entry record for one deposit.
type JournalEntry struct {
	Date       time.Time       `json:"date"`
	Memo       string          `json:"memo"`
	Lines      []LineItem      `json:"lines"`
	Balanced   bool            `json:"balanced"`
	Difference decimal.Decimal `json:"difference"` // debits - credits
}

func (e JournalEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

func (e JournalEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// WarningKind classifies a pipeline warning.
type WarningKind string

const (
	WarnSectionRejected    WarningKind = "section_rejected"
	WarnLowConfidence      WarningKind = "low_confidence"
	WarnDepositDiscrepancy WarningKind = "deposit_discrepancy"
	WarnUnbalancedEntry    WarningKind = "unbalanced_entry"
)

// Warning is a non-fatal problem found while processing one section.
type Warning struct {
	Section int         `json:"section"`
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}
