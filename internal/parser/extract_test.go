package parser

import (
	"testing"
	"time"

	"github.com/insightdelivered/payout-ledger/internal/models"
)

func matcherNamed(t *testing.T, name string) Matcher {
	t.Helper()
	for _, m := range Matchers {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("no matcher named %q", name)
	return Matcher{}
}

func checkAmount(t *testing.T, label string, got models.AmountField, want string, conf models.Confidence) {
	t.Helper()
	if got.Confidence != conf {
		t.Errorf("%s confidence: got %s, want %s", label, got.Confidence, conf)
	}
	if conf != models.Absent && got.Value.StringFixed(2) != want {
		t.Errorf("%s: got %s, want %s", label, got.Value.StringFixed(2), want)
	}
}

func TestMatcher_Apply(t *testing.T) {
	tests := []struct {
		matcher string
		text    string
		want    string
		matches int
	}{
		{"gross_collected", "Total collected $500.00 Total collected $20.00", "500.00", 1},
		{"collected_tax", "Sales tax $10.00 Tax collected $2.50", "12.50", 2},
		{"collected_tax", "Sales tax ($1.00) $4.00", "4.00", 1},
		{"withheld_tax", "Withheld sales tax ($3.00)", "3.00", 1},
		{"withheld_tax", "Sales tax withheld $3.00", "3.00", 1},
		{"total_fees", "Total fees ($40.00)", "40.00", 1},
		{"marketing_fee", "Marketing $5.00 ($4.00)", "4.00", 1},
		{"marketing_fee", "Marketing ($10.00) Marketing ($15.00)", "25.00", 2},
		{"delivery_fee", "Delivery by Grubhub ($12.00)", "12.00", 1},
		{"processing_fee", "Processing fee -$3.10", "3.10", 1},
		{"other_fee", "Service fee ($1.25) Adjustment ($0.75)", "2.00", 2},
		{"net_deposit", "Pay me now fee $435.00", "435.00", 1},
		{"net_deposit", "Net deposit ($1.00) $80.00", "80.00", 1},
		{"net_deposit", "Amount deposited $12.00 Net payout $13.00", "12.00", 1},
	}

	for _, tt := range tests {
		t.Run(tt.matcher+"/"+tt.text, func(t *testing.T) {
			got := matcherNamed(t, tt.matcher).Apply(tt.text)
			checkAmount(t, tt.matcher, got, tt.want, models.Found)
			if got.Matches != tt.matches {
				t.Errorf("matches: got %d, want %d", got.Matches, tt.matches)
			}
		})
	}
}

func TestMatcher_Apply_NoAnchor(t *testing.T) {
	for _, m := range Matchers {
		got := m.Apply("Deposit 03/15/2024 nothing to see $1.00")
		if got.Confidence != models.Absent || got.Matches != 0 {
			t.Errorf("%s: expected absent, got %+v", m.Name, got)
		}
	}
}

func TestMatcher_Apply_NoAmountInRegion(t *testing.T) {
	got := matcherNamed(t, "marketing_fee").Apply("Marketing $5.00")
	if got.Found() {
		t.Errorf("marketing fee needs a deduction, got %+v", got)
	}
}

func TestExtractFields_SingleDeposit(t *testing.T) {
	text := "Deposit 03/15/2024 Total collected $500.00 Marketing ($25.00) Sales tax $40.00 Pay me now fee $435.00"

	f := ExtractFields(1, text)

	if f.Section != 1 {
		t.Errorf("section: got %d, want 1", f.Section)
	}
	if f.Date.Confidence != models.Found || !f.Date.Value.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date: got %+v", f.Date)
	}
	checkAmount(t, "gross", f.GrossCollected, "500.00", models.Found)
	checkAmount(t, "fees", f.Fees, "25.00", models.Found)
	checkAmount(t, "collected tax", f.CollectedTax, "40.00", models.Found)
	checkAmount(t, "withheld tax", f.WithheldTax, "", models.Absent)
	checkAmount(t, "net", f.NetDeposit, "435.00", models.Found)
	checkAmount(t, "marketing", f.FeeBreakdown[models.FeeMarketing], "25.00", models.Found)

	if len(f.FeeBreakdown) != 1 {
		t.Errorf("fee breakdown: got %v, want marketing only", f.FeeBreakdown)
	}
}

func TestExtractFields_RepeatedFeeLines(t *testing.T) {
	text := "Deposit 03/15/2024 Total collected $500.00 Marketing ($10.00) Marketing ($15.00) " +
		"Sales tax $40.00 Pay me now fee $435.00"

	f := ExtractFields(1, text)

	checkAmount(t, "fees", f.Fees, "25.00", models.Found)
	if f.Fees.Matches != 2 {
		t.Errorf("fee matches: got %d, want 2", f.Fees.Matches)
	}
	checkAmount(t, "net", f.NetDeposit, "435.00", models.Found)
}

func TestExtractFields_WithheldTax(t *testing.T) {
	text := "Deposit 03/15/2024 Total collected $500.00 Sales tax $40.00 Withheld sales tax ($3.00) Pay me now fee $457.00"

	f := ExtractFields(1, text)

	checkAmount(t, "collected tax", f.CollectedTax, "40.00", models.Found)
	checkAmount(t, "withheld tax", f.WithheldTax, "3.00", models.Found)
	checkAmount(t, "fees", f.Fees, "", models.Absent)
}

func TestExtractFields_CategorizedFees(t *testing.T) {
	text := "Deposit 03/15/2024 Total collected $1,250.00 Marketing ($62.50) Delivery by Grubhub ($125.00) " +
		"Processing fee ($37.88) Sales tax $100.00 Pay me now fee $924.62"

	f := ExtractFields(1, text)

	checkAmount(t, "marketing", f.FeeBreakdown[models.FeeMarketing], "62.50", models.Found)
	checkAmount(t, "delivery", f.FeeBreakdown[models.FeeDelivery], "125.00", models.Found)
	checkAmount(t, "processing", f.FeeBreakdown[models.FeeProcessing], "37.88", models.Found)
	checkAmount(t, "fees", f.Fees, "225.38", models.Found)
	checkAmount(t, "gross", f.GrossCollected, "1250.00", models.Found)
}

func TestExtractFields_UnclaimedDeductionIsOtherFee(t *testing.T) {
	text := "Deposit 03/15/2024 Total collected $100.00 ($2.50) Pay me now fee $97.50"

	f := ExtractFields(1, text)

	checkAmount(t, "gross", f.GrossCollected, "100.00", models.Found)
	checkAmount(t, "other", f.FeeBreakdown[models.FeeOther], "2.50", models.Found)
	checkAmount(t, "fees", f.Fees, "2.50", models.Found)
}

func TestExtractFields_TotalFeesLine(t *testing.T) {
	text := "Deposit 03/15/2024 Total collected $100.00 Total fees ($40.00) Pay me now fee $60.00"

	f := ExtractFields(1, text)

	checkAmount(t, "total fees", f.TotalFees, "40.00", models.Found)
	checkAmount(t, "fees", f.Fees, "", models.Absent)
}

func TestExtractFields_PositionalNet(t *testing.T) {
	text := "Deposit 03/15/2024 Total collected $100.00 Marketing ($5.00) $95.00"

	f := ExtractFields(1, text)

	checkAmount(t, "net", f.NetDeposit, "95.00", models.Inferred)
}

func TestExtractFields_NoPositionalNetFromClaimedAmounts(t *testing.T) {
	text := "Deposit 03/15/2024 Total collected $100.00 Marketing ($5.00)"

	f := ExtractFields(1, text)

	checkAmount(t, "net", f.NetDeposit, "", models.Absent)
}

func TestExtractFields_Identifiers(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		id     string
		period string
	}{
		{
			"platform format",
			"Distribution ID 12345678JV-UBOK Deposit 03/15/2024 Orders 3/8 to 3/14 Total collected $1.00",
			"12345678JV-UBOK", "3/8 to 3/14",
		},
		{
			"labeled other format",
			"Deposit 03/15/2024 Distribution ID: AB12-99 Orders from 3/8 through 3/14 Total collected $1.00",
			"AB12-99", "3/8 to 3/14",
		},
		{
			"dash period",
			"Deposit 03/15/2024 Orders 3/8 - 3/14 Total collected $1.00",
			"", "3/8 to 3/14",
		},
		{"none", "Deposit 03/15/2024 Total collected $1.00", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ExtractFields(1, tt.text)
			if f.DistributionID.Value != tt.id {
				t.Errorf("distribution id: got %q, want %q", f.DistributionID.Value, tt.id)
			}
			if f.OrderPeriod.Value != tt.period {
				t.Errorf("order period: got %q, want %q", f.OrderPeriod.Value, tt.period)
			}
			wantID := models.Found
			if tt.id == "" {
				wantID = models.Absent
			}
			if f.DistributionID.Confidence != wantID {
				t.Errorf("id confidence: got %s, want %s", f.DistributionID.Confidence, wantID)
			}
		})
	}
}

func TestExtractFields_InvalidDate(t *testing.T) {
	f := ExtractFields(3, "Deposit 13/45/2024 Total collected $5.00")

	if f.Date.Confidence != models.Absent {
		t.Errorf("date confidence: got %s, want absent", f.Date.Confidence)
	}
	if f.Date.Raw != "13/45/2024" {
		t.Errorf("raw date: got %q", f.Date.Raw)
	}
	checkAmount(t, "gross", f.GrossCollected, "5.00", models.Found)
}

func TestExtractFields_NoAmounts(t *testing.T) {
	f := ExtractFields(1, "Deposit 03/15/2024 Total collected")

	missing := f.Missing()
	for _, name := range []models.FieldName{
		models.FieldGrossCollected, models.FieldFees, models.FieldCollectedTax,
		models.FieldWithheldTax, models.FieldNetDeposit,
	} {
		if f.Confidence(name) != models.Absent {
			t.Errorf("%s: expected absent", name)
		}
	}
	if len(missing) != 7 {
		t.Errorf("missing: got %v", missing)
	}
}
