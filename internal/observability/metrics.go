package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/insightdelivered/payout-ledger/internal/models"
)

// Metrics holds the converter's Prometheus collectors.
type Metrics struct {
	// Registry owns these metrics and backs the /metrics endpoint.
	Registry *prometheus.Registry

	statements *prometheus.CounterVec
	deposits   prometheus.Counter
	warnings   *prometheus.CounterVec
	amounts    *prometheus.CounterVec
}

// NewMetrics registers all collectors in a private registry, so it can be
// called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		statements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payout_ledger_statements_total",
				Help: "Statements processed, by input source.",
			},
			[]string{"source"},
		),
		deposits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "payout_ledger_deposits_total",
				Help: "Deposits extracted from statements.",
			},
		),
		warnings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payout_ledger_warnings_total",
				Help: "Pipeline warnings by kind.",
			},
			[]string{"kind"},
		),
		amounts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payout_ledger_amount_total",
				Help: "Sum of extracted deposit figures, by field.",
			},
			[]string{"field"},
		),
	}
}

// ObserveStatement records one pipeline run.
func (m *Metrics) ObserveStatement(source string, deposits []models.Deposit, warnings []models.Warning) {
	m.statements.WithLabelValues(source).Inc()
	m.deposits.Add(float64(len(deposits)))
	for _, w := range warnings {
		m.warnings.WithLabelValues(string(w.Kind)).Inc()
	}
	for _, d := range deposits {
		m.addAmount(models.FieldGrossCollected, d.GrossCollected.InexactFloat64())
		m.addAmount(models.FieldFees, d.Fees.InexactFloat64())
		m.addAmount(models.FieldCollectedTax, d.CollectedTax.InexactFloat64())
		m.addAmount(models.FieldWithheldTax, d.WithheldTax.InexactFloat64())
		m.addAmount(models.FieldNetDeposit, d.NetDeposit.InexactFloat64())
	}
}

// counters panic on negative increments
func (m *Metrics) addAmount(field models.FieldName, v float64) {
	if v > 0 {
		m.amounts.WithLabelValues(string(field)).Add(v)
	}
}
