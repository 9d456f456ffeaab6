package observability

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/insightdelivered/payout-ledger/internal/models"
)

func TestMetrics_ObserveStatement(t *testing.T) {
	m := NewMetrics()

	deposits := []models.Deposit{
		{GrossCollected: decimal.RequireFromString("500"), NetDeposit: decimal.RequireFromString("435")},
		{GrossCollected: decimal.RequireFromString("300"), NetDeposit: decimal.RequireFromString("-5")},
	}
	warnings := []models.Warning{
		{Section: 2, Kind: models.WarnDepositDiscrepancy},
		{Section: 2, Kind: models.WarnUnbalancedEntry},
	}

	m.ObserveStatement("text", deposits, warnings)
	m.ObserveStatement("pdf", nil, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.statements.WithLabelValues("text")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statements.WithLabelValues("pdf")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.deposits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.warnings.WithLabelValues(string(models.WarnUnbalancedEntry))))
	assert.Equal(t, 800.0, testutil.ToFloat64(m.amounts.WithLabelValues(string(models.FieldGrossCollected))))
	assert.Equal(t, 435.0, testutil.ToFloat64(m.amounts.WithLabelValues(string(models.FieldNetDeposit))))
}

func TestNewMetrics_Independent(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	a.ObserveStatement("text", nil, nil)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.statements.WithLabelValues("text")))
}

func TestNewLogger(t *testing.T) {
	for _, tt := range []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"bogus", zapcore.InfoLevel},
	} {
		t.Run(tt.level, func(t *testing.T) {
			log := NewLogger(tt.level)
			assert.True(t, log.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, log.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(RequestLogger(zap.New(core)))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/bad", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusBadRequest, "bad input") })

	req := httptest.NewRequest("GET", "/ok", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))

	resp, err = app.Test(httptest.NewRequest("GET", "/bad", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "abc-123", entries[0].ContextMap()["request_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.EqualValues(t, 400, entries[1].ContextMap()["status"])
}
