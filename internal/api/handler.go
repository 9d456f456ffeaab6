package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/insightdelivered/payout-ledger/internal/extractor"
	"github.com/insightdelivered/payout-ledger/internal/models"
	"github.com/insightdelivered/payout-ledger/internal/observability"
	"github.com/insightdelivered/payout-ledger/internal/pipeline"
	"github.com/insightdelivered/payout-ledger/internal/writer"
)

// pageBreak separates pages in client-side (pdf.js) extracted text.
const pageBreak = "\n---PAGE_BREAK---\n"

// ConvertResponse is the JSON response from the /api/convert endpoint.
type ConvertResponse struct {
	Success     bool                  `json:"success"`
	Error       string                `json:"error,omitempty"`
	Deposits    []models.Deposit      `json:"deposits"`
	Entries     []models.JournalEntry `json:"entries"`
	Warnings    []models.Warning      `json:"warnings"`
	CSV         string                `json:"csv,omitempty"`
	TotalDebit  decimal.Decimal       `json:"totalDebit"`
	TotalCredit decimal.Decimal       `json:"totalCredit"`
	Count       int                   `json:"count"`
	Unbalanced  int                   `json:"unbalanced"`
	RawText     string                `json:"rawText,omitempty"`
	Version     string                `json:"version,omitempty"`
}

// convertRequest is the JSON form of a convert call.
type convertRequest struct {
	Text   string `json:"text"`
	Header *bool  `json:"header"`
}

// Handler holds the HTTP handlers for the API. Chart is read-only and
// shared by all requests.
type Handler struct {
	Chart     models.Chart
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	StaticDir string
	Version   string
}

// NewApp builds the fiber app with middleware and routes.
func NewApp(h *Handler) *fiber.App {
	if h.Logger == nil {
		h.Logger = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		AppName:               "payout-ledger",
		BodyLimit:             32 << 20,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(observability.RequestLogger(h.Logger))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "POST, GET, OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/convert", h.HandleConvert)

	if h.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	// SPA: real files first, index.html for everything else
	if h.StaticDir != "" {
		app.Static("/", h.StaticDir)
		app.Get("/*", func(c *fiber.Ctx) error {
			if strings.HasPrefix(c.Path(), "/api/") {
				return fiber.ErrNotFound
			}
			return c.SendFile(filepath.Join(h.StaticDir, "index.html"))
		})
	}
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": h.Version,
		"engine":  "fiber",
	})
}

// HandleConvert accepts statement text as JSON ({"text": ...}), as a
// "text" or "extractedText" form field, or as an uploaded .pdf/.txt "file".
func (h *Handler) HandleConvert(c *fiber.Ctx) error {
	text, source, includeHeader, err := h.readInput(c)
	if err != nil {
		return err
	}

	log := h.Logger.With(zap.Any("request_id", c.Locals("requestid")), zap.String("source", source))
	res := pipeline.Run(text, h.Chart, log)
	if h.Metrics != nil {
		h.Metrics.ObserveStatement(source, res.Deposits, res.Warnings)
	}

	var csvBuf bytes.Buffer
	w := &writer.LedgerWriter{IncludeHeader: includeHeader}
	if err := w.Write(&csvBuf, res.Entries); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("CSV generation failed: %v", err))
	}

	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for _, e := range res.Entries {
		totalDebit = totalDebit.Add(e.TotalDebit())
		totalCredit = totalCredit.Add(e.TotalCredit())
	}

	return c.JSON(ConvertResponse{
		Success:     true,
		Deposits:    res.Deposits,
		Entries:     res.Entries,
		Warnings:    res.Warnings,
		CSV:         csvBuf.String(),
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		Count:       len(res.Deposits),
		Unbalanced:  len(res.Unbalanced()),
		RawText:     text,
		Version:     h.Version,
	})
}

// readInput resolves the statement text and where it came from.
func (h *Handler) readInput(c *fiber.Ctx) (text, source string, header bool, err error) {
	header = true

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		var req convertRequest
		if err := c.BodyParser(&req); err != nil {
			return "", "", false, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Invalid JSON body: %v", err))
		}
		if strings.TrimSpace(req.Text) == "" {
			return "", "", false, fiber.NewError(fiber.StatusBadRequest, "Field 'text' is empty.")
		}
		if req.Header != nil {
			header = *req.Header
		}
		return req.Text, "text", header, nil
	}

	header = c.FormValue("header") != "false"

	if t := c.FormValue("text"); strings.TrimSpace(t) != "" {
		return t, "text", header, nil
	}
	if t := c.FormValue("extractedText"); strings.TrimSpace(t) != "" {
		return strings.ReplaceAll(t, pageBreak, "\n"), "text", header, nil
	}

	fh, ferr := c.FormFile("file")
	if ferr != nil {
		return "", "", false, fiber.NewError(fiber.StatusBadRequest, "No statement provided. Use form field 'text' or 'file'.")
	}

	switch strings.ToLower(filepath.Ext(fh.Filename)) {
	case ".txt":
		f, err := fh.Open()
		if err != nil {
			return "", "", false, fiber.NewError(fiber.StatusBadRequest, "Failed to read uploaded file.")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", "", false, fiber.NewError(fiber.StatusBadRequest, "Failed to read uploaded file.")
		}
		return string(data), "file", header, nil

	case ".pdf":
		tmp, err := os.CreateTemp("", "statement-*.pdf")
		if err != nil {
			return "", "", false, fiber.NewError(fiber.StatusInternalServerError, "Failed to create temp file.")
		}
		tmp.Close()
		defer os.Remove(tmp.Name())

		if err := c.SaveFile(fh, tmp.Name()); err != nil {
			return "", "", false, fiber.NewError(fiber.StatusInternalServerError, "Failed to save uploaded file.")
		}
		text, err := extractor.ExtractTextCombined(tmp.Name())
		if err != nil {
			return "", "", false, fiber.NewError(fiber.StatusUnprocessableEntity, fmt.Sprintf("PDF extraction failed: %v", err))
		}
		return text, "pdf", header, nil
	}

	return "", "", false, fiber.NewError(fiber.StatusBadRequest, "Only .pdf and .txt files are supported.")
}

// errorHandler renders every error in the ConvertResponse envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		status = ferr.Code
	}
	return c.Status(status).JSON(ConvertResponse{
		Success: false,
		Error:   err.Error(),
	})
}
