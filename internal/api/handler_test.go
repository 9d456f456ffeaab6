package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/insightdelivered/payout-ledger/internal/config"
	"github.com/insightdelivered/payout-ledger/internal/observability"
)

const statement = "Deposit 03/15/2024\nTotal collected $500.00\nMarketing ($25.00)\nSales tax $40.00\nPay me now fee $435.00\n"

func setupTestApp() (*fiber.App, *Handler) {
	h := &Handler{
		Chart:   config.Default().Accounts,
		Metrics: observability.NewMetrics(),
		Version: "test",
	}
	return NewApp(h), h
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp, body
}

func decodeConvert(t *testing.T, body []byte) ConvertResponse {
	t.Helper()
	var result ConvertResponse
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to decode response: %v (%s)", err, body)
	}
	return result
}

func multipartFile(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	fw.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/convert", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := setupTestApp()

	resp, body := doRequest(t, app, httptest.NewRequest("GET", "/api/health", nil))

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]string
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["status"] != "ok" {
		t.Errorf("expected status=ok, got %q", result["status"])
	}
	if result["engine"] != "fiber" {
		t.Errorf("expected engine=fiber, got %q", result["engine"])
	}
	if result["version"] != "test" {
		t.Errorf("expected version=test, got %q", result["version"])
	}
	if resp.Header.Get(observability.RequestIDHeader) == "" {
		t.Error("expected a request id header")
	}
}

func TestConvertEndpointRequiresInput(t *testing.T) {
	app, _ := setupTestApp()

	req := httptest.NewRequest("POST", "/api/convert", nil)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=----test")
	resp, body := doRequest(t, app, req)

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	result := decodeConvert(t, body)
	if result.Success || result.Error == "" {
		t.Errorf("expected error envelope, got %+v", result)
	}
}

func TestConvertEndpointJSON(t *testing.T) {
	app, _ := setupTestApp()

	payload, _ := json.Marshal(map[string]string{"text": statement})
	req := httptest.NewRequest("POST", "/api/convert", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, body := doRequest(t, app, req)

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	result := decodeConvert(t, body)

	if !result.Success {
		t.Errorf("expected success, got error %q", result.Error)
	}
	if result.Count != 1 || len(result.Entries) != 1 {
		t.Fatalf("expected 1 deposit, got %d", result.Count)
	}
	if result.TotalDebit.StringFixed(2) != "460.00" || result.TotalCredit.StringFixed(2) != "460.00" {
		t.Errorf("totals: got %s / %s, want 460.00 / 460.00", result.TotalDebit, result.TotalCredit)
	}
	if result.Unbalanced != 0 {
		t.Errorf("expected no unbalanced entries, got %d", result.Unbalanced)
	}
	if !strings.HasPrefix(result.CSV, "Date,Journal Number,") {
		t.Errorf("expected CSV with header, got %q", result.CSV)
	}
	if !strings.Contains(result.CSV, "435.00") {
		t.Error("expected net deposit in CSV")
	}
}

func TestConvertEndpointJSONEmptyText(t *testing.T) {
	app, _ := setupTestApp()

	req := httptest.NewRequest("POST", "/api/convert", strings.NewReader(`{"text": "  "}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := doRequest(t, app, req)

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestConvertEndpointFormText(t *testing.T) {
	app, _ := setupTestApp()

	form := url.Values{"text": {statement}, "header": {"false"}}
	req := httptest.NewRequest("POST", "/api/convert", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, body := doRequest(t, app, req)

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	result := decodeConvert(t, body)
	if strings.Contains(result.CSV, "Journal Number") {
		t.Error("expected CSV without header")
	}
	if result.Count != 1 {
		t.Errorf("expected 1 deposit, got %d", result.Count)
	}
}

func TestConvertEndpointExtractedText(t *testing.T) {
	app, _ := setupTestApp()

	text := "Deposit 03/15/2024\nTotal collected $500.00" + pageBreak + "Pay me now fee $500.00"
	form := url.Values{"extractedText": {text}}
	req := httptest.NewRequest("POST", "/api/convert", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, body := doRequest(t, app, req)

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	result := decodeConvert(t, body)
	if strings.Contains(result.RawText, "PAGE_BREAK") {
		t.Error("page break markers should be removed")
	}
	if result.Count != 1 || !result.Entries[0].Balanced {
		t.Errorf("expected one balanced entry, got %+v", result.Entries)
	}
}

func TestConvertEndpointTextUpload(t *testing.T) {
	app, _ := setupTestApp()

	resp, body := doRequest(t, app, multipartFile(t, "statement.txt", statement))

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if result := decodeConvert(t, body); result.Count != 1 {
		t.Errorf("expected 1 deposit, got %d", result.Count)
	}
}

func TestConvertEndpointRejectsOtherFiles(t *testing.T) {
	app, _ := setupTestApp()

	resp, body := doRequest(t, app, multipartFile(t, "statement.docx", statement))

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if result := decodeConvert(t, body); !strings.Contains(result.Error, ".pdf and .txt") {
		t.Errorf("unexpected error %q", result.Error)
	}
}

func TestConvertEndpointNoDeposits(t *testing.T) {
	app, _ := setupTestApp()

	payload, _ := json.Marshal(map[string]string{"text": "Total collected $500.00"})
	req := httptest.NewRequest("POST", "/api/convert", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, body := doRequest(t, app, req)

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	result := decodeConvert(t, body)
	if result.Count != 0 || result.Deposits == nil {
		t.Errorf("expected an empty deposit list, got %+v", result.Deposits)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := setupTestApp()

	payload, _ := json.Marshal(map[string]string{"text": statement})
	req := httptest.NewRequest("POST", "/api/convert", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	doRequest(t, app, req)

	resp, body := doRequest(t, app, httptest.NewRequest("GET", "/metrics", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	output := string(body)
	for _, want := range []string{
		`payout_ledger_statements_total{source="text"} 1`,
		"payout_ledger_deposits_total 1",
		`payout_ledger_amount_total{field="net_deposit"} 435`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in metrics output", want)
		}
	}
}
