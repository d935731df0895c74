package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/ledger/internal/config"
	"github.com/JonMunkholm/ledger/internal/core"
	"github.com/JonMunkholm/ledger/internal/metrics"
)

const sampleCSV = "구분,금액,날짜,내용\n지출,\"8,000\",2024-02-01,점심\n수입,1000000,2024-02-25,월급\n"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second},
		Import: config.ImportConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
		},
		Export:  config.ExportConfig{SheetName: "Transactions", FilePrefix: "ledger"},
		Metrics: config.MetricsConfig{Enabled: true, Namespace: "ledger"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	m := metrics.New(cfg.Metrics.Namespace)
	svc := core.NewService(core.NewMemoryStore(), core.ServiceConfig{
		MaxFileSize:   int64(cfg.Import.MaxFileSize),
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWait:       cfg.Import.MaxWaitTime,
		SheetName:     cfg.Export.SheetName,
		FilePrefix:    cfg.Export.FilePrefix,
	}, m)
	return NewServer(svc, cfg, m)
}

func uploadRequest(t *testing.T, target, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" || body["importCapacity"] != float64(2) {
		t.Errorf("body = %v", body)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"<table>", "금액", "paymentMethod1", "1.0 MiB", "/api/template?format=xlsx"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
}

func TestImportAndExport(t *testing.T) {
	s := newTestServer(t, testConfig())
	ledger := uuid.New()

	rec := serve(s, uploadRequest(t, "/api/ledgers/"+ledger.String()+"/import", "feb.csv", sampleCSV))
	if rec.Code != http.StatusCreated {
		t.Fatalf("import status = %d, body %s", rec.Code, rec.Body)
	}
	result := decode[core.ImportResult](t, rec)
	if result.Imported != 2 || result.LedgerID != ledger.String() {
		t.Errorf("import result = %+v", result)
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/ledgers/"+ledger.String()+"/export?from=2024-02-10", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d, body %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(got, "attachment; filename=ledger_") || !strings.HasSuffix(got, ".csv") {
		t.Errorf("Content-Disposition = %q", got)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, core.UTF8BOM+"type,amount,date") {
		t.Errorf("body = %q, want BOM and canonical header", body)
	}
	if strings.Contains(body, "점심") || !strings.Contains(body, "월급") {
		t.Errorf("date filter not applied: %q", body)
	}
	if got := rec.Header().Get("Content-Length"); got != strconv.Itoa(len(body)) {
		t.Errorf("Content-Length = %s, want %d", got, len(body))
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/ledgers/"+ledger.String()+"/export?format=xlsx", nil))
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "PK") {
		t.Errorf("xlsx export status = %d, want a zip payload", rec.Code)
	}
}

func TestImportValidationFailure(t *testing.T) {
	s := newTestServer(t, testConfig())
	ledger := uuid.New().String()

	body := "구분,금액,날짜\n지출,abc,2024-01-01\n"
	rec := serve(s, uploadRequest(t, "/api/ledgers/"+ledger+"/import", "bad.csv", body))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body %s", rec.Code, rec.Body)
	}

	resp := decode[ErrorResponse](t, rec)
	if resp.Code != "VAL001" {
		t.Errorf("code = %q, want VAL001", resp.Code)
	}
	if resp.Result == nil || len(resp.Result.FailedRows) != 1 || resp.Result.FailedRows[0].LineNumber != 2 {
		t.Errorf("result = %+v, want one failed row on line 2", resp.Result)
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/ledgers/"+ledger+"/export", nil))
	if got := rec.Body.String(); got != core.UTF8BOM+strings.Join(core.DefaultFieldOrder, ",") {
		t.Errorf("ledger not empty after failed import: %q", got)
	}
}

func TestPreview(t *testing.T) {
	s := newTestServer(t, testConfig())
	ledger := uuid.New().String()

	rec := serve(s, uploadRequest(t, "/api/ledgers/"+ledger+"/import/preview", "feb.csv", sampleCSV))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	result := decode[map[string]any](t, rec)
	rows, _ := result["rows"].([]any)
	if len(rows) != 2 {
		t.Fatalf("rows = %v", result["rows"])
	}
	first := rows[0].(map[string]any)
	if first["description"] != "점심" || first["amount"] != "8,000" {
		t.Errorf("first row = %v", first)
	}
}

func TestRequestErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Import.MaxFileSize = 64
	s := newTestServer(t, cfg)
	ledger := uuid.New().String()

	tests := []struct {
		name     string
		req      *http.Request
		wantCode int
		wantErr  string
	}{
		{
			name:     "bad ledger id",
			req:      uploadRequest(t, "/api/ledgers/nope/import", "a.csv", sampleCSV),
			wantCode: http.StatusBadRequest,
			wantErr:  "REQ001",
		},
		{
			name:     "not multipart",
			req:      httptest.NewRequest(http.MethodPost, "/api/ledgers/"+ledger+"/import", strings.NewReader("x")),
			wantCode: http.StatusBadRequest,
			wantErr:  "REQ001",
		},
		{
			name:     "file too large",
			req:      uploadRequest(t, "/api/ledgers/"+ledger+"/import", "a.csv", strings.Repeat("a", 200)),
			wantCode: http.StatusRequestEntityTooLarge,
			wantErr:  "FILE001",
		},
		{
			name:     "unsupported upload",
			req:      uploadRequest(t, "/api/ledgers/"+ledger+"/import", "a.pdf", "%PDF"),
			wantCode: http.StatusUnsupportedMediaType,
			wantErr:  "FILE004",
		},
		{
			name:     "broken workbook",
			req:      uploadRequest(t, "/api/ledgers/"+ledger+"/import", "a.xlsx", "not a zip"),
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE006",
		},
		{
			name:     "no data rows",
			req:      uploadRequest(t, "/api/ledgers/"+ledger+"/import", "a.csv", "구분,금액\n"),
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE005",
		},
		{
			name:     "bad export format",
			req:      httptest.NewRequest(http.MethodGet, "/api/ledgers/"+ledger+"/export?format=pdf", nil),
			wantCode: http.StatusUnsupportedMediaType,
			wantErr:  "FILE004",
		},
		{
			name:     "bad export date",
			req:      httptest.NewRequest(http.MethodGet, "/api/ledgers/"+ledger+"/export?from=01/02/2024", nil),
			wantCode: http.StatusBadRequest,
			wantErr:  "REQ001",
		},
		{
			name:     "reversed export range",
			req:      httptest.NewRequest(http.MethodGet, "/api/ledgers/"+ledger+"/export?from=2024-02-01&to=2024-01-01", nil),
			wantCode: http.StatusBadRequest,
			wantErr:  "REQ001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, tt.req)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d; body %s", rec.Code, tt.wantCode, rec.Body)
			}
			resp := decode[ErrorResponse](t, rec)
			if resp.Code != tt.wantErr || resp.Message == "" {
				t.Errorf("response = %+v, want code %s", resp, tt.wantErr)
			}
		})
	}
}

func TestTemplateDownload(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/template", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got, want := rec.Body.String(), core.UTF8BOM+"구분,금액,날짜,대분류,소분류,결제수단,세부결제수단,내용,메모"; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=ledger_template.csv" {
		t.Errorf("Content-Disposition = %q", got)
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/template?format=xlsx", nil))
	if got := rec.Header().Get("Content-Type"); got != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig())
	serve(s, uploadRequest(t, "/api/ledgers/"+uuid.New().String()+"/import", "feb.csv", sampleCSV))

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `ledger_imports_total{outcome="success"} 1`) {
		t.Errorf("metrics missing import counter:\n%s", body)
	}

	cfg := testConfig()
	cfg.Metrics.Enabled = false
	s = newTestServer(t, cfg)
	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil)); rec.Code != http.StatusNotFound {
		t.Errorf("disabled metrics status = %d, want 404", rec.Code)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"alice:s3cret"}}
	s := newTestServer(t, cfg)

	tests := []struct {
		key  string
		want int
	}{
		{"", http.StatusUnauthorized},
		{"wrong", http.StatusForbidden},
		{"s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/template", nil)
		if tt.key != "" {
			req.Header.Set("X-API-Key", tt.key)
		}
		if rec := serve(s, req); rec.Code != tt.want {
			t.Errorf("key %q: status = %d, want %d", tt.key, rec.Code, tt.want)
		}
	}

	// public routes stay open
	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
}
