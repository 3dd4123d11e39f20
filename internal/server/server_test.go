package server

import (
	"bytes"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/iwvelando/ev-tco/internal/config"
	"github.com/iwvelando/ev-tco/pkg/constants"
	"go.uber.org/zap"
)

func referencePayload() map[string]interface{} {
	return map[string]interface{}{
		"project_name":                  "Projekt 1",
		"base_year":                     2026,
		"horizon_years":                 7,
		"hours_per_year":                880,
		"diesel_l_per_h":                7.5,
		"diesel_total_l_per_year":       6600,
		"diesel_price_eur_per_l":        1.8,
		"electricity_kwh_per_year":      25080,
		"electricity_price_eur_per_kwh": 0.08,
		"invest_eur":                    60000,
		"subsidy_rate":                  0.35,
		"resale_old_device_eur":         0,
		"loan_interest":                 0.05,
		"loan_years_total":              10,
		"loan_grace_years":              2,
		"discount_rate":                 0.08,
	}
}

func TestHandleTCOSuccess(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	rr := performJSON(t, handler, referencePayload(), "/api/tco")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp tcoResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if _, err := uuid.Parse(resp.RunID); err != nil {
		t.Fatalf("expected UUID run id, got %q", resp.RunID)
	}
	if resp.Display.NPV != "-11.727 €" {
		t.Fatalf("expected NPV display -11.727 €, got %q", resp.Display.NPV)
	}
	if len(resp.Cashflows) != 8 {
		t.Fatalf("expected 8 cashflows, got %d", len(resp.Cashflows))
	}
	if len(resp.Ledger) != 18 {
		t.Fatalf("expected 18 ledger entries, got %d", len(resp.Ledger))
	}
	if resp.CSV == "" {
		t.Fatal("expected CSV data in response")
	}
	if resp.Duration == "" {
		t.Fatal("expected duration in response")
	}
	if len(resp.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", resp.Warnings)
	}
}

func TestHandleTCOWarnings(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	payload := referencePayload()
	payload["subsidy_rate"] = 1.2

	rr := performJSON(t, handler, payload, "/api/tco")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp tcoResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], "subsidy_rate") {
		t.Fatalf("expected subsidy_rate warning, got %v", resp.Warnings)
	}
}

func TestHandleTCOSchemaMismatch(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	tests := []struct {
		name     string
		mutate   func(map[string]interface{})
		expected string
	}{
		{
			name:     "Missing field",
			mutate:   func(p map[string]interface{}) { delete(p, "discount_rate") },
			expected: "missing=[discount_rate] extra=[]",
		},
		{
			name:     "Extra field",
			mutate:   func(p map[string]interface{}) { p["co2_price"] = 45 },
			expected: "missing=[] extra=[co2_price]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := referencePayload()
			tt.mutate(payload)

			rr := performJSON(t, handler, payload, "/api/tco")
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rr.Code)
			}

			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if !strings.Contains(resp["error"], tt.expected) {
				t.Fatalf("expected error containing %q, got %q", tt.expected, resp["error"])
			}
		})
	}
}

func TestHandleTCONullValue(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	for _, path := range []string{"/api/tco", "/api/tco/export?format=csv", "/api/tco/config"} {
		t.Run(path, func(t *testing.T) {
			payload := referencePayload()
			payload["invest_eur"] = nil

			rr := performJSON(t, handler, payload, path)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}

			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if !strings.Contains(resp["error"], "without value: [invest_eur]") {
				t.Fatalf("expected invest_eur named in error, got %q", resp["error"])
			}
		})
	}
}

func TestHandleUploadNullValue(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	data, err := os.ReadFile(filepath.Join("..", "..", "test", "test_config.yaml"))
	if err != nil {
		t.Fatalf("failed to read test config: %v", err)
	}
	content := strings.Replace(string(data), "invest_eur: 60000", "invest_eur:", 1)

	rr := performUpload(t, handler, content, "null.yaml")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "invest_eur") {
		t.Fatalf("expected invest_eur named in error, got %s", rr.Body.String())
	}
}

func TestHandleTCONonFiniteResult(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	for _, path := range []string{"/api/tco", "/api/tco/export?format=json"} {
		t.Run(path, func(t *testing.T) {
			payload := referencePayload()
			payload["hours_per_year"] = 1e200
			payload["diesel_l_per_h"] = 1e200
			payload["diesel_total_l_per_year"] = 0

			rr := performJSON(t, handler, payload, path)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected status 422, got %d: %s", rr.Code, rr.Body.String())
			}

			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if !strings.Contains(resp["error"], "not finite: npv") {
				t.Fatalf("expected npv named in error, got %q", resp["error"])
			}
		})
	}
}

func TestWriteJSONEncodingFailure(t *testing.T) {
	h := &handler{logger: zap.NewNop()}

	rr := httptest.NewRecorder()
	h.writeJSON(rr, http.StatusOK, map[string]float64{"npv": math.NaN()})

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if !strings.Contains(resp["error"], "failed to encode response") {
		t.Fatalf("unexpected error %q", resp["error"])
	}
}

func TestHandleTCOInvalidJSON(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	req := httptest.NewRequest(http.MethodPost, "/api/tco", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleTCOWrongType(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	payload := referencePayload()
	payload["base_year"] = "2026"

	rr := performJSON(t, handler, payload, "/api/tco")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleTCOMethodNotAllowed(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	for _, path := range []string{"/api/tco", "/api/tco/upload", "/api/tco/export", "/api/tco/config"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected status 405 for %s, got %d", path, rr.Code)
		}
	}
}

func TestHandleUploadSuccess(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	data, err := os.ReadFile(filepath.Join("..", "..", "test", "test_config.yaml"))
	if err != nil {
		t.Fatalf("failed to read test config: %v", err)
	}

	rr := performUpload(t, handler, string(data), "test_config.yaml")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp tcoResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Display.NPV != "-11.727 €" {
		t.Fatalf("expected NPV display -11.727 €, got %q", resp.Display.NPV)
	}
	if resp.Config == nil {
		t.Fatal("expected config data in response")
	}
	if resp.ConfigYAML == "" {
		t.Fatal("expected config YAML in response")
	}
}

func TestHandleUploadTooLarge(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 64, "test")

	rr := performUpload(t, handler, strings.Repeat("a", 1024), "big.yaml")
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rr.Code)
	}
}

func TestHandleUploadMissingFile(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("other", "value"); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/tco/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleUploadInvalidYAML(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	rr := performUpload(t, handler, "inputs: [", "bad.yaml")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleUploadSchemaMismatch(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	rr := performUpload(t, handler, "inputs:\n  project_name: x\n", "partial.yaml")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if !strings.Contains(resp["error"], "input mismatch") {
		t.Fatalf("expected mismatch error, got %q", resp["error"])
	}
}

func TestHandleExport(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	tests := []struct {
		format      string
		contentType string
		prefix      string
	}{
		{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "PK"},
		{"pdf", "application/pdf", "%PDF-"},
		{"csv", "text/csv; charset=utf-8", "year,savings,annuity,cashflow"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rr := performJSON(t, handler, referencePayload(), "/api/tco/export?format="+tt.format)
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
			}
			if got := rr.Header().Get("Content-Type"); got != tt.contentType {
				t.Fatalf("expected content type %q, got %q", tt.contentType, got)
			}
			if !strings.Contains(rr.Header().Get("Content-Disposition"), "tco-report."+tt.format) {
				t.Fatalf("unexpected disposition %q", rr.Header().Get("Content-Disposition"))
			}
			if !bytes.HasPrefix(rr.Body.Bytes(), []byte(tt.prefix)) {
				t.Fatalf("expected body to start with %q", tt.prefix)
			}
		})
	}
}

func TestHandleExportUnknownFormat(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	rr := performJSON(t, handler, referencePayload(), "/api/tco/export?format=docx")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleConfigExport(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	rr := performJSON(t, handler, referencePayload(), "/api/tco/config")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	yamlText := resp["configYaml"]
	if !strings.HasPrefix(yamlText, "inputs:") {
		t.Fatalf("expected inputs section first, got %q", yamlText)
	}

	conf, err := config.LoadConfigurationFromReader(strings.NewReader(yamlText))
	if err != nil {
		t.Fatalf("exported configuration does not load: %v", err)
	}
	if conf.Inputs.InvestEUR != 60000 || conf.Inputs.ProjectName != "Projekt 1" {
		t.Fatalf("unexpected round-tripped inputs %+v", conf.Inputs)
	}
}

func TestHandleVersion(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "  ")

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["version"] != "dev" {
		t.Fatalf("expected dev version, got %q", resp["version"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	performJSON(t, handler, referencePayload(), "/api/tco")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "ev_tco_runs_total") {
		t.Fatal("expected ev_tco_runs_total in metrics output")
	}
}

func TestHealthz(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("expected 200 ok, got %d %q", rr.Code, rr.Body.String())
	}
}

func TestStaticAssetsServed(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 for index, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "EV TCO") {
		t.Fatalf("expected HTML body to contain title, got %q", rr.Body.String())
	}

	cssReq := httptest.NewRequest(http.MethodGet, "/styles.css", nil)
	cssRR := httptest.NewRecorder()
	handler.ServeHTTP(cssRR, cssReq)

	if cssRR.Code != http.StatusOK {
		t.Fatalf("expected status 200 for css, got %d", cssRR.Code)
	}
	if !strings.Contains(cssRR.Body.String(), ":root") {
		t.Fatalf("expected CSS body to contain styles, got %q", cssRR.Body.String())
	}
}

func performUpload(t *testing.T, handler http.Handler, content, filename string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/tco/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}

func performJSON(t *testing.T, handler http.Handler, payload map[string]interface{}, path string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}
