package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/ev-tco/internal/config"
	"github.com/iwvelando/ev-tco/internal/metrics"
	"github.com/iwvelando/ev-tco/internal/tco"
	"github.com/iwvelando/ev-tco/pkg/constants"
	"github.com/iwvelando/ev-tco/pkg/export"
	"github.com/iwvelando/ev-tco/pkg/ledger"
	"github.com/iwvelando/ev-tco/pkg/output"
	"github.com/iwvelando/ev-tco/pkg/validation"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed static/*
var staticFiles embed.FS

// Run sources reported in metrics.
const (
	sourceJSON   = "json"
	sourceUpload = "upload"
	sourceExport = "export"
)

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	engine        *tco.Engine
}

// NewHandler constructs the HTTP handler that serves the web UI, the TCO API
// and the metrics endpoint.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	metrics.Init()

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		engine:        tco.NewEngine(logger),
	}

	mux := http.NewServeMux()

	// TCO API endpoint (JSON inputs)
	mux.HandleFunc("/api/tco", h.handleTCO)

	// TCO API endpoint (YAML config upload)
	mux.HandleFunc("/api/tco/upload", h.handleUpload)

	// Report download
	mux.HandleFunc("/api/tco/export", h.handleExport)

	// Config serialization endpoint for editor downloads
	mux.HandleFunc("/api/tco/config", h.handleConfigExport)

	// Version endpoint for UI metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Static assets (web UI)
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	mux.Handle("/", http.FileServer(http.FS(sub)))

	return mux
}

type tcoResponse struct {
	RunID      string                 `json:"runId"`
	Summary    tco.Summary            `json:"summary"`
	Display    output.Display         `json:"display"`
	Cashflows  []tco.CashflowYear     `json:"cashflows"`
	Ledger     []ledger.Entry         `json:"ledger"`
	CSV        string                 `json:"csv"`
	Warnings   []string               `json:"warnings,omitempty"`
	Duration   string                 `json:"duration"`
	Config     map[string]interface{} `json:"config,omitempty"`
	ConfigYAML string                 `json:"configYaml,omitempty"`
}

func (h *handler) handleTCO(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleTCO"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	in, err := h.decodeInputs(w, r)
	if err != nil {
		h.failRun(w, err, sourceJSON, start, op)
		return
	}

	h.runTCO(w, in, sourceJSON, start, op, nil, nil)
}

func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpload"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	configBytes := buf.Bytes()
	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.failRun(w, badRequest(fmt.Errorf("error reading config data, %v", err)), sourceUpload, start, op)
		return
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.failRun(w, badRequest(err), sourceUpload, start, op)
		return
	}

	h.runTCO(w, cfg.Inputs, sourceUpload, start, op, configMap, configBytes)
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	format := r.URL.Query().Get("format")
	if format == "" {
		format = constants.OutputFormatXLSX
	}
	if err := validation.ValidateOutputFormat(format); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	in, err := h.decodeInputs(w, r)
	if err != nil {
		h.failRun(w, err, sourceExport, start, op)
		return
	}

	summary, cashflows, entries := h.engine.Run(in)
	if err := tco.CheckFinite(summary, cashflows); err != nil {
		h.failRun(w, unprocessable(err), sourceExport, start, op)
		return
	}
	report := output.NewReport(in, summary, cashflows, entries)
	metrics.ObserveRun(sourceExport, metrics.StatusSuccess, time.Since(start))

	data, contentType, ext, err := renderReport(report, format)
	if err != nil {
		metrics.IncExport(format, metrics.StatusError)
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render %s report: %v", format, err), op)
		return
	}
	metrics.IncExport(format, metrics.StatusSuccess)

	h.logger.Info("report exported",
		zap.String("op", op),
		zap.String("format", format),
		zap.Int("bytes", len(data)),
	)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "tco-report."+ext))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write report", zap.String("op", op), zap.Error(err))
	}
}

func renderReport(report output.Report, format string) ([]byte, string, string, error) {
	var buf bytes.Buffer
	switch format {
	case constants.OutputFormatXLSX:
		data, err := export.XLSX(report)
		return data, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx", err
	case constants.OutputFormatPDF:
		data, err := export.PDF(report)
		return data, "application/pdf", "pdf", err
	case constants.OutputFormatCSV:
		err := output.CsvFormat(&buf, report)
		return buf.Bytes(), "text/csv; charset=utf-8", "csv", err
	case constants.OutputFormatJSON:
		err := output.JSONFormat(&buf, report)
		return buf.Bytes(), "application/json", "json", err
	default:
		err := output.PrettyFormat(&buf, report)
		return buf.Bytes(), "text/plain; charset=utf-8", "txt", err
	}
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigExport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	in, err := h.decodeInputs(w, r)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}

	yamlBytes, err := yaml.Marshal(config.Configuration{Inputs: in})
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// decodeInputs reads a JSON inputs object from the request body. The field
// set must match the Inputs schema exactly and no field may be null.
func (h *handler) decodeInputs(w http.ResponseWriter, r *http.Request) (tco.Inputs, error) {
	var in tco.Inputs

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadSize))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return in, &requestError{
				status: http.StatusRequestEntityTooLarge,
				err:    fmt.Errorf("request exceeds limit of %d bytes", h.maxUploadSize),
			}
		}
		return in, badRequest(fmt.Errorf("failed to read request: %w", err))
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return in, badRequest(fmt.Errorf("failed to decode inputs: %w", err))
	}
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	if err := validation.CheckFieldSet(keys, tco.FieldNames()); err != nil {
		return in, badRequest(err)
	}
	var nulls []string
	for key, value := range raw {
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			nulls = append(nulls, key)
		}
	}
	if err := validation.CheckNullFields(nulls); err != nil {
		return in, badRequest(err)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return in, badRequest(fmt.Errorf("failed to decode inputs: %w", err))
	}
	return in, nil
}

func (h *handler) runTCO(w http.ResponseWriter, in tco.Inputs, source string, start time.Time, op string, configMap map[string]interface{}, configBytes []byte) {
	runID := uuid.NewString()
	warnings := config.ValidateInputs(in)
	for _, warning := range warnings {
		h.logger.Warn("input warning: "+warning,
			zap.String("op", op),
			zap.String("runId", runID),
		)
	}

	summary, cashflows, entries := h.engine.Run(in)
	if err := tco.CheckFinite(summary, cashflows); err != nil {
		h.failRun(w, unprocessable(err), source, start, op)
		return
	}
	report := output.NewReport(in, summary, cashflows, entries)

	elapsed := time.Since(start)
	metrics.ObserveRun(source, metrics.StatusSuccess, elapsed)

	response := tcoResponse{
		RunID:      runID,
		Summary:    report.Summary,
		Display:    report.Display,
		Cashflows:  report.Cashflows,
		Ledger:     report.Ledger,
		CSV:        output.CsvString(report),
		Warnings:   warnings,
		Duration:   elapsed.String(),
		Config:     configMap,
		ConfigYAML: string(configBytes),
	}

	h.logger.Info("tco computed",
		zap.String("op", op),
		zap.String("runId", runID),
		zap.String("project", in.ProjectName),
		zap.Float64("npv", summary.NPV),
		zap.Int("ledgerEntries", len(entries)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

// requestError carries the HTTP status a decoding failure maps to.
type requestError struct {
	status int
	err    error
}

func (e *requestError) Error() string { return e.err.Error() }

func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &requestError{status: http.StatusBadRequest, err: err}
}

// unprocessable marks inputs that decode fine but overflow the computation.
func unprocessable(err error) error {
	return &requestError{status: http.StatusUnprocessableEntity, err: err}
}

func statusFor(err error) int {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return reqErr.status
	}
	return http.StatusInternalServerError
}

func (h *handler) failRun(w http.ResponseWriter, err error, source string, start time.Time, op string) {
	metrics.ObserveRun(source, metrics.StatusError, time.Since(start))
	h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
}

func decodeYAMLToMap(data []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return make(map[string]interface{}), nil
	}

	var result map[string]interface{}
	if err := yaml.Unmarshal(trimmed, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]interface{})
	}
	return result, nil
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("tco request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeJSON encodes payload before committing status; an encoding failure
// is answered with 500.
func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
		status = http.StatusInternalServerError
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(map[string]string{
			"error": fmt.Sprintf("failed to encode response: %v", err),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
