package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joseph-ayodele/audit-agent/constants"
	"github.com/joseph-ayodele/audit-agent/internal/common"
	"github.com/joseph-ayodele/audit-agent/internal/export"
	"github.com/joseph-ayodele/audit-agent/internal/extract"
	"github.com/joseph-ayodele/audit-agent/internal/llm"
	"github.com/joseph-ayodele/audit-agent/internal/pipeline"
	"github.com/joseph-ayodele/audit-agent/internal/store"
)

const analyzableText = "Quarterly vendor ledger shows invoice 4417 billed twice, once in March and once in April, for identical scope."

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubAnalyzer struct {
	verdict llm.AuditVerdict
	err     error
	calls   int
}

func (a *stubAnalyzer) AnalyzeDocument(_ context.Context, _ llm.AnalyzeRequest) (llm.AuditVerdict, error) {
	a.calls++
	if a.err != nil {
		return llm.AuditVerdict{}, a.err
	}
	return a.verdict, nil
}

func stubVerdict() llm.AuditVerdict {
	return llm.AuditVerdict{
		RiskLevel: constants.RiskHigh,
		Summary:   "Duplicate billing detected.",
		Flags: []llm.AuditFlag{{
			Category:       "billing",
			Severity:       constants.SeverityHigh,
			Description:    "Invoice 4417 appears twice.",
			Evidence:       "invoice 4417 billed twice",
			Confidence:     0.93,
			AmountInvolved: 12400,
		}},
		Recommendations:    []string{"Pull the vendor statement."},
		TotalFlaggedAmount: 12400,
		Timestamp:          time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
	}
}

// newTestServer wires a server around a real pipeline whose analyzer is
// stubbed out. Renderer and mail transport stay absent unless a mutator
// installs configuration for them.
func newTestServer(t *testing.T, an llm.DocumentAnalyzer, mutate ...func(*common.Config)) *Server {
	t.Helper()
	cfg := &common.Config{
		App:     common.AppConfig{Name: "Audit Agent API", Version: "1.0.0", Environment: "test"},
		Server:  common.ServerConfig{Host: "127.0.0.1", Port: 8000},
		Storage: common.StorageConfig{UploadsDir: t.TempDir(), VisualizationsDir: t.TempDir()},
	}
	for _, m := range mutate {
		m(cfg)
	}
	st, err := store.New(cfg.Storage.UploadsDir, testLogger())
	if err != nil {
		t.Fatalf("store.New() = %v", err)
	}
	pipe := pipeline.New(st, extract.New(testLogger()), an, nil, nil,
		export.NewService(testLogger()), pipeline.Config{}, testLogger())
	return New(cfg, pipe, st, cfg.StartupStatus(), testLogger())
}

func doRequest(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

func errorDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decodeBody(t, rec, &body)
	return body["detail"]
}

// multipartUpload builds an analyze request. An empty filename omits the
// file part entirely.
func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile() = %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%q) = %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestVisualizationsRoute(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{verdict: stubVerdict()})
	png := []byte("\x89PNG fake image bytes")
	path := filepath.Join(srv.cfg.Storage.VisualizationsDir, "severity_breakdown.png")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		t.Fatalf("WriteFile() = %v", err)
	}

	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/visualizations/severity_breakdown.png", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), png) {
		t.Error("served bytes differ from the stored chart")
	}

	rec = doRequest(srv, httptest.NewRequest(http.MethodGet, "/visualizations/missing.png", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing chart status = %d, want 404", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{verdict: stubVerdict()})
	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/api/v1/nothing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
