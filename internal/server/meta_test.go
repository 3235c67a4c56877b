package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joseph-ayodele/audit-agent/internal/common"
)

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{verdict: stubVerdict()})

	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp healthResponse
	decodeBody(t, rec, &resp)
	want := healthResponse{Status: "healthy", AppName: "Audit Agent API", Version: "1.0.0", Environment: "test"}
	if resp != want {
		t.Errorf("health = %+v, want %+v", resp, want)
	}
}

func TestInfoEndpoint(t *testing.T) {
	t.Run("collaborators unset", func(t *testing.T) {
		srv := newTestServer(t, &stubAnalyzer{verdict: stubVerdict()})

		rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/api/info", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var body map[string]any
		decodeBody(t, rec, &body)

		if body["message"] != "Welcome to Audit Agent API" {
			t.Errorf("message = %v", body["message"])
		}
		features, ok := body["features"].(map[string]any)
		if !ok {
			t.Fatalf("features = %v", body["features"])
		}
		if features["ai_analysis"] != false || features["email_reports"] != false {
			t.Errorf("features = %v, want both disabled", features)
		}
		apis, ok := body["apis"].(map[string]any)
		if !ok || apis["file_upload"] != "/api/v1/upload" {
			t.Errorf("apis = %v", body["apis"])
		}
	})

	t.Run("collaborators configured", func(t *testing.T) {
		srv := newTestServer(t, &stubAnalyzer{verdict: stubVerdict()}, func(cfg *common.Config) {
			cfg.LLM.APIKey = "gsk_live_1234567890abcdef"
			cfg.Mail.Username = "audit@example.com"
			cfg.Mail.Password = "app-password"
		})

		rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/api/info", nil))
		var body map[string]any
		decodeBody(t, rec, &body)
		features := body["features"].(map[string]any)
		if features["ai_analysis"] != true || features["email_reports"] != true {
			t.Errorf("features = %v, want both enabled", features)
		}
	})
}
