package render

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/joseph-ayodele/audit-agent/constants"
	"github.com/joseph-ayodele/audit-agent/internal/llm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var fakePNG = []byte("\x89PNG\r\n\x1a\nfake image bytes")

func newTestRenderer(t *testing.T, handler http.HandlerFunc) (*Client, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	outDir := filepath.Join(t.TempDir(), "visualizations")
	c, err := NewClient(Config{BaseURL: srv.URL, OutDir: outDir}, testLogger())
	if err != nil {
		t.Fatalf("NewClient() = %v", err)
	}
	return c, outDir
}

func TestNewClientCreatesOutDir(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "a", "viz")
	if _, err := NewClient(Config{OutDir: outDir}, testLogger()); err != nil {
		t.Fatalf("NewClient() = %v", err)
	}
	info, err := os.Stat(outDir)
	if err != nil || !info.IsDir() {
		t.Errorf("out dir missing after NewClient: %v", err)
	}
}

func TestRenderWritesCharts(t *testing.T) {
	var requests atomic.Int32
	c, outDir := newTestRenderer(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != "/chart" {
			t.Errorf("got %s %s, want POST /chart", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode chart request: %v", err)
		}
		if body["format"] != "png" {
			t.Errorf("format = %v, want png", body["format"])
		}
		if _, ok := body["chart"].(map[string]any); !ok {
			t.Errorf("chart config = %T, want object", body["chart"])
		}
		w.Write(fakePNG)
	})

	v := flaggedVerdict(
		llm.AuditFlag{Category: "billing", Severity: constants.SeverityHigh, AmountInvolved: 9000},
	)
	got, err := c.Render(t.Context(), v)
	if err != nil {
		t.Fatalf("Render() = %v", err)
	}
	if requests.Load() != 2 {
		t.Errorf("renderer made %d requests, want 2", requests.Load())
	}
	if len(got) != 2 {
		t.Fatalf("Render() returned %d charts, want 2", len(got))
	}
	for _, id := range []string{chartSeverity, chartAmounts} {
		path, ok := got[id]
		if !ok {
			t.Errorf("bundle missing chart %q", id)
			continue
		}
		if !strings.HasPrefix(path, filepath.ToSlash(outDir)) {
			t.Errorf("chart path %q not under %q", path, outDir)
		}
		if !strings.Contains(filepath.Base(path), id) || !strings.HasSuffix(path, ".png") {
			t.Errorf("chart path %q does not follow id_timestamp_suffix.png", path)
		}
		data, err := os.ReadFile(filepath.FromSlash(path))
		if err != nil {
			t.Errorf("chart file unreadable: %v", err)
		} else if string(data) != string(fakePNG) {
			t.Errorf("chart file holds %d bytes, want the served image", len(data))
		}
	}
}

func TestRenderSeverityOnlyBundle(t *testing.T) {
	c, _ := newTestRenderer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(fakePNG)
	})
	got, err := c.Render(t.Context(), flaggedVerdict())
	if err != nil {
		t.Fatalf("Render() = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Render() returned %d charts, want 1", len(got))
	}
	if _, ok := got[chartSeverity]; !ok {
		t.Error("bundle missing the severity chart")
	}
}

func TestRenderFailsOnServerError(t *testing.T) {
	c, _ := newTestRenderer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "render backend down", http.StatusInternalServerError)
	})
	got, err := c.Render(t.Context(), flaggedVerdict())
	if err == nil {
		t.Fatal("Render() = nil, want error")
	}
	if got != nil {
		t.Errorf("Render() bundle = %v, want nil on failure", got)
	}
	msg := err.Error()
	if !strings.Contains(msg, "chart "+chartSeverity) || !strings.Contains(msg, "quickchart status 500") {
		t.Errorf("error = %q, want chart id and status", msg)
	}
}

func TestRenderFailsOnEmptyImage(t *testing.T) {
	c, _ := newTestRenderer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	_, err := c.Render(t.Context(), flaggedVerdict())
	if err == nil || !strings.Contains(err.Error(), "empty image") {
		t.Errorf("Render() = %v, want empty image error", err)
	}
}
