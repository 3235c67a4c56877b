package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/audit-agent/internal/llm"
)

const (
	DefaultBaseURL = "https://quickchart.io"
	DefaultTimeout = 20 * time.Second
	DefaultOutDir  = "visualizations"

	maxPNGBytes = 8 * 1024 * 1024
)

// ChartRenderer turns a verdict into rendered chart artifacts. The returned
// map goes chart identifier -> path of the written PNG, relative to the
// service root so it doubles as the static-serving URL path.
type ChartRenderer interface {
	Render(ctx context.Context, v *llm.AuditVerdict) (map[string]string, error)
}

type Config struct {
	BaseURL string
	OutDir  string
	Timeout time.Duration
}

// Client renders Chart.js configs to PNG through a QuickChart-compatible
// /chart endpoint and stores the images locally.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.OutDir == "" {
		cfg.OutDir = DefaultOutDir
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create render dir %s: %w", cfg.OutDir, err)
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}, nil
}

// Render produces every chart for the verdict concurrently. Any chart
// failure fails the whole render; callers treat rendering as optional and
// degrade on error.
func (c *Client) Render(ctx context.Context, v *llm.AuditVerdict) (map[string]string, error) {
	start := time.Now()
	specs := buildChartSpecs(v)

	paths := make([]string, len(specs))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for i, spec := range specs {
		eg.Go(func() error {
			p, err := c.renderOne(gctx, spec)
			if err != nil {
				return fmt.Errorf("chart %s: %w", spec.ID, err)
			}
			paths[i] = p
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(specs))
	for i, spec := range specs {
		out[spec.ID] = paths[i]
	}
	c.log.Info("render.ok",
		"charts", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (c *Client) renderOne(ctx context.Context, spec chartSpec) (string, error) {
	body := map[string]any{
		"chart":           spec.Config,
		"format":          "png",
		"width":           chartWidth,
		"height":          chartHeight,
		"backgroundColor": "white",
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal chart request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chart"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("quickchart http error: %w", err)
	}
	defer func(rc io.ReadCloser) {
		if err := rc.Close(); err != nil {
			c.log.Warn("quickchart response body close error", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("quickchart status %d: %s", resp.StatusCode, string(raw))
	}

	png, err := io.ReadAll(io.LimitReader(resp.Body, maxPNGBytes))
	if err != nil {
		return "", fmt.Errorf("read chart image: %w", err)
	}
	if len(png) == 0 {
		return "", fmt.Errorf("quickchart returned an empty image")
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	name := fmt.Sprintf("%s_%s_%s.png", spec.ID, time.Now().Format("20060102_150405"), suffix)
	full := filepath.Join(c.cfg.OutDir, name)
	if err := os.WriteFile(full, png, 0o644); err != nil {
		return "", fmt.Errorf("write chart image: %w", err)
	}

	c.log.Debug("render.chart.ok", "chart", spec.ID, "path", full, "bytes", len(png))
	return filepath.ToSlash(full), nil
}
