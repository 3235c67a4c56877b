package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/audit-agent/internal/common"
	"github.com/joseph-ayodele/audit-agent/internal/export"
	"github.com/joseph-ayodele/audit-agent/internal/extract"
	"github.com/joseph-ayodele/audit-agent/internal/llm/groq"
	"github.com/joseph-ayodele/audit-agent/internal/mailer"
	"github.com/joseph-ayodele/audit-agent/internal/pipeline"
	"github.com/joseph-ayodele/audit-agent/internal/render"
	"github.com/joseph-ayodele/audit-agent/internal/server"
	"github.com/joseph-ayodele/audit-agent/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := common.LoadConfig()

	level := slog.LevelInfo
	if cfg.App.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("starting service",
		"app", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"debug", cfg.App.Debug,
	)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	status := cfg.StartupStatus()
	if status.GroqEnabled {
		logger.Info("groq analysis enabled", "model", cfg.LLM.Model, "api_key", cfg.MaskedGroqKey())
	} else {
		logger.Warn("groq analysis disabled: set GROQ_API_KEY to enable document analysis")
	}
	if status.MailEnabled {
		logger.Info("mail delivery enabled", "smtp_host", cfg.Mail.Host, "from", cfg.Mail.From)
	} else {
		logger.Warn("mail delivery disabled: set GMAIL_USER and GMAIL_APP_PASSWORD to enable report emails")
	}
	for _, w := range status.Warnings {
		logger.Warn("config warning", "detail", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.New(cfg.Storage.UploadsDir, logger)
	if err != nil {
		logger.Error("failed to open upload storage", "error", err)
		os.Exit(1)
	}

	extractor := extract.New(logger)

	analyzer := groq.NewClient(groq.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	var renderer render.ChartRenderer
	if rc, err := render.NewClient(render.Config{
		BaseURL: cfg.Chart.BaseURL,
		OutDir:  cfg.Storage.VisualizationsDir,
		Timeout: cfg.Chart.Timeout,
	}, logger); err != nil {
		logger.Warn("chart renderer unavailable, visualizations disabled", "error", err)
	} else {
		renderer = rc
	}

	var reportMailer mailer.ReportMailer
	if status.MailEnabled {
		reportMailer = mailer.NewSMTPMailer(mailer.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			Timeout:  cfg.Mail.Timeout,
		}, logger)
	}

	pipe := pipeline.New(st, extractor, analyzer, renderer, reportMailer, export.NewService(logger),
		pipeline.Config{
			RenderTimeout: cfg.Chart.Timeout,
			MailTimeout:   cfg.Mail.Timeout,
		}, logger)

	if cfg.Storage.CleanupInterval > 0 {
		go st.SweepEvery(ctx, cfg.Storage.CleanupInterval, cfg.Storage.CleanupMaxAge)
	}

	srv := server.New(cfg, pipe, st, status, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
