// Package pipeline sequences one document upload through validation,
// extraction, analysis and the optional delivery stages. Validation,
// extraction and analysis are fatal on failure; chart rendering and mail
// delivery degrade into absent or failed sub-fields of the result.
package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/audit-agent/internal/common"
	"github.com/joseph-ayodele/audit-agent/internal/export"
	"github.com/joseph-ayodele/audit-agent/internal/extract"
	"github.com/joseph-ayodele/audit-agent/internal/llm"
	"github.com/joseph-ayodele/audit-agent/internal/mailer"
	"github.com/joseph-ayodele/audit-agent/internal/render"
	"github.com/joseph-ayodele/audit-agent/internal/store"
	"github.com/joseph-ayodele/audit-agent/internal/validate"
)

// Upload is one caller submission: raw bytes, the original filename and an
// optional notification address.
type Upload struct {
	Filename  string
	Content   []byte
	Recipient string
}

type Config struct {
	MinTextChars  int           // post-normalization acceptance gate
	RenderTimeout time.Duration // budget for the chart renderer
	MailTimeout   time.Duration // budget for mail delivery
}

// Pipeline owns the stage sequencing. Renderer and mail transport are
// optional; a nil collaborator skips its stage.
type Pipeline struct {
	store     *store.Store
	extractor extract.TextExtractor
	analyzer  llm.DocumentAnalyzer
	renderer  render.ChartRenderer
	mail      mailer.ReportMailer
	exporter  *export.Service
	cfg       Config
	log       *slog.Logger
}

func New(st *store.Store, ex extract.TextExtractor, an llm.DocumentAnalyzer, rd render.ChartRenderer, ml mailer.ReportMailer, xp *export.Service, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = validate.MinTextChars
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 30 * time.Second
	}
	if cfg.MailTimeout <= 0 {
		cfg.MailTimeout = 60 * time.Second
	}
	return &Pipeline{
		store:     st,
		extractor: ex,
		analyzer:  an,
		renderer:  rd,
		mail:      ml,
		exporter:  xp,
		cfg:       cfg,
		log:       logger,
	}
}

// Run drives one upload through every stage. Once analysis has succeeded
// the call always returns a result; later failures only degrade sub-fields.
func (p *Pipeline) Run(ctx context.Context, up Upload) (*Result, error) {
	rid := uuid.New().String()
	ctx = common.WithRequestID(ctx, rid)
	log := p.log.With("req_id", rid, "filename", up.Filename)
	start := time.Now()

	log.Info("pipeline.start",
		"size_bytes", len(up.Content),
		"recipient_set", up.Recipient != "",
	)

	if err := validate.CheckUpload(up.Filename, int64(len(up.Content))); err != nil {
		log.Warn("pipeline.validate.rejected", "error", err)
		return nil, err
	}

	// Stage the bytes for the extractors. The file is transient: removed
	// again on every path out of this function, sweep covers the rest.
	path, err := p.store.Save(up.Filename, up.Content)
	if err != nil {
		log.Error("pipeline.save.failed", "error", err)
		return nil, common.ExtractionError("Failed to extract text from document", err)
	}
	defer p.store.Remove(path)

	res, err := p.extractor.Extract(ctx, path)
	if err != nil {
		log.Error("pipeline.extract.failed", "error", err)
		return nil, common.ExtractionError("Failed to extract text from document", err)
	}

	if res.Chars < p.cfg.MinTextChars {
		log.Warn("pipeline.length.rejected", "chars", res.Chars, "min", p.cfg.MinTextChars)
		return nil, common.ValidationErrorf(
			"Insufficient text extracted (%d chars). Minimum %d characters required.",
			res.Chars, p.cfg.MinTextChars)
	}

	verdict, err := p.analyzer.AnalyzeDocument(ctx, llm.AnalyzeRequest{
		DocumentText: res.Text,
		DocumentName: up.Filename,
		FileType:     strings.ToLower(filepath.Ext(up.Filename)),
	})
	if err != nil {
		log.Error("pipeline.analyze.failed", "error", err)
		return nil, common.AnalysisError("Fraud analysis failed", err)
	}
	log.Info("pipeline.analyze.ok",
		"risk_level", string(verdict.RiskLevel),
		"flags", len(verdict.Flags),
		"total_flagged_amount", verdict.TotalFlaggedAmount,
	)

	viz := p.visualize(ctx, log, &verdict)
	delivery := p.notify(ctx, log, up, &verdict, viz)

	result, err := assemble(up, res, &verdict, viz, delivery)
	if err != nil {
		log.Error("pipeline.assemble.failed", "error", err)
		return nil, err
	}

	log.Info("pipeline.ok",
		"risk_level", string(verdict.RiskLevel),
		"charts", len(viz),
		"email_sent", delivery != nil && delivery.Success,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// TextInput is a pre-extracted document submitted directly for analysis,
// skipping the storage and extraction stages.
type TextInput struct {
	Text      string
	Name      string
	Type      string
	Recipient string
}

// RunText analyzes already-extracted text. The same degradation rules apply
// to rendering and delivery as on the upload path.
func (p *Pipeline) RunText(ctx context.Context, in TextInput) (*Analysis, error) {
	rid := uuid.New().String()
	ctx = common.WithRequestID(ctx, rid)
	name := in.Name
	if name == "" {
		name = "document"
	}
	log := p.log.With("req_id", rid, "document", name)
	start := time.Now()

	text := extract.Normalize(in.Text)
	chars := utf8.RuneCountInString(text)
	if err := validate.CheckDocumentText(chars); err != nil {
		log.Warn("pipeline.text.rejected", "chars", chars)
		return nil, err
	}

	verdict, err := p.analyzer.AnalyzeDocument(ctx, llm.AnalyzeRequest{
		DocumentText: text,
		DocumentName: name,
		FileType:     in.Type,
	})
	if err != nil {
		log.Error("pipeline.analyze.failed", "error", err)
		return nil, common.AnalysisError("Fraud analysis failed", err)
	}

	viz := p.visualize(ctx, log, &verdict)
	delivery := p.notify(ctx, log, Upload{Filename: name, Recipient: in.Recipient}, &verdict, viz)

	overlay := map[string]any{"document_name": name, "text_length": chars}
	if in.Type != "" {
		overlay["document_type"] = in.Type
	}
	analysis := buildAnalysis(&verdict, metadataFrom(&verdict, overlay), viz, delivery)

	log.Info("pipeline.ok",
		"risk_level", string(verdict.RiskLevel),
		"charts", len(viz),
		"email_sent", delivery != nil && delivery.Success,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &analysis, nil
}

// visualize runs the renderer under its own timeout. Any failure degrades
// to an absent bundle.
func (p *Pipeline) visualize(ctx context.Context, log *slog.Logger, v *llm.AuditVerdict) map[string]string {
	if p.renderer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.RenderTimeout)
	defer cancel()

	out, err := p.renderer.Render(ctx, v)
	if err != nil {
		log.Warn("pipeline.visualize.degraded", "error", err)
		return nil
	}
	return out
}

// notify sends the report when a recipient was supplied. Failures degrade
// to a success:false outcome; with no recipient the outcome stays absent.
func (p *Pipeline) notify(ctx context.Context, log *slog.Logger, up Upload, v *llm.AuditVerdict, viz map[string]string) *mailer.DeliveryOutcome {
	if up.Recipient == "" {
		return nil
	}
	if p.mail == nil {
		log.Warn("pipeline.notify.skipped", "reason", "mail transport not configured")
		return &mailer.DeliveryOutcome{
			Success:   false,
			Recipient: up.Recipient,
			Error:     "mail transport not configured",
		}
	}

	rep := mailer.Report{
		DocumentName: up.Filename,
		Verdict:      v,
		ChartPaths:   viz,
	}
	if p.exporter != nil {
		wb, err := p.exporter.Workbook(export.FlagRows(up.Filename, v.Flags), v.TotalFlaggedAmount)
		if err != nil {
			log.Warn("pipeline.export.degraded", "error", err)
		} else {
			rep.Workbook = wb
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.MailTimeout)
	defer cancel()

	if err := p.mail.SendReport(ctx, up.Recipient, rep); err != nil {
		log.Warn("pipeline.notify.degraded", "recipient", up.Recipient, "error", err)
		return &mailer.DeliveryOutcome{
			Success:   false,
			Recipient: up.Recipient,
			Error:     err.Error(),
		}
	}

	log.Info("pipeline.notify.ok", "recipient", up.Recipient)
	return &mailer.DeliveryOutcome{
		Success:   true,
		Recipient: up.Recipient,
		Message:   "Email sent successfully",
	}
}
