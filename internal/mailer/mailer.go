package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"

	"github.com/joseph-ayodele/audit-agent/internal/llm"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DeliveryOutcome mirrors the email_sent sub-record of the pipeline result.
type DeliveryOutcome struct {
	Success   bool   `json:"success"`
	Recipient string `json:"recipient"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Report bundles everything one delivery carries. ChartPaths and Workbook
// are optional; the report goes out without them when absent.
type Report struct {
	DocumentName string
	Verdict      *llm.AuditVerdict
	ChartPaths   map[string]string // chart id -> local PNG path
	Workbook     []byte            // XLSX flag export
}

// ReportMailer delivers one audit report to one recipient.
type ReportMailer interface {
	SendReport(ctx context.Context, recipient string, rep Report) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
	DryRun   bool // build the full message but never dial SMTP
}

// SMTPMailer sends the report as a multipart message (text + HTML +
// attachments) over authenticated SMTP.
type SMTPMailer struct {
	cfg    Config
	sender enmime.Sender
	log    *slog.Logger
}

func NewSMTPMailer(cfg Config, logger *slog.Logger) *SMTPMailer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	var sender enmime.Sender
	if cfg.DryRun {
		sender = discardSender{log: logger}
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		sender = enmime.NewSMTP(addr, smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host))
	}
	return &SMTPMailer{
		cfg:    cfg,
		sender: sender,
		log:    logger,
	}
}

// discardSender satisfies enmime.Sender without any network activity.
type discardSender struct {
	log *slog.Logger
}

func (d discardSender) Send(reversePath string, recipients []string, msg []byte) error {
	d.log.Info("mail.dryrun",
		"from", reversePath,
		"recipients", strings.Join(recipients, ","),
		"size_bytes", len(msg),
	)
	return nil
}

// SendReport builds and sends the message. net/smtp dials without a
// deadline, so the send runs on its own goroutine and is abandoned when
// the context expires first.
func (m *SMTPMailer) SendReport(ctx context.Context, recipient string, rep Report) error {
	start := time.Now()
	if recipient == "" {
		return fmt.Errorf("empty recipient")
	}
	if rep.Verdict == nil {
		return fmt.Errorf("report has no verdict")
	}

	html, err := buildHTMLBody(rep)
	if err != nil {
		return fmt.Errorf("render report body: %w", err)
	}

	b := enmime.Builder().
		From("", m.cfg.From).
		To("", recipient).
		Subject(buildSubject(rep)).
		Text([]byte(buildTextBody(rep))).
		HTML([]byte(html))

	if len(rep.Workbook) > 0 {
		b = b.AddAttachment(rep.Workbook, xlsxContentType, attachmentStem(rep.DocumentName)+"_flags.xlsx")
	}
	for _, id := range sortedChartIDs(rep.ChartPaths) {
		png, err := os.ReadFile(rep.ChartPaths[id])
		if err != nil {
			m.log.Warn("mail.attach.skip", "chart", id, "error", err)
			continue
		}
		b = b.AddAttachment(png, "image/png", id+".png")
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- b.Send(m.sender) }()

	select {
	case err := <-done:
		if err != nil {
			m.log.Warn("mail.send.failed",
				"recipient", recipient,
				"error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return fmt.Errorf("smtp send: %w", err)
		}
	case <-ctx.Done():
		m.log.Warn("mail.send.timeout",
			"recipient", recipient,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("mail delivery: %w", ctx.Err())
	}

	m.log.Info("mail.send.ok",
		"recipient", recipient,
		"attachments", len(rep.ChartPaths)+boolToInt(len(rep.Workbook) > 0),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func sortedChartIDs(paths map[string]string) []string {
	ids := make([]string, 0, len(paths))
	for id := range paths {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
