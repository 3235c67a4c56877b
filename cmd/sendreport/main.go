package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/audit-agent/constants"
	"github.com/joseph-ayodele/audit-agent/internal/common"
	"github.com/joseph-ayodele/audit-agent/internal/export"
	"github.com/joseph-ayodele/audit-agent/internal/llm"
	"github.com/joseph-ayodele/audit-agent/internal/mailer"
)

// Sends one audit report email end to end, for checking SMTP credentials
// and report formatting without running the full service.
func main() {
	var (
		to          = flag.String("to", "", "recipient address (defaults to the configured mail user)")
		verdictPath = flag.String("verdict", "", "path to a verdict JSON file (optional, uses a sample verdict when absent)")
		doc         = flag.String("doc", "sample_expense_report.pdf", "document name shown in the report")
		timeout     = flag.Duration("timeout", 60*time.Second, "delivery timeout")
		dryRun      = flag.Bool("dry-run", false, "build the full message but do not send it")
	)
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if !*dryRun && !cfg.MailEnabled() {
		logger.Error("mail credentials not configured, set GMAIL_USER and GMAIL_APP_PASSWORD")
		os.Exit(2)
	}

	recipient := *to
	if recipient == "" {
		recipient = cfg.Mail.Username
		logger.Info("no recipient given, defaulting to configured mail user", "recipient", recipient)
	}
	if recipient == "" {
		logger.Error("no recipient: pass --to or configure GMAIL_USER")
		os.Exit(2)
	}

	verdict := sampleVerdict()
	if *verdictPath != "" {
		raw, err := os.ReadFile(*verdictPath)
		if err != nil {
			logger.Error("failed to read verdict file", "path", *verdictPath, "error", err)
			os.Exit(1)
		}
		if err := json.Unmarshal(raw, &verdict); err != nil {
			logger.Error("failed to parse verdict file", "path", *verdictPath, "error", err)
			os.Exit(1)
		}
	}

	rep := mailer.Report{DocumentName: *doc, Verdict: &verdict}
	if wb, err := export.NewService(logger).Workbook(export.FlagRows(*doc, verdict.Flags), verdict.TotalFlaggedAmount); err != nil {
		logger.Warn("skipping spreadsheet attachment", "error", err)
	} else {
		rep.Workbook = wb
	}

	from := cfg.Mail.From
	if from == "" && *dryRun {
		from = "audit-agent@localhost"
	}
	m := mailer.NewSMTPMailer(mailer.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     from,
		Timeout:  *timeout,
		DryRun:   *dryRun,
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	outcome := mailer.DeliveryOutcome{Recipient: recipient}
	if err := m.SendReport(ctx, recipient, rep); err != nil {
		outcome.Error = err.Error()
	} else {
		outcome.Success = true
		outcome.Message = "Email sent successfully"
		if *dryRun {
			outcome.Message = "Dry run: message built, nothing sent"
		}
	}

	pretty, _ := json.MarshalIndent(outcome, "", "  ")
	fmt.Println(string(pretty))
	if !outcome.Success {
		os.Exit(1)
	}
}

func sampleVerdict() llm.AuditVerdict {
	return llm.AuditVerdict{
		RiskLevel: constants.RiskHigh,
		Summary: "The expense report contains a duplicated invoice and several charges " +
			"without supporting documentation, concentrated around quarter end.",
		Flags: []llm.AuditFlag{
			{
				Category:       "billing",
				Severity:       constants.SeverityHigh,
				Description:    "Invoice #4417 appears twice with identical line items.",
				Evidence:       "Invoice #4417 - Office refurbishment - $12,400.00 (pages 2 and 5)",
				Confidence:     0.93,
				AmountInvolved: 12400,
			},
			{
				Category:       "documentation",
				Severity:       constants.SeverityMedium,
				Description:    "Three travel reimbursements lack receipts.",
				Evidence:       "Travel reimbursement batch TR-88: no attachments on record",
				Confidence:     0.71,
				AmountInvolved: 1860.50,
			},
		},
		Recommendations: []string{
			"Hold payment on invoice #4417 pending vendor confirmation.",
			"Request receipts for reimbursement batch TR-88 before approval.",
		},
		TotalFlaggedAmount: 14260.5,
		Timestamp:          time.Now().UTC(),
	}
}
