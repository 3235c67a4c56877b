package llm

import (
	"context"
	"time"

	"github.com/joseph-ayodele/audit-agent/constants"
)

// AuditFlag is one suspicious finding inside a verdict.
type AuditFlag struct {
	Category       string              `json:"category"`
	Severity       constants.Severity  `json:"severity"`
	Description    string              `json:"description"`
	Evidence       string              `json:"evidence,omitempty"`
	Confidence     float64             `json:"confidence"`
	AmountInvolved float64             `json:"amount_involved,omitempty"`
}

// AuditVerdict is the analyzer's structured risk assessment of one document.
// TotalFlaggedAmount is the analyzer's own figure and is carried as-is,
// never recomputed from the flags.
type AuditVerdict struct {
	RiskLevel          constants.RiskLevel `json:"risk_level"`
	Summary            string              `json:"summary"`
	Flags              []AuditFlag         `json:"list_of_flags"`
	Recommendations    []string            `json:"recommendations"`
	TotalFlaggedAmount float64             `json:"total_flagged_amount"`
	DocumentMetadata   map[string]any      `json:"document_metadata,omitempty"`
	Timestamp          time.Time           `json:"timestamp"`
}

// AnalyzeRequest carries one document into the analyzer.
type AnalyzeRequest struct {
	DocumentText string // normalized extracted text
	DocumentName string // original filename, prompt context only
	FileType     string // dotted suffix, e.g. ".pdf"
}

// DocumentAnalyzer is the interface the pipeline depends on.
type DocumentAnalyzer interface {
	AnalyzeDocument(ctx context.Context, req AnalyzeRequest) (AuditVerdict, error)
}
