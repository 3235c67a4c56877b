package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/audit-agent/constants"
	"github.com/joseph-ayodele/audit-agent/internal/common"
	"github.com/joseph-ayodele/audit-agent/internal/extract"
	"github.com/joseph-ayodele/audit-agent/internal/llm"
	"github.com/joseph-ayodele/audit-agent/internal/mailer"
)

// Analysis is the analysis sub-object of the pipeline result. Visualizations
// and EmailSent serialize as null when the stage was skipped or degraded.
type Analysis struct {
	RiskLevel          constants.RiskLevel     `json:"risk_level"`
	Summary            string                  `json:"summary"`
	Flags              []llm.AuditFlag         `json:"list_of_flags"`
	Recommendations    []string                `json:"recommendations"`
	TotalFlaggedAmount float64                 `json:"total_flagged_amount"`
	DocumentMetadata   map[string]any          `json:"document_metadata"`
	Timestamp          time.Time               `json:"timestamp"`
	Visualizations     map[string]string       `json:"visualizations"`
	EmailSent          *mailer.DeliveryOutcome `json:"email_sent"`
}

// Result is the sole object returned to the caller. Built once per run,
// never mutated after assembly.
type Result struct {
	Filename            string   `json:"filename"`
	FileType            string   `json:"file_type"`
	FileSizeBytes       int64    `json:"file_size_bytes"`
	ExtractedTextLength int      `json:"extracted_text_length"`
	Analysis            Analysis `json:"analysis"`
}

// assemble merges extraction metadata, the verdict and the optional stage
// outcomes. The verdict's own document_metadata is carried over and
// overlaid with the upload's facts.
func assemble(up Upload, ex extract.Result, v *llm.AuditVerdict, viz map[string]string, delivery *mailer.DeliveryOutcome) (*Result, error) {
	if v == nil {
		return nil, common.AssemblyError("Failed to format response", fmt.Errorf("missing analysis verdict"))
	}

	fileType := strings.ToLower(filepath.Ext(up.Filename))

	meta := metadataFrom(v, map[string]any{
		"original_filename":    up.Filename,
		"file_type":            fileType,
		"file_size_bytes":      len(up.Content),
		"extraction_timestamp": ex.ExtractedAt.UTC().Format(time.RFC3339),
	})

	return &Result{
		Filename:            up.Filename,
		FileType:            fileType,
		FileSizeBytes:       int64(len(up.Content)),
		ExtractedTextLength: ex.Chars,
		Analysis:            buildAnalysis(v, meta, viz, delivery),
	}, nil
}

// metadataFrom copies the verdict's own metadata and overlays the caller's
// facts on top.
func metadataFrom(v *llm.AuditVerdict, overlay map[string]any) map[string]any {
	meta := make(map[string]any, len(v.DocumentMetadata)+len(overlay))
	for k, val := range v.DocumentMetadata {
		meta[k] = val
	}
	for k, val := range overlay {
		meta[k] = val
	}
	return meta
}

func buildAnalysis(v *llm.AuditVerdict, meta map[string]any, viz map[string]string, delivery *mailer.DeliveryOutcome) Analysis {
	flags := v.Flags
	if flags == nil {
		flags = []llm.AuditFlag{}
	}
	recs := v.Recommendations
	if recs == nil {
		recs = []string{}
	}

	ts := v.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return Analysis{
		RiskLevel:          v.RiskLevel,
		Summary:            v.Summary,
		Flags:              flags,
		Recommendations:    recs,
		TotalFlaggedAmount: v.TotalFlaggedAmount,
		DocumentMetadata:   meta,
		Timestamp:          ts,
		Visualizations:     viz,
		EmailSent:          delivery,
	}
}
