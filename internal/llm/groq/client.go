package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/audit-agent/internal/llm"
)

// AnalyzeDocument implements llm.DocumentAnalyzer over Groq's
// OpenAI-compatible chat/completions endpoint. The verdict is validated
// against the schema; on a first failure a lenient sanitize pass runs once
// and validation is retried before giving up.
func (c *Client) AnalyzeDocument(ctx context.Context, req llm.AnalyzeRequest) (llm.AuditVerdict, error) {
	rid := uuid.New().String()
	start := time.Now()

	if c.cfg.APIKey == "" {
		return llm.AuditVerdict{}, fmt.Errorf("groq api key not configured")
	}

	text, truncated := capChars(req.DocumentText, c.cfg.MaxChars)
	chars := utf8.RuneCountInString(text)

	c.log.Info("llm.analyze.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"document", req.DocumentName,
		"text_chars", chars,
		"truncated", truncated,
	)

	schema := llm.BuildVerdictJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": buildSystemPrompt()},
			{"role": "user", "content": buildUserPrompt(req, text)},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.log.Error("llm.analyze.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.AuditVerdict{}, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.analyze.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.AuditVerdict{}, fmt.Errorf("decode groq response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.analyze.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.AuditVerdict{}, fmt.Errorf("no choices in groq response")
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	if err := llm.ValidateJSONAgainstSchema(schema, content); err != nil {
		cleaned, notes, sErr := llm.SanitizeVerdictJSON(content)
		if sErr != nil {
			c.log.Error("llm.analyze.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.AuditVerdict{}, fmt.Errorf("sanitize verdict: %w", sErr)
		}
		if vErr := llm.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.log.Error("llm.analyze.schema_validation_failed",
				"req_id", rid, "error", vErr, "content", string(content),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.AuditVerdict{}, fmt.Errorf("verdict schema validation failed: %w", vErr)
		}
		c.log.Warn("llm.analyze.lenient_sanitize_applied",
			"req_id", rid, "notes", notes,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		content = cleaned
	}

	var verdict llm.AuditVerdict
	if err := json.Unmarshal(content, &verdict); err != nil {
		c.log.Error("llm.analyze.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.AuditVerdict{}, fmt.Errorf("unmarshal verdict: %w", err)
	}
	if verdict.Flags == nil {
		verdict.Flags = []llm.AuditFlag{}
	}
	if verdict.Recommendations == nil {
		verdict.Recommendations = []string{}
	}
	verdict.Timestamp = time.Now().UTC()
	verdict.DocumentMetadata = map[string]any{
		"model":      c.cfg.Model,
		"text_chars": chars,
		"truncated":  truncated,
	}

	c.log.Info("llm.analyze.ok",
		"req_id", rid,
		"risk_level", string(verdict.RiskLevel),
		"flags", len(verdict.Flags),
		"total_flagged_amount", verdict.TotalFlaggedAmount,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return verdict, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("groq http error: %w", err)
	}
	defer func(rc io.ReadCloser) {
		if err := rc.Close(); err != nil {
			c.log.Warn("groq response body close error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("groq status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

func buildSystemPrompt() string {
	parts := []string{
		"You are a meticulous public-expenditure fraud auditor. Return ONLY JSON that matches the provided JSON Schema.",
		"Examine the document for fraud, waste and abuse indicators: duplicate or inflated invoices, split purchases dodging approval thresholds, round-number patterns, missing authorizations, vendor irregularities, charges inconsistent with the stated purpose.",
		"Grade the document's overall risk_level as exactly one of Low, Medium, High.",
		"Flag category rubric: billing (duplicate/inflated/phantom charges); procurement (vendor selection, split purchases, bid irregularities); travel (per-diem or mileage abuse, personal expenses); payroll (ghost employees, unapproved overtime); documentation (missing receipts, altered records, unsupported figures); compliance (policy or threshold violations). Pick the narrowest category that fits.",
		"Every flag needs: category, severity (low|medium|high), a one-sentence description, verbatim evidence quoted from the document, and confidence between 0 and 1.",
		"Include amount_involved only when a concrete monetary amount is implicated; write plain numbers without currency symbols or separators.",
		"Set total_flagged_amount to the sum of the amounts you flagged; 0 when none.",
		"Write recommendations as short imperative actions an auditor can take next.",
		"Never output null. If a field is not present, omit it.",
	}
	return strings.Join(parts, " ")
}

func buildUserPrompt(req llm.AnalyzeRequest, text string) string {
	var b strings.Builder
	b.WriteString("Document: ")
	b.WriteString(strings.TrimSpace(req.DocumentName))
	if req.FileType != "" {
		b.WriteString(" (")
		b.WriteString(req.FileType)
		b.WriteString(")")
	}
	b.WriteString("\n\nDocument text:\n")
	b.WriteString(text)
	b.WriteString("\n\nReturn ONLY JSON that matches the provided schema.")
	return b.String()
}

// capChars truncates on rune boundaries.
func capChars(s string, max int) (string, bool) {
	if utf8.RuneCountInString(s) <= max {
		return s, false
	}
	runes := []rune(s)
	return string(runes[:max]), true
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
