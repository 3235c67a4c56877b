package mailer

import (
	"fmt"
	"html/template"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/audit-agent/constants"
)

const reportHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, Helvetica, sans-serif; color: #2c3e50; max-width: 720px; margin: 0 auto;">
  <h2 style="margin-bottom: 4px;">Document audit report</h2>
  <p style="margin-top: 0; color: #7f8c8d;">{{.DocumentName}}</p>

  <p>
    <span style="display: inline-block; padding: 4px 12px; border-radius: 4px; color: #fff; background-color: {{.RiskColor}}; font-weight: bold;">
      {{.RiskLevel}} risk
    </span>
    <span style="margin-left: 12px;">Total flagged amount: <strong>{{.Total}}</strong></span>
  </p>

  <h3>Summary</h3>
  <p>{{.Summary}}</p>

  {{if .Flags}}
  <h3>Flags ({{len .Flags}})</h3>
  <table border="1" cellpadding="6" cellspacing="0" style="border-collapse: collapse; width: 100%; font-size: 13px;">
    <tr style="background-color: #ecf0f1;">
      <th>Category</th><th>Severity</th><th>Description</th><th>Evidence</th><th>Confidence</th><th>Amount</th>
    </tr>
    {{range .Flags}}
    <tr>
      <td>{{.Category}}</td>
      <td>{{.Severity}}</td>
      <td>{{.Description}}</td>
      <td><em>{{.Evidence}}</em></td>
      <td>{{.Confidence}}</td>
      <td>{{.Amount}}</td>
    </tr>
    {{end}}
  </table>
  {{else}}
  <p>No flags were raised for this document.</p>
  {{end}}

  {{if .Recommendations}}
  <h3>Recommendations</h3>
  <ul>
    {{range .Recommendations}}<li>{{.}}</li>{{end}}
  </ul>
  {{end}}

  <p style="color: #95a5a6; font-size: 12px; margin-top: 24px;">Generated at {{.GeneratedAt}}. Full flag details are attached as a spreadsheet.</p>
</body>
</html>
`

var reportTmpl = template.Must(template.New("report").Parse(reportHTML))

type reportData struct {
	DocumentName    string
	RiskLevel       string
	RiskColor       string
	Summary         string
	Total           string
	Flags           []flagData
	Recommendations []string
	GeneratedAt     string
}

type flagData struct {
	Category    string
	Severity    string
	Description string
	Evidence    string
	Confidence  string
	Amount      string
}

func buildSubject(rep Report) string {
	return fmt.Sprintf("Audit report for %s: %s risk", rep.DocumentName, rep.Verdict.RiskLevel)
}

func buildHTMLBody(rep Report) (string, error) {
	v := rep.Verdict
	data := reportData{
		DocumentName:    rep.DocumentName,
		RiskLevel:       string(v.RiskLevel),
		RiskColor:       riskColor(v.RiskLevel),
		Summary:         v.Summary,
		Total:           fmt.Sprintf("%.2f", v.TotalFlaggedAmount),
		Recommendations: v.Recommendations,
		GeneratedAt:     v.Timestamp.Format("2006-01-02 15:04 MST"),
	}
	for _, fl := range v.Flags {
		fd := flagData{
			Category:    fl.Category,
			Severity:    string(fl.Severity),
			Description: fl.Description,
			Evidence:    fl.Evidence,
			Confidence:  fmt.Sprintf("%.2f", fl.Confidence),
		}
		if fl.AmountInvolved != 0 {
			fd.Amount = fmt.Sprintf("%.2f", fl.AmountInvolved)
		}
		data.Flags = append(data.Flags, fd)
	}

	var sb strings.Builder
	if err := reportTmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func buildTextBody(rep Report) string {
	v := rep.Verdict
	var sb strings.Builder
	fmt.Fprintf(&sb, "Document audit report: %s\n\n", rep.DocumentName)
	fmt.Fprintf(&sb, "Risk level: %s\n", v.RiskLevel)
	fmt.Fprintf(&sb, "Total flagged amount: %.2f\n\n", v.TotalFlaggedAmount)
	fmt.Fprintf(&sb, "Summary:\n%s\n", v.Summary)

	if len(v.Flags) > 0 {
		fmt.Fprintf(&sb, "\nFlags (%d):\n", len(v.Flags))
		for i, fl := range v.Flags {
			fmt.Fprintf(&sb, "%d. [%s] %s: %s\n", i+1, fl.Severity, fl.Category, fl.Description)
			if fl.Evidence != "" {
				fmt.Fprintf(&sb, "   evidence: %q\n", fl.Evidence)
			}
			if fl.AmountInvolved != 0 {
				fmt.Fprintf(&sb, "   amount: %.2f\n", fl.AmountInvolved)
			}
		}
	}

	if len(v.Recommendations) > 0 {
		sb.WriteString("\nRecommendations:\n")
		for _, r := range v.Recommendations {
			fmt.Fprintf(&sb, "- %s\n", r)
		}
	}
	return sb.String()
}

func riskColor(level constants.RiskLevel) string {
	switch level {
	case constants.RiskLow:
		return "#2ecc71"
	case constants.RiskMedium:
		return "#f39c12"
	default:
		return "#e74c3c"
	}
}

var reUnsafeAttachment = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func attachmentStem(filename string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	stem = reUnsafeAttachment.ReplaceAllString(stem, "_")
	stem = strings.Trim(stem, "._")
	if stem == "" {
		return "report"
	}
	return stem
}
