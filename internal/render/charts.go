package render

import (
	"sort"

	"github.com/joseph-ayodele/audit-agent/constants"
	"github.com/joseph-ayodele/audit-agent/internal/llm"
)

const (
	chartSeverity = "severity_breakdown"
	chartAmounts  = "flagged_amounts"

	chartWidth  = 640
	chartHeight = 400
)

var severityColors = []string{"#2ecc71", "#f39c12", "#e74c3c"}

// chartSpec pairs a stable chart identifier with its Chart.js config.
type chartSpec struct {
	ID     string
	Config map[string]any
}

// buildChartSpecs maps a verdict onto the charts worth rendering. The
// severity breakdown is always produced; the per-category amount chart
// only when at least one flag carries a positive amount.
func buildChartSpecs(v *llm.AuditVerdict) []chartSpec {
	specs := []chartSpec{
		{ID: chartSeverity, Config: severityChart(v)},
	}
	if cfg := amountsChart(v); cfg != nil {
		specs = append(specs, chartSpec{ID: chartAmounts, Config: cfg})
	}
	return specs
}

func severityChart(v *llm.AuditVerdict) map[string]any {
	counts := make([]int, len(constants.Severities()))
	for _, fl := range v.Flags {
		if r := fl.Severity.Rank(); r >= 0 && r < len(counts) {
			counts[r]++
		}
	}

	labels := make([]string, 0, len(counts))
	for _, s := range constants.Severities() {
		labels = append(labels, string(s))
	}

	return map[string]any{
		"type": "doughnut",
		"data": map[string]any{
			"labels": labels,
			"datasets": []map[string]any{{
				"data":            counts,
				"backgroundColor": severityColors,
			}},
		},
		"options": map[string]any{
			"title": map[string]any{"display": true, "text": "Flag severity breakdown"},
		},
	}
}

func amountsChart(v *llm.AuditVerdict) map[string]any {
	byCategory := make(map[string]float64)
	for _, fl := range v.Flags {
		if fl.AmountInvolved > 0 {
			byCategory[fl.Category] += fl.AmountInvolved
		}
	}
	if len(byCategory) == 0 {
		return nil
	}

	labels := make([]string, 0, len(byCategory))
	for c := range byCategory {
		labels = append(labels, c)
	}
	sort.Strings(labels)

	amounts := make([]float64, 0, len(labels))
	for _, c := range labels {
		amounts = append(amounts, byCategory[c])
	}

	return map[string]any{
		"type": "bar",
		"data": map[string]any{
			"labels": labels,
			"datasets": []map[string]any{{
				"label":           "Flagged amount",
				"data":            amounts,
				"backgroundColor": "#e74c3c",
			}},
		},
		"options": map[string]any{
			"title":  map[string]any{"display": true, "text": "Flagged amount by category"},
			"legend": map[string]any{"display": false},
		},
	}
}
