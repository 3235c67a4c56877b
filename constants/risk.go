package constants

import "strings"

// RiskLevel is the overall verdict level for an audited document.
type RiskLevel string

// Ordered from least to most severe.
const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

var allRiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh}

// RiskLevels returns the verdict levels as strings, least severe first.
func RiskLevels() []string {
	result := make([]string, len(allRiskLevels))
	for i, lvl := range allRiskLevels {
		result[i] = string(lvl)
	}
	return result
}

// Rank orders risk levels: Low=0, Medium=1, High=2, unknown=-1.
func (r RiskLevel) Rank() int {
	for i, lvl := range allRiskLevels {
		if r == lvl {
			return i
		}
	}
	return -1
}

// ParseRiskLevel canonicalizes a free-form level label. Unrecognized input
// maps to RiskHigh so a garbled verdict is never silently downgraded.
func ParseRiskLevel(input string) (RiskLevel, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, lvl := range allRiskLevels {
		if normalized == strings.ToLower(string(lvl)) {
			return lvl, true
		}
	}
	return RiskHigh, false
}

// Severity grades a single flag within a verdict.
type Severity string

// Stable values (these exact strings travel through the JSON contract).
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

var allSeverities = []Severity{SeverityLow, SeverityMedium, SeverityHigh}

// Severities returns the flag severities as strings, least severe first.
func Severities() []string {
	result := make([]string, len(allSeverities))
	for i, s := range allSeverities {
		result[i] = string(s)
	}
	return result
}

// Rank orders severities: low=0, medium=1, high=2, unknown=-1.
func (s Severity) Rank() int {
	for i, sev := range allSeverities {
		if s == sev {
			return i
		}
	}
	return -1
}

// ParseSeverity canonicalizes a free-form severity label. Unrecognized input
// maps to SeverityMedium.
func ParseSeverity(input string) (Severity, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, sev := range allSeverities {
		if normalized == strings.ToLower(string(sev)) {
			return sev, true
		}
	}
	return SeverityMedium, false
}
