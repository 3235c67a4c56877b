package llm

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/audit-agent/constants"
)

// SanitizeVerdictJSON removes or normalizes fields that do not meet the
// strict schema so an otherwise-usable verdict can still validate:
// - risk_level/severity labels canonicalized (unknown risk escalates)
// - confidence clamped to [0,1], numeric strings parsed
// - money values coerced to plain numbers ("$1,200.50" -> 1200.5)
// - missing lists defaulted, malformed flags dropped
// - unknown keys removed (additionalProperties = false friendliness)
// It never recomputes total_flagged_amount from the flags; the analyzer's
// figure stands.
func SanitizeVerdictJSON(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var notes []string

	if v, ok := m["risk_level"].(string); ok {
		lvl, known := constants.ParseRiskLevel(v)
		m["risk_level"] = string(lvl)
		if !known {
			notes = append(notes, "risk_level(coerced)")
		}
	}

	if v, ok := m["summary"].(string); ok {
		m["summary"] = strings.TrimSpace(v)
	}

	switch raw := m["list_of_flags"].(type) {
	case []any:
		flags := make([]any, 0, len(raw))
		for _, item := range raw {
			fm, ok := item.(map[string]any)
			if !ok {
				notes = append(notes, "flag(dropped)")
				continue
			}
			sanitizeFlag(fm, &notes)
			flags = append(flags, fm)
		}
		m["list_of_flags"] = flags
	case nil:
		m["list_of_flags"] = []any{}
	default:
		m["list_of_flags"] = []any{}
		notes = append(notes, "list_of_flags(reset)")
	}

	switch raw := m["recommendations"].(type) {
	case []any:
		recs := make([]any, 0, len(raw))
		for _, item := range raw {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				recs = append(recs, strings.TrimSpace(s))
			} else {
				notes = append(notes, "recommendation(dropped)")
			}
		}
		m["recommendations"] = recs
	case nil:
		m["recommendations"] = []any{}
	default:
		m["recommendations"] = []any{}
		notes = append(notes, "recommendations(reset)")
	}

	if v, present := m["total_flagged_amount"]; present {
		if f, ok := parseAmount(v); ok {
			m["total_flagged_amount"] = f
		} else {
			m["total_flagged_amount"] = 0.0
			notes = append(notes, "total_flagged_amount(reset)")
		}
	} else {
		m["total_flagged_amount"] = 0.0
	}

	allowed := map[string]struct{}{
		"risk_level": {}, "summary": {}, "list_of_flags": {},
		"recommendations": {}, "total_flagged_amount": {},
	}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			notes = append(notes, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, notes, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, notes, nil
}

func sanitizeFlag(fm map[string]any, notes *[]string) {
	if v, ok := fm["severity"].(string); ok {
		sev, known := constants.ParseSeverity(v)
		fm["severity"] = string(sev)
		if !known {
			*notes = append(*notes, "severity(coerced)")
		}
	} else {
		fm["severity"] = string(constants.SeverityMedium)
		*notes = append(*notes, "severity(defaulted)")
	}

	if v, present := fm["confidence"]; present {
		if f, ok := parseAmount(v); ok {
			fm["confidence"] = clamp01(f)
		} else {
			delete(fm, "confidence")
			*notes = append(*notes, "confidence(dropped)")
		}
	}

	if v, present := fm["amount_involved"]; present {
		if f, ok := parseAmount(v); ok {
			fm["amount_involved"] = f
		} else {
			delete(fm, "amount_involved")
			*notes = append(*notes, "amount_involved(dropped)")
		}
	}

	for _, k := range []string{"category", "description", "evidence"} {
		if v, ok := fm[k].(string); ok {
			fm[k] = strings.TrimSpace(v)
		}
	}
	if s, ok := fm["category"].(string); !ok || s == "" {
		fm["category"] = "unclassified"
		*notes = append(*notes, "category(defaulted)")
	}
	if _, ok := fm["description"].(string); !ok {
		fm["description"] = ""
		*notes = append(*notes, "description(defaulted)")
	}

	allowed := map[string]struct{}{
		"category": {}, "severity": {}, "description": {},
		"evidence": {}, "confidence": {}, "amount_involved": {},
	}
	for k := range maps.Clone(fm) {
		if _, ok := allowed[k]; !ok {
			delete(fm, k)
			*notes = append(*notes, "flag."+k+"(unknown)")
		}
	}
}

// parseAmount accepts JSON numbers plus the usual model slop for money
// ("$1,200.50", "1200 USD").
func parseAmount(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		s = strings.NewReplacer("$", "", ",", "", "USD", "", " ", "").Replace(s)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
