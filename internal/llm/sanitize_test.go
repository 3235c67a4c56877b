package llm

import (
	"encoding/json"
	"slices"
	"testing"
)

func sanitizeToMap(t *testing.T, doc string) (map[string]any, []string) {
	t.Helper()
	out, notes, err := SanitizeVerdictJSON([]byte(doc))
	if err != nil {
		t.Fatalf("SanitizeVerdictJSON() = %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("decode sanitized doc: %v", err)
	}
	return m, notes
}

func firstFlag(t *testing.T, m map[string]any) map[string]any {
	t.Helper()
	flags, ok := m["list_of_flags"].([]any)
	if !ok || len(flags) == 0 {
		t.Fatalf("list_of_flags = %v, want at least one flag", m["list_of_flags"])
	}
	fm, ok := flags[0].(map[string]any)
	if !ok {
		t.Fatalf("flag[0] = %T, want object", flags[0])
	}
	return fm
}

func TestSanitizeCleanVerdictUnchanged(t *testing.T) {
	doc := `{
		"risk_level": "Medium",
		"summary": "Two anomalies found.",
		"list_of_flags": [{
			"category": "billing",
			"severity": "high",
			"description": "Duplicate invoice.",
			"evidence": "Invoice #4417 twice.",
			"confidence": 0.9,
			"amount_involved": 1200.5
		}],
		"recommendations": ["Request original receipts."],
		"total_flagged_amount": 1200.5
	}`
	m, notes := sanitizeToMap(t, doc)

	if len(notes) != 0 {
		t.Errorf("notes = %v, want none for a clean verdict", notes)
	}
	if m["risk_level"] != "Medium" {
		t.Errorf("risk_level = %v, want Medium", m["risk_level"])
	}
	if m["total_flagged_amount"] != 1200.5 {
		t.Errorf("total_flagged_amount = %v, want 1200.5", m["total_flagged_amount"])
	}
	fm := firstFlag(t, m)
	if fm["confidence"] != 0.9 || fm["amount_involved"] != 1200.5 {
		t.Errorf("flag numerics = %v/%v, want 0.9/1200.5", fm["confidence"], fm["amount_involved"])
	}
}

func TestSanitizeRiskLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		want     string
		wantNote bool
	}{
		{name: "known lowercase", level: "high", want: "High"},
		{name: "unknown escalates", level: "catastrophic", want: "High", wantNote: true},
		{name: "empty escalates", level: "", want: "High", wantNote: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `{"risk_level": "` + tt.level + `", "summary": "s"}`
			m, notes := sanitizeToMap(t, doc)
			if m["risk_level"] != tt.want {
				t.Errorf("risk_level = %v, want %v", m["risk_level"], tt.want)
			}
			if got := slices.Contains(notes, "risk_level(coerced)"); got != tt.wantNote {
				t.Errorf("coercion note present = %v, want %v (notes %v)", got, tt.wantNote, notes)
			}
		})
	}
}

func TestSanitizeFlagFields(t *testing.T) {
	doc := `{
		"risk_level": "Low",
		"summary": "s",
		"list_of_flags": [{
			"category": "  billing  ",
			"severity": "CRITICAL",
			"description": "dup",
			"confidence": "0.85",
			"amount_involved": "$1,200.50",
			"reasoning": "model chatter"
		}]
	}`
	m, notes := sanitizeToMap(t, doc)
	fm := firstFlag(t, m)

	if fm["category"] != "billing" {
		t.Errorf("category = %v, want trimmed billing", fm["category"])
	}
	if fm["severity"] != "medium" {
		t.Errorf("severity = %v, want medium for unknown label", fm["severity"])
	}
	if fm["confidence"] != 0.85 {
		t.Errorf("confidence = %v, want parsed 0.85", fm["confidence"])
	}
	if fm["amount_involved"] != 1200.5 {
		t.Errorf("amount_involved = %v, want 1200.5", fm["amount_involved"])
	}
	if _, present := fm["reasoning"]; present {
		t.Error("unknown flag key survived sanitize")
	}
	for _, note := range []string{"severity(coerced)", "flag.reasoning(unknown)"} {
		if !slices.Contains(notes, note) {
			t.Errorf("notes %v missing %q", notes, note)
		}
	}
}

func TestSanitizeFlagDefaults(t *testing.T) {
	doc := `{"risk_level": "Low", "summary": "s", "list_of_flags": [{"evidence": "e"}]}`
	m, notes := sanitizeToMap(t, doc)
	fm := firstFlag(t, m)

	if fm["severity"] != "medium" {
		t.Errorf("severity = %v, want defaulted medium", fm["severity"])
	}
	if fm["category"] != "unclassified" {
		t.Errorf("category = %v, want unclassified", fm["category"])
	}
	if fm["description"] != "" {
		t.Errorf("description = %v, want empty string", fm["description"])
	}
	for _, note := range []string{"severity(defaulted)", "category(defaulted)", "description(defaulted)"} {
		if !slices.Contains(notes, note) {
			t.Errorf("notes %v missing %q", notes, note)
		}
	}
}

func TestSanitizeConfidenceClamped(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{name: "above one", raw: "1.7", want: 1},
		{name: "negative", raw: "-0.2", want: 0},
		{name: "in range", raw: "0.42", want: 0.42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `{"risk_level": "Low", "summary": "s",
				"list_of_flags": [{"category": "c", "severity": "low", "description": "d", "confidence": ` + tt.raw + `}]}`
			m, _ := sanitizeToMap(t, doc)
			fm := firstFlag(t, m)
			if fm["confidence"] != tt.want {
				t.Errorf("confidence = %v, want %v", fm["confidence"], tt.want)
			}
		})
	}
}

func TestSanitizeUnparsableNumericsDropped(t *testing.T) {
	doc := `{"risk_level": "Low", "summary": "s",
		"list_of_flags": [{"category": "c", "severity": "low", "description": "d",
			"confidence": "very sure", "amount_involved": true}]}`
	m, notes := sanitizeToMap(t, doc)
	fm := firstFlag(t, m)

	if _, present := fm["confidence"]; present {
		t.Error("unparsable confidence survived")
	}
	if _, present := fm["amount_involved"]; present {
		t.Error("boolean amount_involved survived")
	}
	for _, note := range []string{"confidence(dropped)", "amount_involved(dropped)"} {
		if !slices.Contains(notes, note) {
			t.Errorf("notes %v missing %q", notes, note)
		}
	}
}

func TestSanitizeTotalFlaggedAmount(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want float64
	}{
		{
			name: "missing defaults to zero",
			doc:  `{"risk_level": "Low", "summary": "s"}`,
			want: 0,
		},
		{
			name: "money string parsed",
			doc:  `{"risk_level": "Low", "summary": "s", "total_flagged_amount": "$14,260.50"}`,
			want: 14260.5,
		},
		{
			name: "usd suffix parsed",
			doc:  `{"risk_level": "Low", "summary": "s", "total_flagged_amount": "1200 USD"}`,
			want: 1200,
		},
		{
			name: "unparsable resets to zero",
			doc:  `{"risk_level": "Low", "summary": "s", "total_flagged_amount": "unknown"}`,
			want: 0,
		},
		{
			name: "never recomputed from flags",
			doc: `{"risk_level": "Low", "summary": "s", "total_flagged_amount": 10,
				"list_of_flags": [{"category": "c", "severity": "low", "description": "d", "amount_involved": 999}]}`,
			want: 10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := sanitizeToMap(t, tt.doc)
			if m["total_flagged_amount"] != tt.want {
				t.Errorf("total_flagged_amount = %v, want %v", m["total_flagged_amount"], tt.want)
			}
		})
	}
}

func TestSanitizeListShapes(t *testing.T) {
	doc := `{"risk_level": "Low", "summary": "s",
		"list_of_flags": ["not an object", {"category": "c", "severity": "low", "description": "d"}],
		"recommendations": ["  keep me  ", 42, ""]}`
	m, notes := sanitizeToMap(t, doc)

	flags := m["list_of_flags"].([]any)
	if len(flags) != 1 {
		t.Errorf("len(list_of_flags) = %d, want 1 after dropping non-object", len(flags))
	}
	recs := m["recommendations"].([]any)
	if len(recs) != 1 || recs[0] != "keep me" {
		t.Errorf("recommendations = %v, want [keep me]", recs)
	}
	for _, note := range []string{"flag(dropped)", "recommendation(dropped)"} {
		if !slices.Contains(notes, note) {
			t.Errorf("notes %v missing %q", notes, note)
		}
	}
}

func TestSanitizeWrongTypedListsReset(t *testing.T) {
	doc := `{"risk_level": "Low", "summary": "s", "list_of_flags": "none", "recommendations": {"a": 1}}`
	m, notes := sanitizeToMap(t, doc)

	if flags := m["list_of_flags"].([]any); len(flags) != 0 {
		t.Errorf("list_of_flags = %v, want empty", flags)
	}
	if recs := m["recommendations"].([]any); len(recs) != 0 {
		t.Errorf("recommendations = %v, want empty", recs)
	}
	for _, note := range []string{"list_of_flags(reset)", "recommendations(reset)"} {
		if !slices.Contains(notes, note) {
			t.Errorf("notes %v missing %q", notes, note)
		}
	}
}

func TestSanitizeRemovesUnknownTopLevelKeys(t *testing.T) {
	doc := `{"risk_level": "Low", "summary": "s", "chain_of_thought": "...", "model": "x"}`
	m, notes := sanitizeToMap(t, doc)

	for _, k := range []string{"chain_of_thought", "model"} {
		if _, present := m[k]; present {
			t.Errorf("unknown key %q survived sanitize", k)
		}
		if !slices.Contains(notes, k+"(unknown)") {
			t.Errorf("notes %v missing %q", notes, k+"(unknown)")
		}
	}
}

func TestSanitizeInvalidJSON(t *testing.T) {
	if _, _, err := SanitizeVerdictJSON([]byte(`{"risk_level": `)); err == nil {
		t.Fatal("SanitizeVerdictJSON(truncated) = nil, want error")
	}
}

func TestSanitizedVerdictValidates(t *testing.T) {
	// the messy document every lenient rule fires on must end up schema-clean
	doc := `{
		"risk_level": "severe",
		"summary": "  Misc findings.  ",
		"list_of_flags": [
			"garbage",
			{"category": "", "severity": "urgent", "confidence": "1.3", "amount_involved": "$99", "extra": 1}
		],
		"recommendations": [17, "Review the vendor."],
		"total_flagged_amount": "99 USD",
		"debug": {}
	}`
	out, _, err := SanitizeVerdictJSON([]byte(doc))
	if err != nil {
		t.Fatalf("SanitizeVerdictJSON() = %v", err)
	}
	if err := ValidateJSONAgainstSchema(BuildVerdictJSONSchema(), out); err != nil {
		t.Errorf("sanitized document fails schema validation: %v", err)
	}
}
