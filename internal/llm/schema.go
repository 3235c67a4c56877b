package llm

import "github.com/joseph-ayodele/audit-agent/constants"

// BuildVerdictJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass this to the model as a structured output constraint
// and also use it locally to validate what comes back. document_metadata and
// timestamp are filled client-side, so they are not part of the model's
// contract.
func BuildVerdictJSONSchema() map[string]any {
	flag := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"category":        map[string]any{"type": "string", "minLength": 1},
			"severity":        map[string]any{"type": "string", "enum": constants.Severities()},
			"description":     map[string]any{"type": "string"},
			"evidence":        map[string]any{"type": "string"},
			"confidence":      map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"amount_involved": map[string]any{"type": "number"},
		},
		"required": []string{"category", "severity", "description"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"risk_level":           map[string]any{"type": "string", "enum": constants.RiskLevels()},
			"summary":              map[string]any{"type": "string", "minLength": 1},
			"list_of_flags":        map[string]any{"type": "array", "items": flag},
			"recommendations":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"total_flagged_amount": map[string]any{"type": "number"},
		},
		"required": []string{"risk_level", "summary"},
	}
}
