package llm

import "github.com/joseph-ayodele/inspection-wizard/constants"

// BuildIdentityJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// It is sent to the model as a structured output constraint and used locally to validate.
func BuildIdentityJSONSchema() map[string]any {
	props := map[string]any{
		"full_name":       map[string]any{"type": "string"},
		"first_name":      map[string]any{"type": "string"},
		"last_name":       map[string]any{"type": "string"},
		"document_number": map[string]any{"type": "string"},
		"birth_date":      dateProp(),
		"expiry_date":     dateProp(),
		"sex":             map[string]any{"type": "string", "enum": []string{"M", "F", "X"}},
		"nationality":     map[string]any{"type": "string"},
		"address":         map[string]any{"type": "string"},
		"confidence":      map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

// BuildDamageJSONSchema returns the schema of a damage analysis.
func BuildDamageJSONSchema() map[string]any {
	finding := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"part":              map[string]any{"type": "string", "minLength": 1},
			"type":              map[string]any{"type": "string", "minLength": 1},
			"severity":          map[string]any{"type": "string", "enum": severities()},
			"structural_impact": map[string]any{"type": "boolean"},
			"mechanical_impact": map[string]any{"type": "boolean"},
			"safety_impact":     map[string]any{"type": "boolean"},
			"confidence":        map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
		"required": []string{"part", "type", "severity"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"findings": map[string]any{"type": "array", "items": finding},
			"summary":  map[string]any{"type": "string"},
		},
		"required": []string{"findings"},
	}
}

func dateProp() map[string]any {
	return map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`}
}

func severities() []string {
	return []string{string(constants.SeverityMinor), string(constants.SeverityModerate), string(constants.SeveritySevere)}
}
